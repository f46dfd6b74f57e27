package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/blobs-io/blobs.live/internal/api/models"
	"github.com/blobs-io/blobs.live/internal/api/repository"
	"github.com/blobs-io/blobs.live/internal/captcha"
)

// Note: In a real deployment this should be loaded from a secure configuration.
var jwtSecret = []byte("blobs_super_secret_key")

const (
	sessionLifetime = 7 * 24 * time.Hour
	tokenLifetime   = 72 * time.Hour
	dailyBonusCoins = 300
	dailyBonusEvery = 24 * time.Hour
)

var usernamePattern = regexp.MustCompile(`^[\w ]+$`)

// Service-level failures the controller maps to HTTP status codes.
var (
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidUsername    = errors.New("username should only contain A-Za-z0-9_ ")
	ErrInvalidCaptcha     = errors.New("captcha is not correct")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrBanned             = errors.New("account is banned")
	ErrDailyAlreadyUsed   = errors.New("daily bonus already claimed")
)

// UserService defines the interface for account-related business logic.
type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) error
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GuestLogin(ctx context.Context) (string, error)
	ClaimDailyBonus(ctx context.Context, username string) (int, error)
}

type userService struct {
	accounts repository.AccountRepository
	sessions repository.SessionRepository
	captchas *captcha.Store
}

// NewUserService creates a new UserService.
func NewUserService(accounts repository.AccountRepository, sessions repository.SessionRepository, captchas *captcha.Store) UserService {
	return &userService{accounts: accounts, sessions: sessions, captchas: captchas}
}

// Register handles account registration. Length bounds are enforced by the
// request binding; charset and captcha checks happen here.
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) error {
	if !usernamePattern.MatchString(req.Username) {
		return ErrInvalidUsername
	}
	if !s.captchas.Verify(req.CaptchaID, req.Captcha) {
		return ErrInvalidCaptcha
	}

	existing, err := s.accounts.GetByUsername(ctx, req.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.accounts.CreateAccount(ctx, req.Username, string(hash))
}

// Login verifies credentials and returns a JWT plus a one-shot session ID the
// game socket presents via LOBBY_CREATE.
func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	account, err := s.accounts.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}

	banned, err := s.accounts.IsBanned(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, ErrBanned
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	sessionID := uuid.New().String()
	if err := s.sessions.Create(ctx, account.Username, sessionID, time.Now().Add(sessionLifetime)); err != nil {
		return nil, err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": account.Username,
		"sid": sessionID,
		"exp": time.Now().Add(tokenLifetime).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{Token: tokenString, Session: sessionID}, nil
}

// GuestLogin generates an identity for a guest player. Guests have no durable
// identity, so nothing is persisted.
func (s *userService) GuestLogin(ctx context.Context) (string, error) {
	return "Guest-" + uuid.New().String()[:8], nil
}

// ClaimDailyBonus credits the daily coins if the last claim is old enough.
func (s *userService) ClaimDailyBonus(ctx context.Context, username string) (int, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, ErrInvalidCredentials
	}

	if account.LastDailyUsage.Valid {
		last, err := time.Parse(time.RFC3339, account.LastDailyUsage.String)
		if err == nil && time.Since(last) < dailyBonusEvery {
			return 0, ErrDailyAlreadyUsed
		}
	}

	if err := s.accounts.UpdateDailyBonus(ctx, username, time.Now(), dailyBonusCoins); err != nil {
		return 0, err
	}
	return dailyBonusCoins, nil
}

// ParseToken validates a JWT and returns the username it was issued to.
func ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidCredentials
	}
	username, _ := claims["sub"].(string)
	if username == "" {
		return "", ErrInvalidCredentials
	}
	return username, nil
}
