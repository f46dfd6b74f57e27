package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/blobs-io/blobs.live/internal/api/models"
	"github.com/blobs-io/blobs.live/internal/captcha"
)

type fakeAccounts struct {
	accounts map[string]*models.Account
	banned   map[string]bool
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: make(map[string]*models.Account), banned: make(map[string]bool)}
}

func (f *fakeAccounts) CreateAccount(ctx context.Context, username, passwordHash string) error {
	f.accounts[username] = &models.Account{Username: username, PasswordHash: passwordHash}
	return nil
}

func (f *fakeAccounts) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return f.accounts[username], nil
}

func (f *fakeAccounts) IncrementRating(ctx context.Context, username string, n int) error {
	f.accounts[username].BR += n
	return nil
}

func (f *fakeAccounts) UpdateDailyBonus(ctx context.Context, username string, usedAt time.Time, coins int) error {
	account := f.accounts[username]
	account.Blobcoins += coins
	account.LastDailyUsage = sql.NullString{String: usedAt.Format(time.RFC3339), Valid: true}
	return nil
}

func (f *fakeAccounts) IsBanned(ctx context.Context, username string) (bool, error) {
	return f.banned[username], nil
}

type fakeSessions struct {
	sessions map[string]*models.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]*models.Session)}
}

func (f *fakeSessions) Create(ctx context.Context, username, sessionID string, expires time.Time) error {
	f.sessions[sessionID] = &models.Session{Username: username, SessionID: sessionID}
	return nil
}

func (f *fakeSessions) Lookup(ctx context.Context, sessionID string) (*models.Session, error) {
	return f.sessions[sessionID], nil
}

func (f *fakeSessions) Delete(ctx context.Context, sessionID string) error {
	delete(f.sessions, sessionID)
	return nil
}

func newTestService() (UserService, *fakeAccounts, *fakeSessions, *captcha.Store) {
	accounts := newFakeAccounts()
	sessions := newFakeSessions()
	captchas := captcha.NewStore()
	return NewUserService(accounts, sessions, captchas), accounts, sessions, captchas
}

func solvedCaptcha(captchas *captcha.Store) (string, string) {
	c := captchas.Issue()
	return c.ID, c.Value
}

func TestUserService_Register(t *testing.T) {
	svc, accounts, _, captchas := newTestService()
	ctx := context.Background()

	id, value := solvedCaptcha(captchas)
	err := svc.Register(ctx, &models.RegisterRequest{
		Username:  "blobmaster",
		Password:  "hunter2x",
		CaptchaID: id,
		Captcha:   value,
	})
	require.NoError(t, err)

	account := accounts.accounts["blobmaster"]
	require.NotNil(t, account)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("hunter2x")))
}

func TestUserService_RegisterRejectsBadCharset(t *testing.T) {
	svc, _, _, captchas := newTestService()

	id, value := solvedCaptcha(captchas)
	err := svc.Register(context.Background(), &models.RegisterRequest{
		Username:  "bad!name",
		Password:  "hunter2x",
		CaptchaID: id,
		Captcha:   value,
	})
	assert.ErrorIs(t, err, ErrInvalidUsername)
}

func TestUserService_RegisterRejectsWrongCaptcha(t *testing.T) {
	svc, _, _, captchas := newTestService()

	id, _ := solvedCaptcha(captchas)
	err := svc.Register(context.Background(), &models.RegisterRequest{
		Username:  "blobmaster",
		Password:  "hunter2x",
		CaptchaID: id,
		Captcha:   "WRONG!",
	})
	assert.ErrorIs(t, err, ErrInvalidCaptcha)
}

func TestUserService_RegisterRejectsTakenUsername(t *testing.T) {
	svc, accounts, _, captchas := newTestService()
	accounts.accounts["blobmaster"] = &models.Account{Username: "blobmaster"}

	id, value := solvedCaptcha(captchas)
	err := svc.Register(context.Background(), &models.RegisterRequest{
		Username:  "blobmaster",
		Password:  "hunter2x",
		CaptchaID: id,
		Captcha:   value,
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func registerAccount(t *testing.T, svc UserService, captchas *captcha.Store, username, password string) {
	t.Helper()
	id, value := solvedCaptcha(captchas)
	require.NoError(t, svc.Register(context.Background(), &models.RegisterRequest{
		Username:  username,
		Password:  password,
		CaptchaID: id,
		Captcha:   value,
	}))
}

func TestUserService_Login(t *testing.T) {
	svc, _, sessions, captchas := newTestService()
	registerAccount(t, svc, captchas, "blobmaster", "hunter2x")

	resp, err := svc.Login(context.Background(), &models.LoginRequest{Username: "blobmaster", Password: "hunter2x"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.Session)

	// The session must be stored for the LOBBY_CREATE handoff.
	session, err := sessions.Lookup(context.Background(), resp.Session)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "blobmaster", session.Username)

	// And the JWT must resolve back to the account.
	username, err := ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "blobmaster", username)
}

func TestUserService_LoginRejectsWrongPassword(t *testing.T) {
	svc, _, _, captchas := newTestService()
	registerAccount(t, svc, captchas, "blobmaster", "hunter2x")

	_, err := svc.Login(context.Background(), &models.LoginRequest{Username: "blobmaster", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), &models.LoginRequest{Username: "nobody", Password: "hunter2x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_LoginRejectsBanned(t *testing.T) {
	svc, accounts, _, captchas := newTestService()
	registerAccount(t, svc, captchas, "blobmaster", "hunter2x")
	accounts.banned["blobmaster"] = true

	_, err := svc.Login(context.Background(), &models.LoginRequest{Username: "blobmaster", Password: "hunter2x"})
	assert.ErrorIs(t, err, ErrBanned)
}

func TestUserService_GuestLogin(t *testing.T) {
	svc, _, _, _ := newTestService()

	name, err := svc.GuestLogin(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `^Guest-[0-9a-f]{8}$`, name)
}

func TestUserService_ClaimDailyBonus(t *testing.T) {
	svc, accounts, _, captchas := newTestService()
	registerAccount(t, svc, captchas, "blobmaster", "hunter2x")

	coins, err := svc.ClaimDailyBonus(context.Background(), "blobmaster")
	require.NoError(t, err)
	assert.Equal(t, dailyBonusCoins, coins)
	assert.Equal(t, dailyBonusCoins, accounts.accounts["blobmaster"].Blobcoins)

	// A second claim inside the window is rejected.
	_, err = svc.ClaimDailyBonus(context.Background(), "blobmaster")
	assert.ErrorIs(t, err, ErrDailyAlreadyUsed)

	// An old claim timestamp allows a fresh one.
	accounts.accounts["blobmaster"].LastDailyUsage = sql.NullString{
		String: time.Now().Add(-25 * time.Hour).Format(time.RFC3339),
		Valid:  true,
	}
	coins, err = svc.ClaimDailyBonus(context.Background(), "blobmaster")
	require.NoError(t, err)
	assert.Equal(t, dailyBonusCoins, coins)
}

func TestParseToken_RejectsGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
