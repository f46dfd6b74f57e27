package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/blobs-io/blobs.live/internal/api/models"
	"github.com/blobs-io/blobs.live/internal/api/response"
	"github.com/blobs-io/blobs.live/internal/api/service"
	"github.com/blobs-io/blobs.live/internal/captcha"
)

// UserController handles account-related HTTP requests.
type UserController struct {
	userService service.UserService
	captchas    *captcha.Store
}

// NewUserController creates a new UserController.
func NewUserController(userService service.UserService, captchas *captcha.Store) *UserController {
	return &UserController{
		userService: userService,
		captchas:    captchas,
	}
}

// Register handles the account registration endpoint.
func (uc *UserController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := uc.userService.Register(c.Request.Context(), &req); err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			response.ErrorResponse(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInvalidUsername), errors.Is(err, service.ErrInvalidCaptcha):
			response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		default:
			response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	response.SuccessResponse(c, gin.H{"message": "Account successfully created!"})
}

// Login handles the login endpoint.
func (uc *UserController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := uc.userService.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.ErrorResponse(c, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrBanned):
			response.ErrorResponse(c, http.StatusForbidden, err.Error())
		default:
			response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	response.SuccessResponse(c, resp)
}

// GuestLogin handles guest login, returning a generated guest identity.
func (uc *UserController) GuestLogin(c *gin.Context) {
	name, err := uc.userService.GuestLogin(c.Request.Context())
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.SuccessResponse(c, gin.H{"guest": name})
}

// Captcha issues a fresh challenge for registration.
func (uc *UserController) Captcha(c *gin.Context) {
	challenge := uc.captchas.Issue()
	response.SuccessResponse(c, gin.H{"id": challenge.ID, "captcha": challenge.Value})
}

// DailyBonus claims the daily coin bonus for the authenticated account.
func (uc *UserController) DailyBonus(c *gin.Context) {
	username := c.GetString("username")
	coins, err := uc.userService.ClaimDailyBonus(c.Request.Context(), username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDailyAlreadyUsed):
			response.ErrorResponse(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInvalidCredentials):
			response.ErrorResponse(c, http.StatusUnauthorized, err.Error())
		default:
			response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		}
		return
	}
	response.SuccessResponse(c, gin.H{"coins": coins})
}

// AuthRequired parses the Bearer token and stores the username in the context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			response.ErrorResponse(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}
		username, err := service.ParseToken(tokenString)
		if err != nil {
			response.ErrorResponse(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Set("username", username)
		c.Next()
	}
}
