package models

import "database/sql"

// Account represents a registered account in the database.
type Account struct {
	Username       string         `db:"username"`
	PasswordHash   string         `db:"password_hash"`
	BR             int            `db:"br"`
	Blobcoins      int            `db:"blobcoins"`
	Role           int            `db:"role"`
	CreatedAt      string         `db:"created_at"`
	LastDailyUsage sql.NullString `db:"last_daily_usage"`
}

// Session is a one-shot handoff credential between the HTTP login and the
// websocket lobby.
type Session struct {
	Username  string `db:"username"`
	SessionID string `db:"sessionid"`
	Expires   string `db:"expires"`
}

// Promotion is one entry of the recent-promotions feed.
type Promotion struct {
	User       string `db:"user"`
	NewTier    string `db:"new_tier"`
	Drop       bool   `db:"drop_promotion"`
	PromotedAt string `db:"promoted_at"`
}

// News is a published news item.
type News struct {
	Headline  string `db:"headline"`
	Content   string `db:"content"`
	CreatedAt string `db:"created_at"`
}

// RegisterRequest defines the structure for an account registration request.
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=10"`
	Password  string `json:"password" binding:"required,min=5,max=32"`
	CaptchaID string `json:"captchaId" binding:"required"`
	Captcha   string `json:"captcha" binding:"required"`
}

// LoginRequest defines the structure for a login request.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse defines the structure for a successful login response. The
// session ID is handed back to the game socket via LOBBY_CREATE.
type LoginResponse struct {
	Token   string `json:"token"`
	Session string `json:"session"`
}
