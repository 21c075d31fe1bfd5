package domain

import "time"

// TokenTypeBearer is the token_type of every TokenPair.
const TokenTypeBearer = "Bearer"

// TokenPair is returned by every successful login, registration and refresh.
// Its JSON field names are fixed for client compatibility.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int64     `json:"expires_in"`
	RefreshExpiresIn int64     `json:"refresh_expires_in"`
	UserID           string    `json:"user_id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	IssuedAt         time.Time `json:"issued_at"`
}
