package auth

import "errors"

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SessionResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

type UserInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

var (
	errUsernameTaken      = errors.New("username already taken")
	errInvalidUsername    = errors.New("username must be 3-20 characters, letters, digits and underscores only")
	errInvalidPassword    = errors.New("password must be at least 6 characters")
	errInvalidCredentials = errors.New("invalid username or password")
)
