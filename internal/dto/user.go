package dto

import "time"

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required,max=150"`
	Password string `json:"password" form:"password" binding:"required"`
}

// UserResponse is returned when user info is needed (e.g. after login).
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
}

// LoginResponse carries the bearer token issued at login. A session cookie
// is set as well when sessions are enabled.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// MeResponse describes the caller and the scheme it authenticated with.
type MeResponse struct {
	User UserResponse `json:"user"`
	Auth string       `json:"auth"`
}

// StatusResponse acknowledges an action without a resource body.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-validation error.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
