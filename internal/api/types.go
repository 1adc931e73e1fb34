package api

import "github.com/dnguyen/perfhub/internal/model"

// errorResponse is the standard backend error body.
type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session token and the authenticated user.
type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// goalStatusRequest is the body of PUT /api/goals/{id}/status.
type goalStatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
}

// goalProgressRequest is the body of PUT /api/goals/{id}/progress.
type goalProgressRequest struct {
	Progress int `json:"progress"`
}

// reviewSubmitRequest is the body of PUT /api/reviews/{id}.
type reviewSubmitRequest struct {
	Rating  int    `json:"rating"`
	Summary string `json:"summary"`
	Status  string `json:"status"`
}
