package api

import (
	"context"
	"fmt"

	"github.com/dnguyen/perfhub/internal/model"
)

// Login authenticates with email and password and returns the session
// token plus the user profile. The client's own token is not modified;
// callers decide whether to adopt the returned one.
func (c *Client) Login(
	ctx context.Context,
	email string,
	password string,
) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.Post(ctx, "/api/auth/login", LoginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	return &resp, nil
}

// Me returns the profile of the user the current token belongs to.
// Used to validate a stored token before resuming a session.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.Get(ctx, "/api/me", &user); err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return &user, nil
}
