package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/oyakomap/spotfinder/internal/types"
)

// SignupParams is the account creation payload. Nickname, home area and age
// band are optional.
type SignupParams struct {
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	Nickname       *string `json:"nickname,omitempty"`
	HomeArea       *string `json:"home_area,omitempty"`
	ChildAgeBandID *string `json:"child_age_band_id,omitempty"`
}

// LoginParams is the credential payload for login.
type LoginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authEnvelope struct {
	User         types.User `json:"user"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
}

func (c *Client) persistTokens(pair types.TokenPair) error {
	if c.tokens == nil {
		return nil
	}
	if err := c.tokens.Save(pair); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}
	return nil
}

// Signup creates an account and stores the returned token pair.
func (c *Client) Signup(ctx context.Context, params SignupParams) (*types.AuthSession, error) {
	if strings.TrimSpace(params.Email) == "" || params.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", types.ErrValidation)
	}
	if len(params.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", types.ErrValidation)
	}
	var out authEnvelope
	if err := c.post(ctx, http.MethodPost, "/api/auth/signup", params, &out); err != nil {
		return nil, err
	}
	session := &types.AuthSession{
		User:   out.User,
		Tokens: types.TokenPair{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken},
	}
	if err := c.persistTokens(session.Tokens); err != nil {
		return nil, err
	}
	c.logger.Info("signed up", "user_id", session.User.ID)
	return session, nil
}

// Login authenticates and stores the returned token pair.
func (c *Client) Login(ctx context.Context, params LoginParams) (*types.AuthSession, error) {
	if strings.TrimSpace(params.Email) == "" || params.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", types.ErrValidation)
	}
	var out authEnvelope
	if err := c.post(ctx, http.MethodPost, "/api/auth/login", params, &out); err != nil {
		return nil, err
	}
	session := &types.AuthSession{
		User:   out.User,
		Tokens: types.TokenPair{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken},
	}
	if err := c.persistTokens(session.Tokens); err != nil {
		return nil, err
	}
	c.logger.Info("logged in", "user_id", session.User.ID)
	return session, nil
}

// Logout invalidates the refresh token server-side and clears the local
// store. The store is cleared even when the server call fails; a refresh
// token the server no longer honors is worthless locally too.
func (c *Client) Logout(ctx context.Context) error {
	var callErr error
	if c.tokens != nil {
		if pair, ok := c.tokens.Tokens(); ok && pair.RefreshToken != "" {
			callErr = c.post(ctx, http.MethodPost, "/api/auth/logout",
				map[string]string{"refresh_token": pair.RefreshToken}, nil)
		}
		if err := c.tokens.Clear(); err != nil {
			return fmt.Errorf("clear tokens: %w", err)
		}
	}
	if callErr != nil {
		c.logger.Warn("server-side logout failed", "error", callErr)
	}
	return nil
}
