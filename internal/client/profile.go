package client

import (
	"context"
	"net/http"

	"github.com/oyakomap/spotfinder/internal/types"
)

// UpdateProfileParams carries the patchable profile fields. Nil fields are
// left unchanged server-side.
type UpdateProfileParams struct {
	Nickname       *string `json:"nickname,omitempty"`
	HomeArea       *string `json:"home_area,omitempty"`
	ChildAgeBandID *string `json:"child_age_band_id,omitempty"`
}

type userEnvelope struct {
	User types.User `json:"user"`
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*types.User, error) {
	var out userEnvelope
	if err := c.get(ctx, "/api/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateMe patches the authenticated user's profile.
func (c *Client) UpdateMe(ctx context.Context, params UpdateProfileParams) (*types.User, error) {
	var out userEnvelope
	if err := c.post(ctx, http.MethodPatch, "/api/me", params, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}
