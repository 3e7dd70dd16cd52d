package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/oyakomap/spotfinder/internal/types"
)

// ReviewListParams filter and order a place's review listing.
type ReviewListParams struct {
	Limit  int
	Cursor *string
	// Sort is "new" (default) or "rating".
	Sort     string
	HasPhoto bool
}

// ListReviews fetches one page of reviews for a place.
func (c *Client) ListReviews(ctx context.Context, placeID string, params ReviewListParams) (*types.ReviewPage, error) {
	if placeID == "" {
		return nil, fmt.Errorf("%w: place id is required", types.ErrValidation)
	}
	v := url.Values{}
	if params.Limit > 0 {
		v.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Cursor != nil && *params.Cursor != "" {
		v.Set("cursor", *params.Cursor)
	}
	sort := params.Sort
	if sort == "" {
		sort = "new"
	}
	if sort != "new" && sort != "rating" {
		return nil, fmt.Errorf("%w: review sort must be new or rating", types.ErrValidation)
	}
	v.Set("sort", sort)
	if params.HasPhoto {
		v.Set("has_photo", "1")
	}

	var page types.ReviewPage
	if err := c.get(ctx, "/api/places/"+url.PathEscape(placeID)+"/reviews", v, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateReview submits a review. Validation failures are caught before any
// network traffic.
func (c *Client) CreateReview(ctx context.Context, params types.CreateReviewParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	var out struct {
		ReviewID string `json:"review_id"`
	}
	if err := c.post(ctx, http.MethodPost, "/api/reviews", params, &out); err != nil {
		return "", err
	}
	c.logger.Info("review submitted", "place_id", params.PlaceID, "review_id", out.ReviewID)
	return out.ReviewID, nil
}
