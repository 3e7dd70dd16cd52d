package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/oyakomap/spotfinder/internal/types"
	"github.com/oyakomap/spotfinder/pkg/observability"
)

// Backend-enforced search bounds, checked client-side so an out-of-range
// request never leaves the process.
const (
	DefaultRadiusM = 3000.0
	MaxRadiusM     = 30000.0
	DefaultLimit   = 20
	MaxLimit       = 50
)

// SearchParams describes one place search call. Zero RadiusM and Limit get
// the defaults. Cursor nil requests the first page.
type SearchParams struct {
	Lat      float64
	Lng      float64
	RadiusM  float64
	Limit    int
	Cursor   *string
	Query    string
	Category string
	Features []string
	// Sort is the server-side order. The server currently only honors
	// distance; other orders are applied locally by the search package.
	Sort string
}

func (p SearchParams) validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: lat out of range", types.ErrValidation)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: lng out of range", types.ErrValidation)
	}
	if p.RadiusM < 0 || p.RadiusM > MaxRadiusM {
		return fmt.Errorf("%w: radius_m must be between 1 and %d", types.ErrValidation, int(MaxRadiusM))
	}
	if p.Limit < 0 || p.Limit > MaxLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", types.ErrValidation, MaxLimit)
	}
	return nil
}

func (p SearchParams) values() url.Values {
	v := url.Values{}
	v.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	v.Set("lng", strconv.FormatFloat(p.Lng, 'f', -1, 64))
	radius := p.RadiusM
	if radius == 0 {
		radius = DefaultRadiusM
	}
	v.Set("radius_m", strconv.FormatFloat(radius, 'f', -1, 64))
	limit := p.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	v.Set("limit", strconv.Itoa(limit))
	if p.Cursor != nil && *p.Cursor != "" {
		v.Set("cursor", *p.Cursor)
	}
	if q := strings.TrimSpace(p.Query); q != "" {
		v.Set("q", q)
	}
	if p.Category != "" {
		v.Set("category", p.Category)
	}
	for _, code := range p.Features {
		v.Add("features", code)
	}
	sort := p.Sort
	if sort == "" {
		sort = "distance"
	}
	v.Set("sort", sort)
	return v
}

// SearchPlaces fetches one page of places around a center, ordered by
// distance.
func (c *Client) SearchPlaces(ctx context.Context, params SearchParams) (*types.SearchPage, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	var page types.SearchPage
	if err := c.get(ctx, "/api/places", params.values(), &page); err != nil {
		return nil, err
	}
	observability.SearchResults.Observe(float64(len(page.Items)))
	c.logger.Debug("places fetched",
		"count", len(page.Items),
		"paginated", params.Cursor != nil,
		"has_next", page.NextCursor != nil,
	)
	return &page, nil
}

// GetPlace fetches the full detail record of one place.
func (c *Client) GetPlace(ctx context.Context, id string) (*types.PlaceDetail, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: place id is required", types.ErrValidation)
	}
	var detail types.PlaceDetail
	if err := c.get(ctx, "/api/places/"+url.PathEscape(id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}
