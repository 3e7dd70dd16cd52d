package client

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/oyakomap/spotfinder/internal/types"
)

// Master data changes rarely, so each list is cached in-process for a few
// minutes after the first fetch.

type itemsEnvelope[T any] struct {
	Items []T `json:"items"`
}

func fetchMaster[T any](ctx context.Context, c *Client, key, path string) ([]T, error) {
	if cached, ok := c.masters.Get(key); ok {
		return cached.([]T), nil
	}
	var out itemsEnvelope[T]
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	c.masters.SetDefault(key, out.Items)
	return out.Items, nil
}

// Features fetches the amenity master list the filter drawer offers.
func (c *Client) Features(ctx context.Context) ([]types.FeatureMaster, error) {
	return fetchMaster[types.FeatureMaster](ctx, c, "features", "/api/features")
}

// Categories fetches the place category master list.
func (c *Client) Categories(ctx context.Context) ([]types.CategoryMaster, error) {
	return fetchMaster[types.CategoryMaster](ctx, c, "categories", "/api/categories")
}

// AgeBands fetches the child age band options for profiles and reviews.
func (c *Client) AgeBands(ctx context.Context) ([]types.AgeBand, error) {
	return fetchMaster[types.AgeBand](ctx, c, "age_bands", "/api/age-bands")
}

// FilterMasters fetches features and categories concurrently, for callers
// that build the full filter UI in one go. A failure of either fetch fails
// the pair; the caller falls back to an empty filter set.
func (c *Client) FilterMasters(ctx context.Context) ([]types.FeatureMaster, []types.CategoryMaster, error) {
	var (
		features   []types.FeatureMaster
		categories []types.CategoryMaster
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		features, err = c.Features(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = c.Categories(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return features, categories, nil
}
