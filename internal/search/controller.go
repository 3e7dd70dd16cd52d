// Package search owns the client-side search state: query text, center
// coordinate, active feature filters, sort key, and the fetched result set.
// The controller keeps three representations consistent (in-memory state,
// a shareable URL query string, and a durable coordinate snapshot) and
// applies the client-side filtering and sorting the backend does not.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"github.com/oyakomap/spotfinder/internal/client"
	"github.com/oyakomap/spotfinder/internal/geo"
	"github.com/oyakomap/spotfinder/internal/types"
)

// DefaultCenter is used when neither the URL nor the snapshot yields a
// coordinate (Tokyo Station).
var DefaultCenter = geo.Coordinate{Lat: 35.6812, Lng: 139.7671}

// Searcher is the one external collaborator the controller fetches from.
type Searcher interface {
	SearchPlaces(ctx context.Context, params client.SearchParams) (*types.SearchPage, error)
}

// URLSink receives the canonical query string after every state mutation.
// Implementations replace (not push) so history is not polluted.
type URLSink interface {
	ReplaceQuery(values url.Values)
}

// Controller is the single source of truth for all search parameters.
type Controller struct {
	logger   *slog.Logger
	searcher Searcher
	snapshot SnapshotStore
	urlSink  URLSink

	mu          sync.Mutex
	initialized bool
	query       string
	center      geo.Coordinate
	radiusM     float64
	features    map[string]bool
	sortKey     SortKey
	items       []types.Place
	nextCursor  *string
	version     uint64
	seq         uint64
	loading     bool
}

// NewController wires the controller. urlSink may be nil when no shareable
// URL surface exists.
func NewController(searcher Searcher, snapshot SnapshotStore, urlSink URLSink, logger *slog.Logger) *Controller {
	return &Controller{
		logger:   logger,
		searcher: searcher,
		snapshot: snapshot,
		urlSink:  urlSink,
		center:   DefaultCenter,
		radiusM:  client.DefaultRadiusM,
		features: map[string]bool{},
		sortKey:  SortDistance,
	}
}

// Init restores state from the URL query string, falling back to the
// persisted coordinate snapshot and finally to the default center. Unknown
// sort values fall back to distance. Runs exactly once; later calls are
// no-ops.
func (c *Controller) Init(values url.Values) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return
	}
	c.initialized = true

	if q := values.Get("q"); q != "" {
		c.query = q
	}
	c.sortKey = ParseSortKey(values.Get("sort"))

	// Both the documented "features" key and the legacy "features[]"
	// alias are accepted on read.
	for _, code := range append(values["features"], values["features[]"]...) {
		if code != "" {
			c.features[code] = true
		}
	}

	lat, latErr := strconv.ParseFloat(values.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(values.Get("lng"), 64)
	switch {
	case latErr == nil && lngErr == nil:
		c.center = geo.Coordinate{Lat: lat, Lng: lng}
	default:
		if saved, ok := c.snapshot.Load(); ok {
			c.center = saved
		}
	}

	c.propagateLocked()
	c.logger.Info("search state initialized",
		"lat", c.center.Lat, "lng", c.center.Lng,
		"sort", string(c.sortKey), "features", len(c.features),
	)
}

// propagateLocked pushes the current state to the URL sink and the
// coordinate snapshot. Callers hold the mutex.
func (c *Controller) propagateLocked() {
	if err := c.snapshot.Save(c.center); err != nil {
		c.logger.Warn("persisting coordinate snapshot", "error", err)
	}
	if c.urlSink != nil {
		c.urlSink.ReplaceQuery(c.queryValuesLocked())
	}
}

func (c *Controller) queryValuesLocked() url.Values {
	v := url.Values{}
	v.Set("lat", strconv.FormatFloat(c.center.Lat, 'f', -1, 64))
	v.Set("lng", strconv.FormatFloat(c.center.Lng, 'f', -1, 64))
	if c.query != "" {
		v.Set("q", c.query)
	}
	v.Set("sort", string(c.sortKey))
	for _, code := range c.activeFeaturesLocked() {
		v.Add("features", code)
	}
	return v
}

func (c *Controller) activeFeaturesLocked() []string {
	out := make([]string, 0, len(c.features))
	for code, on := range c.features {
		if on {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}

// SetQuery updates the free-text query.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = q
	c.propagateLocked()
}

// SetSort updates the sort key.
func (c *Controller) SetSort(key SortKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sortKey = key
	c.propagateLocked()
}

// SetCenter moves the search center.
func (c *Controller) SetCenter(center geo.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.center = center
	c.propagateLocked()
}

// SetViewport adopts a map-reported viewport as the new search area.
func (c *Controller) SetViewport(v geo.Viewport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.center = v.Center
	if v.RadiusM > 0 {
		c.radiusM = v.RadiusM
	}
	c.propagateLocked()
}

// ToggleFeature flips one quick-filter feature code.
func (c *Controller) ToggleFeature(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.features[code] {
		delete(c.features, code)
	} else {
		c.features[code] = true
	}
	c.propagateLocked()
}

// ApplyFeatures replaces the active set wholesale (the filter drawer's
// apply button) and forces a refetch even if nothing changed.
func (c *Controller) ApplyFeatures(codes []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.features = map[string]bool{}
	for _, code := range codes {
		c.features[code] = true
	}
	c.version++
	c.propagateLocked()
}

// Submit bumps the search trigger counter so re-submitting identical
// parameters still refetches.
func (c *Controller) Submit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
}

// Version returns the monotonically increasing search trigger counter.
func (c *Controller) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Query returns the current query text.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Center returns the current search center.
func (c *Controller) Center() geo.Coordinate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.center
}

// Sort returns the current sort key.
func (c *Controller) Sort() SortKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortKey
}

// ActiveFeatures returns the active feature codes in stable order.
func (c *Controller) ActiveFeatures() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeFeaturesLocked()
}

// Loading reports whether a fetch is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// NextCursor returns the pagination cursor of the last page, nil when the
// listing is exhausted.
func (c *Controller) NextCursor() *string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextCursor
}

// Load fetches one page. A nil cursor replaces the result set (first
// page); a non-nil cursor appends. Each fetch carries a sequence number;
// a completion that is no longer the latest issued fetch is discarded so
// a slow superseded response can never clobber newer results. Failures
// keep the already-loaded items.
func (c *Controller) Load(ctx context.Context, cursor *string) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.loading = true
	params := client.SearchParams{
		Lat:      c.center.Lat,
		Lng:      c.center.Lng,
		RadiusM:  c.radiusM,
		Limit:    client.DefaultLimit,
		Cursor:   cursor,
		Query:    c.query,
		Features: c.activeFeaturesLocked(),
	}
	c.mu.Unlock()

	page, err := c.searcher.SearchPlaces(ctx, params)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.logger.Debug("discarding superseded search response", "seq", seq, "latest", c.seq)
		return nil
	}
	c.loading = false
	if err != nil {
		return fmt.Errorf("search places: %w", err)
	}
	if cursor == nil {
		c.items = page.Items
	} else {
		c.items = append(c.items, page.Items...)
	}
	c.nextCursor = page.NextCursor
	return nil
}

// LoadMore fetches the next page if one exists and no fetch is in flight,
// preserving append ordering for a single result set.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.loading || c.nextCursor == nil {
		c.mu.Unlock()
		return nil
	}
	cursor := c.nextCursor
	c.mu.Unlock()
	return c.Load(ctx, cursor)
}

// Visible returns the result set after client-side feature filtering (AND
// across active codes) and sorting. Distance keeps the server order; the
// other keys sort descending with stable ties.
func (c *Controller) Visible() []types.Place {
	c.mu.Lock()
	items := c.items
	active := c.activeFeaturesLocked()
	key := c.sortKey
	c.mu.Unlock()
	return SortPlaces(FilterByFeatures(items, active), key)
}
