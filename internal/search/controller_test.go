package search

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyakomap/spotfinder/internal/client"
	"github.com/oyakomap/spotfinder/internal/geo"
	"github.com/oyakomap/spotfinder/internal/types"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// fakeSearcher queues canned pages and records the params of every call.
type fakeSearcher struct {
	mu    sync.Mutex
	calls []client.SearchParams
	pages []*types.SearchPage
	errs  []error
	// block, when non-nil, is closed by the test to release an in-flight
	// SearchPlaces call.
	block chan struct{}
}

func (f *fakeSearcher) SearchPlaces(ctx context.Context, params client.SearchParams) (*types.SearchPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, params)
	n := len(f.calls) - 1
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if n < len(f.errs) && f.errs[n] != nil {
		return nil, f.errs[n]
	}
	if n < len(f.pages) {
		return f.pages[n], nil
	}
	return &types.SearchPage{}, nil
}

type recordingSink struct {
	mu     sync.Mutex
	values url.Values
}

func (r *recordingSink) ReplaceQuery(values url.Values) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = values
}

func (r *recordingSink) last() url.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values
}

func newTestController(searcher Searcher) (*Controller, *MemorySnapshot, *recordingSink) {
	snapshot := NewMemorySnapshot()
	sink := &recordingSink{}
	return NewController(searcher, snapshot, sink, newTestLogger()), snapshot, sink
}

func mustParseQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	v, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return v
}

func TestInit_RestoresFullStateFromURL(t *testing.T) {
	c, _, _ := newTestController(&fakeSearcher{})
	c.Init(mustParseQuery(t, "lat=35.0&lng=139.0&sort=overall&features=nursing_room&features=stroller_ok"))

	assert.Equal(t, geo.Coordinate{Lat: 35.0, Lng: 139.0}, c.Center())
	assert.Equal(t, SortOverall, c.Sort())
	assert.Equal(t, []string{"nursing_room", "stroller_ok"}, c.ActiveFeatures())
}

func TestInit_AcceptsBracketFeatureAlias(t *testing.T) {
	c, _, sink := newTestController(&fakeSearcher{})
	c.Init(mustParseQuery(t, "features%5B%5D=kids_toilet&features=nursing_room"))

	assert.Equal(t, []string{"kids_toilet", "nursing_room"}, c.ActiveFeatures())
	// The canonical form written back uses only the plain key.
	assert.Equal(t, []string{"kids_toilet", "nursing_room"}, sink.last()["features"])
	assert.Empty(t, sink.last()["features[]"])
}

func TestInit_UnknownSortFallsBackToDistance(t *testing.T) {
	c, _, _ := newTestController(&fakeSearcher{})
	c.Init(mustParseQuery(t, "sort=bogus"))
	assert.Equal(t, SortDistance, c.Sort())
}

func TestInit_SnapshotFallbackWhenURLHasNoCoords(t *testing.T) {
	snapshot := NewMemorySnapshot()
	require.NoError(t, snapshot.Save(geo.Coordinate{Lat: 34.7, Lng: 135.5}))
	c := NewController(&fakeSearcher{}, snapshot, nil, newTestLogger())

	c.Init(url.Values{})
	assert.Equal(t, geo.Coordinate{Lat: 34.7, Lng: 135.5}, c.Center())
}

func TestInit_DefaultCenterWhenNothingStored(t *testing.T) {
	c, _, _ := newTestController(&fakeSearcher{})
	c.Init(url.Values{})
	assert.Equal(t, DefaultCenter, c.Center())
}

func TestInit_PartialCoordsFallThrough(t *testing.T) {
	// lat without lng is unusable; the pair is ignored.
	c, _, _ := newTestController(&fakeSearcher{})
	c.Init(mustParseQuery(t, "lat=35.0"))
	assert.Equal(t, DefaultCenter, c.Center())
}

func TestInit_RunsOnce(t *testing.T) {
	c, _, _ := newTestController(&fakeSearcher{})
	c.Init(mustParseQuery(t, "q=park"))
	c.Init(mustParseQuery(t, "q=museum&sort=count"))

	assert.Equal(t, "park", c.Query())
	assert.Equal(t, SortDistance, c.Sort())
}

func TestMutations_PropagateToURLAndSnapshot(t *testing.T) {
	c, snapshot, sink := newTestController(&fakeSearcher{})
	c.Init(url.Values{})

	c.SetQuery("playground")
	c.SetSort(SortCount)
	c.SetCenter(geo.Coordinate{Lat: 36.1, Lng: 140.2})
	c.ToggleFeature("diaper_table")

	v := sink.last()
	assert.Equal(t, "playground", v.Get("q"))
	assert.Equal(t, "count", v.Get("sort"))
	assert.Equal(t, "36.1", v.Get("lat"))
	assert.Equal(t, "140.2", v.Get("lng"))
	assert.Equal(t, []string{"diaper_table"}, v["features"])

	saved, ok := snapshot.Load()
	require.True(t, ok)
	assert.Equal(t, geo.Coordinate{Lat: 36.1, Lng: 140.2}, saved)
}

func TestToggleFeature_FlipsOffAgain(t *testing.T) {
	c, _, _ := newTestController(&fakeSearcher{})
	c.Init(url.Values{})

	c.ToggleFeature("nursing_room")
	assert.Equal(t, []string{"nursing_room"}, c.ActiveFeatures())
	c.ToggleFeature("nursing_room")
	assert.Empty(t, c.ActiveFeatures())
}

func TestApplyFeatures_ReplacesSetAndBumpsVersion(t *testing.T) {
	c, _, _ := newTestController(&fakeSearcher{})
	c.Init(url.Values{})
	c.ToggleFeature("old_code")
	before := c.Version()

	c.ApplyFeatures([]string{"kids_toilet", "stroller_ok"})

	assert.Equal(t, []string{"kids_toilet", "stroller_ok"}, c.ActiveFeatures())
	assert.Equal(t, before+1, c.Version())
}

func TestSubmit_BumpsVersionWithIdenticalParams(t *testing.T) {
	c, _, _ := newTestController(&fakeSearcher{})
	c.Init(url.Values{})
	before := c.Version()
	c.Submit()
	c.Submit()
	assert.Equal(t, before+2, c.Version())
}

func TestSetViewport_AdoptsCenterAndRadius(t *testing.T) {
	searcher := &fakeSearcher{}
	c, _, _ := newTestController(searcher)
	c.Init(url.Values{})

	c.SetViewport(geo.Viewport{Center: geo.Coordinate{Lat: 35.5, Lng: 139.5}, RadiusM: 4200})
	require.NoError(t, c.Load(context.Background(), nil))

	require.Len(t, searcher.calls, 1)
	assert.Equal(t, 35.5, searcher.calls[0].Lat)
	assert.Equal(t, 4200.0, searcher.calls[0].RadiusM)
}

func TestLoad_FirstPageReplacesAppendOnCursor(t *testing.T) {
	cursor := "page-2"
	searcher := &fakeSearcher{pages: []*types.SearchPage{
		{Items: []types.Place{{ID: "a"}, {ID: "b"}}, NextCursor: &cursor},
		{Items: []types.Place{{ID: "c"}}},
	}}
	c, _, _ := newTestController(searcher)
	c.Init(url.Values{})

	require.NoError(t, c.Load(context.Background(), nil))
	require.Len(t, c.Visible(), 2)
	require.NotNil(t, c.NextCursor())

	require.NoError(t, c.LoadMore(context.Background()))
	visible := c.Visible()
	require.Len(t, visible, 3)
	assert.Equal(t, "c", visible[2].ID)
	assert.Nil(t, c.NextCursor(), "exhausted listing clears the cursor")

	// A later first-page load replaces, not appends.
	searcher.mu.Lock()
	searcher.pages = append(searcher.pages, &types.SearchPage{Items: []types.Place{{ID: "z"}}})
	searcher.mu.Unlock()
	require.NoError(t, c.Load(context.Background(), nil))
	visible = c.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "z", visible[0].ID)
}

func TestLoadMore_NoopWithoutCursor(t *testing.T) {
	searcher := &fakeSearcher{}
	c, _, _ := newTestController(searcher)
	c.Init(url.Values{})

	require.NoError(t, c.LoadMore(context.Background()))
	assert.Empty(t, searcher.calls)
}

func TestLoad_ErrorKeepsExistingItems(t *testing.T) {
	searcher := &fakeSearcher{
		pages: []*types.SearchPage{{Items: []types.Place{{ID: "kept"}}}, nil},
		errs:  []error{nil, context.DeadlineExceeded},
	}
	c, _, _ := newTestController(searcher)
	c.Init(url.Values{})

	require.NoError(t, c.Load(context.Background(), nil))
	require.Error(t, c.Load(context.Background(), nil))

	visible := c.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "kept", visible[0].ID)
	assert.False(t, c.Loading())
}

func TestLoad_SupersededResponseDiscarded(t *testing.T) {
	block := make(chan struct{})
	searcher := &fakeSearcher{
		block: block,
		pages: []*types.SearchPage{
			{Items: []types.Place{{ID: "stale"}}},
			{Items: []types.Place{{ID: "fresh"}}},
		},
	}
	c, _, _ := newTestController(searcher)
	c.Init(url.Values{})

	done := make(chan error, 2)
	go func() { done <- c.Load(context.Background(), nil) }()

	// Wait for the first fetch to be issued, then issue the superseding
	// one before releasing either.
	for {
		searcher.mu.Lock()
		n := len(searcher.calls)
		searcher.mu.Unlock()
		if n == 1 {
			break
		}
	}
	go func() { done <- c.Load(context.Background(), nil) }()
	for {
		searcher.mu.Lock()
		n := len(searcher.calls)
		searcher.mu.Unlock()
		if n == 2 {
			break
		}
	}
	close(block)
	require.NoError(t, <-done)
	require.NoError(t, <-done)

	visible := c.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "fresh", visible[0].ID, "the superseded response must not win")
	assert.False(t, c.Loading())
}

func TestLoad_SendsActiveFeaturesAndQuery(t *testing.T) {
	searcher := &fakeSearcher{}
	c, _, _ := newTestController(searcher)
	c.Init(mustParseQuery(t, "q=aquarium&features=nursing_room"))

	require.NoError(t, c.Load(context.Background(), nil))
	require.Len(t, searcher.calls, 1)
	assert.Equal(t, "aquarium", searcher.calls[0].Query)
	assert.Equal(t, []string{"nursing_room"}, searcher.calls[0].Features)
}

func TestVisible_FiltersAndSorts(t *testing.T) {
	searcher := &fakeSearcher{pages: []*types.SearchPage{{Items: []types.Place{
		{ID: "low", FeaturesSummary: []string{"nursing_room"}, Rating: types.Rating{Overall: f64(2.0)}},
		{ID: "no-feature", Rating: types.Rating{Overall: f64(5.0)}},
		{ID: "high", FeaturesSummary: []string{"nursing_room"}, Rating: types.Rating{Overall: f64(4.5)}},
	}}}}
	c, _, _ := newTestController(searcher)
	c.Init(mustParseQuery(t, "features=nursing_room&sort=overall"))

	require.NoError(t, c.Load(context.Background(), nil))
	visible := c.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, "high", visible[0].ID)
	assert.Equal(t, "low", visible[1].ID)
}
