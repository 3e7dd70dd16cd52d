package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oyakomap/spotfinder/internal/types"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := New(server.URL, newTestLogger(), Options{})
	require.NoError(t, err)
	return c
}

func strPtr(s string) *string { return &s }

func TestSearchPlaces_QueryEncoding(t *testing.T) {
	var got url.Values
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/places", r.URL.Path)
		got = r.URL.Query()
		json.NewEncoder(w).Encode(types.SearchPage{Items: []types.Place{}})
	}))

	_, err := c.SearchPlaces(context.Background(), SearchParams{
		Lat:      35.6812,
		Lng:      139.7671,
		Query:    "  park  ",
		Features: []string{"nursing_room", "stroller_ok"},
	})
	require.NoError(t, err)

	require.Equal(t, "35.6812", got.Get("lat"))
	require.Equal(t, "139.7671", got.Get("lng"))
	require.Equal(t, "3000", got.Get("radius_m"))
	require.Equal(t, "20", got.Get("limit"))
	require.Equal(t, "park", got.Get("q"), "query text should be trimmed")
	require.Equal(t, []string{"nursing_room", "stroller_ok"}, got["features"])
	require.Equal(t, "distance", got.Get("sort"))
	require.Empty(t, got.Get("cursor"))
}

func TestSearchPlaces_CursorPassedThrough(t *testing.T) {
	var got url.Values
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		json.NewEncoder(w).Encode(types.SearchPage{
			Items:      []types.Place{{ID: "p1"}},
			NextCursor: strPtr("cursor-2"),
		})
	}))

	page, err := c.SearchPlaces(context.Background(), SearchParams{
		Lat: 35, Lng: 139, Cursor: strPtr("cursor-1"),
	})
	require.NoError(t, err)
	require.Equal(t, "cursor-1", got.Get("cursor"))
	require.NotNil(t, page.NextCursor)
	require.Equal(t, "cursor-2", *page.NextCursor)
}

func TestSearchPlaces_ValidatesBounds(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("out-of-range params must not reach the network")
	}))

	_, err := c.SearchPlaces(context.Background(), SearchParams{Lat: 95, Lng: 139})
	require.ErrorIs(t, err, types.ErrValidation)

	_, err = c.SearchPlaces(context.Background(), SearchParams{Lat: 35, Lng: 139, RadiusM: 50000})
	require.ErrorIs(t, err, types.ErrValidation)

	_, err = c.SearchPlaces(context.Background(), SearchParams{Lat: 35, Lng: 139, Limit: 100})
	require.ErrorIs(t, err, types.ErrValidation)
}

func TestSearchPlaces_ErrorEnvelope(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "VALIDATION_ERROR", "message": "lat out of range"},
		})
	}))

	_, err := c.SearchPlaces(context.Background(), SearchParams{Lat: 35, Lng: 139})
	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, "lat out of range", apiErr.Error())
}

func TestSearchPlaces_ErrorFallbackMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>upstream broke</html>"))
	}))

	_, err := c.SearchPlaces(context.Background(), SearchParams{Lat: 35, Lng: 139})
	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "HTTP 502", apiErr.Error())
}

func TestSearchPlaces_401MapsToUnauthenticated(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.SearchPlaces(context.Background(), SearchParams{Lat: 35, Lng: 139})
	require.True(t, errors.Is(err, types.ErrUnauthenticated))
}

func TestGetPlace_DecodesDetail(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/places/p1", r.URL.Path)
		io.WriteString(w, `{
			"id": "p1", "name": "Kids Park",
			"category": {"code": "park", "label": "Park"},
			"opening_hours": "9:00-17:00",
			"features": [{"code": "nursing_room", "label": "Nursing room", "value": 1}],
			"rating": {"overall": 4.2, "count": 12, "axes": {"cleanliness": 4.5}},
			"photos": [], "google": null, "data_source": "manual",
			"created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-02T00:00:00Z"
		}`)
	}))

	detail, err := c.GetPlace(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "Kids Park", detail.Name)
	// String-shaped opening hours are normalized into the map form.
	require.Equal(t, map[string]string{"general": "9:00-17:00"}, detail.OpeningHours)
	require.Equal(t, 4.5, detail.Rating.Axes["cleanliness"])
}

func TestGetPlace_RequiresID(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	_, err := c.GetPlace(context.Background(), "")
	require.ErrorIs(t, err, types.ErrValidation)
}

func TestRequestCarriesRequestID(t *testing.T) {
	var requestID string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode(types.SearchPage{})
	}))

	_, err := c.SearchPlaces(context.Background(), SearchParams{Lat: 35, Lng: 139})
	require.NoError(t, err)
	require.NotEmpty(t, requestID)
}
