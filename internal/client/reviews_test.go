package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oyakomap/spotfinder/internal/types"
)

func intPtr(n int) *int { return &n }

func TestListReviews_QueryEncoding(t *testing.T) {
	var got url.Values
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/places/p1/reviews", r.URL.Path)
		got = r.URL.Query()
		json.NewEncoder(w).Encode(types.ReviewPage{})
	}))

	_, err := c.ListReviews(context.Background(), "p1", ReviewListParams{
		Limit: 10, Sort: "rating", HasPhoto: true,
	})
	require.NoError(t, err)
	require.Equal(t, "10", got.Get("limit"))
	require.Equal(t, "rating", got.Get("sort"))
	require.Equal(t, "1", got.Get("has_photo"))
}

func TestListReviews_DefaultSortIsNew(t *testing.T) {
	var got url.Values
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		json.NewEncoder(w).Encode(types.ReviewPage{})
	}))

	_, err := c.ListReviews(context.Background(), "p1", ReviewListParams{})
	require.NoError(t, err)
	require.Equal(t, "new", got.Get("sort"))
	require.Empty(t, got.Get("has_photo"))
}

func TestListReviews_RejectsUnknownSort(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	_, err := c.ListReviews(context.Background(), "p1", ReviewListParams{Sort: "oldest"})
	require.ErrorIs(t, err, types.ErrValidation)
}

func TestCreateReview_Submits(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/reviews", r.URL.Path)
		var body types.CreateReviewParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "p1", body.PlaceID)
		require.Equal(t, 4, body.Overall)
		json.NewEncoder(w).Encode(map[string]string{"review_id": "rv1"})
	}))

	id, err := c.CreateReview(context.Background(), types.CreateReviewParams{
		PlaceID: "p1",
		Overall: 4,
		Text:    "Spacious nursing room, stroller friendly.",
		Axes:    []types.AxisScore{{Code: "cleanliness", Score: 5}},
	})
	require.NoError(t, err)
	require.Equal(t, "rv1", id)
}

func TestCreateReview_ValidatesBeforeNetwork(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("invalid review must not reach the network")
	}))

	cases := []struct {
		name   string
		params types.CreateReviewParams
	}{
		{"missing place", types.CreateReviewParams{Overall: 4, Text: "ok"}},
		{"overall out of range", types.CreateReviewParams{PlaceID: "p1", Overall: 6, Text: "ok"}},
		{"blank text", types.CreateReviewParams{PlaceID: "p1", Overall: 4, Text: "   "}},
		{"stay too long", types.CreateReviewParams{PlaceID: "p1", Overall: 4, Text: "ok", StayMinutes: intPtr(601)}},
		{"axis out of range", types.CreateReviewParams{PlaceID: "p1", Overall: 4, Text: "ok", Axes: []types.AxisScore{{Code: "noise", Score: 0}}}},
		{"too many photos", types.CreateReviewParams{PlaceID: "p1", Overall: 4, Text: "ok", PhotoIDs: []string{"1", "2", "3", "4", "5", "6"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.CreateReview(context.Background(), tc.params)
			require.ErrorIs(t, err, types.ErrValidation)
		})
	}
}
