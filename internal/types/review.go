package types

import (
	"fmt"
	"strings"
)

// ReviewAuthor is the public author info shown on a review card.
type ReviewAuthor struct {
	Nickname string `json:"nickname"`
}

// ReviewPhoto is one uploaded photo attached to a review.
type ReviewPhoto struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Review is one published review of a place.
type Review struct {
	ID            string             `json:"id"`
	User          ReviewAuthor       `json:"user"`
	Overall       float64            `json:"overall"`
	Text          string             `json:"text"`
	Axes          map[string]float64 `json:"axes"`
	AgeBand       *string            `json:"age_band"`
	StayMinutes   *int               `json:"stay_minutes"`
	RevisitIntent *int               `json:"revisit_intent"`
	Photos        []ReviewPhoto      `json:"photos"`
	CreatedAt     string             `json:"created_at"`
}

// ReviewPage is one page of a place's review listing.
type ReviewPage struct {
	Items      []Review `json:"items"`
	NextCursor *string  `json:"next_cursor"`
}

// AxisScore is one per-axis score on a review submission.
type AxisScore struct {
	Code  string `json:"code"`
	Score int    `json:"score"`
}

// Submission bounds enforced before anything is sent to the server.
const (
	MaxReviewPhotos = 5
	MaxStayMinutes  = 600
)

// CreateReviewParams is the review submission payload.
type CreateReviewParams struct {
	PlaceID       string      `json:"place_id"`
	Overall       int         `json:"overall"`
	Text          string      `json:"text"`
	Axes          []AxisScore `json:"axes"`
	AgeBandID     *string     `json:"age_band_id,omitempty"`
	StayMinutes   *int        `json:"stay_minutes,omitempty"`
	RevisitIntent *int        `json:"revisit_intent,omitempty"`
	PhotoIDs      []string    `json:"photo_ids,omitempty"`
}

// Validate applies the form rules client-side so invalid submissions never
// reach the network.
func (p CreateReviewParams) Validate() error {
	if p.PlaceID == "" {
		return fmt.Errorf("%w: place_id is required", ErrValidation)
	}
	if p.Overall < 1 || p.Overall > 5 {
		return fmt.Errorf("%w: overall must be between 1 and 5", ErrValidation)
	}
	if strings.TrimSpace(p.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrValidation)
	}
	if p.StayMinutes != nil && (*p.StayMinutes < 0 || *p.StayMinutes > MaxStayMinutes) {
		return fmt.Errorf("%w: stay_minutes must be between 0 and %d", ErrValidation, MaxStayMinutes)
	}
	for _, a := range p.Axes {
		if a.Score < 1 || a.Score > 5 {
			return fmt.Errorf("%w: axis %s score must be between 1 and 5", ErrValidation, a.Code)
		}
	}
	if len(p.PhotoIDs) > MaxReviewPhotos {
		return fmt.Errorf("%w: at most %d photos per review", ErrValidation, MaxReviewPhotos)
	}
	return nil
}
