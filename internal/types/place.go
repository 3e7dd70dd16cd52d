package types

import "encoding/json"

// Category is a place category reference (code + display label).
type Category struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Location is a place position relative to the search center. Lat/Lng may be
// null for places whose coordinates are not yet resolved.
type Location struct {
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	DistanceM float64  `json:"distance_m"`
}

// Rating is the aggregate review score of a place. Overall is null until the
// first review lands.
type Rating struct {
	Overall *float64 `json:"overall"`
	Count   int      `json:"count"`
}

// Place is one search result item. Instances are immutable once decoded and
// are replaced wholesale on a fresh search, appended on a paginated one.
type Place struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Category        Category `json:"category"`
	Location        Location `json:"location"`
	FeaturesSummary []string `json:"features_summary"`
	Rating          Rating   `json:"rating"`
	ThumbnailURL    *string  `json:"thumbnail_url"`
	CreatedAt       *string  `json:"created_at,omitempty"`
}

// HasFeature reports whether the place carries the given feature code.
func (p Place) HasFeature(code string) bool {
	for _, c := range p.FeaturesSummary {
		if c == code {
			return true
		}
	}
	return false
}

// SearchPage is one page of search results. NextCursor is nil on the last
// page; otherwise it is an opaque token for the next fetch.
type SearchPage struct {
	Items      []Place `json:"items"`
	NextCursor *string `json:"next_cursor"`
}

// PlaceFeature is a feature entry on a detail record, optionally annotated
// with free-text detail ("nursing room on 3F" etc).
type PlaceFeature struct {
	Code   string   `json:"code"`
	Label  string   `json:"label"`
	Value  *float64 `json:"value"`
	Detail *string  `json:"detail,omitempty"`
}

// DetailRating extends the aggregate rating with per-axis averages.
type DetailRating struct {
	Overall *float64           `json:"overall"`
	Count   int                `json:"count"`
	Axes    map[string]float64 `json:"axes"`
}

// Photo is a place or review photo reference.
type Photo struct {
	URL      string  `json:"url"`
	Width    *int    `json:"width,omitempty"`
	Height   *int    `json:"height,omitempty"`
	Blurhash *string `json:"blurhash,omitempty"`
}

// SourceMeta records where an imported place record came from.
type SourceMeta struct {
	PlaceID  string  `json:"place_id"`
	Source   string  `json:"source"`
	SyncedAt *string `json:"synced_at"`
}

// PlaceDetail is the full place record returned by the detail endpoint.
type PlaceDetail struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Category     Category          `json:"category"`
	Description  *string           `json:"description"`
	Address      *string           `json:"address"`
	Phone        *string           `json:"phone"`
	WebsiteURL   *string           `json:"website_url"`
	OpeningHours map[string]string `json:"opening_hours"`
	Location     struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	} `json:"location"`
	Features   []PlaceFeature `json:"features"`
	Rating     DetailRating   `json:"rating"`
	Photos     []Photo        `json:"photos"`
	Google     *SourceMeta    `json:"google"`
	DataSource string         `json:"data_source"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

// UnmarshalJSON tolerates opening_hours arriving either as a plain string or
// as a day->hours map, depending on the import source.
func (p *PlaceDetail) UnmarshalJSON(data []byte) error {
	type Alias PlaceDetail
	aux := &struct {
		OpeningHours json.RawMessage `json:"opening_hours"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.OpeningHours) > 0 {
		var hoursMap map[string]string
		if err := json.Unmarshal(aux.OpeningHours, &hoursMap); err == nil {
			p.OpeningHours = hoursMap
		} else {
			var hoursString string
			if err := json.Unmarshal(aux.OpeningHours, &hoursString); err == nil {
				p.OpeningHours = map[string]string{"general": hoursString}
			}
		}
	}

	return nil
}
