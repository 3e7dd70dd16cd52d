// Package bridge mediates the shared "selected place" between a scrollable
// result list and a map of pins, without either view owning the other. The
// rendering engines are capability interfaces so any backend (a real map
// SDK binding, a test double) can be substituted.
package bridge

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oyakomap/spotfinder/internal/geo"
	"github.com/oyakomap/spotfinder/internal/types"
)

// emphasisDuration is how long a selected pin stays emphasized before the
// animation self-cancels.
const emphasisDuration = 1400 * time.Millisecond

// Marker is one map pin derived from a place with resolved coordinates.
type Marker struct {
	ID        string
	Name      string
	Position  geo.Coordinate
	DistanceM float64
}

// Popup is the info box opened on the selected pin.
type Popup struct {
	Title     string
	DistanceM float64
	DetailURL string
}

// MapRenderer is the capability surface the bridge needs from a map
// engine. Rendering, clustering, and marker lifecycle stay behind it.
type MapRenderer interface {
	SetCenter(c geo.Coordinate)
	UpsertMarkers(markers []Marker)
	PanTo(c geo.Coordinate)
	Emphasize(id string)
	ClearEmphasis(id string)
	OpenPopup(id string, p Popup)
	ClosePopup()
	Clear()
}

// ListScroller brings a result entry into view, vertically centered within
// the list container (never scrolling the whole page).
type ListScroller interface {
	ScrollTo(id string)
}

// Bridge holds the selection state machine: none <-> selected(id).
type Bridge struct {
	logger   *slog.Logger
	renderer MapRenderer
	list     ListScroller
	// onViewport receives map-reported viewports, after the first idle
	// following initialization has been suppressed.
	onViewport func(geo.Viewport)

	emphasisFor time.Duration

	mu          sync.Mutex
	markers     map[string]Marker
	selected    string
	bounceTimer *time.Timer
	sawIdle     bool
}

// New wires a bridge over a renderer and a list. onViewport may be nil
// when viewport-driven re-search is not wanted.
func New(renderer MapRenderer, list ListScroller, onViewport func(geo.Viewport), logger *slog.Logger) *Bridge {
	return &Bridge{
		logger:      logger,
		renderer:    renderer,
		list:        list,
		onViewport:  onViewport,
		emphasisFor: emphasisDuration,
		markers:     map[string]Marker{},
	}
}

// SyncResults replaces the rendered markers with the current visible
// result set. Places without coordinates get no pin. A selection whose id
// fell out of the set is cleared.
func (b *Bridge) SyncResults(places []types.Place, center geo.Coordinate) {
	b.mu.Lock()
	b.markers = make(map[string]Marker, len(places))
	markers := make([]Marker, 0, len(places))
	for _, p := range places {
		if p.Location.Lat == nil || p.Location.Lng == nil {
			continue
		}
		m := Marker{
			ID:        p.ID,
			Name:      p.Name,
			Position:  geo.Coordinate{Lat: *p.Location.Lat, Lng: *p.Location.Lng},
			DistanceM: p.Location.DistanceM,
		}
		b.markers[p.ID] = m
		markers = append(markers, m)
	}
	selectionGone := false
	if b.selected != "" {
		_, ok := b.markers[b.selected]
		selectionGone = !ok
	}
	b.mu.Unlock()

	b.renderer.SetCenter(center)
	b.renderer.UpsertMarkers(markers)

	if selectionGone {
		b.Deselect()
	}
}

// Selected returns the selected place id, empty for none.
func (b *Bridge) Selected() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected
}

// Select moves the selection to id (pin click and list click both land
// here). The list scrolls the entry into view; the map pans to the pin,
// emphasizes it for a short, self-cancelling moment, and opens its popup.
// Unknown ids are ignored.
func (b *Bridge) Select(id string) {
	b.mu.Lock()
	marker, ok := b.markers[id]
	if !ok {
		b.mu.Unlock()
		return
	}
	prev := b.selected
	b.selected = id
	b.stopBounceLocked()
	b.bounceTimer = time.AfterFunc(b.emphasisFor, func() {
		b.renderer.ClearEmphasis(id)
	})
	b.mu.Unlock()

	if prev != "" && prev != id {
		b.renderer.ClearEmphasis(prev)
	}
	b.list.ScrollTo(id)
	b.renderer.PanTo(marker.Position)
	b.renderer.Emphasize(id)
	b.renderer.OpenPopup(id, Popup{
		Title:     marker.Name,
		DistanceM: marker.DistanceM,
		DetailURL: fmt.Sprintf("/places/%s", id),
	})
}

// Deselect drops the selection, closing any popup and removing pin
// emphasis.
func (b *Bridge) Deselect() {
	b.mu.Lock()
	prev := b.selected
	b.selected = ""
	b.stopBounceLocked()
	b.mu.Unlock()

	if prev == "" {
		return
	}
	b.renderer.ClosePopup()
	b.renderer.ClearEmphasis(prev)
	b.logger.Debug("selection cleared", "place_id", prev)
}

func (b *Bridge) stopBounceLocked() {
	if b.bounceTimer != nil {
		b.bounceTimer.Stop()
		b.bounceTimer = nil
	}
}

// HandleViewportIdle receives the map's idle notification after a pan or
// zoom. The radius is the maximum distance from the center to the four
// viewport corners. The first idle after initialization is suppressed so
// loading the map does not trigger a spurious re-search.
func (b *Bridge) HandleViewportIdle(center geo.Coordinate, bounds geo.Bounds) {
	b.mu.Lock()
	first := !b.sawIdle
	b.sawIdle = true
	b.mu.Unlock()

	if first || b.onViewport == nil {
		return
	}
	b.onViewport(geo.ViewportFrom(center, bounds))
}
