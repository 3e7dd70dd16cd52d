package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Permission is the normalized device location permission state.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionPrompt  Permission = "prompt"
	PermissionUnknown Permission = "unknown"
)

// ErrPermissionDenied is returned by a Locator when the user has blocked
// location access. Any other locator error (timeout, unavailable) keeps the
// permission state untouched.
var ErrPermissionDenied = errors.New("location permission denied")

// AcquireOptions bound a single position acquisition.
type AcquireOptions struct {
	Timeout time.Duration
	// MaxAge allows a cached position no older than this to be returned.
	MaxAge time.Duration
}

// Locator produces the device's current coordinate. Implementations wrap
// whatever positioning capability the platform offers.
type Locator interface {
	Current(ctx context.Context, opts AcquireOptions) (Coordinate, error)
}

// PermissionQuerier optionally exposes the platform's permission state and
// change notifications. Platforms without the capability simply do not
// implement it.
type PermissionQuerier interface {
	Query(ctx context.Context) (Permission, error)
	// Watch delivers subsequent permission changes until ctx is done.
	Watch(ctx context.Context) (<-chan Permission, error)
}

const (
	defaultAcquireTimeout = 8 * time.Second
	defaultPositionMaxAge = 30 * time.Second
)

// Acquirer orchestrates geolocation: it requests positions, tracks the
// normalized permission state, and pushes granted coordinates to a callback
// (which feeds the search center and so re-triggers the search flow).
type Acquirer struct {
	logger   *slog.Logger
	locator  Locator
	querier  PermissionQuerier
	opts     AcquireOptions
	onCenter func(Coordinate)

	mu         sync.Mutex
	permission Permission
}

// NewAcquirer wires a locator and an optional permission querier. onCenter
// receives every successfully acquired coordinate. querier may be nil.
// Zero-valued opts fields get the defaults.
func NewAcquirer(locator Locator, querier PermissionQuerier, opts AcquireOptions, onCenter func(Coordinate), logger *slog.Logger) *Acquirer {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultAcquireTimeout
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = defaultPositionMaxAge
	}
	return &Acquirer{
		logger:     logger,
		locator:    locator,
		querier:    querier,
		opts:       opts,
		onCenter:   onCenter,
		permission: PermissionUnknown,
	}
}

// Permission returns the last observed permission state.
func (a *Acquirer) Permission() Permission {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.permission
}

func (a *Acquirer) setPermission(p Permission) {
	a.mu.Lock()
	a.permission = p
	a.mu.Unlock()
}

// Startup consults the platform permission state if the capability exists.
// When the permission is already granted the position is acquired without a
// user gesture, and later permission changes keep the state current.
func (a *Acquirer) Startup(ctx context.Context) {
	if a.querier == nil {
		return
	}
	state, err := a.querier.Query(ctx)
	if err != nil {
		a.setPermission(PermissionUnknown)
		return
	}
	a.setPermission(state)
	if state == PermissionGranted {
		if err := a.Request(ctx); err != nil {
			a.logger.Warn("automatic location acquisition failed", "error", err)
		}
	}
	changes, err := a.querier.Watch(ctx)
	if err != nil {
		return
	}
	go func() {
		for state := range changes {
			a.setPermission(state)
		}
	}()
}

// Request acquires the current position once. On success the permission
// state becomes granted and the coordinate is pushed to the callback. A
// denied error flips the state to denied; other failures leave it alone and
// are returned for the caller to surface.
func (a *Acquirer) Request(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	pos, err := a.locator.Current(ctx, a.opts)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			a.setPermission(PermissionDenied)
		}
		return fmt.Errorf("acquire current location: %w", err)
	}

	a.setPermission(PermissionGranted)
	a.logger.Info("location acquired", "lat", pos.Lat, "lng", pos.Lng)
	if a.onCenter != nil {
		a.onCenter(pos)
	}
	return nil
}
