package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/oyakomap/spotfinder/internal/auth"
	"github.com/oyakomap/spotfinder/internal/client"
	"github.com/oyakomap/spotfinder/internal/geo"
	"github.com/oyakomap/spotfinder/internal/search"
	"github.com/oyakomap/spotfinder/pkg/config"
)

// Dependencies holds all application dependencies.
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	Tokens     auth.TokenStore
	Client     *client.Client
	Snapshot   search.SnapshotStore
	ShareLink  *shareLink
	Controller *search.Controller
	Location   *geo.Acquirer
}

// InitDependencies wires config, token storage, the authenticated HTTP
// client, and the search controller.
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.Tokens = auth.NewFileStore(cfg.Storage.TokenPath)

	refreshURL, err := client.RefreshURL(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve refresh endpoint: %w", err)
	}
	transport := auth.NewTransport(nil, deps.Tokens, refreshURL, logger)

	deps.Client, err = client.New(cfg.API.BaseURL, logger, client.Options{
		HTTPClient:        &http.Client{Transport: transport},
		TokenStore:        deps.Tokens,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init api client: %w", err)
	}

	deps.Snapshot = search.NewFileSnapshot(cfg.Storage.SnapshotPath)
	deps.ShareLink = &shareLink{}
	deps.Controller = search.NewController(deps.Client, deps.Snapshot, deps.ShareLink, logger)

	deps.Location = geo.NewAcquirer(envLocator{}, nil, geo.AcquireOptions{
		Timeout: cfg.Location.AcquireTimeout,
		MaxAge:  cfg.Location.PositionMaxAge,
	}, deps.Controller.SetCenter, logger)

	logger.Info("all dependencies initialized")
	return deps, nil
}

// shareLink is the CLI's URL surface: it records the canonical query
// string the controller emits so a shareable link can be printed after a
// search.
type shareLink struct {
	mu     sync.Mutex
	values url.Values
}

func (s *shareLink) ReplaceQuery(values url.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = values
}

func (s *shareLink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return ""
	}
	return "?" + s.values.Encode()
}
