package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/oyakomap/spotfinder/internal/types"
	"github.com/oyakomap/spotfinder/pkg/observability"
)

// expirySkew refreshes a little ahead of the recorded expiry so a token that
// dies in flight does not cost an extra round trip.
const expirySkew = 30 * time.Second

// Transport is an http.RoundTripper that attaches the stored bearer token
// and transparently recovers from one token expiry per request: a 401 on
// the first attempt triggers exactly one refresh and one retry, never a
// loop. A failed refresh clears the store and hands the original 401 back
// to the caller.
type Transport struct {
	base       http.RoundTripper
	store      TokenStore
	refreshURL string
	logger     *slog.Logger

	group singleflight.Group
	now   func() time.Time
}

var _ http.RoundTripper = (*Transport)(nil)

// NewTransport wraps base (nil means http.DefaultTransport) with bearer
// auth driven by store. refreshURL is the absolute URL of the token refresh
// endpoint.
func NewTransport(base http.RoundTripper, store TokenStore, refreshURL string, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:       base,
		store:      store,
		refreshURL: refreshURL,
		logger:     logger,
		now:        time.Now,
	}
}

// attempt state of a single RoundTrip invocation. The explicit two-state
// machine guarantees termination: once retriedAfterRefresh is reached no
// further refresh can happen.
type attemptState int

const (
	firstAttempt attemptState = iota
	retriedAfterRefresh
)

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	state := firstAttempt

	access := ""
	if pair, ok := t.store.Tokens(); ok {
		access = pair.AccessToken
		if access != "" && tokenExpired(access, t.now()) {
			// Known-stale access token: refresh before wasting the request.
			// Success or failure, this spends the invocation's single
			// refresh; a failed proactive refresh must not be followed by
			// a second one on the 401 path.
			fresh, err := t.refresh(req.Context())
			if err == nil {
				access = fresh
			} else {
				if cerr := t.store.Clear(); cerr != nil {
					t.logger.Warn("clearing tokens after failed refresh", "error", cerr)
				}
			}
			state = retriedAfterRefresh
		}
	}

	resp, err := t.send(req, access)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || state != firstAttempt {
		return resp, nil
	}

	// Requests with a non-replayable body cannot be retried.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	fresh, refreshErr := t.refresh(req.Context())
	if refreshErr != nil {
		if err := t.store.Clear(); err != nil {
			t.logger.Warn("clearing tokens after failed refresh", "error", err)
		}
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	retry, err := t.send(req, fresh)
	if err != nil {
		return nil, err
	}
	return retry, nil
}

// send clones the request so the caller's copy stays untouched, attaches
// the bearer header if a token is available, and dispatches on the base
// transport.
func (t *Transport) send(req *http.Request, access string) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("replay request body: %w", err)
		}
		clone.Body = body
	}
	if access != "" {
		clone.Header.Set("Authorization", "Bearer "+access)
	}
	return t.base.RoundTrip(clone)
}

// refresh exchanges the stored refresh token for a new access token.
// Concurrent callers share one in-flight exchange so the store only ever
// sees one writer per expiry.
func (t *Transport) refresh(ctx context.Context) (string, error) {
	v, err, _ := t.group.Do("refresh", func() (any, error) {
		pair, ok := t.store.Tokens()
		if !ok || pair.RefreshToken == "" {
			observability.TokenRefreshes.WithLabelValues("missing").Inc()
			return "", types.ErrNoRefreshToken
		}

		body, err := json.Marshal(map[string]string{"refresh_token": pair.RefreshToken})
		if err != nil {
			return "", fmt.Errorf("encode refresh request: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.refreshURL, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("build refresh request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			observability.TokenRefreshes.WithLabelValues("error").Inc()
			return "", fmt.Errorf("refresh tokens: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			observability.TokenRefreshes.WithLabelValues("rejected").Inc()
			return "", fmt.Errorf("refresh rejected: %w", &types.APIError{Status: resp.StatusCode})
		}

		var out struct {
			AccessToken  string  `json:"access_token"`
			RefreshToken *string `json:"refresh_token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			observability.TokenRefreshes.WithLabelValues("error").Inc()
			return "", fmt.Errorf("decode refresh response: %w", err)
		}

		next := types.TokenPair{AccessToken: out.AccessToken, RefreshToken: pair.RefreshToken}
		if out.RefreshToken != nil && *out.RefreshToken != "" {
			next.RefreshToken = *out.RefreshToken
		}
		if err := t.store.Save(next); err != nil {
			return "", fmt.Errorf("persist refreshed tokens: %w", err)
		}
		observability.TokenRefreshes.WithLabelValues("success").Inc()
		t.logger.Info("access token refreshed")
		return out.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// tokenExpired decodes the exp claim without verifying the signature (the
// client has no key and does not need one). Opaque or claim-less tokens are
// treated as live and left to the 401 path.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(now.Add(expirySkew))
}
