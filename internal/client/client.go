// Package client implements the REST client for the spot finder backend.
// All endpoints follow the same envelope conventions: JSON bodies, errors
// shaped as {"error":{"code","message"}}, cursor-based pagination.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/oyakomap/spotfinder/internal/auth"
	"github.com/oyakomap/spotfinder/internal/types"
	"github.com/oyakomap/spotfinder/pkg/observability"
)

const (
	headerRequestID = "X-Request-ID"
	acceptJSON      = "application/json"

	masterCacheTTL   = 5 * time.Minute
	masterCacheSweep = 10 * time.Minute
)

// Client calls the backend API. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	tokens     auth.TokenStore
	limiter    *rate.Limiter
	masters    *cache.Cache
	tracer     trace.Tracer
}

// Options tune the client beyond the required base URL.
type Options struct {
	// HTTPClient should normally carry an auth.Transport. Nil gets a
	// default client with no auth.
	HTTPClient *http.Client
	// TokenStore is where login/logout persist and clear the pair. Nil
	// means auth endpoints return tokens without persisting.
	TokenStore auth.TokenStore
	// RequestsPerSecond caps outgoing calls; zero disables the limiter.
	RequestsPerSecond float64
	Burst             int
}

// New creates a client for the API at baseURL.
func New(baseURL string, logger *slog.Logger, opts Options) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 && opts.Burst > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst)
	}
	return &Client{
		baseURL:    u,
		httpClient: httpClient,
		logger:     logger,
		tokens:     opts.TokenStore,
		limiter:    limiter,
		masters:    cache.New(masterCacheTTL, masterCacheSweep),
		tracer:     otel.GetTracerProvider().Tracer("spotfinder/client"),
	}, nil
}

// RefreshURL returns the absolute refresh endpoint, for wiring the auth
// transport against the same base.
func RefreshURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	return u.JoinPath("/api/auth/refresh").String(), nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.JoinPath(path).String()
}

// get issues a GET with query values and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, path, out)
}

// post issues a JSON POST/PATCH and decodes the response into out (which
// may be nil for endpoints that return no useful body).
func (c *Client) post(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", acceptJSON)
	}
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, endpoint string, out any) error {
	ctx, span := c.tracer.Start(req.Context(), "api."+req.Method+" "+endpoint,
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("endpoint", endpoint),
		))
	defer span.End()
	req = req.WithContext(ctx)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req.Header.Set("Accept", acceptJSON)
	req.Header.Set(headerRequestID, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.APIRequests.WithLabelValues(endpoint, "error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	observability.APIRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode/100*100)).Inc()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// decodeError extracts the backend error envelope, falling back to a
// generic status message when the body is not in the expected shape.
func decodeError(resp *http.Response) *types.APIError {
	apiErr := &types.APIError{Status: resp.StatusCode}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}
