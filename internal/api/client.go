// Package api talks to the fleet management backend: authentication and the
// six resource collections shown on the dashboard.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sgfcp/internal/core"
	applog "sgfcp/internal/log"
)

const (
	// DefaultTimeout bounds a single request when no client is supplied.
	DefaultTimeout = 20 * time.Second
	maxBodyBytes   = 8 << 20
	maxDetailBytes = 512
)

// ObserveFunc receives the outcome of every request. status is 0 when the
// request never got a response.
type ObserveFunc func(method, path string, status int, elapsed time.Duration)

// Client is bound to one base URL and one bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *applog.Logger
	observe    ObserveFunc
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *applog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.WithComponent(applog.ComponentAPI)
		}
	}
}

// WithObserver registers a per-request callback, used for metrics.
func WithObserver(fn ObserveFunc) Option {
	return func(c *Client) { c.observe = fn }
}

// WithClock overrides the time source stamped on snapshots.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a client for baseURL. An empty token sends no Authorization
// header.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     applog.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Get fetches path and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, http.MethodPost, PathLogin, loginRequest{Email: email, Password: password}, &res)
	return res, err
}

// Me returns the user owning the token.
func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	if c.token == "" {
		return u, ErrMissingToken
	}
	err := c.Get(ctx, PathMe, &u)
	return u, err
}

// LoadSnapshot fetches the six collections concurrently. The first failure
// cancels the remaining requests and no partial snapshot is returned.
func (c *Client) LoadSnapshot(ctx context.Context) (core.Snapshot, error) {
	var col core.Collections

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Get(gctx, PathTrips, &col.Trips) })
	g.Go(func() error { return c.Get(gctx, PathExpenses, &col.Expenses) })
	g.Go(func() error { return c.Get(gctx, PathAdvances, &col.Advances) })
	g.Go(func() error { return c.Get(gctx, PathDrivers, &col.Drivers) })
	g.Go(func() error { return c.Get(gctx, PathTrucks, &col.Trucks) })
	g.Go(func() error { return c.Get(gctx, PathClients, &col.Clients) })

	if err := g.Wait(); err != nil {
		return core.Snapshot{}, err
	}

	snap := core.NewSnapshot(col, c.now().UTC())
	c.logger.DebugContext(ctx, "Snapshot loaded",
		applog.NewFields().WithSnapshotCounts(len(col.Trips), len(col.Expenses), len(col.Advances),
			len(col.Drivers), len(col.Trucks), len(col.Clients)).ToSlice()...)
	return snap, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Method: method, Path: path, Err: fmt.Errorf("encode body: %w", err)}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &RequestError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(method, path, 0, start)
		c.logger.WarnContext(ctx, "API request failed",
			applog.FieldPath, path, applog.FieldMethod, method, applog.FieldError, err)
		return &RequestError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	c.record(method, path, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxDetailBytes))
		c.logger.WarnContext(ctx, "API request rejected",
			applog.FieldPath, path, applog.FieldMethod, method, applog.FieldStatusCode, resp.StatusCode)
		return &RequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     strings.TrimSpace(string(detail)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return &RequestError{Method: method, Path: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) record(method, path string, status int, start time.Time) {
	if c.observe != nil {
		c.observe(method, path, status, time.Since(start))
	}
}
