// Package upstream implements the typed client for the document-QA platform
// REST API. Every operation attaches the session's bearer token, applies a
// bounded timeout, and classifies failures into the error kinds the console
// reacts to (network, auth, validation, not-found, server, decode).
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/covergrid/docqa-console/pkg/metrics"
)

// Default request behavior. The source system issued unbounded requests;
// the client instead enforces a timeout and treats expiry as a network error.
const (
	DefaultTimeout     = 15 * time.Second
	DefaultRefreshSkew = 30 * time.Second

	requestIDHeader = "X-Request-ID"
)

// TokenSource supplies and stores the credential pair the client sends.
// Implementations must be safe for concurrent use.
type TokenSource interface {
	// Tokens returns the current access and refresh tokens. Absent tokens
	// are returned as empty strings.
	Tokens(ctx context.Context) (access, refresh string, err error)

	// StorePair replaces both tokens, as after a successful login.
	StorePair(ctx context.Context, access, refresh string) error

	// StoreAccess replaces only the access token, as after a refresh.
	StoreAccess(ctx context.Context, access string) error

	// ClearTokens removes both tokens.
	ClearTokens(ctx context.Context) error
}

// Client is a typed client for the document-QA platform REST API.
// It is safe for concurrent use.
type Client struct {
	base        *url.URL
	httpc       *http.Client
	tokens      TokenSource
	log         *slog.Logger
	timeout     time.Duration
	refreshSkew time.Duration

	// refreshGroup collapses concurrent refresh exchanges: N requests
	// failing with 401 on the same access token trigger one refresh call.
	refreshGroup singleflight.Group

	expired func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the client logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRefreshSkew sets how far ahead of the access token's exp claim the
// client refreshes proactively. Zero disables proactive refresh.
func WithRefreshSkew(d time.Duration) Option {
	return func(c *Client) { c.refreshSkew = d }
}

// NewClient creates a client for the API at baseURL using src for
// credentials.
func NewClient(baseURL string, src TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	c := &Client{
		base:        u,
		httpc:       &http.Client{},
		tokens:      src,
		log:         slog.Default(),
		timeout:     DefaultTimeout,
		refreshSkew: DefaultRefreshSkew,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// OnSessionExpired registers fn to be called when a 401 survives the one-shot
// refresh, meaning the session is irrecoverably unauthorized. Must be called
// before the client is shared between goroutines.
func (c *Client) OnSessionExpired(fn func()) {
	c.expired = fn
}

// endpoint joins the base URL with a path and optional query parameters.
func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// doJSON performs an authenticated request with an optional JSON body.
func (c *Client) doJSON(ctx context.Context, op, method, path string, q url.Values, in, out any) error {
	body, contentType, err := encodeJSON(in)
	if err != nil {
		return err
	}
	return c.do(ctx, op, method, path, q, body, contentType, out, true)
}

// doJSONNoAuth performs an unauthenticated request (login, refresh, health).
func (c *Client) doJSONNoAuth(ctx context.Context, op, method, path string, in, out any) error {
	body, contentType, err := encodeJSON(in)
	if err != nil {
		return err
	}
	return c.do(ctx, op, method, path, nil, body, contentType, out, false)
}

func encodeJSON(in any) ([]byte, string, error) {
	if in == nil {
		return nil, "", nil
	}
	body, err := json.Marshal(in)
	if err != nil {
		return nil, "", fmt.Errorf("encoding request body: %w", err)
	}
	return body, "application/json", nil
}

// do sends one request, refreshing and retrying exactly once on 401.
// The body is held as bytes so the retry can replay it.
func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, body []byte, contentType string, out any, authed bool) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var access, refresh string
	if authed {
		var err error
		access, refresh, err = c.tokens.Tokens(ctx)
		if err != nil {
			return &Error{Kind: KindAuth, Op: op, Err: fmt.Errorf("reading tokens: %w", err)}
		}
		// Proactive refresh ahead of a known exp claim avoids a guaranteed
		// 401 round trip. Best effort: the reactive path below remains
		// authoritative.
		if refresh != "" && c.nearExpiry(access) {
			if renewed, err := c.refreshAccess(ctx, access, refresh); err == nil {
				access = renewed
			}
		}
	}

	start := time.Now()
	resp, err := c.send(ctx, method, path, q, body, contentType, access)
	metrics.UpstreamDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(op, "network_error").Inc()
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized && authed {
		drain(resp)
		renewed, refreshErr := c.refreshAccess(ctx, access, refresh)
		if refreshErr != nil {
			c.sessionExpired(ctx, op, refreshErr)
			metrics.UpstreamRequests.WithLabelValues(op, "401").Inc()
			return &Error{Kind: KindAuth, Op: op, StatusCode: http.StatusUnauthorized, Err: refreshErr}
		}

		resp, err = c.send(ctx, method, path, q, body, contentType, renewed)
		if err != nil {
			return &Error{Kind: KindNetwork, Op: op, Err: err}
		}
		if resp.StatusCode == http.StatusUnauthorized {
			// The refreshed token was rejected too. One retry only; further
			// attempts would loop.
			drain(resp)
			c.sessionExpired(ctx, op, errors.New("request unauthorized after token refresh"))
			metrics.UpstreamRequests.WithLabelValues(op, "401").Inc()
			return &Error{Kind: KindAuth, Op: op, StatusCode: http.StatusUnauthorized}
		}
	}

	metrics.UpstreamRequests.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()
	return c.decode(op, resp, out)
}

// send builds and executes a single HTTP request.
func (c *Client) send(ctx context.Context, method, path string, q url.Values, body []byte, contentType, access string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	return c.httpc.Do(req)
}

// decode consumes the response body and unmarshals success payloads into out.
func (c *Client) decode(op string, resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Kind: KindDecode, Op: op, StatusCode: resp.StatusCode, Err: err}
		}
		return nil
	}

	msg, fields := parseErrorBody(data)
	e := &Error{Op: op, StatusCode: resp.StatusCode, Message: msg, Fields: fields}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		e.Kind = KindAuth
	case resp.StatusCode == http.StatusNotFound:
		e.Kind = KindNotFound
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		e.Kind = KindValidation
	default:
		e.Kind = KindServer
	}
	return e
}

// sessionExpired clears stored tokens and notifies the owning session.
func (c *Client) sessionExpired(ctx context.Context, op string, cause error) {
	c.log.Warn("session expired", "op", op, "error", cause)
	if err := c.tokens.ClearTokens(ctx); err != nil {
		c.log.Error("clearing tokens after session expiry", "error", err)
	}
	if c.expired != nil {
		c.expired()
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
