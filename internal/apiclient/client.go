// Package apiclient is the single point of outbound HTTP communication with the Rentix backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/Mavton23/rentix/internal/domain"
)

const (
	// DefaultTimeout mirrors the 300000ms budget the web client used.
	DefaultTimeout = 300000 * time.Millisecond

	HeaderRequestID     = "X-Request-ID"
	HeaderAuthorization = "Authorization"

	maxBodyBytes = 10 << 20
	tracerName   = "github.com/Mavton23/rentix/internal/apiclient"
)

// Config holds the recognized construction options.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	DefaultHeaders map[string]string
	UserAgent      string
	// RateLimit is the client-side request budget per second; 0 disables throttling.
	RateLimit float64
	RateBurst int
}

// DefaultHeaders returns the headers sent with every request unless overridden.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
}

// Option customizes a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport (tests use httptest transports).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = rt }
}

// WithTokenSource makes the client read the persisted token when no bearer default is installed.
func WithTokenSource(ts domain.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client applies base URL, timeout, default headers, bearer injection and 401 handling uniformly.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	headers    http.Header
	tokens     domain.TokenSource
	limiter    *rate.Limiter
	logger     *slog.Logger
	tracer     trace.Tracer

	mu     sync.RWMutex
	bearer string

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(domain.SessionInvalidated)
}

// New creates a client. It fails fast when the base URL is missing or not absolute.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, domain.ErrMissingBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute: %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	headers := make(http.Header)
	defaults := cfg.DefaultHeaders
	if defaults == nil {
		defaults = DefaultHeaders()
	}
	for k, v := range defaults {
		headers.Set(k, v)
	}
	if cfg.UserAgent != "" {
		headers.Set("User-Agent", cfg.UserAgent)
	}

	c := &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		headers: headers,
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
		subs:    make(map[int]func(domain.SessionInvalidated)),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// SetBearer installs token as the default Authorization header.
func (c *Client) SetBearer(token string) {
	c.mu.Lock()
	c.bearer = token
	c.mu.Unlock()
}

// ClearBearer removes the default Authorization header.
func (c *Client) ClearBearer() {
	c.SetBearer("")
}

// Bearer returns the installed default token.
func (c *Client) Bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bearer
}

// OnSessionInvalidated registers fn to run, synchronously and before the failing call returns,
// whenever a non-auth-flow request receives 401.
func (c *Client) OnSessionInvalidated(fn func(domain.SessionInvalidated)) func() {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Client) publish(ev domain.SessionInvalidated) {
	c.subMu.Lock()
	fns := make([]func(domain.SessionInvalidated), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	sessionInvalidations.Inc()
	for _, fn := range fns {
		fn(ev)
	}
}

// Response is a fully read 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if v == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &domain.ServerError{StatusCode: r.StatusCode, Message: fmt.Sprintf("decoding response: %v", err)}
	}
	return nil
}

// Do issues method path with body. body may be nil, an io.Reader, a []byte or any JSON-encodable value.
// Non-2xx responses are returned as domain errors; a 401 outside auth flows first publishes
// SessionInvalidated to every subscriber.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	o := collectOptions(opts)

	ctx, span := c.tracer.Start(ctx, "HTTP "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &domain.NetworkError{Method: method, Path: path, Timeout: isTimeout(err), Err: err}
		}
	}

	req, err := c.newRequest(ctx, method, path, body, o)
	if err != nil {
		return nil, fmt.Errorf("building request %s %s: %w", method, path, err)
	}
	requestID := req.Header.Get(HeaderRequestID)
	span.SetAttributes(attribute.String("request.id", requestID))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(method, "network", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "network error")
		c.logger.WarnContext(ctx, "api request failed",
			"method", method,
			"path", path,
			"request_id", requestID,
			"error", err)
		return nil, &domain.NetworkError{Method: method, Path: path, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		observe(method, "network", time.Since(start))
		return nil, &domain.NetworkError{Method: method, Path: path, Timeout: isTimeout(err), Err: err}
	}

	elapsed := time.Since(start)
	observe(method, statusClass(resp.StatusCode), elapsed)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.logger.DebugContext(ctx, "api request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"latency_ms", elapsed.Milliseconds(),
		"request_id", requestID)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       data,
			RequestID:  requestID,
		}, nil
	}

	span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	apiErr := normalize(resp.StatusCode, data)

	var authErr *domain.AuthError
	if errors.As(apiErr, &authErr) && !o.authFlow {
		authErr.Forced = true
		c.logger.InfoContext(ctx, "session invalidated by server",
			"method", method,
			"path", path,
			"request_id", requestID)
		c.publish(domain.SessionInvalidated{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			RequestID:  requestID,
			At:         time.Now(),
		})
	}
	return nil, apiErr
}

// DoJSON is Do followed by decoding the 2xx body into out (out may be nil).
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any, opts ...RequestOption) error {
	resp, err := c.Do(ctx, method, path, in, opts...)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, o requestOptions) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	if len(o.query) > 0 {
		u.RawQuery = o.query.Encode()
	}

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	case []byte:
		reader = bytes.NewReader(b)
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encoding body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}

	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range o.headers {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if o.contentType != "" {
		req.Header.Set("Content-Type", o.contentType)
	}
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}
	if token := c.currentToken(ctx); token != "" {
		req.Header.Set(HeaderAuthorization, "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	return req, nil
}

func (c *Client) currentToken(ctx context.Context) string {
	if token := c.Bearer(); token != "" {
		return token
	}
	if c.tokens == nil {
		return ""
	}
	token, ok := c.tokens.Token(ctx)
	if !ok {
		return ""
	}
	return token
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
