// Package apiclient is the single point of outbound HTTP access to the
// testing tool API.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds every request unless WithTimeout overrides it.
const DefaultTimeout = 15 * time.Second

// TokenSource supplies the bearer token for outgoing requests. An empty
// token means the request is sent unauthenticated.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// StaticToken is a fixed TokenSource.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Error is returned for every failed request. Status is 0 for transport
// failures.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is an HTTP 401 from the API.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is an HTTP 404 from the API.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client talks to the REST API.
type Client struct {
	baseURL string
	http    *resty.Client
	tokens  TokenSource
	logger  *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout; 0 disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithLogger logs every request at debug level.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		timeout := c.http.GetClient().Timeout
		c.http = resty.NewWithClient(hc).SetBaseURL(c.baseURL + "/api").SetTimeout(timeout)
	}
}

// New creates a client for the server at baseURL (without the /api suffix).
// tokens may be nil.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	c := &Client{
		baseURL: baseURL,
		http:    resty.New().SetBaseURL(baseURL + "/api").SetTimeout(DefaultTimeout),
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.SetHeader("Accept", "application/json")
	return c
}

// BaseURL returns the server address the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// request sends one API call. body is encoded as JSON when non-nil; result
// is decoded from a non-empty 2xx response when non-nil.
func (c *Client) request(ctx context.Context, method, endpoint string, body, result interface{}) error {
	req := c.http.R().SetContext(ctx)
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.SetAuthToken(token)
		}
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, endpoint)
	if c.logger != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode()
		}
		c.logger.Debug("api request", "method", method, "endpoint", endpoint, "status", status, "latency", time.Since(start))
	}
	if err != nil {
		return &Error{Message: fmt.Sprintf("%s %s: %v", method, endpoint, err), Err: err}
	}

	if resp.IsError() || !resp.IsSuccess() {
		return newHTTPError(resp.StatusCode(), resp.Body())
	}
	if result == nil || resp.StatusCode() == http.StatusNoContent || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return &Error{Status: resp.StatusCode(), Message: fmt.Sprintf("failed to decode response: %v", err), Err: err}
	}
	return nil
}

func newHTTPError(status int, raw []byte) *Error {
	var body errorBody
	if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return &Error{Status: status, Message: body.Message}
		}
		if body.Error != "" {
			return &Error{Status: status, Message: body.Error}
		}
	}
	if text := http.StatusText(status); text != "" {
		return &Error{Status: status, Message: text}
	}
	return &Error{Status: status, Message: fmt.Sprintf("API request failed with status %d", status)}
}
