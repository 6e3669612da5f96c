// Package restapi is the JSON-over-HTTP client shared by the identity, authorization
// and log-index adapters.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domerrors "github.com/amirhosseinghanipour/provisioner/internal/domain/errors"
)

const maxBody = 1 << 20

// Client sends requests relative to a base URL.
type Client struct {
	client   *http.Client
	baseURL  string
	headers  map[string]string
	username string
	password string
}

// Option configures Client.
type Option func(*Client)

// WithClient sets the HTTP client (default: 10s timeout).
func WithClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.client = c
	}
}

// WithHeader sets a header sent on every request.
func WithHeader(key, value string) Option {
	return func(cl *Client) {
		if cl.headers == nil {
			cl.headers = make(map[string]string)
		}
		cl.headers[key] = value
	}
}

// WithBasicAuth sends the credentials on every request.
func WithBasicAuth(username, password string) Option {
	return func(cl *Client) {
		cl.username = username
		cl.password = password
	}
}

// New returns a client for baseURL. A trailing slash is optional.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends body as JSON (none when nil) to path and returns the response body.
// A non-2xx answer is returned as *StatusError.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}, header http.Header) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimPrefix(path, "/"), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Method: method, Path: req.URL.Path, Status: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// StatusError is a non-2xx answer. A 409 matches domerrors.ErrConflict.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	if e.Body != "" {
		msg += ": " + truncate(e.Body, 200)
	}
	return msg
}

func (e *StatusError) Is(target error) bool {
	return target == domerrors.ErrConflict && e.Status == http.StatusConflict
}

// HasStatus reports whether err is a *StatusError with the given status.
func HasStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

// IsNotFound reports whether err is a 404 answer.
func IsNotFound(err error) bool {
	return HasStatus(err, http.StatusNotFound)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
