package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
)

// Headers set on every delivery. DeliveryHeader repeats the event id so receivers can
// drop the duplicates that queue retries produce.
const (
	EventHeader    = "X-Provisioner-Event"
	DeliveryHeader = "X-Provisioner-Delivery"
	ProjectHeader  = "X-Provisioner-Project"
)

// HTTPEmitter POSTs project audit events as JSON to one endpoint.
type HTTPEmitter struct {
	client  *http.Client
	url     string
	headers map[string]string
}

// HTTPEmitterOption configures HTTPEmitter.
type HTTPEmitterOption func(*HTTPEmitter)

// WithClient sets the HTTP client (default: 10s timeout).
func WithClient(c *http.Client) HTTPEmitterOption {
	return func(e *HTTPEmitter) {
		e.client = c
	}
}

// WithHeader sets a header sent on every request (e.g. Authorization).
func WithHeader(key, value string) HTTPEmitterOption {
	return func(e *HTTPEmitter) {
		if e.headers == nil {
			e.headers = make(map[string]string)
		}
		e.headers[key] = value
	}
}

func NewHTTPEmitter(url string, opts ...HTTPEmitterOption) *HTTPEmitter {
	e := &HTTPEmitter{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit sends one event. Events without an id or name are rejected before any request,
// as are answers the endpoint will never accept (see EmitError.Permanent).
func (e *HTTPEmitter) Emit(ctx context.Context, event ports.AuditEvent) error {
	if event.ID == "" || event.Event == "" {
		return &EmitError{Event: event.Event, Project: event.Project, Reason: "event id and name are required"}
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	for k, v := range e.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, event.Event)
	req.Header.Set(DeliveryHeader, event.ID)
	if event.Project != "" {
		req.Header.Set(ProjectHeader, event.Project)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver %s for project %q: %w", event.Event, event.Project, err)
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &EmitError{Event: event.Event, Project: event.Project, Status: resp.StatusCode}
	}
	return nil
}

// EmitError is a delivery the endpoint refused, or an event that could not be sent.
type EmitError struct {
	Event   string
	Project string
	Status  int    // 0 when no request was made
	Reason  string // set when Status is 0
}

func (e *EmitError) Error() string {
	target := e.Event
	if e.Project != "" {
		target += " for project " + e.Project
	}
	if e.Status == 0 {
		return "webhook " + target + ": " + e.Reason
	}
	return fmt.Sprintf("webhook %s: endpoint returned status %d", target, e.Status)
}

// Permanent reports whether retrying cannot succeed: a malformed event or a 4xx answer
// other than 408 and 429.
func (e *EmitError) Permanent() bool {
	if e.Status == 0 {
		return true
	}
	return e.Status >= 400 && e.Status < 500 && e.Status != http.StatusRequestTimeout && e.Status != http.StatusTooManyRequests
}

var _ ports.WebhookEmitter = (*HTTPEmitter)(nil)
