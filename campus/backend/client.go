// Package backend holds the REST clients of the Users, Spaces and Verify
// services.
package backend

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
	"strings"
	"time"

	"github.com/m3rciful/campusbot/core/logger"
	"github.com/m3rciful/campusbot/core/telegram/netutil"

	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds every backend request when Config.Timeout is zero.
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 512
	maxBody      = 4 << 20

	headerRequestID = "X-Request-ID"
)

// Observer receives one call per backend request; status is 0 when no
// response was received.
type Observer interface {
	ObserveBackend(service, operation string, status int, took time.Duration)
}

// Config describes one backend service.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client; its own timeout is replaced.
	HTTPClient *http.Client
	Observer   Observer
}

type client struct {
	service string
	base    string
	http    *http.Client
	obs     Observer
}

func newClient(service string, cfg Config) (*client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: base url must be absolute, got %q", service, cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := &http.Client{}
	if cfg.HTTPClient != nil {
		copied := *cfg.HTTPClient
		hc = &copied
	}
	hc.Timeout = timeout
	return &client{service: service, base: raw, http: hc, obs: cfg.Observer}, nil
}

// request describes one call.
type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
}

// do performs exactly one HTTP request and returns the raw 2xx body.
func (c *client) do(ctx context.Context, r request) ([]byte, error) {
	endpoint := c.base + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: encode request: %w", c.service, r.op, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: build request: %w", c.service, r.op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set(headerRequestID, reqID)
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(ctx, r, reqID, 0, start, err)
		return nil, &UnavailableError{
			Service:   c.service,
			Operation: r.op,
			Transient: netutil.ShouldRetry(err) || errors.Is(err, context.DeadlineExceeded),
			Err:       err,
		}
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	c.observe(ctx, r, reqID, resp.StatusCode, start, readErr)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Service:    c.service,
			Operation:  r.op,
			StatusCode: resp.StatusCode,
			Body:       logger.SanitizeLimit(string(data), maxErrorBody),
		}
	}
	if readErr != nil {
		return nil, &UnavailableError{Service: c.service, Operation: r.op, Err: readErr}
	}
	return data, nil
}

func (c *client) observe(ctx context.Context, r request, reqID string, status int, start time.Time, err error) {
	took := time.Since(start)
	if c.obs != nil {
		c.obs.ObserveBackend(c.service, r.op, status, took)
	}
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("operation", r.op),
		slog.String("method", r.method),
		slog.String("path", r.path),
		slog.String("request_id", reqID),
		slog.Duration("duration", took),
	}
	if status > 0 {
		attrs = append(attrs, slog.Int("http_code", status))
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Warn(ctx, "backend."+c.service, "backend.call", attrs...)
		return
	}
	logger.Debug(ctx, "backend."+c.service, "backend.call", attrs...)
}

// object runs r and decodes an object answer into out.
func (c *client) object(ctx context.Context, r request, out any, required ...string) error {
	data, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if err := decodeObject(data, out, required); err != nil {
		return &DecodeError{Service: c.service, Operation: r.op, Err: err}
	}
	return nil
}

// list runs r and decodes an array answer into out.
func (c *client) list(ctx context.Context, r request, out any, required ...string) error {
	data, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if err := decodeList(data, out, required); err != nil {
		return &DecodeError{Service: c.service, Operation: r.op, Err: err}
	}
	return nil
}

func decodeObject(data []byte, out any, required []string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("null object")
	}
	if err := requireFields(fields, required); err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func decodeList(data []byte, out any, required []string) error {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	for i, fields := range items {
		if fields == nil {
			return fmt.Errorf("item %d: null object", i)
		}
		if err := requireFields(fields, required); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return json.Unmarshal(data, out)
}

func requireFields(fields map[string]json.RawMessage, required []string) error {
	for _, name := range required {
		raw, ok := fields[name]
		if !ok || string(raw) == "null" {
			return fmt.Errorf("missing field %q", name)
		}
	}
	return nil
}

// Status is the answer of mutating Users calls.
type Status struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ping is shared by services exposing GET /ping.
func (c *client) ping(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	if err := c.object(ctx, request{op: "ping", method: http.MethodGet, path: "/ping"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
