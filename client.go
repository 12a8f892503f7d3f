package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/pcprimedz/dashboard/middleware"
	"github.com/pcprimedz/dashboard/session"
	"go.uber.org/zap"
)

// Navigator is told where to send the user when the session ends. It is the
// injectable replacement for a hard page redirect.
type Navigator interface {
	RedirectToLogin(ctx context.Context, route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, route string)

func (f NavigatorFunc) RedirectToLogin(ctx context.Context, route string) {
	f(ctx, route)
}

type noopNavigator struct{}

func (noopNavigator) RedirectToLogin(context.Context, string) {}

// Response is the raw HTTP response plus the client's verdict on it.
// AuthorizationExpired is true exactly when the backend answered 401; by
// then the session has already been cleared.
type Response struct {
	*http.Response
	AuthorizationExpired bool
}

// Client sends authorized requests on behalf of the session in its store.
// It is safe for concurrent use.
type Client struct {
	cfg       Config
	baseURL   string
	http      *http.Client
	store     *session.Store
	exchange  *Exchange
	navigator Navigator
	logger    *zap.Logger
	metrics   *Metrics
	audit     *auditDispatcher
	closers   []func() error
}

// Store returns the session store owned by the client.
func (c *Client) Store() *session.Store {
	return c.store
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config {
	return c.cfg
}

// Logger returns the client's logger, never nil.
func (c *Client) Logger() *zap.Logger {
	return c.logger
}

// MetricsSnapshot returns the current counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// AuditDropped reports audit events lost to backpressure.
func (c *Client) AuditDropped() uint64 {
	return c.audit.Dropped()
}

// Close flushes the audit queue and releases resources the builder opened.
func (c *Client) Close() error {
	c.audit.Close()
	var first error
	for _, fn := range c.closers {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

// URL resolves path against the configured base URL. Absolute URLs are
// returned unchanged.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// Do sends req with the session's bearer token.
//
// Caller headers are kept, including an explicit Authorization. Content-Type
// defaults to application/json only when the caller set none, so multipart
// uploads keep their boundary.
//
// A 401 clears the session, emits an audit event, notifies the Navigator and
// returns the untouched response with AuthorizationExpired set. Any other
// status is returned as is. The only error is a *NetworkError.
func (c *Client) Do(req *http.Request) (*Response, error) {
	ctx := req.Context()
	req = req.Clone(ctx)
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	if req.Header.Get("Authorization") == "" {
		if token := c.store.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	c.metrics.Inc(MetricRequest)
	switch middleware.ClassifyBody(req) {
	case middleware.BodyMultipart, middleware.BodyBinary:
		c.metrics.Inc(MetricUpload)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.Observe(MetricRequestLatency, time.Since(start))
	if err != nil {
		c.metrics.Inc(MetricRequestNetworkFailure)
		return nil, &NetworkError{Method: req.Method, URL: req.URL.Redacted(), Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.expire(ctx, req, resp)
		return &Response{Response: resp, AuthorizationExpired: true}, nil
	}
	return &Response{Response: resp}, nil
}

func (c *Client) expire(ctx context.Context, req *http.Request, resp *http.Response) {
	prev := c.store.User()

	// The caller's context may already be done; the clear must still land.
	cleared, err := c.store.ClearAuth(context.WithoutCancel(ctx))
	if err != nil {
		c.logger.Warn("clear persisted session after 401", zap.Error(err))
	}
	if cleared {
		c.metrics.Inc(MetricSessionCleared)
	}
	c.metrics.Inc(MetricAuthorizationExpired)

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: AuditAuthorizationExpired,
		Method:    req.Method,
		URL:       req.URL.Redacted(),
		Status:    resp.StatusCode,
		Success:   cleared,
	}
	if prev != nil {
		event.Username = prev.Username
		event.Role = prev.Role
	}
	if resp.Request != nil {
		event.RequestID = resp.Request.Header.Get(middleware.HeaderRequestID)
	}
	c.audit.Emit(ctx, event)

	c.logger.Info("session expired",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Bool("cleared", cleared),
	)
	c.navigator.RedirectToLogin(ctx, c.cfg.LoginRoute)
}

// NewRequest builds a request for path relative to the base URL.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, method, c.URL(path), body)
}

// Get sends an authorized GET.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Delete sends an authorized DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	req, err := c.NewRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// PostJSON sends v as a JSON body.
func (c *Client) PostJSON(ctx context.Context, path string, v any) (*Response, error) {
	return c.sendJSON(ctx, http.MethodPost, path, v)
}

// PutJSON sends v as a JSON body.
func (c *Client) PutJSON(ctx context.Context, path string, v any) (*Response, error) {
	return c.sendJSON(ctx, http.MethodPut, path, v)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, v any) (*Response, error) {
	var body io.Reader
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.Do(req)
}

// PostMultipart sends fields and uploads as multipart/form-data.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, uploads ...Upload) (*Response, error) {
	return c.sendMultipart(ctx, http.MethodPost, path, fields, uploads)
}

// PutMultipart sends fields and uploads as multipart/form-data.
func (c *Client) PutMultipart(ctx context.Context, path string, fields map[string]string, uploads ...Upload) (*Response, error) {
	return c.sendMultipart(ctx, http.MethodPut, path, fields, uploads)
}

func (c *Client) sendMultipart(ctx context.Context, method, path string, fields map[string]string, uploads []Upload) (*Response, error) {
	body, contentType, err := NewMultipartBody(fields, uploads...)
	if err != nil {
		return nil, err
	}
	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(req)
}

// Upload is one file part of a multipart body.
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Data        io.Reader
}

// NewMultipartBody encodes fields (in key order) followed by uploads and
// returns the body with its Content-Type, boundary included.
func NewMultipartBody(fields map[string]string, uploads ...Upload) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", fmt.Errorf("multipart field %s: %w", k, err)
		}
	}

	for _, up := range uploads {
		if up.Data == nil {
			continue
		}
		ct := up.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, up.Field, up.Filename))
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("multipart file %s: %w", up.Field, err)
		}
		if _, err := io.Copy(part, up.Data); err != nil {
			return nil, "", fmt.Errorf("multipart file %s: %w", up.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// Expect returns nil for a 2xx response and leaves its body open. Otherwise
// it drains and closes the body and returns ErrAuthorizationExpired for a
// 401 or an *APIError whose message falls back to fallback.
func Expect(resp *Response, fallback string) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	defer resp.Body.Close()

	if resp.AuthorizationExpired {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return ErrAuthorizationExpired
	}
	return ParseAPIError(resp.Response, fallback)
}

// DecodeJSON checks resp with Expect and decodes a 2xx body into T. The body
// is always closed.
func DecodeJSON[T any](resp *Response, fallback string) (T, error) {
	var out T
	if err := Expect(resp, fallback); err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if err == io.EOF {
			return out, nil
		}
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
