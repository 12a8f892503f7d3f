package dashboard

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/pcprimedz/dashboard/session"
)

var (
	// ErrInvalidCredential is returned when an empty token is offered to the
	// session store.
	ErrInvalidCredential = session.ErrInvalidCredential
	// ErrMissingToken is returned when a successful login or registration
	// response carries no token in any known location.
	ErrMissingToken = errors.New("response did not contain a token")
	// ErrNetwork is matched by every *NetworkError.
	ErrNetwork = errors.New("network error")
	// ErrAuthorizationExpired is returned by helpers that must produce a value
	// when the backend rejected the session with 401.
	ErrAuthorizationExpired = errors.New("authorization expired")
	// ErrInvalidInput is returned when request input fails validation before
	// any network I/O.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotAuthenticated is returned by RequireAdmin without a session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrForbidden is returned by RequireAdmin for a non-admin session.
	ErrForbidden = errors.New("admin role required")
)

// maxErrorBody bounds how much of an error response is retained.
const maxErrorBody = 64 << 10

// APIError is a non-2xx response from the backend. Message is the server's
// own wording and belongs in logs; use UserMessage for display.
type APIError struct {
	Status  int
	Message string
	Code    string
	Body    []byte
	// Path is set for credential exchanges so a rejected login is not
	// mistaken for an expired session.
	Path string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// NetworkError wraps a transport failure: the server was never reached or
// the connection broke before a response arrived.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is reports ErrNetwork so callers can test the kind without errors.As.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// ParseAPIError consumes resp.Body and builds an *APIError. The message is
// taken from "message", a string "error", or the enveloped "error.message",
// in that order. When none is present fallback is used, and when fallback is
// empty the status line.
func ParseAPIError(resp *http.Response, fallback string) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	if resp.Body != nil {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr.Body = body
	}

	apiErr.Message = errorMessage(apiErr.Body)
	apiErr.Code = errorCode(apiErr.Body)

	if apiErr.Message == "" {
		apiErr.Message = fallback
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("Error %d: %s", resp.StatusCode, statusText(resp))
	}
	return apiErr
}

func errorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if msg, err := jsonparser.GetString(body, "message"); err == nil && strings.TrimSpace(msg) != "" {
		return msg
	}
	if msg, err := jsonparser.GetString(body, "error"); err == nil && strings.TrimSpace(msg) != "" {
		return msg
	}
	if msg, err := jsonparser.GetString(body, "error", "message"); err == nil && strings.TrimSpace(msg) != "" {
		return msg
	}
	return ""
}

func errorCode(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if code, err := jsonparser.GetString(body, "code"); err == nil {
		return code
	}
	if code, err := jsonparser.GetString(body, "error", "code"); err == nil {
		return code
	}
	return ""
}

func statusText(resp *http.Response) string {
	// resp.Status is "404 Not Found"; keep only the reason phrase.
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
