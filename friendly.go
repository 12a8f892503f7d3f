package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net"

	"go.uber.org/zap"
)

// User-facing messages. They are fixed sentences and never carry server or
// internal detail.
const (
	MsgConnection         = "Connection error. Please check your internet and try again."
	MsgInvalidData        = "Server returned invalid data. Please try again."
	MsgTimeout            = "Request took too long. Please try again."
	MsgSessionExpired     = "Your session has expired. Please log in again."
	MsgBadLogin           = "Invalid username or password."
	MsgForbidden          = "You don't have permission to perform this action."
	MsgNotFound           = "The requested resource was not found."
	MsgConflict           = "This action conflicts with existing data. Please refresh and try again."
	MsgInvalidRequest     = "Invalid request. Please check your input."
	MsgValidation         = "Please check your input and try again."
	MsgServer             = "Server error. Please try again in a moment."
	MsgGeneric            = "An error occurred. Please try again."
	MsgUnexpected         = "An unexpected error occurred. Please try again."
	MsgNotAuthenticated   = "Please log in to continue."
	MsgAdminRequired      = "Admin privileges are required."
	MsgRegistrationNoRole = "Registration succeeded, but admin privileges not detected."
)

// UserMessage maps err to a short sentence safe to show a person. It returns
// "" for a nil error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiMessage(apiErr)
	}

	var netErr net.Error
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return MsgTimeout
	case errors.Is(err, ErrNetwork):
		if errors.As(err, &netErr) && netErr.Timeout() {
			return MsgTimeout
		}
		return MsgConnection
	case errors.Is(err, ErrAuthorizationExpired):
		return MsgSessionExpired
	case errors.Is(err, ErrNotAuthenticated):
		return MsgNotAuthenticated
	case errors.Is(err, ErrForbidden):
		return MsgAdminRequired
	case errors.Is(err, ErrInvalidInput):
		return MsgValidation
	case errors.Is(err, ErrMissingToken), errors.Is(err, ErrInvalidCredential):
		return MsgInvalidData
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return MsgInvalidData
	case errors.Is(err, context.Canceled):
		return MsgGeneric
	}
	return MsgUnexpected
}

func apiMessage(e *APIError) string {
	// Credential endpoints answer 401 for rejected credentials, never for
	// an expired session.
	switch {
	case e.Path == loginPath && (e.Status == 400 || e.Status == 401):
		return MsgBadLogin
	case e.Path == registerPath && e.Status == 401:
		return MsgBadLogin
	}
	switch e.Status {
	case 400:
		return MsgInvalidRequest
	case 401:
		return MsgSessionExpired
	case 403:
		return MsgForbidden
	case 404:
		return MsgNotFound
	case 409:
		return MsgConflict
	case 422:
		return MsgValidation
	case 500, 502, 503, 504:
		return MsgServer
	}
	return MsgGeneric
}

// Report logs err with full diagnostic detail and returns its user message.
// The two are never mixed: the log gets the server's text, the caller gets
// the fixed sentence.
func Report(logger *zap.Logger, err error) string {
	msg := UserMessage(err)
	if err == nil {
		return msg
	}
	if logger == nil {
		return msg
	}

	fields := []zap.Field{zap.Error(err), zap.String("user_message", msg)}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		fields = append(fields,
			zap.Int("status", apiErr.Status),
			zap.String("code", apiErr.Code),
			zap.String("server_message", apiErr.Message),
			zap.ByteString("body", apiErr.Body),
		)
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		fields = append(fields, zap.String("method", netErr.Method), zap.String("url", netErr.URL))
	}
	logger.Error("dashboard call failed", fields...)
	return msg
}

// WithErrorHandling runs fn and splits its outcome into a value and a user
// message. A failure is reported to logger and the zero value returned.
func WithErrorHandling[T any](ctx context.Context, logger *zap.Logger, fn func(context.Context) (T, error)) (T, string) {
	v, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, Report(logger, err)
	}
	return v, ""
}
