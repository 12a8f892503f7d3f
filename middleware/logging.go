package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/elnormous/contenttype"
	"go.uber.org/zap"
)

const (
	// previewLimit bounds body previews in log lines.
	previewLimit = 200
	// redactLimit bounds how much of a request body is read for redaction.
	// Larger bodies are logged by kind only.
	redactLimit = 64 << 10
)

// secretKeys are body fields whose values never reach a log line.
var secretKeys = []string{"password", "token"}

const redacted = "redacted"

// TokenPreview returns a redacted form of token suitable for logs: the
// first ten and last four characters. Short tokens are fully masked.
func TokenPreview(token string) string {
	if token == "" {
		return ""
	}
	if len(token) < 20 {
		return "***"
	}
	return token[:10] + "..." + token[len(token)-4:]
}

// BodyKind classifies a Content-Type header value for logging.
type BodyKind string

const (
	BodyNone      BodyKind = "none"
	BodyJSON      BodyKind = "json"
	BodyText      BodyKind = "text"
	BodyMultipart BodyKind = "multipart"
	BodyBinary    BodyKind = "binary"
)

// ClassifyBody inspects the request's Content-Type. A request without a
// body is BodyNone; an unparseable type is treated as binary.
func ClassifyBody(req *http.Request) BodyKind {
	if req.Body == nil || req.Body == http.NoBody {
		return BodyNone
	}
	if req.Header.Get("Content-Type") == "" {
		return BodyBinary
	}
	mt, err := contenttype.GetMediaType(req)
	if err != nil {
		return BodyBinary
	}
	return kindOf(mt)
}

func kindOf(mt contenttype.MediaType) BodyKind {
	switch {
	case mt.Type == "multipart":
		return BodyMultipart
	case mt.Subtype == "json" || strings.HasSuffix(mt.Subtype, "+json"):
		return BodyJSON
	case mt.Type == "text", mt.Subtype == "x-www-form-urlencoded":
		return BodyText
	default:
		return BodyBinary
	}
}

// Logging writes a debug line per request and a warn line for every
// non-2xx response. A nil logger disables it.
func Logging(logger *zap.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if logger == nil {
			return next
		}
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("url", req.URL.Redacted()),
			}
			if id := req.Header.Get(HeaderRequestID); id != "" {
				fields = append(fields, zap.String("request_id", id))
			}
			if token := bearerFromHeader(req.Header.Get("Authorization")); token != "" {
				fields = append(fields, zap.String("token", TokenPreview(token)))
			}
			fields = append(fields, zap.String("body", requestPreview(req)))
			logger.Debug("http request", fields...)

			start := time.Now()
			resp, err := next.RoundTrip(req)
			elapsed := time.Since(start)
			if err != nil {
				logger.Debug("http transport error",
					zap.String("method", req.Method),
					zap.String("url", req.URL.Redacted()),
					zap.Duration("elapsed", elapsed),
					zap.Error(err),
				)
				return nil, err
			}

			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				logger.Warn("http error response",
					zap.String("method", req.Method),
					zap.String("url", req.URL.Redacted()),
					zap.Int("status", resp.StatusCode),
					zap.Duration("elapsed", elapsed),
					zap.String("body", peekResponse(resp)),
				)
				return resp, nil
			}

			logger.Debug("http response",
				zap.String("method", req.Method),
				zap.String("url", req.URL.Redacted()),
				zap.Int("status", resp.StatusCode),
				zap.Duration("elapsed", elapsed),
			)
			return resp, nil
		})
	}
}

func bearerFromHeader(value string) string {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return ""
	}
	return value[len(bearer):]
}

func requestPreview(req *http.Request) string {
	kind := ClassifyBody(req)
	switch kind {
	case BodyNone:
		return ""
	case BodyMultipart:
		return "[multipart]"
	case BodyBinary:
		return "[binary]"
	}

	// GetBody yields a fresh reader so the real body stays untouched.
	if req.GetBody == nil {
		return "[" + string(kind) + "]"
	}
	body, err := req.GetBody()
	if err != nil {
		return "[" + string(kind) + "]"
	}
	defer body.Close()

	buf, _ := io.ReadAll(io.LimitReader(body, redactLimit+1))
	if len(buf) > redactLimit {
		return "[" + string(kind) + "]"
	}
	return truncate(redact(kind, buf))
}

// redact masks the values of secretKeys at the top level of a JSON object
// or a form-encoded body. Other bodies are returned unchanged.
func redact(kind BodyKind, buf []byte) []byte {
	switch kind {
	case BodyJSON:
		for _, key := range secretKeys {
			if _, typ, _, err := jsonparser.Get(buf, key); err != nil || typ == jsonparser.NotExist {
				continue
			}
			if out, err := jsonparser.Set(buf, []byte(`"`+redacted+`"`), key); err == nil {
				buf = out
			}
		}
	case BodyText:
		form, err := url.ParseQuery(string(buf))
		if err != nil {
			return buf
		}
		changed := false
		for _, key := range secretKeys {
			if form.Has(key) {
				form.Set(key, redacted)
				changed = true
			}
		}
		if changed {
			return []byte(form.Encode())
		}
	}
	return buf
}

// peekResponse reads a bounded excerpt and splices it back in front of the
// unread remainder.
func peekResponse(resp *http.Response) string {
	if resp.Body == nil {
		return ""
	}
	buf, _ := io.ReadAll(io.LimitReader(resp.Body, previewLimit+1))
	resp.Body = readCloser{
		Reader: io.MultiReader(bytes.NewReader(buf), resp.Body),
		Closer: resp.Body,
	}
	return truncate(buf)
}

type readCloser struct {
	io.Reader
	io.Closer
}

func truncate(buf []byte) string {
	if len(buf) > previewLimit {
		return string(buf[:previewLimit]) + "..."
	}
	return string(buf)
}
