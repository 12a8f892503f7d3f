package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	loginPath    = "/admin/login"
	registerPath = "/admin/register"

	maxExchangeBody = 1 << 20
)

// Credentials is the normalized result of a credential exchange.
type Credentials struct {
	Token    string
	Username string
}

// tokenLocations lists where backends have been seen to put the token, in
// probe order. The first non-empty string wins.
var tokenLocations = [][]string{
	{"token"},
	{"access_token"},
	{"data", "token"},
	{"data", "access_token"},
}

var usernameLocations = [][]string{
	{"username"},
	{"user", "username"},
	{"data", "username"},
	{"data", "user", "username"},
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=256"`
}

// Exchange trades credentials for a token. It never touches a session
// store; adopting the result is the caller's decision.
type Exchange struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
	logger   *zap.Logger
}

// NewExchange returns an exchange posting to baseURL. A nil httpClient uses
// http.DefaultClient and a nil logger discards output.
func NewExchange(baseURL string, httpClient *http.Client, logger *zap.Logger) *Exchange {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exchange{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		http:     httpClient,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Login posts username and password to /admin/login.
func (e *Exchange) Login(ctx context.Context, username, password string) (*Credentials, error) {
	req := loginRequest{Username: strings.TrimSpace(username), Password: password}
	if err := e.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return e.post(ctx, loginPath, req, req.Username, "")
}

// Register posts a new admin account to /admin/register.
func (e *Exchange) Register(ctx context.Context, username, email, password string) (*Credentials, error) {
	req := registerRequest{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := e.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return e.post(ctx, registerPath, req, req.Username, "Admin registration failed")
}

func (e *Exchange) post(ctx context.Context, path string, payload any, submitted, fallback string) (*Credentials, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := e.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Method: http.MethodPost, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := ParseAPIError(resp, fallback)
		apiErr.Path = path
		e.logger.Debug("credential exchange rejected",
			zap.String("path", path),
			zap.Int("status", apiErr.Status),
			zap.String("message", apiErr.Message),
		)
		return nil, apiErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxExchangeBody))
	if err != nil {
		return nil, &NetworkError{Method: http.MethodPost, URL: url, Err: err}
	}

	token, ok := firstString(body, tokenLocations)
	if !ok {
		e.logger.Debug("credential exchange returned no token",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, ErrMissingToken
	}

	username, ok := firstString(body, usernameLocations)
	if !ok {
		username = submitted
	}
	return &Credentials{Token: token, Username: username}, nil
}

// firstString returns the first non-blank string found at any of paths.
func firstString(body []byte, paths [][]string) (string, bool) {
	for _, path := range paths {
		v, err := jsonparser.GetString(body, path...)
		if err != nil {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			return v, true
		}
	}
	return "", false
}
