// Package backendtest runs an in-process stand-in for the shop backend. It
// issues real HS256 tokens, rejects requests without a valid bearer token
// and keeps resources in memory.
package backendtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	gjwt "github.com/golang-jwt/jwt/v5"
)

// Shape builds a login or register response body from the issued token.
type Shape func(token, username string) any

// Response shapes seen from the backend over time.
var (
	ShapeToken Shape = func(token, username string) any {
		return map[string]any{"token": token, "user": map[string]any{"username": username}}
	}
	ShapeAccessToken Shape = func(token, username string) any {
		return map[string]any{"access_token": token, "username": username}
	}
	ShapeDataToken Shape = func(token, username string) any {
		return map[string]any{"data": map[string]any{"token": token, "username": username}}
	}
	ShapeDataAccessToken Shape = func(token, username string) any {
		return map[string]any{"data": map[string]any{"access_token": token, "user": map[string]any{"username": username}}}
	}
	ShapeNoToken Shape = func(_, username string) any {
		return map[string]any{"message": "ok", "username": username}
	}
)

// Request is what the server saw of one call.
type Request struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	RequestID     string
	UserAgent     string
}

type account struct {
	password string
	email    string
	role     string
}

type failure struct {
	status int
	body   string
}

type claims struct {
	Role     string `json:"role,omitempty"`
	Username string `json:"username,omitempty"`
	Gen      int    `json:"gen"`
	gjwt.RegisteredClaims
}

type loginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerPayload struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Server is safe for concurrent use.
type Server struct {
	*httptest.Server

	secret   []byte
	validate *validator.Validate

	mu           sync.Mutex
	gen          int
	users        map[string]account
	shape        Shape
	registerRole string
	collections  map[string]*collection
	failures     map[string]failure
	requests     []Request
	uploads      []string
}

// New starts a server closed at the end of the test.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:       []byte("backendtest-secret"),
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		users:        make(map[string]account),
		shape:        ShapeToken,
		registerRole: "admin",
		collections:  make(map[string]*collection),
		failures:     make(map[string]failure),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.inject)

	r.Post("/admin/login", s.login)
	r.Post("/admin/register", s.register)

	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)

		r.Get("/admin/me", s.me)

		r.Get("/products/all", s.list("products"))
		r.Post("/products/create", s.createMultipart("products", "product"))
		r.Put("/products/{id}", s.updateMultipart("products", "product"))
		r.Delete("/products/{id}", s.remove("products"))

		r.Get("/categories/all", s.list("categories"))
		r.Post("/categories/create", s.createMultipart("categories", "category"))
		r.Delete("/categories/{id}", s.remove("categories"))

		for _, name := range []string{"orders", "company-orders"} {
			r.Get("/"+name+"/all", s.list(name))
			r.Put("/"+name+"/{id}/confirm", s.confirm(name))
			r.Delete("/"+name+"/{id}", s.remove(name))
		}

		for _, kind := range []string{"cpu", "ram", "storage", "motherboard", "monitor"} {
			name := "components/" + kind
			r.Get("/"+name, s.list(name))
			r.Post("/"+name, s.createJSON(name))
			r.Put("/"+name+"/{id}", s.updateJSON(name))
			r.Delete("/"+name+"/{id}", s.remove(name))
		}

		r.Get("/slider/all", s.list("slider"))
		r.Post("/slider/add", s.createJSON("slider"))
		r.Put("/slider/{id}", s.updateJSON("slider"))
		r.Delete("/slider/{id}", s.remove("slider"))

		r.Get("/logs", s.logs)
	})
	return r
}

/* ==== CONTROL ==== */

// AddUser registers an account that can log in.
func (s *Server) AddUser(username, password, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = account{password: password, role: role}
}

// SetShape changes the login and register response body.
func (s *Server) SetShape(shape Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shape = shape
}

// SetRegisterRole sets the role claim given to new registrations. An empty
// role issues tokens without one.
func (s *Server) SetRegisterRole(role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registerRole = role
}

// Token issues a valid token for username with role.
func (s *Server) Token(username, role string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(username, role)
}

func (s *Server) issueLocked(username, role string) string {
	now := time.Now()
	c := claims{
		Role:     role,
		Username: username,
		Gen:      s.gen,
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  gjwt.NewNumericDate(now),
			ExpiresAt: gjwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("backendtest: sign token: %v", err))
	}
	return signed
}

// ExpireTokens invalidates every token issued so far.
func (s *Server) ExpireTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
}

// Fail makes method path answer status with body until ClearFailures.
func (s *Server) Fail(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]failure)
}

// Seed appends items to a collection ("products", "components/cpu", ...).
// Items without an "id" get the next one.
func (s *Server) Seed(name string, items ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collectionLocked(name)
	for _, item := range items {
		c.add(item)
	}
}

// Items returns a copy of a collection.
func (s *Server) Items(name string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collectionLocked(name).snapshot()
}

// Requests returns every request seen, oldest first.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Uploads lists the file names received in multipart bodies.
func (s *Server) Uploads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uploads...)
}

func (s *Server) collectionLocked(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{}
		s.collections[name] = c
	}
	return c
}

/* ==== MIDDLEWARE ==== */

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			RequestID:     r.Header.Get("X-Request-Id"),
			UserAgent:     r.Header.Get("User-Agent"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
	})
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
			return
		}
		if _, err := s.verify(token); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) verify(token string) (*claims, error) {
	var c claims
	_, err := gjwt.ParseWithClaims(token, &c, func(*gjwt.Token) (any, error) {
		return s.secret, nil
	}, gjwt.WithValidMethods([]string{gjwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	if c.Gen != gen {
		return nil, fmt.Errorf("token generation %d is stale", c.Gen)
	}
	return &c, nil
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

/* ==== AUTH HANDLERS ==== */

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginPayload
	if !s.decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	acct, ok := s.users[req.Username]
	if !ok || acct.password != req.Password {
		s.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
		return
	}
	token := s.issueLocked(req.Username, acct.role)
	shape := s.shape
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, shape(token, req.Username))
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerPayload
	if !s.decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	if _, exists := s.users[req.Username]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "user_exists", "Username already taken")
		return
	}
	s.users[req.Username] = account{password: req.Password, email: req.Email, role: s.registerRole}
	token := s.issueLocked(req.Username, s.registerRole)
	shape := s.shape
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, shape(token, req.Username))
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	token, _ := bearerToken(r.Header.Get("Authorization"))
	c, err := s.verify(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"username": c.Username, "role": c.Role})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
		return false
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}
	return true
}

/* ==== RESPONSES ==== */

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Time  string         `json:"time"`
	Error *envelopeError `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{
		Time:  time.Now().UTC().Format(time.RFC3339),
		Error: &envelopeError{Code: code, Message: message},
	})
}
