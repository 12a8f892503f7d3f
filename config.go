package dashboard

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Session backend names accepted by SessionConfig.Backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config configures a Client. Start from DefaultConfig or LoadConfig; the
// zero value does not validate.
type Config struct {
	// BaseURL is the backend root every relative request path is resolved
	// against.
	BaseURL string `env:"DASHBOARD_BASE_URL,strict"`
	// LoginRoute is reported to the Navigator when the session expires.
	LoginRoute string `env:"DASHBOARD_LOGIN_ROUTE,strict"`

	HTTP    HTTPConfig
	Session SessionConfig
	Cache   CacheConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
HTTP CONFIG
====================================
*/

// HTTPConfig tunes the underlying transport.
type HTTPConfig struct {
	// Timeout bounds a whole request including reading the body. Callers
	// can shorten it per request with a context deadline.
	Timeout   time.Duration `env:"DASHBOARD_HTTP_TIMEOUT,strict"`
	UserAgent string        `env:"DASHBOARD_USER_AGENT,strict"`
	// DebugLogging turns on the request/response logging middleware.
	DebugLogging bool `env:"DASHBOARD_HTTP_DEBUG,strict"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig selects where the session is persisted.
type SessionConfig struct {
	Backend     string        `env:"DASHBOARD_SESSION_BACKEND,strict"`
	File        string        `env:"DASHBOARD_SESSION_FILE,strict"`
	RedisAddr   string        `env:"DASHBOARD_REDIS_ADDR,strict"`
	RedisPrefix string        `env:"DASHBOARD_REDIS_PREFIX,strict"`
	Profile     string        `env:"DASHBOARD_PROFILE,strict"`
	TTL         time.Duration `env:"DASHBOARD_SESSION_TTL,strict"`
}

// CacheConfig sizes the list cache used by the api package. Size 0 disables
// caching.
type CacheConfig struct {
	Size int           `env:"DASHBOARD_CACHE_SIZE,strict"`
	TTL  time.Duration `env:"DASHBOARD_CACHE_TTL,strict"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `env:"DASHBOARD_AUDIT,strict"`
	BufferSize int  `env:"DASHBOARD_AUDIT_BUFFER,strict"`
	DropIfFull bool `env:"DASHBOARD_AUDIT_DROP_IF_FULL,strict"`
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool `env:"DASHBOARD_METRICS,strict"`
	EnableLatencyHistograms bool `env:"DASHBOARD_METRICS_LATENCY,strict"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:8080",
		LoginRoute: "/login",
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "dashctl",
		},
		Session: SessionConfig{
			Backend:     BackendMemory,
			RedisPrefix: "dashboard",
			Profile:     "default",
		},
		Cache: CacheConfig{
			Size: 128,
			TTL:  time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// LoadConfig starts from the defaults, loads dotenvPath into the process
// environment when it exists (variables already set win), and applies every
// DASHBOARD_* variable. An empty dotenvPath skips the file.
func LoadConfig(dotenvPath string) (Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	cfg := defaultConfig()
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("BaseURL must be an absolute http(s) URL")
	}
	if !strings.HasPrefix(c.LoginRoute, "/") {
		return errors.New("LoginRoute must start with /")
	}

	if c.HTTP.Timeout <= 0 {
		return errors.New("HTTP Timeout must be > 0")
	}

	switch c.Session.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Session.File == "" {
			return errors.New("Session File is required for the file backend")
		}
	case BackendRedis:
		// RedisAddr may be empty when the builder is handed a client.
	default:
		return fmt.Errorf("Session Backend must be %q, %q or %q", BackendMemory, BackendFile, BackendRedis)
	}
	if c.Session.TTL < 0 {
		return errors.New("Session TTL must be >= 0")
	}

	if c.Cache.Size < 0 {
		return errors.New("Cache Size must be >= 0")
	}
	if c.Cache.TTL < 0 {
		return errors.New("Cache TTL must be >= 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
