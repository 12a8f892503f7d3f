package dashboard

import (
	"errors"
	"net/http"

	"github.com/pcprimedz/dashboard/middleware"
	"github.com/pcprimedz/dashboard/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles a Client. A Builder is single-use.
type Builder struct {
	config Config

	logger     *zap.Logger
	httpClient *http.Client
	transport  http.RoundTripper
	redis      redis.UniversalClient
	backend    session.Backend
	navigator  Navigator
	auditSink  AuditSink

	built bool
}

// New returns a builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithLogger sets the logger shared by the client and its middleware.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithHTTPClient uses client as is. The middleware chain and HTTP timeout
// from the configuration are not applied to it.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithTransport sets the base transport under the middleware chain.
func (b *Builder) WithTransport(rt http.RoundTripper) *Builder {
	b.transport = rt
	return b
}

// WithRedis supplies the client used by the redis session backend. The
// caller keeps ownership of it.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionBackend overrides the backend selected by the configuration.
func (b *Builder) WithSessionBackend(backend session.Backend) *Builder {
	b.backend = backend
	return b
}

// WithNavigator sets who is told about the login route on expiry.
func (b *Builder) WithNavigator(nav Navigator) *Builder {
	b.navigator = nav
	return b
}

// WithAuditSink sets the audit destination. Audit must also be enabled in
// the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Client with an
// Unauthenticated store. Call Client.Restore to load a persisted session.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		cfg:       cfg,
		baseURL:   trimBase(cfg.BaseURL),
		navigator: b.navigator,
		logger:    logger,
		metrics:   NewMetrics(cfg.Metrics),
	}
	if c.navigator == nil {
		c.navigator = noopNavigator{}
	}

	// -------- SESSION BACKEND --------
	backend := b.backend
	if backend == nil {
		switch cfg.Session.Backend {
		case BackendFile:
			backend = session.NewFileBackend(cfg.Session.File)
		case BackendRedis:
			rdb := b.redis
			if rdb == nil {
				if cfg.Session.RedisAddr == "" {
					return nil, errors.New("redis session backend requires RedisAddr or WithRedis")
				}
				owned := redis.NewClient(&redis.Options{Addr: cfg.Session.RedisAddr})
				c.closers = append(c.closers, owned.Close)
				rdb = owned
			}
			backend = session.NewRedisBackend(rdb, cfg.Session.RedisPrefix, cfg.Session.Profile, cfg.Session.TTL)
		default:
			backend = session.NewMemoryBackend()
		}
	}
	c.store = session.NewStore(backend)

	// -------- TRANSPORT --------
	httpClient := b.httpClient
	if httpClient == nil {
		var debug *zap.Logger
		if cfg.HTTP.DebugLogging {
			debug = logger
		}
		httpClient = &http.Client{
			Timeout: cfg.HTTP.Timeout,
			Transport: middleware.Chain(b.transport,
				middleware.RequestID(),
				middleware.UserAgent(cfg.HTTP.UserAgent),
				middleware.Logging(debug),
			),
		}
	}
	c.http = httpClient
	c.exchange = NewExchange(c.baseURL, httpClient, logger)

	c.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	b.built = true
	return c, nil
}

func trimBase(base string) string {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base
}
