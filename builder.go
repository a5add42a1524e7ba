package portalauth

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/Saraswati-Portal/portalauth/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Client]. A Builder is single-use: Build returns an
// error when called twice.
type Builder struct {
	config     Config
	httpClient *http.Client
	redis      redis.UniversalClient
	store      session.Store
	auditSink  AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithBaseURL sets the portal backend address.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithHTTPClient overrides the transport. The default is an http.Client
// bounded by Config.RequestTimeout.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithRedis makes the session slot and the OTP attempt budget Redis-backed.
// Without it both live in process memory.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore supplies a custom session store. It takes precedence over
// WithRedis for the session slot.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithAuditSink sets the sink receiving audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process metrics counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and assembles the Client. Construction
// is allocation-only; no network I/O happens until a flow method is called.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		if b.redis != nil {
			store = session.NewRedisStore(b.redis, cfg.Session.RedisKey, cfg.Session.RedisTTL)
		} else {
			store = session.NewMemoryStore()
		}
	}

	var limiter otpLimiter = noopOTPLimiter{}
	if cfg.OTP.MaxAttempts > 0 {
		if b.redis != nil {
			limiter, err = newRedisOTPLimiter(b.redis, cfg.OTP)
		} else {
			limiter, err = newMemoryOTPLimiter(cfg.OTP)
		}
		if err != nil {
			return nil, err
		}
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	client := &Client{
		config:     cfg,
		baseURL:    baseURL,
		httpClient: httpClient,
		sessions:   store,
		otpLimiter: limiter,
		audit:      newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:    NewMetrics(cfg.Metrics),
	}

	b.built = true

	return client, nil
}
