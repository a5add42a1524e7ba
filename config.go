package portalauth

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config defines the tunable surface of a [Client]. Configure it once through
// the [Builder]; the Client treats it as immutable afterwards.
type Config struct {
	// BaseURL is the portal identity backend, e.g. "https://portal.example.edu".
	BaseURL string
	// RequestTimeout bounds every outbound request. Flows have no timeout
	// of their own beyond the transport's.
	RequestTimeout time.Duration

	OTP     OTPConfig
	Session SessionConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// OTPConfig is the client-side attempt budget applied to OTP submissions.
// The backend may or may not enforce its own limits; this policy holds
// regardless.
type OTPConfig struct {
	// MaxAttempts is the number of failed submissions tolerated per
	// (purpose, email) pair within AttemptWindow. Zero disables the budget.
	MaxAttempts int
	// AttemptWindow is the fixed window the budget applies to. The counter
	// starts on the first failure and resets on success or window expiry.
	AttemptWindow time.Duration
}

// SessionConfig tunes the optional Redis-backed session slot. It only takes
// effect when a Redis client is supplied to the Builder.
type SessionConfig struct {
	// RedisKey is the key holding the token. Empty uses session.DefaultRedisKey.
	RedisKey string
	// RedisTTL expires an idle persisted session. Zero keeps it until cleared.
	RedisTTL time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration the portal front end ships with.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 10 * time.Second,
		OTP: OTPConfig{
			MaxAttempts:   5,
			AttemptWindow: 15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for values Build cannot work with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("BaseURL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("BaseURL must be an absolute URL")
	}
	if c.RequestTimeout < 0 {
		return errors.New("RequestTimeout must not be negative")
	}
	if c.OTP.MaxAttempts < 0 {
		return errors.New("OTP.MaxAttempts must not be negative")
	}
	if c.OTP.MaxAttempts > 0 && c.OTP.AttemptWindow <= 0 {
		return errors.New("OTP.AttemptWindow must be positive when MaxAttempts is set")
	}
	if c.Session.RedisTTL < 0 {
		return errors.New("Session.RedisTTL must not be negative")
	}
	return nil
}
