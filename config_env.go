package portalauth

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type envConfig struct {
	BaseURL        string        `env:"PORTAL_BASE_URL"`
	RequestTimeout time.Duration `env:"PORTAL_REQUEST_TIMEOUT" envDefault:"10s"`

	OTPMaxAttempts   int           `env:"PORTAL_OTP_MAX_ATTEMPTS" envDefault:"5"`
	OTPAttemptWindow time.Duration `env:"PORTAL_OTP_ATTEMPT_WINDOW" envDefault:"15m"`

	SessionRedisKey string        `env:"PORTAL_SESSION_REDIS_KEY"`
	SessionRedisTTL time.Duration `env:"PORTAL_SESSION_REDIS_TTL" envDefault:"0"`

	AuditEnabled    bool `env:"PORTAL_AUDIT_ENABLED" envDefault:"true"`
	AuditBufferSize int  `env:"PORTAL_AUDIT_BUFFER" envDefault:"256"`
	MetricsEnabled  bool `env:"PORTAL_METRICS_ENABLED" envDefault:"true"`
}

// ConfigFromEnv builds a [Config] from PORTAL_* environment variables,
// falling back to [DefaultConfig] values. The result is not validated;
// Build does that.
func ConfigFromEnv() (Config, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	cfg.BaseURL = ec.BaseURL
	cfg.RequestTimeout = ec.RequestTimeout
	cfg.OTP.MaxAttempts = ec.OTPMaxAttempts
	cfg.OTP.AttemptWindow = ec.OTPAttemptWindow
	cfg.Session.RedisKey = ec.SessionRedisKey
	cfg.Session.RedisTTL = ec.SessionRedisTTL
	cfg.Audit.Enabled = ec.AuditEnabled
	cfg.Audit.BufferSize = ec.AuditBufferSize
	cfg.Metrics.Enabled = ec.MetricsEnabled

	return cfg, nil
}
