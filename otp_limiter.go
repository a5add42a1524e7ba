package portalauth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTP submission purposes tracked by the attempt limiter. One budget per
// (purpose, email) pair; registration and reset challenges never share a
// counter.
const (
	otpPurposeRegistration = "registration"
	otpPurposeReset        = "reset"
)

var (
	errOTPAttemptsExceeded    = errors.New("otp attempts exceeded")
	errOTPLimiterBackend      = errors.New("otp limiter backend unavailable")
	errOTPLimiterWindowNeeded = errors.New("otp limiter requires a positive window")
)

// otpLimiter enforces the client-side OTP attempt budget. Check runs before
// a submission, RecordFailure after a rejected code, Reset after success.
type otpLimiter interface {
	Check(ctx context.Context, purpose, email string) error
	RecordFailure(ctx context.Context, purpose, email string) error
	Reset(ctx context.Context, purpose, email string) error
}

// noopOTPLimiter disables the budget (Config.OTP.MaxAttempts == 0).
type noopOTPLimiter struct{}

func (noopOTPLimiter) Check(context.Context, string, string) error         { return nil }
func (noopOTPLimiter) RecordFailure(context.Context, string, string) error { return nil }
func (noopOTPLimiter) Reset(context.Context, string, string) error         { return nil }

type otpWindow struct {
	failures  int
	expiresAt time.Time
}

// memoryOTPLimiter is a fixed-window counter per (purpose, email). The
// window starts on the first failure; entries are dropped lazily on access.
type memoryOTPLimiter struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	entries     map[string]*otpWindow
	now         func() time.Time
}

func newMemoryOTPLimiter(cfg OTPConfig) (*memoryOTPLimiter, error) {
	if cfg.AttemptWindow <= 0 {
		return nil, errOTPLimiterWindowNeeded
	}
	return &memoryOTPLimiter{
		maxAttempts: cfg.MaxAttempts,
		window:      cfg.AttemptWindow,
		entries:     make(map[string]*otpWindow),
		now:         time.Now,
	}, nil
}

func otpLimiterKey(purpose, email string) string {
	return purpose + ":" + email
}

func (l *memoryOTPLimiter) Check(_ context.Context, purpose, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.live(purpose, email)
	if entry != nil && entry.failures >= l.maxAttempts {
		return errOTPAttemptsExceeded
	}
	return nil
}

func (l *memoryOTPLimiter) RecordFailure(_ context.Context, purpose, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.live(purpose, email)
	if entry == nil {
		entry = &otpWindow{expiresAt: l.now().Add(l.window)}
		l.entries[otpLimiterKey(purpose, email)] = entry
	}
	entry.failures++
	return nil
}

func (l *memoryOTPLimiter) Reset(_ context.Context, purpose, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, otpLimiterKey(purpose, email))
	return nil
}

// live returns the current window entry, dropping it first if expired.
// Callers must hold mu.
func (l *memoryOTPLimiter) live(purpose, email string) *otpWindow {
	key := otpLimiterKey(purpose, email)
	entry, ok := l.entries[key]
	if !ok {
		return nil
	}
	if l.now().After(entry.expiresAt) {
		delete(l.entries, key)
		return nil
	}
	return entry
}

// redisOTPLimiter shares the attempt budget across processes. Fixed-window
// semantics: the TTL is set on the first failure in the window only.
type redisOTPLimiter struct {
	redis       redis.UniversalClient
	prefix      string
	maxAttempts int
	window      time.Duration
}

func newRedisOTPLimiter(client redis.UniversalClient, cfg OTPConfig) (*redisOTPLimiter, error) {
	if cfg.AttemptWindow <= 0 {
		return nil, errOTPLimiterWindowNeeded
	}
	return &redisOTPLimiter{
		redis:       client,
		prefix:      "portal:otp",
		maxAttempts: cfg.MaxAttempts,
		window:      cfg.AttemptWindow,
	}, nil
}

func (l *redisOTPLimiter) key(purpose, email string) string {
	return l.prefix + ":" + purpose + ":" + email
}

func (l *redisOTPLimiter) Check(ctx context.Context, purpose, email string) error {
	count, err := l.redis.Get(ctx, l.key(purpose, email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", errOTPLimiterBackend, err)
	}
	if count >= int64(l.maxAttempts) {
		return errOTPAttemptsExceeded
	}
	return nil
}

func (l *redisOTPLimiter) RecordFailure(ctx context.Context, purpose, email string) error {
	key := l.key(purpose, email)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", errOTPLimiterBackend, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", errOTPLimiterBackend, err)
		}
	}
	return nil
}

func (l *redisOTPLimiter) Reset(ctx context.Context, purpose, email string) error {
	if err := l.redis.Del(ctx, l.key(purpose, email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", errOTPLimiterBackend, err)
	}
	return nil
}

func mapOTPLimiterError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errOTPAttemptsExceeded):
		return ErrOTPRateLimited
	default:
		return ErrOTPLimiterUnavailable
	}
}
