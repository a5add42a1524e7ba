package portalauth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Saraswati-Portal/portalauth/session"
)

func TestBuilderRequiresBaseURL(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("expected error without a base url")
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	b := New().WithBaseURL("https://portal.example.edu")

	client, err := b.Build()
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	t.Cleanup(client.Close)

	if _, err := b.Build(); err == nil {
		t.Fatal("second build succeeded")
	}
}

func TestBuilderDefaultsToMemoryStore(t *testing.T) {
	client, err := New().WithBaseURL("https://portal.example.edu").Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(client.Close)

	if _, ok := client.Sessions().(*session.MemoryStore); !ok {
		t.Fatalf("store = %T, want *session.MemoryStore", client.Sessions())
	}
	if _, ok := client.otpLimiter.(*memoryOTPLimiter); !ok {
		t.Fatalf("limiter = %T, want *memoryOTPLimiter", client.otpLimiter)
	}
}

func TestBuilderWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	client, err := New().
		WithBaseURL("https://portal.example.edu").
		WithRedis(rdb).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(client.Close)

	if _, ok := client.Sessions().(*session.RedisStore); !ok {
		t.Fatalf("store = %T, want *session.RedisStore", client.Sessions())
	}
	if _, ok := client.otpLimiter.(*redisOTPLimiter); !ok {
		t.Fatalf("limiter = %T, want *redisOTPLimiter", client.otpLimiter)
	}
}

func TestBuilderExplicitStoreWinsOverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := session.NewMemoryStore()
	client, err := New().
		WithBaseURL("https://portal.example.edu").
		WithRedis(rdb).
		WithSessionStore(store).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(client.Close)

	if client.Sessions() != session.Store(store) {
		t.Fatal("explicit store not used")
	}
}

func TestBuilderZeroAttemptsDisablesBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "https://portal.example.edu"
	cfg.OTP.MaxAttempts = 0

	client, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(client.Close)

	if _, ok := client.otpLimiter.(noopOTPLimiter); !ok {
		t.Fatalf("limiter = %T, want noopOTPLimiter", client.otpLimiter)
	}
}

func TestUnbuiltClientRejectsFlows(t *testing.T) {
	var client Client

	if _, err := client.Login(context.Background(), "a@b.edu", "pw"); err != ErrClientNotReady {
		t.Fatalf("login on zero-value client: %v", err)
	}
	if _, err := client.Register(context.Background(), RegisterInput{}); err != ErrClientNotReady {
		t.Fatalf("register on zero-value client: %v", err)
	}
	if d := client.Evaluate(context.Background()); d.Allowed {
		t.Fatal("zero-value client allowed access")
	}
}
