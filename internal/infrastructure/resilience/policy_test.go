package resilience

import (
	"testing"
	"time"
)

func TestForProviderTimeoutSplitsBudget(t *testing.T) {
	cfg := ForProviderTimeout(8 * time.Second)
	if cfg.AttemptTimeout != 4*time.Second {
		t.Fatalf("expected 4s attempt timeout, got %v", cfg.AttemptTimeout)
	}
	if got := ForProviderTimeout(0).AttemptTimeout; got != DefaultConfig().AttemptTimeout {
		t.Fatalf("expected default attempt timeout for empty budget, got %v", got)
	}
}

func TestNormalizeFillsInvalidFields(t *testing.T) {
	cfg := Config{
		RetryInitialBackoff: 500 * time.Millisecond,
		RetryMaxBackoff:     100 * time.Millisecond,
		AttemptTimeout:      -time.Second,
		RetryMultiplier:     0.5,
		BreakerFailureRatio: 2,
	}.normalize()

	def := DefaultConfig()
	if cfg.RetryMaxAttempts != def.RetryMaxAttempts {
		t.Fatalf("expected default attempts, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryMaxBackoff != 500*time.Millisecond {
		t.Fatalf("expected max backoff raised to initial, got %v", cfg.RetryMaxBackoff)
	}
	if cfg.AttemptTimeout != 0 {
		t.Fatalf("expected negative attempt timeout cleared, got %v", cfg.AttemptTimeout)
	}
	if cfg.RetryMultiplier != def.RetryMultiplier || cfg.BreakerFailureRatio != def.BreakerFailureRatio {
		t.Fatalf("unexpected multiplier/ratio %v %v", cfg.RetryMultiplier, cfg.BreakerFailureRatio)
	}
	if cfg.BreakerMinRequests != def.BreakerMinRequests || cfg.BreakerHalfOpenMaxCalls != def.BreakerHalfOpenMaxCalls {
		t.Fatalf("unexpected breaker counts %d %d", cfg.BreakerMinRequests, cfg.BreakerHalfOpenMaxCalls)
	}
}
