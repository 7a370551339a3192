package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wonny/pitviper/backend/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{Enabled: false, Host: "localhost", Port: "6379"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() on disabled client = %v", err)
	}
	if client.Redis() != nil {
		t.Error("Expected no underlying client")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on disabled client = %v", err)
	}
}

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// port 1 is reserved and refuses connections
	_, err := New(ctx, config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: "1"})
	if err == nil {
		t.Error("Expected connection error")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")
	coinbase := LimitFor("coinbase")

	d, err := limiter.Allow(context.Background(), coinbase)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !d.Allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if d.Remaining != coinbase.Limit {
		t.Errorf("Expected remaining = %d, got %d", coinbase.Limit, d.Remaining)
	}
	if err := limiter.Wait(context.Background(), LimitFor("fred")); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestLimitFor(t *testing.T) {
	tests := []struct {
		provider string
		want     RateLimitConfig
	}{
		{"coinbase", RateLimitConfig{Key: "coinbase", Limit: 10, Window: time.Second}},
		{"fred", RateLimitConfig{Key: "fred", Limit: 120, Window: time.Minute}},
		{"unknown", RateLimitConfig{Key: "unknown", Limit: 60, Window: time.Minute}},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			if got := LimitFor(tt.provider); got != tt.want {
				t.Errorf("LimitFor(%q) = %+v, want %+v", tt.provider, got, tt.want)
			}
		})
	}
}

func TestClampRetry(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{0, 10 * time.Millisecond},
		{250 * time.Millisecond, 250 * time.Millisecond},
		{time.Minute, time.Second},
	}

	for _, tt := range tests {
		if got := clampRetry(tt.in); got != tt.want {
			t.Errorf("clampRetry(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}
	if err := cache.Set(ctx, "key", "value", TTLShort); err != nil {
		t.Errorf("Set() error = %v", err)
	}
}

func TestGetOrSet_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	calls := 0

	fn := func() ([]string, error) {
		calls++
		return []string{"AAPL", "MSFT"}, nil
	}

	for i := 0; i < 2; i++ {
		got, err := GetOrSet(context.Background(), cache, "k", TTLShort, fn)
		if err != nil {
			t.Fatalf("GetOrSet() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("Expected 2 items, got %d", len(got))
		}
	}
	if calls != 2 {
		t.Errorf("Expected fn to run on every call without Redis, got %d", calls)
	}
}

func TestGetOrSet_Error(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	boom := errors.New("boom")

	_, err := GetOrSet(context.Background(), cache, "k", TTLShort, func() (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Errorf("Expected fn error, got %v", err)
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"SourceKey", SourceKey("yahoo", "equity", "2024-01-15"), "source:yahoo:equity:2024-01-15"},
		{"LatestPacketKey", LatestPacketKey(), "advice:latest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}
