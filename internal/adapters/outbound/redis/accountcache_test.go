package redis

import (
	"strings"
	"testing"
	"time"

	"github.com/fxdesk/mt5-gateway/internal/domain/entity"
)

func TestNewAccountCache_CreatesWithConfig(t *testing.T) {
	cfg := Config{
		Addr:      "localhost:6379",
		Password:  "secret",
		DB:        1,
		TTL:       10 * time.Second,
		KeyPrefix: "test",
	}

	cache, err := NewAccountCache(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cache.Close()

	if cache.ttl != cfg.TTL {
		t.Errorf("expected TTL=%v, got %v", cfg.TTL, cache.ttl)
	}
	if cache.keyPrefix != cfg.KeyPrefix {
		t.Errorf("expected keyPrefix=%s, got %s", cfg.KeyPrefix, cache.keyPrefix)
	}
	if cache.client == nil {
		t.Fatal("expected client, got nil")
	}
	if cache.logger == nil {
		t.Fatal("expected logger, got nil")
	}
}

func TestNewAccountCache_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"empty addr", Config{TTL: time.Second}, "redis address is required"},
		{"zero ttl", Config{Addr: "localhost:6379"}, "TTL must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAccountCache(tt.cfg, nil)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestConfigDefaults_ReturnsDefaults(t *testing.T) {
	defaults := ConfigDefaults()

	if defaults.Addr != "localhost:6379" {
		t.Errorf("expected Addr=localhost:6379, got %s", defaults.Addr)
	}
	if defaults.TTL != 5*time.Second {
		t.Errorf("expected TTL=5s, got %v", defaults.TTL)
	}
	if defaults.KeyPrefix != "mt5" {
		t.Errorf("expected KeyPrefix=mt5, got %s", defaults.KeyPrefix)
	}
}

func TestKey_SeparatesPasswords(t *testing.T) {
	cache, err := NewAccountCache(Config{Addr: "localhost:6379", TTL: time.Second, KeyPrefix: "mt5"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cache.Close()

	a := cache.key(entity.Credentials{Account: "1001", Password: "right", Server: "Demo"})
	b := cache.key(entity.Credentials{Account: "1001", Password: "wrong", Server: "Demo"})
	if a == b {
		t.Error("different passwords share a cache key")
	}
	if !strings.HasPrefix(a, "mt5:account:1001:Demo:") {
		t.Errorf("key = %s", a)
	}
	if strings.Contains(a, "right") {
		t.Errorf("key contains the password: %s", a)
	}
}
