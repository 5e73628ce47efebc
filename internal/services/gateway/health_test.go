package gateway

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestConnectorHealth_CachesResult(t *testing.T) {
	calls := 0
	var checkErr error
	h := NewConnectorHealth(func() error {
		calls++
		return checkErr
	}, 10*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	now := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	if !h.IsReady() {
		t.Fatal("expected ready")
	}
	checkErr = errors.New("script missing")
	if !h.IsReady() {
		t.Error("expected cached ready within interval")
	}
	if calls != 1 {
		t.Errorf("expected 1 check, got %d", calls)
	}

	now = now.Add(11 * time.Second)
	if h.IsReady() {
		t.Error("expected not ready after interval")
	}
	if calls != 2 {
		t.Errorf("expected 2 checks, got %d", calls)
	}
	if !h.IsHealthy() {
		t.Error("expected healthy")
	}
}

func TestConnectorHealth_ZeroIntervalAlwaysChecks(t *testing.T) {
	calls := 0
	h := NewConnectorHealth(func() error {
		calls++
		return nil
	}, 0, nil)

	h.IsReady()
	h.IsReady()
	if calls != 2 {
		t.Errorf("expected 2 checks, got %d", calls)
	}
}
