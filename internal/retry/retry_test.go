package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func fastConfig() Config {
	return Config{
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		MaxAttempts:  3,
		Multiplier:   2.0,
	}
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"dns error", &net.DNSError{Err: "no such host", Name: "api.github.com"}, true},
		{"wrapped dial error", fmt.Errorf("fetch: %w", errors.New("dial tcp 1.2.3.4:443: connection refused")), true},
		{"timeout string", errors.New("context deadline exceeded (Client.Timeout exceeded)"), true},
		{"plain error", errors.New("release has no matching asset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNetworkError(tt.err); got != tt.want {
				t.Errorf("IsNetworkError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDoSucceedsAfterRetry(t *testing.T) {
	logger := zerolog.Nop()
	calls := 0

	err := Do(context.Background(), "fetch", fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	}, &logger)

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestDoNonNetworkErrorFailsFast(t *testing.T) {
	logger := zerolog.Nop()
	calls := 0
	wantErr := errors.New("no matching asset in release")

	err := Do(context.Background(), "fetch", fastConfig(), func() error {
		calls++
		return wantErr
	}, &logger)

	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 attempt for non-network error, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	logger := zerolog.Nop()
	calls := 0
	netErr := errors.New("dial tcp: i/o timeout")

	err := Do(context.Background(), "fetch", fastConfig(), func() error {
		calls++
		return netErr
	}, &logger)

	if !errors.Is(err, netErr) {
		t.Fatalf("expected %v, got %v", netErr, err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestDoRespectsContextCancel(t *testing.T) {
	logger := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())

	cfg := fastConfig()
	cfg.InitialDelay = time.Hour // should never actually sleep this long

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, "fetch", cfg, func() error {
			calls++
			return errors.New("dial tcp: connection refused")
		}, &logger)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after context cancellation")
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", calls)
	}
}
