package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) PurgeExpired(ctx context.Context) (int64, error) {
	p.calls.Add(1)
	return 2, p.err
}

func TestPurgeExpiredRunsUntilCancelled(t *testing.T) {
	p := &countingPurger{err: errors.New("db down")}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		purgeExpired(ctx, p, 5*time.Millisecond, zerolog.Nop())
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for p.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected repeated purges despite errors, got %d", p.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("purge loop did not stop after cancel")
	}
}

func TestPurgeExpiredDisabled(t *testing.T) {
	p := &countingPurger{}
	purgeExpired(context.Background(), p, 0, zerolog.Nop())

	if p.calls.Load() != 0 {
		t.Fatalf("expected no purge with a zero interval, got %d", p.calls.Load())
	}
}

func TestHealthChecksSkipMissingDependencies(t *testing.T) {
	if checks := healthChecks(nil, nil); len(checks) != 0 {
		t.Fatalf("expected no checks, got %d", len(checks))
	}
}
