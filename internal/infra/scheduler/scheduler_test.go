//go:build !integration

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestScheduler_RunsAndStops(t *testing.T) {
	logger := zerolog.Nop()
	var runs atomic.Int32
	s := NewScheduler("count", 10*time.Millisecond, func(ctx context.Context) error {
		if runs.Add(1)%2 == 0 {
			return errors.New("every other run fails")
		}
		return nil
	}, &logger)

	s.Start(context.Background())
	s.Start(context.Background()) // no second loop

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()
	if runs.Load() < 3 {
		t.Fatalf("expected at least 3 runs, got %d", runs.Load())
	}

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() != after {
		t.Fatalf("job ran after Stop")
	}
	s.Stop()
}

func TestScheduler_RecoversPanic(t *testing.T) {
	logger := zerolog.Nop()
	var runs atomic.Int32
	s := NewScheduler("panicky", 5*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		panic("boom")
	}, &logger)

	s.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()
	if runs.Load() < 2 {
		t.Fatalf("loop died after panic, runs=%d", runs.Load())
	}
}
