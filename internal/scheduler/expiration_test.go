package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeExpirer struct {
	mu      sync.Mutex
	calls   int
	expired int
	err     error
	block   chan struct{}
}

func (f *fakeExpirer) ExpireOverdueBookings(ctx context.Context) (int, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	expired, err := f.expired, f.err
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return expired, err
}

func (f *fakeExpirer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSweepRunsExpirer(t *testing.T) {
	expirer := &fakeExpirer{expired: 2}
	sweeper := NewExpirationSweeper(expirer, time.Minute, zap.NewNop())

	if !sweeper.Sweep(context.Background()) {
		t.Fatal("Sweep returned false with no pass in flight")
	}
	if expirer.callCount() != 1 {
		t.Fatalf("expirer calls = %d, want 1", expirer.callCount())
	}
}

func TestSweepSurvivesExpirerError(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("db down")}
	sweeper := NewExpirationSweeper(expirer, time.Minute, zap.NewNop())

	if !sweeper.Sweep(context.Background()) {
		t.Fatal("Sweep returned false with no pass in flight")
	}
	// The next tick still sweeps.
	if !sweeper.Sweep(context.Background()) {
		t.Fatal("second Sweep returned false")
	}
	if expirer.callCount() != 2 {
		t.Fatalf("expirer calls = %d, want 2", expirer.callCount())
	}
}

func TestSweepSkipsWhileRunning(t *testing.T) {
	block := make(chan struct{})
	expirer := &fakeExpirer{block: block}
	sweeper := NewExpirationSweeper(expirer, time.Minute, zap.NewNop())

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		sweeper.Sweep(context.Background())
		close(done)
	}()

	<-started
	// Wait until the first sweep is inside the expirer.
	for expirer.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	if sweeper.Sweep(context.Background()) {
		t.Error("overlapping Sweep should be skipped")
	}

	close(block)
	<-done
	if expirer.callCount() != 1 {
		t.Fatalf("expirer calls = %d, want 1", expirer.callCount())
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	expirer := &fakeExpirer{}
	sweeper := NewExpirationSweeper(expirer, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	// Let a few ticks fire.
	for expirer.callCount() < 2 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
