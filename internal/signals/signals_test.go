package signals

import (
	"context"
	"errors"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpbase/internal/lifecycle"
)

// fakeDrainer simulates in-flight invocations that finish when release is
// closed.
type fakeDrainer struct {
	inFlight atomic.Int64
	release  chan struct{}
}

func newFakeDrainer(inFlight int64) *fakeDrainer {
	f := &fakeDrainer{release: make(chan struct{})}
	f.inFlight.Store(inFlight)
	return f
}

func (f *fakeDrainer) WaitIdle(ctx context.Context) error {
	if f.inFlight.Load() == 0 {
		return nil
	}
	select {
	case <-f.release:
		f.inFlight.Store(0)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeDrainer) InFlight() int64 {
	return f.inFlight.Load()
}

func readyLifecycle(t *testing.T) *lifecycle.Manager {
	t.Helper()
	lc := lifecycle.NewManager(nil)
	require.NoError(t, lc.MarkReady())
	return lc
}

func TestCleanShutdownExitsZero(t *testing.T) {
	lc := readyLifecycle(t)
	exitCodes := make(chan int, 2)

	c := NewCoordinator(Config{
		Lifecycle: lc,
		Drainer:   newFakeDrainer(0),
		Grace:     50 * time.Millisecond,
		ExitFunc:  func(code int) { exitCodes <- code },
	})

	c.shutdown()

	select {
	case code := <-exitCodes:
		assert.Equal(t, 0, code)
	case <-time.After(time.Second):
		t.Fatal("shutdown did not exit")
	}

	assert.Equal(t, lifecycle.StateStopped, lc.State())
	assert.False(t, lc.IsHealthy())
}

func TestShutdownRunsCleanupOnce(t *testing.T) {
	lc := readyLifecycle(t)
	exitCodes := make(chan int, 2)
	var cleanupCalls atomic.Int32

	c := NewCoordinator(Config{
		Lifecycle: lc,
		Drainer:   newFakeDrainer(0),
		Cleanup: func(ctx context.Context) error {
			cleanupCalls.Add(1)
			return nil
		},
		Grace:    50 * time.Millisecond,
		ExitFunc: func(code int) { exitCodes <- code },
	})

	c.shutdown()

	assert.Equal(t, 0, <-exitCodes)
	assert.Equal(t, int32(1), cleanupCalls.Load())
}

func TestCleanupFailureExitsNonZero(t *testing.T) {
	lc := readyLifecycle(t)
	exitCodes := make(chan int, 2)

	c := NewCoordinator(Config{
		Lifecycle: lc,
		Drainer:   newFakeDrainer(0),
		Cleanup: func(ctx context.Context) error {
			return errors.New("failed to flush cache")
		},
		Grace:    50 * time.Millisecond,
		ExitFunc: func(code int) { exitCodes <- code },
	})

	c.shutdown()

	assert.Equal(t, 1, <-exitCodes)
	assert.Equal(t, lifecycle.StateStopped, lc.State())
}

func TestCleanupTimeoutExitsNonZero(t *testing.T) {
	lc := readyLifecycle(t)
	exitCodes := make(chan int, 2)
	block := make(chan struct{})
	defer close(block)

	c := NewCoordinator(Config{
		Lifecycle: lc,
		Drainer:   newFakeDrainer(0),
		Cleanup: func(ctx context.Context) error {
			<-block
			return nil
		},
		Grace:          50 * time.Millisecond,
		CleanupTimeout: 30 * time.Millisecond,
		ExitFunc:       func(code int) { exitCodes <- code },
	})

	start := time.Now()
	c.shutdown()

	select {
	case code := <-exitCodes:
		assert.Equal(t, 1, code)
	case <-time.After(time.Second):
		t.Fatal("shutdown hung on a stuck cleanup hook")
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond, "stuck cleanup must be abandoned promptly")
}

func TestCleanupPanicExitsNonZero(t *testing.T) {
	lc := readyLifecycle(t)
	exitCodes := make(chan int, 2)

	c := NewCoordinator(Config{
		Lifecycle: lc,
		Drainer:   newFakeDrainer(0),
		Cleanup: func(ctx context.Context) error {
			panic("cleanup exploded")
		},
		Grace:    50 * time.Millisecond,
		ExitFunc: func(code int) { exitCodes <- code },
	})

	c.shutdown()

	assert.Equal(t, 1, <-exitCodes)
}

func TestDrainWaitsForInFlightWithinGrace(t *testing.T) {
	lc := readyLifecycle(t)
	exitCodes := make(chan int, 2)
	drainer := newFakeDrainer(1)

	readinessDuringCleanup := make(chan bool, 1)
	c := NewCoordinator(Config{
		Lifecycle: lc,
		Drainer:   drainer,
		Cleanup: func(ctx context.Context) error {
			readinessDuringCleanup <- lc.IsReady()
			return nil
		},
		Grace:    time.Second,
		ExitFunc: func(code int) { exitCodes <- code },
	})

	go c.shutdown()

	// The invocation finishes inside the grace window.
	time.Sleep(20 * time.Millisecond)
	close(drainer.release)

	assert.Equal(t, 0, <-exitCodes)
	assert.False(t, <-readinessDuringCleanup, "readiness must be down before cleanup begins")
	assert.Equal(t, int64(0), drainer.InFlight())
}

func TestGraceWindowExpiry(t *testing.T) {
	lc := readyLifecycle(t)
	exitCodes := make(chan int, 2)
	drainer := newFakeDrainer(1)
	defer close(drainer.release)

	c := NewCoordinator(Config{
		Lifecycle: lc,
		Drainer:   drainer,
		Grace:     30 * time.Millisecond,
		ExitFunc:  func(code int) { exitCodes <- code },
	})

	start := time.Now()
	c.shutdown()

	// Abandoned in-flight work does not dirty the exit code; only cleanup
	// failures do.
	assert.Equal(t, 0, <-exitCodes)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, lifecycle.StateStopped, lc.State())
}

func TestSignalTriggersSupervisedShutdown(t *testing.T) {
	lc := readyLifecycle(t)
	exitCodes := make(chan int, 2)

	c := NewCoordinator(Config{
		Lifecycle: lc,
		Drainer:   newFakeDrainer(0),
		Grace:     50 * time.Millisecond,
		ExitFunc:  func(code int) { exitCodes <- code },
	})

	c.Start(context.Background())
	defer c.Stop()

	c.sigChan <- syscall.SIGTERM

	select {
	case code := <-exitCodes:
		assert.Equal(t, 0, code)
	case <-time.After(time.Second):
		t.Fatal("signal did not trigger shutdown")
	}
	assert.False(t, lc.IsHealthy(), "health must drop on the signal path")
}

func TestSecondSignalForcesImmediateExit(t *testing.T) {
	lc := readyLifecycle(t)
	exitCodes := make(chan int, 2)
	block := make(chan struct{})
	defer close(block)

	c := NewCoordinator(Config{
		Lifecycle: lc,
		Drainer:   newFakeDrainer(0),
		Cleanup: func(ctx context.Context) error {
			<-block
			return nil
		},
		Grace:          time.Minute,
		CleanupTimeout: time.Minute,
		ExitFunc:       func(code int) { exitCodes <- code },
	})

	c.Start(context.Background())
	defer c.Stop()

	c.sigChan <- syscall.SIGTERM
	// Give the supervisor a moment to pass the first select.
	time.Sleep(20 * time.Millisecond)
	c.sigChan <- syscall.SIGTERM

	select {
	case code := <-exitCodes:
		assert.Equal(t, 1, code)
	case <-time.After(time.Second):
		t.Fatal("second signal did not force an exit")
	}
}

func TestShutdownBeforeReadySkipsCleanup(t *testing.T) {
	lc := lifecycle.NewManager(nil) // still starting
	exitCodes := make(chan int, 2)
	cleanupRan := false

	c := NewCoordinator(Config{
		Lifecycle: lc,
		Drainer:   newFakeDrainer(0),
		Cleanup: func(ctx context.Context) error {
			cleanupRan = true
			return nil
		},
		Grace:    50 * time.Millisecond,
		ExitFunc: func(code int) { exitCodes <- code },
	})

	c.shutdown()

	assert.Equal(t, 0, <-exitCodes)
	assert.False(t, cleanupRan, "OnStop must not run when OnStart never completed")
	assert.Equal(t, lifecycle.StateStopped, lc.State())
}

func TestContextCancellationFollowsSignalPath(t *testing.T) {
	lc := readyLifecycle(t)
	exitCodes := make(chan int, 2)

	c := NewCoordinator(Config{
		Lifecycle: lc,
		Drainer:   newFakeDrainer(0),
		Grace:     50 * time.Millisecond,
		ExitFunc:  func(code int) { exitCodes <- code },
	})

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	defer c.Stop()

	cancel()

	select {
	case code := <-exitCodes:
		assert.Equal(t, 0, code)
	case <-time.After(time.Second):
		t.Fatal("context cancellation did not trigger shutdown")
	}
}

func TestDefaultsApplied(t *testing.T) {
	c := NewCoordinator(Config{
		Lifecycle: lifecycle.NewManager(nil),
		Drainer:   newFakeDrainer(0),
	})

	assert.Equal(t, DefaultGrace, c.grace)
	assert.Equal(t, DefaultGrace, c.cleanupTimeout)
	assert.NotNil(t, c.exitFunc)
}

func TestDoneClosesAfterShutdown(t *testing.T) {
	lc := readyLifecycle(t)
	exitCodes := make(chan int, 2)

	c := NewCoordinator(Config{
		Lifecycle: lc,
		Drainer:   newFakeDrainer(0),
		Grace:     50 * time.Millisecond,
		ExitFunc:  func(code int) { exitCodes <- code },
	})
	c.Start(context.Background())
	defer c.Stop()

	select {
	case <-c.Done():
		t.Fatal("done closed before any shutdown trigger")
	case <-time.After(50 * time.Millisecond):
	}

	c.sigChan <- syscall.SIGTERM

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed after shutdown")
	}
	assert.Equal(t, 0, <-exitCodes)
	assert.Equal(t, lifecycle.StateStopped, lc.State())
}
