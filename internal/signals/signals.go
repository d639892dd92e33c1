package signals

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mcpbase/internal/api"
	"mcpbase/internal/lifecycle"
	"mcpbase/pkg/logging"
)

// Drainer is the surface the coordinator needs to wait out in-flight work
// during shutdown. The dispatcher implements it.
type Drainer interface {
	WaitIdle(ctx context.Context) error
	InFlight() int64
}

// Config wires a Coordinator to its collaborators.
type Config struct {
	// Lifecycle is driven through draining and stopped
	Lifecycle *lifecycle.Manager

	// Drainer is waited on for in-flight invocations
	Drainer Drainer

	// Cleanup is the server's OnStop hook, invoked once after draining.
	// May be nil.
	Cleanup func(ctx context.Context) error

	// Grace bounds how long draining waits for in-flight invocations.
	// Zero or negative selects DefaultGrace.
	Grace time.Duration

	// CleanupTimeout bounds the cleanup hook. Zero selects Grace.
	CleanupTimeout time.Duration

	// ExitFunc terminates the process. Nil selects os.Exit; tests inject
	// their own to observe the exit code.
	ExitFunc func(code int)
}

// DefaultGrace is the drain window used when none is configured.
const DefaultGrace = 5 * time.Second

// Coordinator turns termination signals into an orderly shutdown. The OS
// signal handler does nothing but feed a channel; all shutdown work happens
// on the coordinator's supervisor goroutine, so no lifecycle transition or
// cleanup call ever runs in signal-delivery context.
//
// Shutdown sequence on the first SIGINT or SIGTERM:
//
//  1. Health drops and the lifecycle moves to draining.
//  2. In-flight invocations get up to the grace window to finish.
//  3. The cleanup hook runs under its own timeout.
//  4. The lifecycle moves to stopped and the process exits: code 0 when
//     cleanup succeeded, 1 when it failed or timed out.
//
// A second signal during shutdown exits immediately with code 1.
type Coordinator struct {
	lifecycle      *lifecycle.Manager
	drainer        Drainer
	cleanup        func(ctx context.Context) error
	grace          time.Duration
	cleanupTimeout time.Duration
	exitFunc       func(code int)

	sigChan chan os.Signal
	done    chan struct{}
}

// NewCoordinator creates a coordinator from the given config, applying
// defaults for grace, cleanup timeout, and exit function.
func NewCoordinator(cfg Config) *Coordinator {
	grace := cfg.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}
	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = grace
	}
	exitFunc := cfg.ExitFunc
	if exitFunc == nil {
		exitFunc = os.Exit
	}

	return &Coordinator{
		lifecycle:      cfg.Lifecycle,
		drainer:        cfg.Drainer,
		cleanup:        cfg.Cleanup,
		grace:          grace,
		cleanupTimeout: cleanupTimeout,
		exitFunc:       exitFunc,
		sigChan:        make(chan os.Signal, 1),
		done:           make(chan struct{}),
	}
}

// Start subscribes to SIGINT and SIGTERM and launches the supervisor
// goroutine. The supervisor also reacts to ctx cancellation, so programmatic
// shutdown follows the same path as a signal.
func (c *Coordinator) Start(ctx context.Context) {
	signal.Notify(c.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go c.supervise(ctx)
}

// Stop unsubscribes from signals without shutting down. Used by tests and
// by runtimes that never started serving.
func (c *Coordinator) Stop() {
	signal.Stop(c.sigChan)
}

// Done is closed once the shutdown sequence has finished. The default
// os.Exit ends the process first; the channel matters when an exit
// function is injected and the caller wants to wait for shutdown.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

func (c *Coordinator) supervise(ctx context.Context) {
	defer close(c.done)

	select {
	case sig := <-c.sigChan:
		logging.Info("Signals", "Received %s, beginning shutdown", sig)
	case <-ctx.Done():
		logging.Info("Signals", "Context cancelled, beginning shutdown")
	}

	// Impatient operators get an immediate exit on the second signal.
	go func() {
		sig := <-c.sigChan
		logging.Warn("Signals", "Received %s during shutdown, forcing exit", sig)
		c.exitFunc(1)
	}()

	c.shutdown()
}

// shutdown drives the draining sequence and ends the process.
func (c *Coordinator) shutdown() {
	if err := c.lifecycle.BeginDraining(); err != nil {
		// The server never reached ready. Nothing was acquired by OnStart,
		// so skip cleanup and leave.
		logging.Warn("Signals", "Shutdown before ready: %v", err)
		if stopErr := c.lifecycle.MarkStopped(); stopErr != nil {
			logging.Warn("Signals", "Failed to mark stopped: %v", stopErr)
		}
		c.exitFunc(0)
		return
	}

	c.awaitDrain()

	cleanupErr := c.runCleanup()
	if cleanupErr != nil {
		logging.Error("Signals", cleanupErr, "Cleanup failed")
	}

	if err := c.lifecycle.MarkStopped(); err != nil {
		logging.Warn("Signals", "Failed to mark stopped: %v", err)
	}

	if cleanupErr != nil {
		c.exitFunc(1)
		return
	}
	logging.Info("Signals", "Shutdown complete")
	c.exitFunc(0)
}

// awaitDrain waits up to the grace window for in-flight invocations.
func (c *Coordinator) awaitDrain() {
	inFlight := c.drainer.InFlight()
	if inFlight == 0 {
		logging.Info("Signals", "No in-flight invocations, draining immediately")
		return
	}

	logging.Info("Signals", "Waiting up to %s for %d in-flight invocations", c.grace, inFlight)

	ctx, cancel := context.WithTimeout(context.Background(), c.grace)
	defer cancel()

	if err := c.drainer.WaitIdle(ctx); err != nil {
		logging.Warn("Signals", "Grace window elapsed with %d invocations still running", c.drainer.InFlight())
		return
	}
	logging.Info("Signals", "All in-flight invocations finished")
}

// runCleanup invokes the cleanup hook under its timeout. A hook that
// overruns the timeout is abandoned and its goroutine left to the process
// exit.
func (c *Coordinator) runCleanup() error {
	if c.cleanup == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cleanupTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- api.NewCleanupError(fmt.Errorf("cleanup panicked: %v", r))
			}
		}()
		done <- c.cleanup(ctx)
	}()

	select {
	case err := <-done:
		if err != nil && !api.IsCleanupError(err) {
			return api.NewCleanupError(err)
		}
		return err
	case <-ctx.Done():
		return api.NewCleanupError(fmt.Errorf("cleanup hook exceeded %s", c.cleanupTimeout))
	}
}
