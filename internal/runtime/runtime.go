package runtime

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"mcpbase/internal/api"
	"mcpbase/internal/config"
	"mcpbase/internal/dispatch"
	"mcpbase/internal/lifecycle"
	"mcpbase/internal/metrics"
	"mcpbase/internal/registry"
	"mcpbase/internal/signals"
	"mcpbase/internal/transport"
	"mcpbase/pkg/logging"
)

// Runtime is the server base every concrete tool server runs on. It owns
// the registry, metrics, lifecycle, dispatcher, transports, and signal
// coordinator, all assembled around one ServerContract implementation.
//
// Construction is explicit: New wires the pieces and hands back the
// runtime. Nothing lives in package-level state, so tests and multi-server
// binaries can build as many runtimes as they need.
type Runtime struct {
	identity api.ServerIdentity
	contract api.ServerContract
	cfg      config.ServerConfig

	registry    *registry.Registry
	emitter     *metrics.Emitter
	lifecycle   *lifecycle.Manager
	dispatcher  *dispatch.Dispatcher
	mcp         *transport.Server
	ops         *transport.OpsServer
	coordinator *signals.Coordinator
}

// Option adjusts runtime construction.
type Option func(*settings)

type settings struct {
	exitFunc      func(code int)
	stateCallback lifecycle.StateChangeCallback
}

// WithExitFunc replaces os.Exit on the shutdown path. Tests inject one to
// observe the exit code instead of losing the process.
func WithExitFunc(fn func(code int)) Option {
	return func(s *settings) { s.exitFunc = fn }
}

// WithStateCallback registers an observer for lifecycle transitions.
func WithStateCallback(cb lifecycle.StateChangeCallback) Option {
	return func(s *settings) { s.stateCallback = cb }
}

// New wires a runtime for the given identity and contract.
//
// Args:
//   - identity: The server's announced identity, immutable once running
//   - contract: The concrete server implementation driven by Run
//   - cfg: Transport, ops, and grace window settings
//   - opts: Optional construction overrides
//
// Returns a runtime ready for Run.
func New(identity api.ServerIdentity, contract api.ServerContract, cfg config.ServerConfig, opts ...Option) *Runtime {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	reg := registry.New()
	em := metrics.NewEmitter(identity)
	lc := lifecycle.NewManager(s.stateCallback)
	d := dispatch.NewDispatcher(identity, reg, lc, em)

	r := &Runtime{
		identity:   identity,
		contract:   contract,
		cfg:        cfg,
		registry:   reg,
		emitter:    em,
		lifecycle:  lc,
		dispatcher: d,
		mcp:        transport.NewServer(identity, cfg.Runtime, d),
	}

	if cfg.Runtime.OpsPort > 0 {
		opsAddr := fmt.Sprintf("%s:%d", cfg.Runtime.Host, cfg.Runtime.OpsPort)
		r.ops = transport.NewOpsServer(opsAddr, lc, em)
	}

	r.coordinator = signals.NewCoordinator(signals.Config{
		Lifecycle: lc,
		Drainer:   d,
		Cleanup:   r.teardown,
		Grace:     cfg.GraceWindow(),
		ExitFunc:  s.exitFunc,
	})

	return r
}

// Run drives the server from construction to process exit:
//
//  1. Ops endpoints come up so probes get answers while still starting.
//  2. The contract declares its tools and runs its startup hook.
//  3. The registry freezes, the MCP transport starts, and the lifecycle
//     moves to ready.
//  4. Run blocks until a termination signal or ctx cancellation drives
//     the draining sequence through the signal coordinator.
//
// A failure in any startup step moves the lifecycle straight to stopped
// and returns a StartupError; restarting is the orchestrator's job. After
// a successful start, Run returns nil once shutdown has finished. With
// the default exit function the process exits before that.
func (r *Runtime) Run(ctx context.Context) error {
	logging.Info("Runtime", "Starting %s %s (%s tier)", r.identity.Name, r.identity.Version, r.identity.Tier)

	if r.ops != nil {
		r.ops.Start()
	}

	if err := r.contract.DeclareTools(r.registry); err != nil {
		return r.failStartup(ctx, fmt.Errorf("tool declaration failed: %w", err))
	}
	logging.Info("Runtime", "Declared %d domain tools", r.registry.Len())

	if err := r.contract.OnStart(ctx); err != nil {
		return r.failStartup(ctx, fmt.Errorf("startup hook failed: %w", err))
	}

	// No registrations past this point. Clients may now cache the tool
	// list for the lifetime of the process.
	r.registry.Freeze()

	if err := r.mcp.Start(ctx); err != nil {
		// OnStart completed, so the contract gets its release hook before
		// the failed start is reported.
		if stopErr := r.contract.OnStop(ctx); stopErr != nil {
			logging.Warn("Runtime", "Stop hook after failed start: %v", stopErr)
		}
		return r.failStartup(ctx, err)
	}

	if err := r.lifecycle.MarkReady(); err != nil {
		return r.failStartup(ctx, err)
	}

	r.coordinator.Start(ctx)
	logging.Info("Runtime", "%s is ready", r.identity.Name)

	<-r.coordinator.Done()
	r.coordinator.Stop()
	return nil
}

// failStartup records a failed start. The lifecycle moves straight to
// stopped, ops endpoints go down, and the caller gets a StartupError.
func (r *Runtime) failStartup(ctx context.Context, cause error) error {
	logging.Error("Runtime", cause, "Startup failed")

	if err := r.lifecycle.MarkStopped(); err != nil {
		logging.Warn("Runtime", "Failed to mark stopped: %v", err)
	}
	if r.ops != nil {
		if err := r.ops.Stop(ctx); err != nil {
			logging.Warn("Runtime", "Failed to stop ops endpoints: %v", err)
		}
	}

	return api.NewStartupError(cause)
}

// teardown is the coordinator's cleanup hook, invoked once draining has
// finished. The listeners stay up through the drain window so builtins
// keep answering; here they stop in parallel, then the server's own
// cleanup runs. Only the OnStop outcome decides the exit code; listener
// shutdown trouble is logged and swallowed.
func (r *Runtime) teardown(ctx context.Context) error {
	var eg errgroup.Group
	eg.Go(func() error { return r.mcp.Stop(ctx) })
	if r.ops != nil {
		eg.Go(func() error { return r.ops.Stop(ctx) })
	}
	if err := eg.Wait(); err != nil {
		logging.Warn("Runtime", "Listener shutdown: %v", err)
	}

	return r.contract.OnStop(ctx)
}
