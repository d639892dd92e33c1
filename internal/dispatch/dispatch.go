package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"mcpbase/internal/api"
	"mcpbase/internal/lifecycle"
	"mcpbase/internal/metrics"
	"mcpbase/internal/registry"
	"mcpbase/pkg/logging"
)

// Dispatcher routes invocation requests to builtin or registered tool
// handlers. It owns the fault containment contract: whatever a handler does,
// the dispatcher returns an InvocationResult and the process keeps serving.
type Dispatcher struct {
	identity  api.ServerIdentity
	registry  *registry.Registry
	lifecycle *lifecycle.Manager
	metrics   *metrics.Emitter

	builtins     map[string]api.ToolHandler
	builtinOrder []api.ToolDefinition

	inFlight inFlightGroup
}

// NewDispatcher wires a dispatcher to its collaborators. All four builtin
// tools are installed here; they bypass the registry and answer in every
// lifecycle state.
func NewDispatcher(identity api.ServerIdentity, reg *registry.Registry, lc *lifecycle.Manager, em *metrics.Emitter) *Dispatcher {
	d := &Dispatcher{
		identity:  identity,
		registry:  reg,
		lifecycle: lc,
		metrics:   em,
		builtins:  make(map[string]api.ToolHandler),
	}

	d.builtinOrder = []api.ToolDefinition{
		{
			Name:        api.ToolHealthCheck,
			Description: "Report process liveness, uptime, and the error counter",
			Handler:     d.healthCheck,
		},
		{
			Name:        api.ToolReadinessCheck,
			Description: "Report whether the server accepts domain tool calls",
			Handler:     d.readinessCheck,
		},
		{
			Name:        api.ToolGetServerInfo,
			Description: "Report the server identity and usage counters",
			Handler:     d.getServerInfo,
		},
		{
			Name:        api.ToolGetMetrics,
			Description: "Return all metrics in Prometheus text exposition format",
			Handler:     d.getMetrics,
		},
	}
	for _, def := range d.builtinOrder {
		d.builtins[def.Name] = def.Handler
	}

	return d
}

// Dispatch executes one invocation request and always returns a result:
// faults are carried in the result envelope, never as panics or process
// exits. The request counter increments for every call; the error counter
// increments for every faulted one.
func (d *Dispatcher) Dispatch(ctx context.Context, req api.InvocationRequest) api.InvocationResult {
	d.metrics.RecordRequest()
	callID := uuid.NewString()

	// Builtins answer in every lifecycle state and never consult the
	// registry, so a draining or still-starting server stays probeable.
	if handler, ok := d.builtins[req.ToolName]; ok {
		logging.Debug("Dispatcher", "Dispatching builtin %s (call %s)", req.ToolName, callID)
		return d.invoke(ctx, callID, req.ToolName, handler, req.Arguments)
	}

	def, found := d.registry.Resolve(req.ToolName)
	if !found {
		logging.Warn("Dispatcher", "Unknown tool %s (call %s)", req.ToolName, callID)
		d.metrics.RecordError()
		return api.NewFaultResult(api.NewToolNotFoundFault(req.ToolName))
	}

	if !d.lifecycle.IsReady() {
		logging.Warn("Dispatcher", "Rejecting %s, server is %s (call %s)", req.ToolName, d.lifecycle.State(), callID)
		d.metrics.RecordError()
		return api.NewFaultResult(api.NewNotReadyFault(req.ToolName))
	}

	args, err := api.ValidateArguments(def.Args, req.Arguments)
	if err != nil {
		logging.Warn("Dispatcher", "Invalid arguments for %s: %v (call %s)", req.ToolName, err, callID)
		d.metrics.RecordError()
		return api.NewFaultResult(api.NewInvalidArgumentsFault(req.ToolName, err))
	}

	logging.Debug("Dispatcher", "Dispatching %s (call %s)", req.ToolName, callID)
	return d.invoke(ctx, callID, req.ToolName, def.Handler, args)
}

// invoke runs one handler under the containment contract. The named return
// lets the recover path substitute a fault result after a panic.
func (d *Dispatcher) invoke(ctx context.Context, callID, name string, handler api.ToolHandler, args map[string]interface{}) (result api.InvocationResult) {
	d.inFlight.enter()
	d.metrics.EnterInFlight()
	defer func() {
		d.metrics.ExitInFlight()
		d.inFlight.exit()

		if r := recover(); r != nil {
			logging.Error("Dispatcher", fmt.Errorf("%v", r), "Tool %s panicked (call %s)", name, callID)
			d.metrics.RecordError()
			result = api.NewFaultResult(api.NewFault(api.FaultHandler, "tool %s failed internally", name))
		}
	}()

	value, err := handler(ctx, args)
	if err != nil {
		logging.Error("Dispatcher", err, "Tool %s failed (call %s)", name, callID)
		d.metrics.RecordError()
		if fault, ok := api.AsFault(err); ok {
			return api.NewFaultResult(fault)
		}
		return api.NewFaultResult(api.NewFault(api.FaultHandler, "%v", err))
	}

	return api.NewValueResult(value)
}

// ToolList returns the builtins followed by the registered tools in
// registration order. Transports use it to advertise the server's tools.
func (d *Dispatcher) ToolList() []api.ToolDefinition {
	defs := make([]api.ToolDefinition, 0, len(d.builtinOrder)+d.registry.Len())
	defs = append(defs, d.builtinOrder...)
	defs = append(defs, d.registry.List()...)
	return defs
}

// WaitIdle blocks until all in-flight invocations have finished or the
// context ends. Draining uses it to let started work complete inside the
// grace window.
func (d *Dispatcher) WaitIdle(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inFlight.wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InFlight returns the number of invocations currently executing.
func (d *Dispatcher) InFlight() int64 {
	return d.inFlight.count()
}

// inFlightGroup is a WaitGroup that also reports its current size.
type inFlightGroup struct {
	wg sync.WaitGroup
	n  atomic.Int64
}

func (g *inFlightGroup) enter() {
	g.wg.Add(1)
	g.n.Add(1)
}

func (g *inFlightGroup) exit() {
	g.n.Add(-1)
	g.wg.Done()
}

func (g *inFlightGroup) wait() {
	g.wg.Wait()
}

func (g *inFlightGroup) count() int64 {
	return g.n.Load()
}
