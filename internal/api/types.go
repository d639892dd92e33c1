package api

import (
	"context"
)

// Tier labels the operational tier a server belongs to. It is carried in the
// server identity and exported as a metric label; the runtime attaches no
// behavior to it.
type Tier string

const (
	// TierPrimary marks servers on the critical path of the fleet.
	TierPrimary Tier = "primary"

	// TierSecondary marks best-effort servers.
	TierSecondary Tier = "secondary"
)

// Builtin tool names served by the dispatcher itself. These bypass the tool
// registry and must answer in every lifecycle state.
const (
	// ToolHealthCheck reports liveness, uptime, and the error counter.
	ToolHealthCheck = "health_check"

	// ToolReadinessCheck reports whether the server accepts domain tool calls.
	ToolReadinessCheck = "readiness_check"

	// ToolGetServerInfo reports the server identity and usage counters.
	ToolGetServerInfo = "get_server_info"

	// ToolGetMetrics returns the metrics snapshot in text exposition format.
	ToolGetMetrics = "get_metrics"
)

// BuiltinToolNames lists the builtin tools in their canonical order.
var BuiltinToolNames = []string{
	ToolHealthCheck,
	ToolReadinessCheck,
	ToolGetServerInfo,
	ToolGetMetrics,
}

// ServerIdentity describes one server of the fleet. It is constructed once
// during startup from configuration and treated as immutable afterwards:
// nothing in the runtime writes to it, and callers must not either.
type ServerIdentity struct {
	// Name uniquely identifies the server within the fleet
	Name string

	// Version is the server's semantic version string (e.g. "1.4.2")
	Version string

	// Description is a human-readable summary of what the server does
	Description string

	// Capabilities lists coarse-grained capability labels in declaration order
	// (e.g. "search", "embeddings"). Order is preserved for display.
	Capabilities []string

	// Tier is the operational tier label (primary or secondary)
	Tier Tier

	// GPURequired indicates the server needs GPU-backed placement
	GPURequired bool
}

// ToolHandler is the function invoked when a tool is dispatched. Arguments
// have already been validated against the tool's ArgSpec list and defaults
// have been applied. The returned value is wrapped into the success envelope;
// a returned error becomes a fault in the response envelope and never
// escapes the dispatcher.
type ToolHandler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// ArgSpec declares one argument of a tool.
type ArgSpec struct {
	// Name is the argument key in the invocation's argument map
	Name string

	// Type constrains the values accepted for this argument
	Type ArgType

	// Required rejects invocations that omit this argument
	Required bool

	// Description documents the argument for tool listings
	Description string

	// Default is substituted when an optional argument is absent. It must
	// conform to Type; registration rejects defaults that do not.
	Default interface{}
}

// ToolDefinition describes a domain tool: its name, documentation, argument
// schema, and the handler that implements it. Definitions are registered
// during startup and frozen when the server becomes ready.
type ToolDefinition struct {
	// Name uniquely identifies the tool within one server
	Name string

	// Description documents the tool for listings and clients
	Description string

	// Args declares the accepted arguments in declaration order
	Args []ArgSpec

	// Handler implements the tool
	Handler ToolHandler
}

// InvocationRequest is one tool call as seen by the dispatcher, after the
// transport has decoded it from the wire.
type InvocationRequest struct {
	// ToolName is the requested tool
	ToolName string

	// Arguments is the raw argument map from the client. May be nil.
	Arguments map[string]interface{}
}

// InvocationResult is the outcome of one dispatch. Exactly one of Value or
// Fault is set; use NewValueResult and NewFaultResult to maintain that.
type InvocationResult struct {
	// Value is the handler's return value on success
	Value interface{}

	// Fault describes the failure when the invocation did not succeed
	Fault *Fault
}

// NewValueResult wraps a successful handler return value.
func NewValueResult(value interface{}) InvocationResult {
	return InvocationResult{Value: value}
}

// NewFaultResult wraps a fault outcome.
func NewFaultResult(fault *Fault) InvocationResult {
	return InvocationResult{Fault: fault}
}

// IsFaulted reports whether the invocation ended in a fault.
func (r InvocationResult) IsFaulted() bool {
	return r.Fault != nil
}

// ToolRegistrar is the registration surface handed to a server's
// DeclareTools hook. The full registry interface stays internal; servers
// only ever add tools.
type ToolRegistrar interface {
	// Register adds a tool definition. Returns a DuplicateToolError when the
	// name is already taken and ErrRegistryFrozen after the server is ready.
	Register(def ToolDefinition) error
}

// ServerContract is implemented by every concrete server built on the
// runtime base. The runtime drives the hooks in a fixed order:
//
//  1. DeclareTools while the server is starting, before any traffic
//  2. OnStart after tools are declared; a returned error aborts startup
//  3. OnStop once during draining, after in-flight invocations finished
//
// Hooks are never called concurrently with each other. OnStop runs under a
// deadline; work that outlives the context is abandoned.
type ServerContract interface {
	// DeclareTools registers the server's domain tools.
	DeclareTools(reg ToolRegistrar) error

	// OnStart acquires the resources the server needs (connections, caches,
	// model handles). The server only becomes ready if it returns nil.
	OnStart(ctx context.Context) error

	// OnStop releases resources. Its error decides the process exit code.
	OnStop(ctx context.Context) error
}
