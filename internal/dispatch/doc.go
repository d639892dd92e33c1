// Package dispatch routes tool invocations to their handlers and contains
// their failures.
//
// The dispatcher sits between the transports and the tool handlers. Every
// invocation, whatever its outcome, produces an InvocationResult: successes
// carry the handler's value, failures carry a typed fault. Nothing a handler
// does, including panicking, terminates the process or leaks into another
// invocation.
//
// # Dispatch Order
//
// Requests resolve in a fixed order:
//
//  1. The four builtin tools (health_check, readiness_check,
//     get_server_info, get_metrics) are matched first. They bypass both the
//     registry and readiness gating, so probes work during startup and
//     draining.
//  2. Unknown names fault with tool_not_found.
//  3. Domain tools are gated on the ready state and fault with not_ready
//     otherwise.
//  4. Arguments are validated against the tool's declared schema before the
//     handler runs.
//
// # Counters
//
// The request counter increments for every dispatched invocation, builtin
// or domain, success or fault. The error counter increments exactly once for
// every faulted invocation.
//
// # Draining
//
// Each running handler is tracked in an in-flight group. WaitIdle lets the
// shutdown path block until started invocations finish, bounded by the
// caller's context.
package dispatch
