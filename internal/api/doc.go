// Package api defines the shared contract between the runtime base and the
// concrete tool servers built on top of it.
//
// This package is the single source of truth for the types that cross package
// boundaries: server identity, tool definitions and their argument schemas,
// invocation requests and results, the fault taxonomy, and the server
// contract interface every concrete server implements. It deliberately has no
// dependencies on transports, registries, or any other runtime internals so
// that every other package can import it without cycles.
//
// # Core Types
//
// The contract is built around these concepts:
//
//   - **ServerIdentity**: Immutable description of a server (name, version,
//     capabilities, tier). Built once at startup, never mutated.
//   - **ToolDefinition**: A named tool with typed argument specifications and
//     a handler function.
//   - **ArgType**: Closed set of argument types (string, number, boolean,
//     object, array) with total validation over untyped JSON values.
//   - **InvocationResult**: The outcome of one dispatch, carrying exactly one
//     of a result value or a fault.
//   - **ServerContract**: The three hooks a concrete server implements:
//     DeclareTools, OnStart, OnStop.
//
// # Error Handling
//
// The package provides typed errors with errors.As-based predicates
// (IsDuplicateTool, IsStartupError, ...) following the same conventions as
// the rest of the codebase. Faults that travel inside invocation responses
// are represented by Fault; errors that terminate startup or shutdown are
// represented by StartupError and CleanupError.
//
// # Design Principles
//
//  1. **Explicit construction**: No package-level singletons. Everything that
//     needs a dependency receives it.
//  2. **Transport independence**: Nothing in this package knows how requests
//     arrive or how results are encoded on the wire.
//  3. **Total validation**: Argument validation is defined for every
//     combination of declared type and received value; there is no panic path.
package api
