package api

import (
	"errors"
	"fmt"
)

// FaultKind categorizes a fault carried inside an invocation response.
// The values are wire-visible: clients branch on them, so they are stable
// snake_case identifiers rather than Go names.
type FaultKind string

const (
	// FaultToolNotFound indicates the requested tool is neither a builtin
	// nor registered on this server.
	FaultToolNotFound FaultKind = "tool_not_found"

	// FaultNotReady indicates a domain tool was called while the server was
	// not in the ready state.
	FaultNotReady FaultKind = "not_ready"

	// FaultInvalidArguments indicates the invocation's arguments failed
	// validation against the tool's declared schema.
	FaultInvalidArguments FaultKind = "invalid_arguments"

	// FaultHandler indicates the tool's handler returned an error or
	// panicked.
	FaultHandler FaultKind = "handler_fault"
)

// Fault is a contained invocation failure. It travels inside the response
// envelope and never terminates the process. Handlers may return a *Fault
// directly to choose their own kind; any other handler error is wrapped as
// FaultHandler by the dispatcher.
type Fault struct {
	// Kind categorizes the fault for programmatic handling
	Kind FaultKind `json:"kind"`

	// Message is the human-readable description
	Message string `json:"message"`
}

// Error implements the error interface for Fault.
//
// Returns:
//   - string: The fault message prefixed with its kind
func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// NewFault creates a fault with the given kind and formatted message.
//
// Args:
//   - kind: The fault category
//   - format: printf-style message format
//   - args: format arguments
//
// Returns:
//   - *Fault: A new Fault instance
func NewFault(kind FaultKind, format string, args ...interface{}) *Fault {
	return &Fault{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// AsFault extracts a *Fault from an error chain.
//
// Args:
//   - err: The error to inspect
//
// Returns:
//   - *Fault: The fault found in the chain, or nil
//   - bool: true when a fault was found
func AsFault(err error) (*Fault, bool) {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault, true
	}
	return nil, false
}

// Fault constructors for the standard dispatch failure cases.
var (
	// NewToolNotFoundFault creates the fault returned for unknown tool names.
	//
	// Args:
	//   - name: The tool name that was not found
	//
	// Returns:
	//   - *Fault: A FaultToolNotFound fault
	NewToolNotFoundFault = func(name string) *Fault {
		return NewFault(FaultToolNotFound, "tool %s not found", name)
	}

	// NewNotReadyFault creates the fault returned when a domain tool is
	// called outside the ready state.
	//
	// Args:
	//   - name: The tool name that was rejected
	//
	// Returns:
	//   - *Fault: A FaultNotReady fault
	NewNotReadyFault = func(name string) *Fault {
		return NewFault(FaultNotReady, "server not ready, rejecting call to %s", name)
	}

	// NewInvalidArgumentsFault creates the fault returned when argument
	// validation fails.
	//
	// Args:
	//   - name: The tool whose arguments were invalid
	//   - err: The validation error
	//
	// Returns:
	//   - *Fault: A FaultInvalidArguments fault
	NewInvalidArgumentsFault = func(name string, err error) *Fault {
		return NewFault(FaultInvalidArguments, "invalid arguments for %s: %v", name, err)
	}
)

// DuplicateToolError indicates a tool name was registered twice on the same
// server. Duplicate registration is a programming error in the server's
// DeclareTools hook, so it surfaces as a startup fault rather than being
// silently resolved.
type DuplicateToolError struct {
	// Name is the tool name that was already registered
	Name string
}

// Error implements the error interface for DuplicateToolError.
//
// Returns:
//   - string: The error message naming the duplicated tool
func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %s already registered", e.Name)
}

// NewDuplicateToolError creates a new DuplicateToolError for the given name.
//
// Args:
//   - name: The tool name that collided
//
// Returns:
//   - *DuplicateToolError: A new DuplicateToolError instance
func NewDuplicateToolError(name string) *DuplicateToolError {
	return &DuplicateToolError{Name: name}
}

// IsDuplicateTool checks if an error is a DuplicateToolError using error
// unwrapping.
//
// Args:
//   - err: The error to check
//
// Returns:
//   - bool: true if the error is or wraps a DuplicateToolError
func IsDuplicateTool(err error) bool {
	var dupErr *DuplicateToolError
	return errors.As(err, &dupErr)
}

// ErrRegistryFrozen is returned by Register once the server has become
// ready. The tool set is fixed for the lifetime of the process after that
// point.
var ErrRegistryFrozen = errors.New("tool registry is frozen")

// StartupError wraps a failure that occurred while the server was starting.
// Startup failures are fatal: the runtime logs the error, transitions to
// stopped, and lets the orchestrator restart the process.
type StartupError struct {
	// Cause is the underlying failure
	Cause error
}

// Error implements the error interface for StartupError.
func (e *StartupError) Error() string {
	return fmt.Sprintf("startup failed: %v", e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As.
func (e *StartupError) Unwrap() error {
	return e.Cause
}

// NewStartupError wraps a cause into a StartupError.
//
// Args:
//   - cause: The underlying failure
//
// Returns:
//   - *StartupError: A new StartupError instance
func NewStartupError(cause error) *StartupError {
	return &StartupError{Cause: cause}
}

// IsStartupError checks if an error is a StartupError using error unwrapping.
func IsStartupError(err error) bool {
	var startupErr *StartupError
	return errors.As(err, &startupErr)
}

// CleanupError wraps a failure from the OnStop hook or a cleanup timeout.
// The signal coordinator maps it to a non-zero process exit code so the
// orchestrator can distinguish clean from dirty shutdowns.
type CleanupError struct {
	// Cause is the underlying failure
	Cause error
}

// Error implements the error interface for CleanupError.
func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup failed: %v", e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As.
func (e *CleanupError) Unwrap() error {
	return e.Cause
}

// NewCleanupError wraps a cause into a CleanupError.
//
// Args:
//   - cause: The underlying failure
//
// Returns:
//   - *CleanupError: A new CleanupError instance
func NewCleanupError(cause error) *CleanupError {
	return &CleanupError{Cause: cause}
}

// IsCleanupError checks if an error is a CleanupError using error unwrapping.
func IsCleanupError(err error) bool {
	var cleanupErr *CleanupError
	return errors.As(err, &cleanupErr)
}
