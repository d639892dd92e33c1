// Package logging provides a structured logging system for mcpbase with unified
// log handling and flexible output formatting.
//
// This package implements a logging system built on Go's standard slog package,
// providing consistent logging behavior with structured output and level filtering.
//
// # Architecture
//
// The logging system is built around these core concepts:
//
// ## Log Levels
//   - **Debug**: Detailed information for debugging and development
//   - **Info**: General informational messages about application operation
//   - **Warn**: Warning messages that indicate potential issues
//   - **Error**: Error messages for failures and exceptional conditions
//
// ## Structured Logging
// All log entries include:
//   - Timestamp with nanosecond precision
//   - Log level (Debug, Info, Warn, Error)
//   - Subsystem identifier for categorization
//   - Message content with optional formatting
//   - Optional error information
//
// # Usage Examples
//
// ## Initialization
//
//	import "mcpbase/pkg/logging"
//
//	// Initialize with Info level logging to stderr
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	// Log messages
//	logging.Info("Runtime", "Server starting up")
//	logging.Debug("Config", "Loaded configuration from %s", configPath)
//	logging.Warn("Signals", "Second termination signal, forcing exit")
//	logging.Error("Dispatcher", err, "Tool handler failed")
//
// ## Custom Output Writer
//
//	// CLI mode with custom writer
//	logFile, _ := os.OpenFile("app.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
//	logging.InitForCLI(logging.LevelDebug, logFile)
//
// # Subsystem Organization
//
// Logs are organized by subsystem to enable filtering and categorization:
//
//   - **Runtime**: Server bring-up, readiness, and teardown
//   - **ConfigLoader** / **ConfigWatcher**: Configuration loading and drift
//   - **Dispatcher**: Tool invocation and fault containment
//   - **Lifecycle**: State transitions
//   - **Signals**: Termination signal handling and draining
//   - **Transport**: MCP and operational HTTP endpoints
//
// # Integration with slog
//
// The logging system integrates with Go's standard slog package:
//   - Uses slog.Handler implementations for output formatting
//   - Converts custom LogLevel to slog.Level for compatibility
//   - Provides fallback to global slog logger when needed
//
// # stdio Transport Caveat
//
// Servers exposing the MCP stdio transport own stdout for protocol frames.
// Always initialize logging with os.Stderr in that mode; a single stray log
// line on stdout corrupts the session.
//
// # Thread Safety
//
// The logging system is fully thread-safe:
//   - Safe concurrent logging from multiple goroutines
//   - Protected access to shared logging state
//   - No data races in configuration
package logging
