package transport

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"mcpbase/internal/api"
	"mcpbase/internal/config"
	"mcpbase/internal/dispatch"
	"mcpbase/pkg/logging"
)

// Server exposes a dispatcher over one of the supported MCP transports.
//
// The server converts every tool the dispatcher serves, builtins included,
// into MCP tool declarations and routes incoming tool calls back through
// the dispatcher. Faults travel inside the MCP result envelope with IsError
// set, never as protocol-level errors: a misbehaving tool must not look
// like a broken server to the client.
type Server struct {
	identity   api.ServerIdentity
	runtime    config.RuntimeConfig
	dispatcher *dispatch.Dispatcher

	server *server.MCPServer

	// Transport-specific servers
	sseServer            *server.SSEServer
	streamableHTTPServer *server.StreamableHTTPServer
	stdioServer          *server.StdioServer

	mu sync.Mutex
}

// NewServer creates an MCP transport server for the given dispatcher.
//
// Args:
//   - identity: The server identity announced during the MCP handshake
//   - runtime: Transport selection and listen address
//   - dispatcher: The dispatcher that executes tool calls
//
// Returns a server ready to be started.
func NewServer(identity api.ServerIdentity, runtime config.RuntimeConfig, dispatcher *dispatch.Dispatcher) *Server {
	return &Server{
		identity:   identity,
		runtime:    runtime,
		dispatcher: dispatcher,
	}
}

// Start builds the MCP server, declares every dispatcher tool, and begins
// serving on the configured transport. Network transports listen in a
// background goroutine; stdio reads from os.Stdin until ctx is cancelled.
func (t *Server) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.server != nil {
		return fmt.Errorf("mcp transport already started")
	}

	mcpServer := server.NewMCPServer(
		t.identity.Name,
		t.identity.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	mcpServer.AddTools(t.serverTools()...)
	t.server = mcpServer

	addr := fmt.Sprintf("%s:%d", t.runtime.Host, t.runtime.Port)

	switch t.runtime.Transport {
	case config.MCPTransportSSE:
		logging.Info("Transport", "Starting MCP server with SSE transport on %s", addr)
		baseURL := fmt.Sprintf("http://%s:%d", t.runtime.Host, t.runtime.Port)
		t.sseServer = server.NewSSEServer(
			t.server,
			server.WithBaseURL(baseURL),
			server.WithSSEEndpoint("/sse"),
			server.WithMessageEndpoint("/message"),
			server.WithKeepAlive(true),
			server.WithKeepAliveInterval(30*time.Second),
		)
		sseServer := t.sseServer
		go func() {
			if err := sseServer.Start(addr); err != nil && err != http.ErrServerClosed {
				logging.Error("Transport", err, "SSE server error")
			}
		}()

	case config.MCPTransportStdio:
		logging.Info("Transport", "Starting MCP server with stdio transport")
		t.stdioServer = server.NewStdioServer(t.server)
		stdioServer := t.stdioServer
		go func() {
			if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
				logging.Error("Transport", err, "Stdio server error")
			}
		}()

	case config.MCPTransportStreamableHTTP:
		fallthrough
	default:
		logging.Info("Transport", "Starting MCP server with streamable-http transport on %s", addr)
		t.streamableHTTPServer = server.NewStreamableHTTPServer(t.server)
		streamableServer := t.streamableHTTPServer
		go func() {
			if err := streamableServer.Start(addr); err != nil && err != http.ErrServerClosed {
				logging.Error("Transport", err, "Streamable HTTP server error")
			}
		}()
	}

	return nil
}

// Stop shuts the transport down. In-flight handler work is the dispatcher's
// concern; callers drain it separately before or after stopping the
// listener.
func (t *Server) Stop(ctx context.Context) error {
	t.mu.Lock()
	if t.server == nil {
		t.mu.Unlock()
		return fmt.Errorf("mcp transport not started")
	}

	logging.Info("Transport", "Stopping MCP server")

	sseServer := t.sseServer
	streamableServer := t.streamableHTTPServer
	t.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if sseServer != nil {
		if err := sseServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Transport", err, "Error shutting down SSE server")
		}
	}

	if streamableServer != nil {
		if err := streamableServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Transport", err, "Error shutting down streamable HTTP server")
		}
	}

	// Stdio server stops on context cancellation, no explicit shutdown needed.

	t.mu.Lock()
	t.server = nil
	t.sseServer = nil
	t.streamableHTTPServer = nil
	t.stdioServer = nil
	t.mu.Unlock()

	return nil
}

// serverTools converts the dispatcher's tool list into MCP server tools.
func (t *Server) serverTools() []server.ServerTool {
	defs := t.dispatcher.ToolList()
	tools := make([]server.ServerTool, 0, len(defs))

	for _, def := range defs {
		tools = append(tools, server.ServerTool{
			Tool: mcp.Tool{
				Name:        def.Name,
				Description: def.Description,
				InputSchema: toolInputSchema(def.Args),
			},
			Handler: t.createToolHandler(def.Name),
		})
	}

	return tools
}

// createToolHandler wraps a dispatcher call in an MCP-compatible handler.
//
// The handler extracts arguments from the MCP request, dispatches, and
// renders the result envelope. It never returns a non-nil error: protocol
// errors would make clients treat the whole server as failed.
func (t *Server) createToolHandler(toolName string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := make(map[string]interface{})
		if req.Params.Arguments != nil {
			if argsMap, ok := req.Params.Arguments.(map[string]interface{}); ok {
				args = argsMap
			}
		}

		result := t.dispatcher.Dispatch(ctx, api.InvocationRequest{
			ToolName:  toolName,
			Arguments: args,
		})

		return renderResult(result), nil
	}
}
