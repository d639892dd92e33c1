package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"mcpbase/internal/config"
)

// toolClientTimeout bounds every request the CLI sends to a server.
const toolClientTimeout = 30 * time.Second

// toolClient is a small MCP client for the probe and call commands. It
// connects to one server, performs the protocol handshake, and sends tool
// calls. Notifications are not consumed: the CLI asks and leaves.
type toolClient struct {
	endpoint  string
	transport string
	client    client.MCPClient
	timeout   time.Duration
}

// mcpEndpoint builds the endpoint URL a client must dial for the given
// transport. Stdio has no network endpoint and cannot be reached here.
func mcpEndpoint(transport, host string, port int) (string, error) {
	switch transport {
	case config.MCPTransportSSE:
		return fmt.Sprintf("http://%s:%d/sse", host, port), nil
	case config.MCPTransportStreamableHTTP:
		return fmt.Sprintf("http://%s:%d/mcp", host, port), nil
	default:
		return "", fmt.Errorf("transport %q has no network endpoint", transport)
	}
}

// newToolClient creates a client for the given endpoint and transport.
func newToolClient(endpoint, transport string) *toolClient {
	return &toolClient{
		endpoint:  endpoint,
		transport: transport,
		timeout:   toolClientTimeout,
	}
}

// Connect establishes the transport connection and runs the MCP handshake.
func (c *toolClient) Connect(ctx context.Context) error {
	mcpClient, err := c.createAndConnectClient(ctx)
	if err != nil {
		return err
	}

	c.client = mcpClient

	if err := c.initialize(ctx); err != nil {
		c.client.Close()
		c.client = nil
		return fmt.Errorf("initialization failed: %w", err)
	}

	return nil
}

// createAndConnectClient creates and starts an MCP client for the transport.
func (c *toolClient) createAndConnectClient(ctx context.Context) (client.MCPClient, error) {
	switch c.transport {
	case config.MCPTransportSSE:
		sseClient, err := client.NewSSEMCPClient(c.endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create SSE client: %w", err)
		}
		if err := sseClient.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start SSE client: %w", err)
		}
		return sseClient, nil

	case config.MCPTransportStreamableHTTP:
		httpClient, err := client.NewStreamableHttpClient(c.endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create streamable-http client: %w", err)
		}
		if err := httpClient.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start streamable-http client: %w", err)
		}
		return httpClient, nil

	default:
		return nil, fmt.Errorf("unsupported transport type: %s", c.transport)
	}
}

// initialize performs the MCP protocol handshake.
func (c *toolClient) initialize(ctx context.Context) error {
	req := mcp.InitializeRequest{
		Params: struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities `json:"capabilities"`
			ClientInfo      mcp.Implementation     `json:"clientInfo"`
		}{
			ProtocolVersion: "2024-11-05",
			ClientInfo: mcp.Implementation{
				Name:    "mcpbase-cli",
				Version: GetVersion(),
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.client.Initialize(timeoutCtx, req)
	return err
}

// Close shuts the client connection down.
func (c *toolClient) Close() {
	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
}

// ListTools returns the tools the server advertises.
func (c *toolClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not connected")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.ListTools(timeoutCtx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("tool listing failed: %w", err)
	}

	return result.Tools, nil
}

// CallTool executes a tool and returns the raw result envelope.
func (c *toolClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not connected")
	}

	req := mcp.CallToolRequest{
		Params: struct {
			Name      string    `json:"name"`
			Arguments any       `json:"arguments,omitempty"`
			Meta      *mcp.Meta `json:"_meta,omitempty"`
		}{
			Name:      name,
			Arguments: args,
		},
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.CallTool(timeoutCtx, req)
	if err != nil {
		return nil, fmt.Errorf("tool call failed: %w", err)
	}

	return result, nil
}

// CallToolText executes a tool and returns its text content. The second
// return value reports whether the server flagged the result as an error.
func (c *toolClient) CallToolText(ctx context.Context, name string, args map[string]interface{}) (string, bool, error) {
	result, err := c.CallTool(ctx, name, args)
	if err != nil {
		return "", false, err
	}
	return textContent(result), result.IsError, nil
}

// textContent flattens the text blocks of a tool result into one string.
func textContent(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
