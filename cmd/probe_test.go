package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mcpbase/internal/config"
)

func TestProbeFailedError(t *testing.T) {
	err := &probeFailedError{reason: "image-tools is unhealthy"}

	if err.Error() != "image-tools is unhealthy" {
		t.Errorf("Expected error message to carry the reason, got %q", err.Error())
	}
}

func TestProbeCommand(t *testing.T) {
	// Test probe command properties
	if probeCmd.Use != "probe" {
		t.Errorf("Expected Use to be 'probe', got %s", probeCmd.Use)
	}

	if probeCmd.RunE == nil {
		t.Error("Expected RunE function to be set")
	}

	for _, flag := range []string{"endpoint", "config-path", "transport", "quiet"} {
		if probeCmd.Flags().Lookup(flag) == nil {
			t.Errorf("Expected flag --%s to be registered", flag)
		}
	}
}

func TestMCPEndpoint(t *testing.T) {
	endpoint, err := mcpEndpoint(config.MCPTransportStreamableHTTP, "localhost", 8090)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if endpoint != "http://localhost:8090/mcp" {
		t.Errorf("Expected streamable-http endpoint, got %q", endpoint)
	}

	endpoint, err = mcpEndpoint(config.MCPTransportSSE, "127.0.0.1", 7001)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if endpoint != "http://127.0.0.1:7001/sse" {
		t.Errorf("Expected SSE endpoint, got %q", endpoint)
	}

	if _, err := mcpEndpoint(config.MCPTransportStdio, "localhost", 8090); err == nil {
		t.Error("Expected an error for the stdio transport")
	}
}

func TestResolveEndpointExplicit(t *testing.T) {
	// An explicit endpoint wins and defaults the transport
	endpoint, transport, err := resolveEndpoint("http://example.com/mcp", "", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if endpoint != "http://example.com/mcp" {
		t.Errorf("Expected explicit endpoint to pass through, got %q", endpoint)
	}
	if transport != config.MCPTransportStreamableHTTP {
		t.Errorf("Expected default transport, got %q", transport)
	}

	// An explicit transport is kept
	_, transport, err = resolveEndpoint("http://example.com/sse", "", config.MCPTransportSSE)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if transport != config.MCPTransportSSE {
		t.Errorf("Expected SSE transport to be kept, got %q", transport)
	}
}

func TestResolveEndpointFromConfig(t *testing.T) {
	configDir := t.TempDir()
	configYAML := `runtime:
  transport: sse
  host: 127.0.0.1
  port: 7001
`
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	endpoint, transport, err := resolveEndpoint("", configDir, "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if endpoint != "http://127.0.0.1:7001/sse" {
		t.Errorf("Expected config derived endpoint, got %q", endpoint)
	}
	if transport != config.MCPTransportSSE {
		t.Errorf("Expected transport from config, got %q", transport)
	}
}

func TestResolveEndpointMissingConfigUsesDefaults(t *testing.T) {
	endpoint, _, err := resolveEndpoint("", t.TempDir(), "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if endpoint != "http://localhost:8090/mcp" {
		t.Errorf("Expected default endpoint, got %q", endpoint)
	}
}

func TestFieldHelpers(t *testing.T) {
	obj := map[string]interface{}{
		"name":          "image-tools",
		"request_count": float64(42),
		"error_rate":    float64(0.25),
		"capabilities":  []interface{}{"resize", "ocr"},
	}

	if got := fieldString(obj, "name"); got != "image-tools" {
		t.Errorf("Expected fieldString to return 'image-tools', got %q", got)
	}
	if got := fieldString(obj, "missing"); got != "" {
		t.Errorf("Expected empty string for missing key, got %q", got)
	}

	if got := fieldInt(obj, "request_count"); got != 42 {
		t.Errorf("Expected fieldInt to return 42, got %d", got)
	}
	if got := fieldInt(obj, "missing"); got != 0 {
		t.Errorf("Expected zero for missing key, got %d", got)
	}

	if got := fieldFloat(obj, "error_rate"); got != 0.25 {
		t.Errorf("Expected fieldFloat to return 0.25, got %f", got)
	}

	capabilities := fieldStrings(obj, "capabilities")
	if len(capabilities) != 2 || capabilities[0] != "resize" || capabilities[1] != "ocr" {
		t.Errorf("Expected capabilities [resize ocr], got %v", capabilities)
	}
	if got := fieldStrings(obj, "missing"); got != nil {
		t.Errorf("Expected nil for missing key, got %v", got)
	}
}

func TestFormatUptime(t *testing.T) {
	if got := formatUptime(0); got != "just started" {
		t.Errorf("Expected 'just started' for zero uptime, got %q", got)
	}

	if got := formatUptime(120); !strings.Contains(got, "minute") {
		t.Errorf("Expected minutes in formatted uptime, got %q", got)
	}
}

func TestColorStatus(t *testing.T) {
	// Color codes vary by terminal, assert on the embedded text only
	if got := colorStatus("healthy", "healthy"); !strings.Contains(got, "healthy") {
		t.Errorf("Expected status text in output, got %q", got)
	}
	if got := colorStatus("not_ready", "ready"); !strings.Contains(got, "not_ready") {
		t.Errorf("Expected status text in output, got %q", got)
	}
}

func TestRenderServerInfo(t *testing.T) {
	info := map[string]interface{}{
		"name":           "image-tools",
		"version":        "1.4.2",
		"tier":           "primary",
		"description":    "Image manipulation tools",
		"capabilities":   []interface{}{"resize", "ocr"},
		"gpu_required":   true,
		"state":          "ready",
		"uptime_seconds": float64(300),
		"request_count":  float64(10),
		"error_count":    float64(1),
		"error_rate":     float64(0.1),
	}

	var buf bytes.Buffer
	renderServerInfo(&buf, info, "healthy", "ready")

	output := buf.String()
	for _, expected := range []string{"image-tools", "1.4.2", "primary", "resize, ocr", "healthy", "10.00%"} {
		if !strings.Contains(output, expected) {
			t.Errorf("Expected table to contain %q. Got:\n%s", expected, output)
		}
	}
}
