package config

import (
	"time"

	"mcpbase/internal/api"
)

// ServerConfig is the top-level configuration structure for one server
// process. It is loaded once at startup; the identity it carries is
// immutable for the lifetime of the process.
type ServerConfig struct {
	Identity IdentityConfig `yaml:"identity"`
	Runtime  RuntimeConfig  `yaml:"runtime"`
}

const (
	// MCPTransportStreamableHTTP is the streamable HTTP transport.
	MCPTransportStreamableHTTP = "streamable-http"
	// MCPTransportSSE is the Server-Sent Events transport.
	MCPTransportSSE = "sse"
	// MCPTransportStdio is the standard I/O transport.
	MCPTransportStdio = "stdio"
)

// IdentityConfig declares who this server is. Name and version are
// mandatory; everything else has sensible defaults.
type IdentityConfig struct {
	Name         string   `yaml:"name" validate:"required,hostname_rfc1123"`
	Version      string   `yaml:"version" validate:"required,semver"`
	Description  string   `yaml:"description,omitempty"`
	Capabilities []string `yaml:"capabilities,omitempty"`
	Tier         string   `yaml:"tier,omitempty" validate:"omitempty,oneof=primary secondary"`
	GPURequired  bool     `yaml:"gpuRequired,omitempty"`
}

// RuntimeConfig tunes how the server listens and shuts down.
type RuntimeConfig struct {
	// Transport selects the MCP transport (default: streamable-http)
	Transport string `yaml:"transport,omitempty" validate:"omitempty,oneof=streamable-http sse stdio"`

	// Host to bind network transports to (default: localhost)
	Host string `yaml:"host,omitempty"`

	// Port for the MCP endpoint (default: 8090)
	Port int `yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`

	// OpsPort serves probes and metrics over plain HTTP, 0 disables it (default: 9090)
	OpsPort int `yaml:"opsPort,omitempty" validate:"omitempty,min=0,max=65535"`

	// GraceSeconds bounds the drain window on shutdown (default: 5)
	GraceSeconds int `yaml:"graceSeconds,omitempty" validate:"omitempty,min=0,max=600"`
}

// APIIdentity materializes the immutable api.ServerIdentity from the loaded
// configuration. The capabilities slice is copied so later mutation of the
// config cannot leak into the identity.
func (c *ServerConfig) APIIdentity() api.ServerIdentity {
	tier := api.TierSecondary
	if c.Identity.Tier == string(api.TierPrimary) {
		tier = api.TierPrimary
	}

	capabilities := make([]string, len(c.Identity.Capabilities))
	copy(capabilities, c.Identity.Capabilities)

	return api.ServerIdentity{
		Name:         c.Identity.Name,
		Version:      c.Identity.Version,
		Description:  c.Identity.Description,
		Capabilities: capabilities,
		Tier:         tier,
		GPURequired:  c.Identity.GPURequired,
	}
}

// GraceWindow returns the configured drain window as a duration.
func (c *ServerConfig) GraceWindow() time.Duration {
	return time.Duration(c.Runtime.GraceSeconds) * time.Second
}
