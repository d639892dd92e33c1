package config

const (
	// DefaultHost is the bind address for network transports
	DefaultHost = "localhost"

	// DefaultPort is the MCP listen port
	DefaultPort = 8090

	// DefaultOpsPort is the probe and metrics HTTP port
	DefaultOpsPort = 9090

	// DefaultGraceSeconds is the drain window on shutdown
	DefaultGraceSeconds = 5

	// DefaultTier is assumed when the identity declares none
	DefaultTier = "secondary"
)

// GetDefaultConfig returns the default configuration. The identity block
// has no defaults for name and version; servers must declare who they are.
func GetDefaultConfig() ServerConfig {
	return ServerConfig{
		Identity: IdentityConfig{
			Tier: DefaultTier,
		},
		Runtime: RuntimeConfig{
			Transport:    MCPTransportStreamableHTTP,
			Host:         DefaultHost,
			Port:         DefaultPort,
			OpsPort:      DefaultOpsPort,
			GraceSeconds: DefaultGraceSeconds,
		},
	}
}
