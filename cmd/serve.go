package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"mcpbase/internal/config"
	"mcpbase/internal/diagserver"
	"mcpbase/internal/runtime"
	"mcpbase/pkg/logging"
)

// serveConfigPath specifies a custom configuration directory path.
// The directory is expected to contain config.yaml.
var serveConfigPath string

// serveDebug enables verbose logging across the application.
var serveDebug bool

// Flag overrides for the runtime block of the configuration.
var (
	serveTransport string
	serveHost      string
	servePort      int
	serveOpsPort   int
	serveGrace     int
)

// serveCmd defines the serve command structure. It runs the built-in
// diagnostic server on the runtime; fleet servers embed the runtime in
// their own binaries and look exactly like this command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the diagnostic MCP tool server",
	Long: `Starts an MCP tool server carrying the diagnostic tool set (echo,
delay, server_env) plus the builtin introspection tools every server on
this runtime answers: health_check, readiness_check, get_server_info,
and get_metrics.

Configuration is read from config.yaml in the configuration directory.
An absent file is fine: the server then runs with defaults and the
built-in diagnostic identity. Command line flags override the file.

The server announces readiness once its tools are registered and its
startup hook has finished. On SIGINT or SIGTERM it stops accepting new
tool calls, gives in-flight calls a grace window to finish, runs its
cleanup hook, and exits.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	logLevel := logging.LevelInfo
	if serveDebug {
		logLevel = logging.LevelDebug
	}
	// Logs go to stderr so the stdio transport keeps stdout for the
	// protocol stream.
	logging.InitForCLI(logLevel, os.Stderr)

	cfg, err := config.LoadConfig(serveConfigPath)
	if err != nil {
		return err
	}
	applyServeFlags(cmd, &cfg)

	identity := cfg.APIIdentity()
	if identity.Name == "" {
		identity = diagserver.DefaultIdentity(GetVersion())
		logging.Info("Serve", "No identity configured, using %s", identity.Name)
	}

	// Advisory only: config changes on disk never alter a running server.
	watcher := config.NewDriftWatcher(serveConfigPath, nil)
	watcher.Start()
	defer watcher.Stop()

	rt := runtime.New(identity, diagserver.New(), cfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return rt.Run(ctx)
}

// applyServeFlags overlays explicitly set flags onto the loaded config.
func applyServeFlags(cmd *cobra.Command, cfg *config.ServerConfig) {
	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Runtime.Transport = serveTransport
	}
	if flags.Changed("host") {
		cfg.Runtime.Host = serveHost
	}
	if flags.Changed("port") {
		cfg.Runtime.Port = servePort
	}
	if flags.Changed("ops-port") {
		cfg.Runtime.OpsPort = serveOpsPort
	}
	if flags.Changed("grace") {
		cfg.Runtime.GraceSeconds = serveGrace
	}
}

// init registers the serve command and its flags with the root command.
func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveTransport, "transport", config.MCPTransportStreamableHTTP, "MCP transport (streamable-http, sse, stdio)")
	serveCmd.Flags().StringVar(&serveHost, "host", config.DefaultHost, "Host to bind")
	serveCmd.Flags().IntVar(&servePort, "port", config.DefaultPort, "Port for the MCP transport")
	serveCmd.Flags().IntVar(&serveOpsPort, "ops-port", config.DefaultOpsPort, "Port for health and metrics endpoints (0 disables them)")
	serveCmd.Flags().IntVar(&serveGrace, "grace", config.DefaultGraceSeconds, "Seconds to wait for in-flight calls on shutdown")
}
