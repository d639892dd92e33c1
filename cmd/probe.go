package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"mcpbase/internal/api"
	"mcpbase/internal/config"
	pkgstrings "mcpbase/pkg/strings"
)

// tableValueMaxLen caps long values in rendered tables.
const tableValueMaxLen = 100

// probeFailedError reports a server that answered the probe but is unhealthy
// or not ready. It maps to its own exit code so scripts can tell a degraded
// server apart from an unreachable one.
type probeFailedError struct {
	reason string
}

func (e *probeFailedError) Error() string {
	return e.reason
}

// probeEndpoint overrides the endpoint derived from the configuration.
var probeEndpoint string

// probeConfigPath specifies a custom configuration directory path.
var probeConfigPath string

// probeTransport selects the client transport. Empty means the transport
// from the configuration, or streamable-http with an explicit endpoint.
var probeTransport string

// probeQuiet suppresses the connection spinner.
var probeQuiet bool

// probeCmd defines the probe command structure
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check the health and readiness of a running server",
	Long: `Connects to a running MCP tool server and calls its builtin
introspection tools: health_check, readiness_check, and get_server_info.
The results are shown as a table.

Exit codes:
  0  the server is healthy and ready
  1  the server could not be reached
  2  the server answered but is unhealthy or not ready

By default the endpoint is derived from the configuration file. Use
--endpoint to probe an arbitrary server.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

// runProbe is the main entry point for the probe command
func runProbe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint, transport, err := resolveEndpoint(probeEndpoint, probeConfigPath, probeTransport)
	if err != nil {
		return err
	}

	tc := newToolClient(endpoint, transport)
	if err := connectWithSpinner(ctx, tc, endpoint, probeQuiet); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	defer tc.Close()

	health, err := callBuiltin(ctx, tc, api.ToolHealthCheck)
	if err != nil {
		return err
	}
	readiness, err := callBuiltin(ctx, tc, api.ToolReadinessCheck)
	if err != nil {
		return err
	}
	info, err := callBuiltin(ctx, tc, api.ToolGetServerInfo)
	if err != nil {
		return err
	}

	healthStatus := fieldString(health, "status")
	readyStatus := fieldString(readiness, "status")

	out := cmd.OutOrStdout()
	renderServerInfo(out, info, healthStatus, readyStatus)

	healthy := healthStatus == "healthy"
	ready := readyStatus == "ready"
	name := fieldString(info, "name")

	switch {
	case healthy && ready:
		fmt.Fprintf(out, "%s\n", text.FgGreen.Sprintf("✓ %s is healthy and ready", name))
		return nil
	case !healthy && !ready:
		return &probeFailedError{reason: fmt.Sprintf("%s is unhealthy and not ready", name)}
	case !healthy:
		return &probeFailedError{reason: fmt.Sprintf("%s is unhealthy", name)}
	default:
		return &probeFailedError{reason: fmt.Sprintf("%s is not ready (state: %s)", name, fieldString(info, "state"))}
	}
}

// resolveEndpoint returns the endpoint and transport to dial. An explicit
// endpoint wins; otherwise both derive from the configuration on disk.
func resolveEndpoint(explicit, configPath, transport string) (string, string, error) {
	if explicit != "" {
		if transport == "" {
			transport = config.MCPTransportStreamableHTTP
		}
		return explicit, transport, nil
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return "", "", err
	}
	if transport == "" {
		transport = cfg.Runtime.Transport
	}

	endpoint, err := mcpEndpoint(transport, cfg.Runtime.Host, cfg.Runtime.Port)
	if err != nil {
		return "", "", err
	}
	return endpoint, transport, nil
}

// connectWithSpinner connects the client, showing progress unless quiet.
func connectWithSpinner(ctx context.Context, tc *toolClient, endpoint string, quiet bool) error {
	if quiet {
		return tc.Connect(ctx)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" Connecting to %s...", endpoint)
	s.Start()
	defer s.Stop()

	if err := tc.Connect(ctx); err != nil {
		s.FinalMSG = text.FgRed.Sprint("Failed to connect to server") + "\n"
		return err
	}
	return nil
}

// callBuiltin calls a builtin tool and decodes its JSON result.
func callBuiltin(ctx context.Context, tc *toolClient, name string) (map[string]interface{}, error) {
	result, isError, err := tc.CallToolText(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	if isError {
		return nil, fmt.Errorf("%s returned a fault: %s", name, result)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(result), &decoded); err != nil {
		return nil, fmt.Errorf("%s returned unexpected output: %w", name, err)
	}
	return decoded, nil
}

// renderServerInfo prints the server identity and status as a table.
func renderServerInfo(out io.Writer, info map[string]interface{}, healthStatus, readyStatus string) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("PROPERTY"),
		text.FgHiCyan.Sprint("VALUE"),
	})

	t.AppendRow(table.Row{"Name", fieldString(info, "name")})
	t.AppendRow(table.Row{"Version", fieldString(info, "version")})
	t.AppendRow(table.Row{"Tier", fieldString(info, "tier")})
	if description := fieldString(info, "description"); description != "" {
		t.AppendRow(table.Row{"Description", pkgstrings.TruncateDescription(description, tableValueMaxLen)})
	}
	if capabilities := fieldStrings(info, "capabilities"); len(capabilities) > 0 {
		t.AppendRow(table.Row{"Capabilities", pkgstrings.TruncateDescription(strings.Join(capabilities, ", "), tableValueMaxLen)})
	}
	if gpu, ok := info["gpu_required"].(bool); ok && gpu {
		t.AppendRow(table.Row{"GPU", "required"})
	}
	t.AppendRow(table.Row{"State", fieldString(info, "state")})
	t.AppendRow(table.Row{"Health", colorStatus(healthStatus, "healthy")})
	t.AppendRow(table.Row{"Readiness", colorStatus(readyStatus, "ready")})
	t.AppendRow(table.Row{"Uptime", formatUptime(fieldInt(info, "uptime_seconds"))})
	t.AppendRow(table.Row{"Requests", fieldInt(info, "request_count")})
	t.AppendRow(table.Row{"Errors", fieldInt(info, "error_count")})
	t.AppendRow(table.Row{"Error rate", fmt.Sprintf("%.2f%%", fieldFloat(info, "error_rate")*100)})

	t.Render()
}

// colorStatus renders a status green when it matches the good value and
// red otherwise.
func colorStatus(status, good string) string {
	if status == good {
		return text.FgGreen.Sprint(status)
	}
	return text.FgRed.Sprint(status)
}

// formatUptime renders an uptime in seconds as a human readable age.
func formatUptime(seconds int64) string {
	if seconds < 1 {
		return "just started"
	}
	started := time.Now().Add(-time.Duration(seconds) * time.Second)
	return strings.TrimSpace(humanize.RelTime(started, time.Now(), "", ""))
}

// fieldString reads a string field from a decoded JSON object.
func fieldString(obj map[string]interface{}, key string) string {
	if value, ok := obj[key].(string); ok {
		return value
	}
	return ""
}

// fieldStrings reads a string array field from a decoded JSON object.
func fieldStrings(obj map[string]interface{}, key string) []string {
	raw, ok := obj[key].([]interface{})
	if !ok {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			values = append(values, s)
		}
	}
	return values
}

// fieldInt reads a numeric field from a decoded JSON object. JSON numbers
// decode as float64.
func fieldInt(obj map[string]interface{}, key string) int64 {
	if value, ok := obj[key].(float64); ok {
		return int64(value)
	}
	return 0
}

// fieldFloat reads a float field from a decoded JSON object.
func fieldFloat(obj map[string]interface{}, key string) float64 {
	if value, ok := obj[key].(float64); ok {
		return value
	}
	return 0
}

// init registers the probe command and its flags with the root command.
func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().StringVar(&probeEndpoint, "endpoint", "", "Server MCP endpoint URL (default: from config)")
	probeCmd.Flags().StringVar(&probeConfigPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
	probeCmd.Flags().StringVar(&probeTransport, "transport", "", "Client transport (streamable-http, sse)")
	probeCmd.Flags().BoolVar(&probeQuiet, "quiet", false, "Suppress the connection spinner")
}
