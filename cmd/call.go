package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"mcpbase/internal/config"
	pkgstrings "mcpbase/pkg/strings"
)

// callEndpoint overrides the endpoint derived from the configuration.
var callEndpoint string

// callConfigPath specifies a custom configuration directory path.
var callConfigPath string

// callTransport selects the client transport. Empty means the transport
// from the configuration, or streamable-http with an explicit endpoint.
var callTransport string

// callArgs holds the tool arguments as a JSON object.
var callArgs string

// callInteractive starts a REPL instead of a one-shot invocation.
var callInteractive bool

// callQuiet suppresses the connection spinner.
var callQuiet bool

// callCmd defines the call command structure
var callCmd = &cobra.Command{
	Use:   "call [tool]",
	Short: "Invoke a tool on a running server",
	Long: `Invokes a single tool on a running MCP tool server and prints the
result. Arguments are passed as a JSON object:

  mcpbase call echo --args '{"text": "hello"}'
  mcpbase call get_server_info

With --interactive an exploratory REPL opens instead. It supports tab
completion over the server's tool names and keeps history across
sessions. Type 'help' inside the REPL for its commands.

A tool fault prints the fault envelope and exits non-zero; a transport
or protocol failure does the same. Faults never crash the server, so
repeated calls are safe.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCall,
}

// runCall is the main entry point for the call command
func runCall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint, transport, err := resolveEndpoint(callEndpoint, callConfigPath, callTransport)
	if err != nil {
		return err
	}

	tc := newToolClient(endpoint, transport)
	if err := connectWithSpinner(ctx, tc, endpoint, callQuiet); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	defer tc.Close()

	if callInteractive {
		return runInteractive(ctx, tc, cmd.OutOrStdout())
	}

	if len(args) != 1 {
		return fmt.Errorf("tool name required (or use --interactive)")
	}

	toolArgs := map[string]interface{}{}
	if callArgs != "" {
		if err := json.Unmarshal([]byte(callArgs), &toolArgs); err != nil {
			return fmt.Errorf("invalid --args, expected a JSON object: %w", err)
		}
	}

	result, err := tc.CallTool(ctx, args[0], toolArgs)
	if err != nil {
		return err
	}

	return printToolResult(cmd.OutOrStdout(), result)
}

// printToolResult writes a tool result to out. Faults print in red and
// return an error so one-shot calls exit non-zero.
func printToolResult(out io.Writer, result *mcp.CallToolResult) error {
	content := textContent(result)

	if result.IsError {
		fmt.Fprintf(out, "%s\n", text.FgRed.Sprint(content))
		return fmt.Errorf("tool returned a fault")
	}

	// Re-indent JSON results for readability, pass everything else through.
	var decoded interface{}
	if err := json.Unmarshal([]byte(content), &decoded); err == nil {
		if pretty, err := json.MarshalIndent(decoded, "", "  "); err == nil {
			fmt.Fprintf(out, "%s\n", pretty)
			return nil
		}
	}

	fmt.Fprintln(out, content)
	return nil
}

// runInteractive drives the exploratory REPL until exit or EOF.
func runInteractive(ctx context.Context, tc *toolClient, out io.Writer) error {
	tools, err := tc.ListTools(ctx)
	if err != nil {
		return err
	}

	historyFile := filepath.Join(os.TempDir(), ".mcpbase_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:              "mcpbase » ",
		HistoryFile:         historyFile,
		AutoComplete:        buildCompleter(tools),
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(out, "Connected, %d tools available. Type 'help' for commands, TAB completes.\n", len(tools))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				continue
			}
		} else if err == io.EOF {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if done := executeREPLCommand(ctx, tc, out, tools, input); done {
			return nil
		}
	}
}

// executeREPLCommand runs one REPL input line. Returns true when the user
// asked to leave.
func executeREPLCommand(ctx context.Context, tc *toolClient, out io.Writer, tools []mcp.Tool, input string) bool {
	parts := strings.SplitN(input, " ", 2)

	switch parts[0] {
	case "exit", "quit":
		fmt.Fprintln(out, "Goodbye!")
		return true

	case "help", "?":
		printREPLHelp(out)

	case "tools":
		renderToolsTable(out, tools)

	case "call":
		if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
			fmt.Fprintln(out, "Usage: call <tool> [json arguments]")
			break
		}
		invokeFromLine(ctx, tc, out, parts[1])

	default:
		fmt.Fprintf(out, "Unknown command %q. Type 'help' for available commands.\n", parts[0])
	}

	return false
}

// invokeFromLine parses "tool {json}" and performs the call.
func invokeFromLine(ctx context.Context, tc *toolClient, out io.Writer, line string) {
	parts := strings.SplitN(strings.TrimSpace(line), " ", 2)
	name := parts[0]

	args := map[string]interface{}{}
	if len(parts) == 2 && strings.TrimSpace(parts[1]) != "" {
		if err := json.Unmarshal([]byte(parts[1]), &args); err != nil {
			fmt.Fprintf(out, "%s\n", text.FgRed.Sprintf("Invalid arguments, expected a JSON object: %v", err))
			return
		}
	}

	result, err := tc.CallTool(ctx, name, args)
	if err != nil {
		fmt.Fprintf(out, "%s\n", text.FgRed.Sprintf("Call failed: %v", err))
		return
	}

	// The fault is already printed in red, the REPL keeps going.
	_ = printToolResult(out, result)
}

// printREPLHelp lists the REPL commands.
func printREPLHelp(out io.Writer) {
	fmt.Fprintln(out, "Available commands:")
	fmt.Fprintln(out, "  tools                        List the tools the server advertises")
	fmt.Fprintln(out, "  call <tool> [json]           Invoke a tool, arguments as a JSON object")
	fmt.Fprintln(out, "  help                         Show this help")
	fmt.Fprintln(out, "  exit                         Leave the REPL")
}

// renderToolsTable prints the advertised tools as a table.
func renderToolsTable(out io.Writer, tools []mcp.Tool) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("TOOL"),
		text.FgHiCyan.Sprint("DESCRIPTION"),
	})

	for _, tool := range tools {
		t.AppendRow(table.Row{tool.Name, pkgstrings.TruncateDescription(tool.Description, pkgstrings.DefaultDescriptionMaxLen)})
	}

	t.Render()
}

// buildCompleter creates tab completion over REPL commands and tool names.
func buildCompleter(tools []mcp.Tool) readline.AutoCompleter {
	toolItems := make([]readline.PrefixCompleterInterface, 0, len(tools))
	for _, tool := range tools {
		toolItems = append(toolItems, readline.PcItem(tool.Name))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("tools"),
		readline.PcItem("call", toolItems...),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
}

// filterInput blocks control runes readline must not process.
func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// init registers the call command and its flags with the root command.
func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringVar(&callEndpoint, "endpoint", "", "Server MCP endpoint URL (default: from config)")
	callCmd.Flags().StringVar(&callConfigPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
	callCmd.Flags().StringVar(&callTransport, "transport", "", "Client transport (streamable-http, sse)")
	callCmd.Flags().StringVar(&callArgs, "args", "", "Tool arguments as a JSON object")
	callCmd.Flags().BoolVar(&callInteractive, "interactive", false, "Open an exploratory REPL")
	callCmd.Flags().BoolVar(&callQuiet, "quiet", false, "Suppress the connection spinner")
}
