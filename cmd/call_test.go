package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/mark3labs/mcp-go/mcp"
)

func TestCallCommand(t *testing.T) {
	// Test call command properties
	if callCmd.Use != "call [tool]" {
		t.Errorf("Expected Use to be 'call [tool]', got %s", callCmd.Use)
	}

	if callCmd.RunE == nil {
		t.Error("Expected RunE function to be set")
	}

	for _, flag := range []string{"endpoint", "config-path", "transport", "args", "interactive", "quiet"} {
		if callCmd.Flags().Lookup(flag) == nil {
			t.Errorf("Expected flag --%s to be registered", flag)
		}
	}
}

func TestPrintToolResultPlainText(t *testing.T) {
	var buf bytes.Buffer
	result := &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent("hello world")},
	}

	if err := printToolResult(&buf, result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if buf.String() != "hello world\n" {
		t.Errorf("Expected plain text passthrough, got %q", buf.String())
	}
}

func TestPrintToolResultIndentsJSON(t *testing.T) {
	var buf bytes.Buffer
	result := &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(`{"status":"ok","count":3}`)},
	}

	if err := printToolResult(&buf, result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "\n  \"count\": 3") {
		t.Errorf("Expected indented JSON output, got %q", output)
	}
}

func TestPrintToolResultFault(t *testing.T) {
	var buf bytes.Buffer
	result := mcp.NewToolResultError(`{"kind":"tool_not_found","message":"tool resize not found"}`)

	err := printToolResult(&buf, result)
	if err == nil {
		t.Fatal("Expected an error for a faulted result")
	}

	if !strings.Contains(buf.String(), "tool_not_found") {
		t.Errorf("Expected fault envelope in output, got %q", buf.String())
	}
}

func TestExecuteREPLCommandExit(t *testing.T) {
	var buf bytes.Buffer
	tc := newToolClient("http://localhost:8090/mcp", "streamable-http")

	for _, input := range []string{"exit", "quit"} {
		buf.Reset()
		done := executeREPLCommand(context.Background(), tc, &buf, nil, input)
		if !done {
			t.Errorf("Expected %q to end the REPL", input)
		}
		if !strings.Contains(buf.String(), "Goodbye") {
			t.Errorf("Expected goodbye message for %q, got %q", input, buf.String())
		}
	}
}

func TestExecuteREPLCommandHelp(t *testing.T) {
	var buf bytes.Buffer
	tc := newToolClient("http://localhost:8090/mcp", "streamable-http")

	done := executeREPLCommand(context.Background(), tc, &buf, nil, "help")
	if done {
		t.Error("Expected help to keep the REPL running")
	}

	output := buf.String()
	for _, command := range []string{"tools", "call", "exit"} {
		if !strings.Contains(output, command) {
			t.Errorf("Expected help to mention %q. Got: %q", command, output)
		}
	}
}

func TestExecuteREPLCommandTools(t *testing.T) {
	var buf bytes.Buffer
	tc := newToolClient("http://localhost:8090/mcp", "streamable-http")
	tools := []mcp.Tool{
		{Name: "echo", Description: "Echo the input back"},
		{Name: "health_check", Description: "Report liveness"},
	}

	done := executeREPLCommand(context.Background(), tc, &buf, tools, "tools")
	if done {
		t.Error("Expected tools to keep the REPL running")
	}

	output := buf.String()
	if !strings.Contains(output, "echo") || !strings.Contains(output, "health_check") {
		t.Errorf("Expected tool names in table. Got: %q", output)
	}
}

func TestExecuteREPLCommandCallUsage(t *testing.T) {
	var buf bytes.Buffer
	tc := newToolClient("http://localhost:8090/mcp", "streamable-http")

	done := executeREPLCommand(context.Background(), tc, &buf, nil, "call")
	if done {
		t.Error("Expected bare call to keep the REPL running")
	}

	if !strings.Contains(buf.String(), "Usage: call") {
		t.Errorf("Expected usage hint, got %q", buf.String())
	}
}

func TestExecuteREPLCommandUnknown(t *testing.T) {
	var buf bytes.Buffer
	tc := newToolClient("http://localhost:8090/mcp", "streamable-http")

	done := executeREPLCommand(context.Background(), tc, &buf, nil, "frobnicate")
	if done {
		t.Error("Expected unknown command to keep the REPL running")
	}

	if !strings.Contains(buf.String(), "Unknown command") {
		t.Errorf("Expected unknown command message, got %q", buf.String())
	}
}

func TestInvokeFromLineRejectsBadJSON(t *testing.T) {
	var buf bytes.Buffer
	tc := newToolClient("http://localhost:8090/mcp", "streamable-http")

	invokeFromLine(context.Background(), tc, &buf, `echo {not json`)

	if !strings.Contains(buf.String(), "Invalid arguments") {
		t.Errorf("Expected JSON parse failure message, got %q", buf.String())
	}
}

func TestBuildCompleter(t *testing.T) {
	tools := []mcp.Tool{
		{Name: "echo"},
		{Name: "delay"},
	}

	completer := buildCompleter(tools)
	if completer == nil {
		t.Fatal("Expected a completer")
	}

	// Tool names complete after the call command
	line := []rune("call ec")
	candidates, _ := completer.Do(line, len(line))
	if len(candidates) == 0 {
		t.Error("Expected completion candidates for 'call ec'")
	}
}

func TestFilterInput(t *testing.T) {
	if _, allowed := filterInput(readline.CharCtrlZ); allowed {
		t.Error("Expected Ctrl+Z to be blocked")
	}

	if _, allowed := filterInput('a'); !allowed {
		t.Error("Expected regular runes to pass through")
	}
}

func TestTextContent(t *testing.T) {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent("first"),
			mcp.NewTextContent("second"),
		},
	}

	if got := textContent(result); got != "first\nsecond" {
		t.Errorf("Expected joined text blocks, got %q", got)
	}

	empty := &mcp.CallToolResult{}
	if got := textContent(empty); got != "" {
		t.Errorf("Expected empty string for empty content, got %q", got)
	}
}
