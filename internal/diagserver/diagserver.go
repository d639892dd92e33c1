package diagserver

import (
	"context"
	"fmt"
	"os"
	goruntime "runtime"
	"time"

	"github.com/mitchellh/mapstructure"

	"mcpbase/internal/api"
	"mcpbase/pkg/logging"
)

// Server is a minimal diagnostic tool server exercising the runtime
// contract end to end. Its tools are deliberately trivial: echo returns
// its input, delay stalls for a caller-chosen time, and server_env
// reports process facts. Operators use it to probe a deployment; the
// runtime uses it as a fixture.
type Server struct {
	startedAt time.Time
}

var _ api.ServerContract = (*Server)(nil)

// New creates a diagnostic server.
func New() *Server {
	return &Server{}
}

// DefaultIdentity is the identity used when no config file provides one.
// The version comes from the binary's build version.
func DefaultIdentity(version string) api.ServerIdentity {
	return api.ServerIdentity{
		Name:         "mcpbase-diag",
		Version:      version,
		Description:  "Diagnostic MCP tool server",
		Capabilities: []string{"echo", "delay", "server_env"},
		Tier:         api.TierSecondary,
	}
}

type echoArgs struct {
	Text string `mapstructure:"text"`
}

type delayArgs struct {
	DurationMS float64 `mapstructure:"duration_ms"`
	Text       string  `mapstructure:"text"`
}

// DeclareTools registers the diagnostic tool set.
func (s *Server) DeclareTools(reg api.ToolRegistrar) error {
	tools := []api.ToolDefinition{
		{
			Name:        "echo",
			Description: "Return the given text unchanged",
			Args: []api.ArgSpec{
				{Name: "text", Type: api.ArgTypeString, Required: true, Description: "Text to echo back"},
			},
			Handler: s.echo,
		},
		{
			Name:        "delay",
			Description: "Wait for the given time, then return the text",
			Args: []api.ArgSpec{
				{Name: "duration_ms", Type: api.ArgTypeNumber, Required: true, Description: "How long to wait, in milliseconds"},
				{Name: "text", Type: api.ArgTypeString, Default: "done", Description: "Text to return after the wait"},
			},
			Handler: s.delay,
		},
		{
			Name:        "server_env",
			Description: "Report process-level facts about the running server",
			Handler:     s.serverEnv,
		},
	}

	for _, tool := range tools {
		if err := reg.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// OnStart records the start time. The diagnostic server acquires nothing.
func (s *Server) OnStart(ctx context.Context) error {
	s.startedAt = time.Now()
	logging.Info("DiagServer", "Diagnostic server started")
	return nil
}

// OnStop has nothing to release.
func (s *Server) OnStop(ctx context.Context) error {
	logging.Info("DiagServer", "Diagnostic server stopping after %s", time.Since(s.startedAt).Round(time.Second))
	return nil
}

func (s *Server) echo(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	var in echoArgs
	if err := mapstructure.Decode(args, &in); err != nil {
		return nil, fmt.Errorf("invalid echo arguments: %w", err)
	}
	return in.Text, nil
}

func (s *Server) delay(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	var in delayArgs
	if err := mapstructure.Decode(args, &in); err != nil {
		return nil, fmt.Errorf("invalid delay arguments: %w", err)
	}

	wait := time.Duration(in.DurationMS) * time.Millisecond
	select {
	case <-time.After(wait):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return in.Text, nil
}

func (s *Server) serverEnv(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return map[string]interface{}{
		"hostname":   hostname,
		"pid":        os.Getpid(),
		"go_version": goruntime.Version(),
		"num_cpu":    goruntime.NumCPU(),
		"goroutines": goruntime.NumGoroutine(),
		"started_at": s.startedAt.UTC().Format(time.RFC3339),
	}, nil
}
