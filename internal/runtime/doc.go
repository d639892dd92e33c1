// Package runtime assembles a complete MCP tool server around a
// ServerContract implementation.
//
// A concrete server provides three things through the contract: its tool
// declarations, a startup hook, and a cleanup hook. The runtime provides
// everything else: the tool registry, request dispatch with its builtin
// introspection tools, lifecycle and readiness tracking, metrics, the MCP
// and ops listeners, and signal-driven graceful shutdown.
//
// Typical use:
//
//	rt := runtime.New(cfg.APIIdentity(), myServer, cfg)
//	if err := rt.Run(ctx); err != nil {
//		logging.Error("Main", err, "Server failed to start")
//		os.Exit(1)
//	}
package runtime
