// Package transport binds the dispatcher to the outside world.
//
// Two surfaces live here. The MCP surface (Server) speaks the Model
// Context Protocol over streamable-http, SSE, or stdio and is what MCP
// clients connect to. The ops surface (OpsServer) is a plain HTTP
// listener carrying the liveness, readiness, and metrics endpoints that
// orchestrators probe.
//
// The two are deliberately separate listeners: the ops surface comes up
// while the server is still starting so that probes get answers before
// the MCP transport exists, and it keeps answering while the MCP side
// drains during shutdown.
package transport
