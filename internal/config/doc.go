// Package config loads and validates the per-server configuration file.
//
// Each server of the fleet reads a single config.yaml from its configuration
// directory. The file has two blocks:
//
//   - identity: who the server is (name, version, description, capabilities,
//     tier, GPU requirement). This block becomes the immutable
//     api.ServerIdentity the process runs with.
//   - runtime: how the server listens and shuts down (MCP transport, bind
//     address and port, operational HTTP port, drain grace window).
//
// A missing file is not an error: defaults apply and the caller provides an
// identity. A present file must validate, because the identity it carries is
// fixed for the lifetime of the process.
//
// # Drift Detection
//
// Because the identity never changes after startup, edits to config.yaml
// have no effect on a running server. The DriftWatcher watches the file and
// logs a warning when it changes so operators know the process needs a
// restart to pick the changes up. It never reloads.
//
// # Example
//
//	identity:
//	  name: image-tools
//	  version: 1.4.2
//	  description: Image processing tools
//	  capabilities: [resize, ocr]
//	  tier: primary
//	  gpuRequired: true
//	runtime:
//	  transport: streamable-http
//	  host: 0.0.0.0
//	  port: 8090
//	  opsPort: 9090
//	  graceSeconds: 5
package config
