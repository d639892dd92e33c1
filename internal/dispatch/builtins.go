package dispatch

import (
	"context"
)

// Builtin tool handlers. These serve the uniform introspection surface every
// server of the fleet exposes. They read only atomics and snapshots, so they
// answer promptly in every lifecycle state, including draining.

// healthCheck reports liveness. Status mirrors the health flag, which drops
// the moment draining begins.
func (d *Dispatcher) healthCheck(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	snap := d.metrics.Snapshot()

	status := "healthy"
	if !d.lifecycle.IsHealthy() {
		status = "unhealthy"
	}

	return map[string]interface{}{
		"status":         status,
		"uptime_seconds": int64(snap.Uptime.Seconds()),
		"error_count":    snap.ErrorCount,
	}, nil
}

// readinessCheck reports whether domain tool calls are accepted.
func (d *Dispatcher) readinessCheck(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	status := "not_ready"
	if d.lifecycle.IsReady() {
		status = "ready"
	}

	return map[string]interface{}{
		"status": status,
	}, nil
}

// getServerInfo reports the immutable identity together with live counters.
func (d *Dispatcher) getServerInfo(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	snap := d.metrics.Snapshot()

	capabilities := make([]interface{}, 0, len(d.identity.Capabilities))
	for _, capability := range d.identity.Capabilities {
		capabilities = append(capabilities, capability)
	}

	return map[string]interface{}{
		"name":           d.identity.Name,
		"version":        d.identity.Version,
		"description":    d.identity.Description,
		"capabilities":   capabilities,
		"tier":           string(d.identity.Tier),
		"gpu_required":   d.identity.GPURequired,
		"state":          d.lifecycle.State().String(),
		"uptime_seconds": int64(snap.Uptime.Seconds()),
		"request_count":  snap.RequestCount,
		"error_count":    snap.ErrorCount,
		"error_rate":     snap.ErrorRate,
	}, nil
}

// getMetrics returns the full text exposition. Returned as a value rather
// than written to a stream so the envelope contract holds for builtins too.
func (d *Dispatcher) getMetrics(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	text, err := d.metrics.RenderText()
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"text": text,
	}, nil
}
