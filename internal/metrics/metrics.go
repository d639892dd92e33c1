package metrics

import (
	"bytes"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"mcpbase/internal/api"
)

// Metric names exposed by every server of the fleet.
const (
	MetricRequestsTotal   = "mcpbase_requests_total"
	MetricErrorsTotal     = "mcpbase_errors_total"
	MetricInFlight        = "mcpbase_inflight_requests"
	MetricStartTimeSecond = "mcpbase_start_time_seconds"
)

// Emitter tracks the usage counters of one server. The atomic counters are
// the source of truth; the Prometheus registry reads them through collector
// functions, so incrementing never touches a mutex and the same numbers feed
// the builtin get_metrics tool, the /metrics endpoint, and snapshots.
type Emitter struct {
	startTime time.Time

	requests atomic.Uint64
	errors   atomic.Uint64
	inFlight atomic.Int64

	registry *prometheus.Registry
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	// StartTime is when the emitter was created
	StartTime time.Time

	// Uptime is the time elapsed since StartTime
	Uptime time.Duration

	// RequestCount is the number of dispatched invocations, faulted or not
	RequestCount uint64

	// ErrorCount is the number of invocations that ended in a fault
	ErrorCount uint64

	// InFlight is the number of invocations currently executing
	InFlight int64

	// ErrorRate is ErrorCount over RequestCount, with a floor of one request
	// so a fresh server reports 0 rather than NaN
	ErrorRate float64
}

// NewEmitter creates an emitter for the given server identity. The identity's
// name and tier become constant labels on every exposed metric, so fleet-wide
// scrapes can tell the thirty servers apart.
func NewEmitter(identity api.ServerIdentity) *Emitter {
	e := &Emitter{
		startTime: time.Now(),
		registry:  prometheus.NewRegistry(),
	}

	constLabels := prometheus.Labels{
		"server": identity.Name,
		"tier":   string(identity.Tier),
	}

	e.registry.MustRegister(
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name:        MetricRequestsTotal,
				Help:        "Total tool invocations dispatched, including faulted ones",
				ConstLabels: constLabels,
			},
			func() float64 { return float64(e.requests.Load()) },
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name:        MetricErrorsTotal,
				Help:        "Total tool invocations that ended in a fault",
				ConstLabels: constLabels,
			},
			func() float64 { return float64(e.errors.Load()) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name:        MetricInFlight,
				Help:        "Tool invocations currently executing",
				ConstLabels: constLabels,
			},
			func() float64 { return float64(e.inFlight.Load()) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name:        MetricStartTimeSecond,
				Help:        "Unix time the server started",
				ConstLabels: constLabels,
			},
			func() float64 { return float64(e.startTime.Unix()) },
		),
	)

	return e
}

// RecordRequest counts one dispatched invocation. Called for every dispatch
// regardless of outcome.
func (e *Emitter) RecordRequest() {
	e.requests.Add(1)
}

// RecordError counts one faulted invocation.
func (e *Emitter) RecordError() {
	e.errors.Add(1)
}

// EnterInFlight marks an invocation as executing.
func (e *Emitter) EnterInFlight() {
	e.inFlight.Add(1)
}

// ExitInFlight marks an invocation as finished.
func (e *Emitter) ExitInFlight() {
	e.inFlight.Add(-1)
}

// Snapshot returns the current counter values. The two counters are read
// independently, so under concurrent load the snapshot is approximate by at
// most the invocations racing with it.
func (e *Emitter) Snapshot() Snapshot {
	requests := e.requests.Load()
	errors := e.errors.Load()

	denominator := requests
	if denominator == 0 {
		denominator = 1
	}

	return Snapshot{
		StartTime:    e.startTime,
		Uptime:       time.Since(e.startTime),
		RequestCount: requests,
		ErrorCount:   errors,
		InFlight:     e.inFlight.Load(),
		ErrorRate:    float64(errors) / float64(denominator),
	}
}

// Registry exposes the Prometheus registry for the /metrics HTTP handler.
func (e *Emitter) Registry() *prometheus.Registry {
	return e.registry
}

// RenderText gathers all metrics and encodes them in the Prometheus text
// exposition format. Families arrive sorted by name from the registry, so
// output for identical counter values is byte-identical between calls.
func (e *Emitter) RenderText() (string, error) {
	families, err := e.registry.Gather()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, family); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
