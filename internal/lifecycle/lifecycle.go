package lifecycle

import (
	"fmt"
	"sync/atomic"

	"github.com/coreos/go-systemd/v22/daemon"

	"mcpbase/pkg/logging"
)

// State is the lifecycle state of a server process.
type State int32

const (
	// StateStarting covers everything before the server accepts domain
	// traffic: tool declaration, the OnStart hook, transport bring-up.
	StateStarting State = iota

	// StateReady means the server accepts domain tool calls.
	StateReady

	// StateDraining means a termination signal arrived: no new domain calls,
	// in-flight ones are finishing, cleanup is about to run.
	StateDraining

	// StateStopped is terminal.
	StateStopped
)

// String makes State satisfy the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// TransitionError reports an attempted transition the state machine does not
// allow. Transitions only move forward: a draining server never becomes
// ready again.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid lifecycle transition from %s to %s", e.From, e.To)
}

// StateChangeCallback is invoked after every successful transition. It runs
// on the transitioning goroutine with no locks held, so callbacks may log or
// update other components freely.
type StateChangeCallback func(oldState, newState State)

// Manager owns the lifecycle state of one server. State and health are read
// on every dispatch and every probe, so both live in atomics: readers never
// contend with a transition in progress.
type Manager struct {
	state    atomic.Int32
	healthy  atomic.Bool
	callback StateChangeCallback
}

// NewManager creates a manager in the starting state with health up. The
// callback may be nil.
func NewManager(callback StateChangeCallback) *Manager {
	m := &Manager{callback: callback}
	m.state.Store(int32(StateStarting))
	m.healthy.Store(true)
	return m
}

// State returns the current state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// IsReady reports whether the server accepts domain tool calls.
func (m *Manager) IsReady() bool {
	return m.State() == StateReady
}

// IsHealthy reports process liveness. It stays true from start until the
// moment draining begins, independent of the ready flag.
func (m *Manager) IsHealthy() bool {
	return m.healthy.Load()
}

// MarkReady transitions starting -> ready. Called by the runtime once tools
// are declared, the startup hook succeeded, and transports are up.
func (m *Manager) MarkReady() error {
	if err := m.transition(StateStarting, StateReady); err != nil {
		return err
	}
	m.notifySystemd(daemon.SdNotifyReady)
	return nil
}

// BeginDraining transitions ready -> draining. Health drops before the state
// changes, so a health probe racing with the transition never sees a healthy
// draining server.
func (m *Manager) BeginDraining() error {
	m.healthy.Store(false)
	if err := m.transition(StateReady, StateDraining); err != nil {
		// The server never became ready; health stays down.
		return err
	}
	m.notifySystemd(daemon.SdNotifyStopping)
	return nil
}

// MarkStopped moves to the terminal state, either from draining after
// cleanup or straight from starting when startup fails.
func (m *Manager) MarkStopped() error {
	m.healthy.Store(false)
	if err := m.transition(StateDraining, StateStopped); err == nil {
		return nil
	}
	return m.transition(StateStarting, StateStopped)
}

// transition performs one CAS-guarded state change and fires the callback.
func (m *Manager) transition(from, to State) error {
	if !m.state.CompareAndSwap(int32(from), int32(to)) {
		return &TransitionError{From: m.State(), To: to}
	}
	logging.Info("Lifecycle", "State changed from %s to %s", from, to)
	if m.callback != nil {
		m.callback(from, to)
	}
	return nil
}

// notifySystemd sends a best-effort readiness notification. Outside a
// systemd unit this is a silent no-op.
func (m *Manager) notifySystemd(state string) {
	notified, err := daemon.SdNotify(false, state)
	if err != nil {
		logging.Warn("Lifecycle", "systemd notification failed: %v", err)
		return
	}
	if notified {
		logging.Debug("Lifecycle", "Notified systemd: %s", state)
	}
}
