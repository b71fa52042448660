// Package session owns the client's login lifecycle state. It forbids
// partial mutation: the only way out of Disconnected is SetAnnounced, the
// only way out of Announced is SetLogged, and Reset always returns to
// Disconnected. The recursive login driver itself lives in
// internal/hubclient, which needs the request manager and transport that
// this package intentionally does not own.
package session

import "sync"

// Kind is the discriminator of the three-state session variant.
type Kind int

const (
	Disconnected Kind = iota
	Announced
	Logged
)

func (k Kind) String() string {
	switch k {
	case Disconnected:
		return "disconnected"
	case Announced:
		return "announced"
	case Logged:
		return "logged"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of the session.
type State struct {
	Kind    Kind
	AgentID uint32
	Token   string
}

// Machine is the single-writer-lock session state holder. There is exactly
// one instance per client.
type Machine struct {
	mu    sync.RWMutex
	state State
}

// NewMachine creates a Machine starting in Disconnected.
func NewMachine() *Machine {
	return &Machine{state: State{Kind: Disconnected}}
}

// Snapshot returns a cheap copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsLogged reports whether the session currently holds a valid token.
func (m *Machine) IsLogged() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Kind == Logged
}

// SetAnnounced transitions Disconnected -> Announced(agentID). Called while
// already Announced or Logged, it replaces the whole state with
// Announced(agentID), discarding any session token.
func (m *Machine) SetAnnounced(agentID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State{Kind: Announced, AgentID: agentID}
}

// SetLogged transitions Announced(agentID) -> Logged(agentID, token). It
// does nothing unless the session is Announced.
func (m *Machine) SetLogged(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Kind != Announced {
		return
	}
	m.state.Kind = Logged
	m.state.Token = token
}

// Reset forces the session back to Disconnected. Used on token rejection
// (req_result != 0) to drive the single re-login-and-retry per spec.md §4.5
// step 5. This is local recovery — transparent to the calling operation
// when the subsequent re-login succeeds.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State{Kind: Disconnected}
}
