package session

import "testing"

func TestInitialStateIsDisconnected(t *testing.T) {
	m := NewMachine()
	if m.Snapshot().Kind != Disconnected {
		t.Fatalf("expected Disconnected, got %v", m.Snapshot().Kind)
	}
	if m.IsLogged() {
		t.Fatalf("fresh machine must not report IsLogged")
	}
}

func TestTransitionsThroughLifecycle(t *testing.T) {
	m := NewMachine()
	m.SetAnnounced(42)
	if got := m.Snapshot(); got.Kind != Announced || got.AgentID != 42 {
		t.Fatalf("expected Announced(42), got %+v", got)
	}

	m.SetLogged("T")
	if got := m.Snapshot(); got.Kind != Logged || got.AgentID != 42 || got.Token != "T" {
		t.Fatalf("expected Logged(42,\"T\"), got %+v", got)
	}
	if !m.IsLogged() {
		t.Fatalf("expected IsLogged after SetLogged")
	}
}

func TestResetReturnsToDisconnected(t *testing.T) {
	m := NewMachine()
	m.SetAnnounced(1)
	m.SetLogged("T")
	m.Reset()
	if got := m.Snapshot(); got.Kind != Disconnected {
		t.Fatalf("expected Disconnected after Reset, got %v", got.Kind)
	}
}
