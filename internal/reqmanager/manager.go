// Package reqmanager correlates outbound requests with their responses by
// sequence id. It is the client's only concurrency-sensitive shared
// structure besides the session state: additions come from caller
// goroutines, completions come from the single inbound dispatcher goroutine.
package reqmanager

import (
	"sync"
	"time"

	"github.com/markus-barta/viperhap/internal/wire"
)

// ExpirySweep is the soft threshold (spec.md §4.2): entries older than this
// are leaks the sweeper reclaims, not a substitute for the caller's own
// 5s wait budget.
const ExpirySweep = 10 * time.Second

// Pending is a single in-flight request awaiting its correlated response.
type Pending struct {
	seqID     uint32
	createdAt time.Time
	ch        chan wire.ResponseFrame
	once      sync.Once
}

// Wait blocks until the response arrives or the context-free deadline
// elapses, returning a zero ResponseFrame and false on timeout.
func (p *Pending) Wait(timeout time.Duration) (wire.ResponseFrame, bool) {
	select {
	case resp, ok := <-p.ch:
		if !ok {
			return wire.ResponseFrame{}, false
		}
		return resp, true
	case <-time.After(timeout):
		return wire.ResponseFrame{}, false
	}
}

// Manager is the concurrent seq_id -> Pending mapping.
type Manager struct {
	mu      sync.Mutex
	pending map[uint32]*Pending
}

// New creates an empty request manager.
func New() *Manager {
	return &Manager{pending: make(map[uint32]*Pending)}
}

// Add registers a new in-flight request and returns its completion handle.
// The mapping is injective on seq_id: callers must never reuse a seq_id
// within a session (the client's monotonic counter guarantees this).
func (m *Manager) Add(seqID uint32) *Pending {
	p := &Pending{
		seqID:     seqID,
		createdAt: time.Now(),
		ch:        make(chan wire.ResponseFrame, 1),
	}
	m.mu.Lock()
	m.pending[seqID] = p
	m.mu.Unlock()
	return p
}

// Complete delivers a response to its matching pending request, if any.
// Returns true iff a pending entry matched response.SeqID. Completion is
// at-most-once: a second Complete for the same seq_id returns false.
func (m *Manager) Complete(resp wire.ResponseFrame) bool {
	if resp.SeqID == nil {
		return false
	}
	m.mu.Lock()
	p, ok := m.pending[*resp.SeqID]
	if ok {
		delete(m.pending, *resp.SeqID)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	delivered := false
	p.once.Do(func() {
		p.ch <- resp
		delivered = true
	})
	return delivered
}

// Sweep removes entries older than ExpirySweep and returns how many were
// removed. It is a backstop against leaked entries (e.g. a caller that
// stopped waiting after a publish error) — never the primary timeout path.
func (m *Manager) Sweep() int {
	cutoff := time.Now().Add(-ExpirySweep)
	removed := 0
	m.mu.Lock()
	for seqID, p := range m.pending {
		if p.createdAt.Before(cutoff) {
			delete(m.pending, seqID)
			removed++
		}
	}
	m.mu.Unlock()
	return removed
}

// Len reports the number of currently pending requests (test/debug aid).
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
