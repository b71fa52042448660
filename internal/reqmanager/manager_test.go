package reqmanager

import (
	"sync"
	"testing"
	"time"

	"github.com/markus-barta/viperhap/internal/wire"
)

func seqPtr(v uint32) *uint32 { return &v }

func TestAddCompleteRoundTrip(t *testing.T) {
	m := New()
	p := m.Add(7)
	resp := wire.ResponseFrame{SeqID: seqPtr(7), ReqResult: 0}
	if !m.Complete(resp) {
		t.Fatalf("expected Complete to match pending entry")
	}
	got, ok := p.Wait(time.Second)
	if !ok {
		t.Fatalf("expected Wait to succeed")
	}
	if *got.SeqID != 7 {
		t.Fatalf("expected seq_id 7, got %d", *got.SeqID)
	}
}

func TestCompleteIsAtMostOnce(t *testing.T) {
	m := New()
	m.Add(1)
	resp := wire.ResponseFrame{SeqID: seqPtr(1)}
	if !m.Complete(resp) {
		t.Fatalf("first Complete should succeed")
	}
	if m.Complete(resp) {
		t.Fatalf("second Complete for the same seq_id must return false")
	}
}

func TestCompleteWithNoPendingEntryWakesNoOne(t *testing.T) {
	m := New()
	if m.Complete(wire.ResponseFrame{SeqID: seqPtr(42)}) {
		t.Fatalf("expected Complete to report no match for unknown seq_id")
	}
}

func TestSweepRemovesOnlyExpiredEntries(t *testing.T) {
	m := New()
	p := m.Add(1)
	p.createdAt = time.Now().Add(-ExpirySweep - time.Second)

	m.Add(2) // fresh entry, should survive

	removed := m.Sweep()
	if removed != 1 {
		t.Fatalf("expected 1 removed entry, got %d", removed)
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", m.Len())
	}
}

func TestConcurrentAddAndCompleteAreDistinctAndOrdered(t *testing.T) {
	m := New()
	const n = 200
	var wg sync.WaitGroup
	results := make([]bool, n)
	var added sync.WaitGroup
	added.Add(n)

	for i := uint32(1); i <= n; i++ {
		wg.Add(1)
		go func(seq uint32) {
			defer wg.Done()
			p := m.Add(seq)
			added.Done()
			resp, ok := p.Wait(time.Second)
			results[seq-1] = ok && resp.SeqID != nil && *resp.SeqID == seq
		}(i)
	}

	// Once every request is registered, complete them all from a different
	// goroutine while the callers wait, simulating the single inbound
	// dispatcher delivering interleaved responses for many
	// concurrently-issued requests.
	go func() {
		added.Wait()
		for i := uint32(1); i <= n; i++ {
			m.Complete(wire.ResponseFrame{SeqID: seqPtr(i)})
		}
	}()

	wg.Wait()
	for i, ok := range results {
		if !ok {
			t.Fatalf("request %d did not receive its own correlated response", i+1)
		}
	}
}
