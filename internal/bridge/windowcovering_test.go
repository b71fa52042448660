package bridge

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeActionClient records every toggle so tests can assert on motion
// polarity without a real hubclient.Client.
type fakeActionClient struct {
	mu    sync.Mutex
	calls []bool
}

func (f *fakeActionClient) ToggleDeviceStatus(_ context.Context, _ string, on bool) error {
	f.mu.Lock()
	f.calls = append(f.calls, on)
	f.mu.Unlock()
	return nil
}

func (f *fakeActionClient) toggles() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.calls))
	copy(out, f.calls)
	return out
}

// S5 — a write to target_position 0 begins closing over 10s; a retarget to
// 50 issued while that move is still running stops the first move and
// starts a new, shorter move computed from the current simulated position,
// per spec.md §4.8/"S5".
func TestWindowCoveringCancellationAndRetarget(t *testing.T) {
	cell := NewWindowCoveringCell()
	client := &fakeActionClient{}

	done := make(chan error, 1)
	go func() {
		done <- cell.MoveTo(context.Background(), client, "WC#1", 0, 10*time.Second, 10*time.Second)
	}()

	time.Sleep(50 * time.Millisecond)
	snap := cell.Snapshot()
	// opening here names the toggle-polarity direction (position > new_pos),
	// not literal HomeKit open/close semantics: a 100->0 move has opening=true.
	if !snap.Moving || !snap.Opening {
		t.Fatalf("expected a 100->0 move in progress, got %+v", snap)
	}

	if err := cell.MoveTo(context.Background(), client, "WC#1", 50, 10*time.Second, 10*time.Second); err != nil {
		t.Fatalf("retarget failed: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("original move returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("original move goroutine never returned after being superseded")
	}

	final := cell.Snapshot()
	if final.Moving {
		t.Fatalf("expected motion to have settled, got %+v", final)
	}
	if final.Position != 50 {
		t.Fatalf("expected final position 50 (set by the retargeting call), got %d", final.Position)
	}

	toggles := client.toggles()
	if len(toggles) < 3 {
		t.Fatalf("expected at least 3 toggles (start, stop-on-cancel, start-of-retarget[, stop]), got %v", toggles)
	}
	if toggles[0] != false {
		t.Fatalf("expected the first toggle to start the 100->0 move (on=false, since opening=true), got %v", toggles[0])
	}
}

// The simple, uninterrupted case: 100 -> 0 over openingTime=closingTime=1s
// settles at position 0 with motion stopped.
func TestWindowCoveringUninterruptedMoveSettles(t *testing.T) {
	cell := NewWindowCoveringCell()
	client := &fakeActionClient{}

	err := cell.MoveTo(context.Background(), client, "WC#1", 0, time.Second, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := cell.Snapshot()
	if snap.Moving {
		t.Fatalf("expected motion to have stopped, got %+v", snap)
	}
	if snap.Position != 0 {
		t.Fatalf("expected position 0, got %d", snap.Position)
	}
	if snap.PositionState != PositionStopped {
		t.Fatalf("expected PositionStopped, got %v", snap.PositionState)
	}

	toggles := client.toggles()
	if len(toggles) != 2 {
		t.Fatalf("expected exactly 2 toggles (start, stop), got %v", toggles)
	}
	if toggles[0] != false || toggles[1] != true {
		t.Fatalf("expected [false, true] (start=!opening, stop=opening, with opening=true for a 100->0 move), got %v", toggles)
	}
}

// A write to the already-current position is a no-op: no toggles, no state
// change.
func TestWindowCoveringNoOpWhenAlreadyAtTarget(t *testing.T) {
	cell := NewWindowCoveringCell()
	client := &fakeActionClient{}

	if err := cell.MoveTo(context.Background(), client, "WC#1", FullyOpened, time.Second, time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.toggles()) != 0 {
		t.Fatalf("expected no toggles for a no-op move, got %v", client.toggles())
	}
}
