package bridge

import (
	"context"
	"sync"
	"time"
)

// DoorCell is the live state of a gate or garage door opener. The hub
// exposes it as a momentary relay, not a position sensor, so the full
// open/opened/close cycle is simulated locally from a single on-toggle.
type DoorCell struct {
	mu             sync.Mutex
	position       uint8
	targetPosition uint8
	positionState  DoorPositionState
	generation     uint64
}

// NewDoorCell creates a cell at the fully-closed rest position.
func NewDoorCell() *DoorCell {
	return &DoorCell{
		position:       FullyClosed,
		targetPosition: FullyClosed,
		positionState:  DoorStopped,
	}
}

// Snapshot returns the cell's current read-only view.
func (c *DoorCell) Snapshot() DoorSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DoorSnapshot{
		Position:       c.position,
		TargetPosition: c.targetPosition,
		PositionState:  c.positionState,
	}
}

// MoveTo drives the virtual door cycle, per spec.md §4.8/Open Question (c):
// any target other than fully opened (100) is a no-op — the door only
// knows how to run its pulse-and-cycle relay, it cannot park at an
// arbitrary position. A call in flight is superseded (not cancelled) by a
// later call; the earlier goroutine notices via the generation counter and
// drops its final state write.
func (c *DoorCell) MoveTo(ctx context.Context, client ActionClient, deviceID string, newPos uint8, openingClosingTime, openedTime time.Duration) error {
	if newPos != FullyOpened {
		return nil
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.targetPosition = FullyOpened
	c.positionState = DoorOpening
	c.mu.Unlock()

	if err := client.ToggleDeviceStatus(ctx, deviceID, true); err != nil {
		return err
	}

	if c.sleepUnlessSuperseded(ctx, gen, openingClosingTime) {
		return nil
	}
	c.mu.Lock()
	c.position = FullyOpened
	c.positionState = DoorStopped
	c.mu.Unlock()

	if c.sleepUnlessSuperseded(ctx, gen, openedTime) {
		return nil
	}
	c.mu.Lock()
	c.positionState = DoorClosing
	c.mu.Unlock()

	if c.sleepUnlessSuperseded(ctx, gen, openingClosingTime) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return nil
	}
	c.position = FullyClosed
	c.targetPosition = FullyClosed
	c.positionState = DoorStopped
	return nil
}

// sleepUnlessSuperseded waits for d, or returns early (true) if the context
// is cancelled or a later MoveTo call has bumped the generation counter.
func (c *DoorCell) sleepUnlessSuperseded(ctx context.Context, gen uint64, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timer.C:
			return false
		case <-ctx.Done():
			return true
		case <-ticker.C:
			c.mu.Lock()
			superseded := c.generation != gen
			c.mu.Unlock()
			if superseded {
				return true
			}
		}
	}
}

// DoorbellCell tracks how many times a programmable-switch-event pulse has
// fired. A pulse fires on every push reporting status On, unconditionally —
// no debounce — matching original_source/hap/src/accessories/doorbell.rs's
// update, so that two real presses reported as two separate On pushes are
// never collapsed into one pulse.
type DoorbellCell struct {
	mu     sync.Mutex
	pulses int
}

func NewDoorbellCell() *DoorbellCell { return &DoorbellCell{} }

// ApplyPush records a status push, pulsing whenever on is true.
func (c *DoorbellCell) ApplyPush(on bool) (pulsed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.pulses++
		pulsed = true
	}
	return pulsed
}

func (c *DoorbellCell) Pulses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pulses
}
