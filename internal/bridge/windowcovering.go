package bridge

import (
	"context"
	"sync"
	"time"
)

// WindowCoveringCell is the live state of a blind, shutter or awning. The
// hub never reports an absolute position — only moving/stopped/direction —
// so Position is a locally simulated value derived from elapsed motion
// time, not a measurement.
type WindowCoveringCell struct {
	mu             sync.Mutex
	position       uint8
	targetPosition uint8
	positionState  PositionState
	moving         bool
	opening        bool
	generation     uint64
}

// NewWindowCoveringCell creates a cell at the fully-opened rest position,
// per spec.md §3 (initial current_position = target_position = 100).
func NewWindowCoveringCell() *WindowCoveringCell {
	return &WindowCoveringCell{
		position:       FullyOpened,
		targetPosition: FullyOpened,
		positionState:  PositionStopped,
	}
}

// Snapshot returns the cell's current read-only view.
func (c *WindowCoveringCell) Snapshot() WindowCoveringSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return WindowCoveringSnapshot{
		Position:       c.position,
		TargetPosition: c.targetPosition,
		PositionState:  c.positionState,
		Moving:         c.moving,
		Opening:        c.opening,
	}
}

// ApplyPush updates moving/opening from an observed power_status push.
// current_position is never overwritten here — it is simulated locally by
// MoveTo, per spec.md §4.8.
func (c *WindowCoveringCell) ApplyPush(moving, opening bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moving = moving
	c.opening = opening
	c.positionState = motionPositionState(moving, opening)
}

func motionPositionState(moving, opening bool) PositionState {
	if !moving {
		return PositionStopped
	}
	if opening {
		return PositionMovingUp
	}
	return PositionMovingDown
}

// MoveTo drives the virtual position simulator for a write to
// target_position = newPos, per spec.md §4.8:
//  1. position == newPos is a no-op.
//  2. delta_time = (|position-newPos|/100) * (openingTime if position>newPos else closingTime).
//  3. opening = position > newPos (a larger displayed value means more light).
//  4. If a move is already in progress, it is stopped first (toggle derived
//     from the in-progress direction) before the new move starts.
//  5. Start-toggle(!opening), sleep delta_time (cancellable), stop-toggle(opening),
//     then commit the new position — unless a later call has already
//     superseded this one, in which case the position write is dropped.
//
// MoveTo blocks for the duration of the simulated motion (or until
// cancelled by a superseding call), matching the original accessory's
// synchronous characteristic-write handler.
func (c *WindowCoveringCell) MoveTo(ctx context.Context, client ActionClient, deviceID string, newPos uint8, openingTime, closingTime time.Duration) error {
	c.mu.Lock()
	if c.position == newPos {
		c.mu.Unlock()
		return nil
	}

	opening := c.position > newPos
	distance := int(c.position) - int(newPos)
	if distance < 0 {
		distance = -distance
	}
	var rate time.Duration
	if opening {
		rate = openingTime
	} else {
		rate = closingTime
	}
	delta := time.Duration(float64(rate) / 100 * float64(distance))

	if c.moving {
		stopOn := c.opening
		c.moving = false
		c.positionState = PositionStopped
		c.targetPosition = newPos
		c.mu.Unlock()
		if err := client.ToggleDeviceStatus(ctx, deviceID, stopOn); err != nil {
			return err
		}
		c.mu.Lock()
	}

	c.generation++
	gen := c.generation
	c.moving = true
	c.opening = opening
	c.positionState = motionPositionState(true, opening)
	c.targetPosition = newPos
	c.mu.Unlock()

	if err := client.ToggleDeviceStatus(ctx, deviceID, !opening); err != nil {
		return err
	}

	// If a later MoveTo call supersedes this one, it issues its own
	// stop-toggle as part of taking over (the "already moving" branch
	// above) and owns the final state write — mirroring tokio::select!
	// dropping the losing branch's remaining work, including its
	// stop-toggle, entirely.
	if cancelled := c.waitOrCancel(ctx, gen, delta); cancelled {
		return nil
	}

	if err := client.ToggleDeviceStatus(ctx, deviceID, opening); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return nil
	}
	c.position = newPos
	c.moving = false
	c.opening = false
	c.positionState = PositionStopped
	c.targetPosition = newPos
	return nil
}

// waitOrCancel blocks for delta, polling every 500ms for pre-emptive
// cancellation: another MoveTo call bumping the generation counter, or the
// context being cancelled. Returns true if the wait ended early.
func (c *WindowCoveringCell) waitOrCancel(ctx context.Context, gen uint64, delta time.Duration) bool {
	deadline := time.NewTimer(delta)
	defer deadline.Stop()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline.C:
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
