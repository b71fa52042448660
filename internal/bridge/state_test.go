package bridge

import (
	"testing"

	"github.com/markus-barta/viperhap/internal/devices"
)

// Two consecutive real presses reported as two separate status:"On" pushes,
// with no intervening Off push, must pulse twice — no debounce.
func TestDoorbellPulsesOnEveryOnPush(t *testing.T) {
	c := NewDoorbellCell()

	if pulsed := c.ApplyPush(true); !pulsed {
		t.Fatalf("expected first On push to pulse")
	}
	if pulsed := c.ApplyPush(true); !pulsed {
		t.Fatalf("expected second consecutive On push to pulse too")
	}
	if pulsed := c.ApplyPush(false); pulsed {
		t.Fatalf("expected Off push not to pulse")
	}
	if pulsed := c.ApplyPush(true); !pulsed {
		t.Fatalf("expected On push after Off to pulse")
	}
	if got := c.Pulses(); got != 3 {
		t.Fatalf("expected 3 pulses, got %d", got)
	}
}

func TestThermostatCellUpdateTracksAllSixCharacteristics(t *testing.T) {
	c := NewThermostatCell()
	c.Update(235, 48, 210, 55, devices.HeatingCoolingHeat)

	temp, hum, targetTemp, targetHum, state, targetState := c.Snapshot()
	if temp != 235 || hum != 48 || targetTemp != 210 || targetHum != 55 {
		t.Fatalf("unexpected snapshot values: %d %d %d %d", temp, hum, targetTemp, targetHum)
	}
	if state != devices.HeatingCoolingHeat {
		t.Fatalf("expected HeatingCoolingHeat, got %v", state)
	}
	if targetState != state {
		t.Fatalf("expected target heating/cooling state to mirror actual, got %v vs %v", targetState, state)
	}
}
