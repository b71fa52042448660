// Package bridge holds one live-state cell per surfaced accessory and the
// virtual motion simulators for window coverings and doors — the pieces
// that sit between the hub protocol client's observer callback and the HAP
// accessory characteristics a real server would expose.
package bridge

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/markus-barta/viperhap/internal/devices"
)

// PositionState mirrors HomeKit's WindowCovering PositionState values.
type PositionState uint8

const (
	PositionMovingDown PositionState = 0
	PositionMovingUp   PositionState = 1
	PositionStopped    PositionState = 2
)

// DoorPositionState mirrors HomeKit's Door PositionState values.
type DoorPositionState uint8

const (
	DoorClosing DoorPositionState = 0
	DoorOpening DoorPositionState = 1
	DoorStopped DoorPositionState = 2
)

const (
	FullyOpened uint8 = 100
	FullyClosed uint8 = 0
)

// ActionClient is the subset of hubclient.Client the bridge needs to drive
// device motion. A fake backs every simulator test.
type ActionClient interface {
	ToggleDeviceStatus(ctx context.Context, deviceID string, on bool) error
}

// LightCell is the live state of a switched or dimmed light.
type LightCell struct {
	on atomic.Bool
}

func NewLightCell(initial bool) *LightCell {
	c := &LightCell{}
	c.on.Store(initial)
	return c
}

func (c *LightCell) Set(on bool) { c.on.Store(on) }
func (c *LightCell) On() bool    { return c.on.Load() }

// ThermostatCell is the live state of a heating/cooling/humidity controller,
// tracking all six characteristics spec.md §4.8 requires. Updated wholesale
// on each push.
type ThermostatCell struct {
	mu                        sync.Mutex
	temperatureTenthsC        int
	humidityPercent           int
	targetTemperatureTenthsC  int
	targetHumidityPercent     int
	heatingCoolingState       devices.HeatingCoolingState
	targetHeatingCoolingState devices.HeatingCoolingState
}

func NewThermostatCell() *ThermostatCell { return &ThermostatCell{} }

func (c *ThermostatCell) Update(temperatureTenthsC, humidityPercent, targetTemperatureTenthsC, targetHumidityPercent int, heatingCoolingState devices.HeatingCoolingState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.temperatureTenthsC = temperatureTenthsC
	c.humidityPercent = humidityPercent
	c.targetTemperatureTenthsC = targetTemperatureTenthsC
	c.targetHumidityPercent = targetHumidityPercent
	// The hub exposes no separate actual/target distinction: both
	// characteristics track the same derived value.
	c.heatingCoolingState = heatingCoolingState
	c.targetHeatingCoolingState = heatingCoolingState
}

// Snapshot returns (temperature, humidity, targetTemperature, targetHumidity,
// heatingCoolingState, targetHeatingCoolingState), temperatures in
// tenths-of-a-unit, matching the wire encoding.
func (c *ThermostatCell) Snapshot() (int, int, int, int, devices.HeatingCoolingState, devices.HeatingCoolingState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.temperatureTenthsC, c.humidityPercent, c.targetTemperatureTenthsC, c.targetHumidityPercent, c.heatingCoolingState, c.targetHeatingCoolingState
}

// WindowCoveringSnapshot is a read-only view of a WindowCoveringCell.
type WindowCoveringSnapshot struct {
	Position       uint8
	TargetPosition uint8
	PositionState  PositionState
	Moving         bool
	Opening        bool
}

// DoorSnapshot is a read-only view of a DoorCell.
type DoorSnapshot struct {
	Position       uint8
	TargetPosition uint8
	PositionState  DoorPositionState
}

// BridgeSnapshot is the read seam a dashboard or metrics exporter would use
// to observe every accessory's live state without touching the hub
// protocol client directly. Building that exporter is out of scope; this
// accessor is the ambient state-exposure surface the original tree always
// carried.
type BridgeSnapshot struct {
	Lights          map[string]bool
	WindowCoverings map[string]WindowCoveringSnapshot
	Doors           map[string]DoorSnapshot
	DoorbellsPulsed map[string]int
	Thermostats     map[string]ThermostatSnapshot
}

// ThermostatSnapshot is a read-only view of a ThermostatCell.
type ThermostatSnapshot struct {
	TemperatureTenthsC        int
	HumidityPercent           int
	TargetTemperatureTenthsC  int
	TargetHumidityPercent     int
	HeatingCoolingState       devices.HeatingCoolingState
	TargetHeatingCoolingState devices.HeatingCoolingState
}
