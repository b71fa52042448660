package bridge

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/markus-barta/viperhap/internal/devices"
	"github.com/markus-barta/viperhap/internal/wire"
)

// Manager owns one cell per surfaced accessory and implements observer.Sink,
// routing each pushed device update to the cell matching its concrete type.
// It is the seam between the hub protocol client and whatever exposes
// HomeKit characteristics (a real bridge server, or — today — only the
// read-only Snapshot below).
type Manager struct {
	log zerolog.Logger

	mu            sync.RWMutex
	lights        map[string]*LightCell
	windowCovers  map[string]*WindowCoveringCell
	doors         map[string]*DoorCell
	doorbells     map[string]*DoorbellCell
	thermostats   map[string]*ThermostatCell
}

func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		log:          log.With().Str("component", "bridge").Logger(),
		lights:       make(map[string]*LightCell),
		windowCovers: make(map[string]*WindowCoveringCell),
		doors:        make(map[string]*DoorCell),
		doorbells:    make(map[string]*DoorbellCell),
		thermostats:  make(map[string]*ThermostatCell),
	}
}

// StatusUpdate implements observer.Sink. It must not block: every cell
// update here is either an atomic store or a short mutex-guarded write.
func (m *Manager) StatusUpdate(device devices.Device) {
	switch d := device.(type) {
	case devices.LightDevice:
		m.light(d.ID()).Set(d.PowerOn)

	case devices.WindowCoveringDevice:
		moving := d.MotionState != devices.WindowCoveringStopped
		opening := d.MotionState == devices.WindowCoveringGoingUp
		m.windowCovering(d.ID()).ApplyPush(moving, opening)

	case devices.DoorDevice:
		// Doors report on/off like a relay; no intermediate motion state is
		// pushed, so nothing to apply here beyond ensuring the cell exists.
		m.door(d.ID())

	case devices.DoorbellDevice:
		on := d.Status() == wire.StatusOn
		if pulsed := m.doorbell(d.ID()).ApplyPush(on); pulsed {
			m.log.Debug().Str("device_id", d.ID()).Msg("doorbell pulsed")
		}

	case devices.ThermostatDevice:
		m.thermostat(d.ID()).Update(d.TemperatureTenthsC, d.HumidityPercent, d.TargetTemperatureTenthsC, d.TargetHumidityPercent, d.HeatingCoolingState())
	}
}

func (m *Manager) light(id string) *LightCell {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.lights[id]
	if !ok {
		c = NewLightCell(false)
		m.lights[id] = c
	}
	return c
}

// WindowCovering returns the cell for id, creating it if this is the first
// observation. Callers driving a motion write (bridge.WindowCoveringCell.MoveTo)
// use this to obtain the same cell the observer sink updates.
func (m *Manager) WindowCovering(id string) *WindowCoveringCell { return m.windowCovering(id) }

func (m *Manager) windowCovering(id string) *WindowCoveringCell {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.windowCovers[id]
	if !ok {
		c = NewWindowCoveringCell()
		m.windowCovers[id] = c
	}
	return c
}

// Door returns the cell for id, creating it if necessary.
func (m *Manager) Door(id string) *DoorCell { return m.door(id) }

func (m *Manager) door(id string) *DoorCell {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.doors[id]
	if !ok {
		c = NewDoorCell()
		m.doors[id] = c
	}
	return c
}

func (m *Manager) doorbell(id string) *DoorbellCell {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.doorbells[id]
	if !ok {
		c = NewDoorbellCell()
		m.doorbells[id] = c
	}
	return c
}

func (m *Manager) thermostat(id string) *ThermostatCell {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.thermostats[id]
	if !ok {
		c = NewThermostatCell()
		m.thermostats[id] = c
	}
	return c
}

// Snapshot returns a point-in-time copy of every cell's state.
func (m *Manager) Snapshot() BridgeSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := BridgeSnapshot{
		Lights:          make(map[string]bool, len(m.lights)),
		WindowCoverings: make(map[string]WindowCoveringSnapshot, len(m.windowCovers)),
		Doors:           make(map[string]DoorSnapshot, len(m.doors)),
		DoorbellsPulsed: make(map[string]int, len(m.doorbells)),
		Thermostats:     make(map[string]ThermostatSnapshot, len(m.thermostats)),
	}
	for id, c := range m.lights {
		snap.Lights[id] = c.On()
	}
	for id, c := range m.windowCovers {
		snap.WindowCoverings[id] = c.Snapshot()
	}
	for id, c := range m.doors {
		snap.Doors[id] = c.Snapshot()
	}
	for id, c := range m.doorbells {
		snap.DoorbellsPulsed[id] = c.Pulses()
	}
	for id, c := range m.thermostats {
		t, h, tt, th, hc, thc := c.Snapshot()
		snap.Thermostats[id] = ThermostatSnapshot{
			TemperatureTenthsC:        t,
			HumidityPercent:           h,
			TargetTemperatureTenthsC:  tt,
			TargetHumidityPercent:     th,
			HeatingCoolingState:       hc,
			TargetHeatingCoolingState: thc,
		}
	}
	return snap
}
