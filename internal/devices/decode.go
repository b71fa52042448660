package devices

import (
	"encoding/json"
	"fmt"

	"github.com/markus-barta/viperhap/internal/wire"
)

// record is the common envelope every out_data element decodes into first,
// used to discriminate on Type/SubType before a second, type-specific
// unmarshal extracts the remaining fields. Mirrors the upstream firmware's
// own flatten-then-specialize shape (original_source's DeviceData).
type record struct {
	ID          string             `json:"id"`
	Type        wire.ObjectType    `json:"type"`
	SubType     wire.ObjectSubtype `json:"sub_type"`
	Status      *wire.DeviceStatus `json:"status"`
	Description string             `json:"descrizione"`
	PowerSt     *wire.PowerStatus  `json:"powerst"`
	Elements    []json.RawMessage  `json:"elements"`

	// Agent records carry a numeric agent_id instead of a string id.
	AgentID *uint32 `json:"agent_id"`
}

func (r record) base() base {
	b := base{id: r.ID, subType: r.SubType, description: r.Description}
	if r.Status != nil {
		b.status = *r.Status
	} else {
		b.status = wire.StatusOff
	}
	if r.PowerSt != nil {
		b.powerStatus = *r.PowerSt
	}
	return b
}

// ToHomeDevices decodes a single out_data element into zero or more
// Devices. A Zone element is never itself a Device: it flattens into the
// devices nested under "elements" (Open Question (d) — both the unwrapped
// {id,data} envelope some firmware revisions use at detail_level 1 and the
// inline-element shape used at detail_level 2 are tolerated here, because
// the canonical fixture used throughout the hub's own test suite carries
// inline elements at either level).
func ToHomeDevices(raw json.RawMessage) ([]Device, error) {
	env := unwrapEnvelope(raw)

	var r record
	if err := json.Unmarshal(env, &r); err != nil {
		return nil, fmt.Errorf("devices: decode envelope: %w", err)
	}

	switch r.Type {
	case wire.ObjectZone:
		var out []Device
		for _, el := range r.Elements {
			children, err := ToHomeDevices(el)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
		}
		return out, nil

	case wire.ObjectAgent:
		var a struct {
			AgentID     uint32 `json:"agent_id"`
			Description string `json:"descrizione"`
		}
		if err := json.Unmarshal(env, &a); err != nil {
			return nil, fmt.Errorf("devices: decode agent: %w", err)
		}
		return []Device{AgentDevice{AgentID: a.AgentID, Description: a.Description}}, nil

	case wire.ObjectLight:
		return []Device{LightDevice{base: r.base(), PowerOn: r.base().status == wire.StatusOn}}, nil

	case wire.ObjectWindowCovering:
		var w struct {
			OpenStatus           *wire.DeviceStatus `json:"open_status"`
			Position             string             `json:"position"`
			OpenTime             string             `json:"openTime"`
			CloseTime            string             `json:"closeTime"`
			PreferPosition       string             `json:"preferPosition"`
			EnablePreferPosition *wire.DeviceStatus `json:"enablePreferPosition"`
		}
		if err := json.Unmarshal(env, &w); err != nil {
			return nil, fmt.Errorf("devices: decode window covering: %w", err)
		}
		d := WindowCoveringDevice{
			base:                 r.base(),
			Position:             w.Position,
			OpenTimeSeconds:      w.OpenTime,
			CloseTimeSeconds:     w.CloseTime,
			PreferPosition:       w.PreferPosition,
			EnablePreferPosition: w.EnablePreferPosition != nil && *w.EnablePreferPosition == wire.StatusOn,
		}
		d.MotionState = motionStateFromPowerStatus(d.PowerStatus())
		if w.OpenStatus != nil {
			d.base.status = *w.OpenStatus
		}
		return []Device{d}, nil

	case wire.ObjectOutlet:
		var o struct {
			InstantPower string `json:"instant_power"`
			OutPower     uint16 `json:"out_power"`
		}
		if err := json.Unmarshal(env, &o); err != nil {
			return nil, fmt.Errorf("devices: decode outlet: %w", err)
		}
		return []Device{OutletDevice{base: r.base(), InstantPower: o.InstantPower, OutPower: o.OutPower}}, nil

	case wire.ObjectIrrigation:
		return []Device{IrrigationDevice{base: r.base()}}, nil

	case wire.ObjectThermostat:
		var th struct {
			Temperatura    string            `json:"temperatura"`
			Umidita        string            `json:"umidita"`
			SogliaAttiva   string            `json:"soglia_attiva"`
			SogliaAttivaUmi string           `json:"soglia_attiva_umi"`
			AutoMan        wire.ClimaMode    `json:"auto_man"`
			EstInv         wire.ThermoSeason `json:"est_inv"`
		}
		if err := json.Unmarshal(env, &th); err != nil {
			return nil, fmt.Errorf("devices: decode thermostat: %w", err)
		}
		// soglia_attiva is itself the temperature target (not a separate
		// field): the hub reports the active threshold as the setpoint.
		activeThreshold := parseTenths(th.SogliaAttiva)
		return []Device{ThermostatDevice{
			base:                     r.base(),
			TemperatureTenthsC:       parseTenths(th.Temperatura),
			HumidityPercent:          parseTenths(th.Umidita),
			ActiveThresholdTenthsC:   activeThreshold,
			TargetTemperatureTenthsC: activeThreshold,
			TargetHumidityPercent:    parseTenths(th.SogliaAttivaUmi),
			Mode:                     th.AutoMan,
			Season:                   th.EstInv,
		}}, nil

	case wire.ObjectPowerSupplier:
		var s struct {
			LabelValue   string `json:"label_value"`
			LabelPrice   string `json:"label_price"`
			Cost         string `json:"cost"`
			KCO2         string `json:"kCO2"`
			InstantPower string `json:"instant_power"`
		}
		if err := json.Unmarshal(env, &s); err != nil {
			return nil, fmt.Errorf("devices: decode power supplier: %w", err)
		}
		return []Device{PowerSupplierDevice{
			base:         r.base(),
			LabelValue:   s.LabelValue,
			LabelPrice:   s.LabelPrice,
			Cost:         s.Cost,
			KCO2:         s.KCO2,
			InstantPower: s.InstantPower,
		}}, nil

	case wire.ObjectVipElement:
		return []Device{DoorbellDevice{base: r.base()}}, nil

	case wire.ObjectDoor:
		return []Device{DoorDevice{base: r.base()}}, nil

	case wire.ObjectOther:
		var o struct {
			TempoUscita string `json:"tempo_uscita"`
		}
		if err := json.Unmarshal(env, &o); err != nil {
			return nil, fmt.Errorf("devices: decode other: %w", err)
		}
		return []Device{OtherDevice{base: r.base(), TempoUscita: o.TempoUscita}}, nil

	default:
		// Unknown object types decode to no devices rather than an error,
		// matching the firmware's own forward-compatibility behaviour.
		return nil, nil
	}
}

// ToHomeDeviceList flattens a top-level out_data array (the shape FetchIndex
// and Info responses carry in ResponseFrame.OutData) into the full device
// set, preserving encounter order.
func ToHomeDeviceList(elements []json.RawMessage) ([]Device, error) {
	var out []Device
	for _, el := range elements {
		ds, err := ToHomeDevices(el)
		if err != nil {
			return nil, err
		}
		out = append(out, ds...)
	}
	return out, nil
}

// unwrapEnvelope strips a {"id":..,"data":{...}} wrapper some detail_level 1
// responses use, falling through unchanged when the element already looks
// like a bare device record (has a "type" key at the top level).
func unwrapEnvelope(raw json.RawMessage) json.RawMessage {
	var probe struct {
		Type *json.RawMessage `json:"type"`
		Data *json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return raw
	}
	if probe.Type == nil && probe.Data != nil {
		return *probe.Data
	}
	return raw
}

func motionStateFromPowerStatus(p wire.PowerStatus) WindowCoveringState {
	// A window covering's powerst carries the covering's own status codes:
	// "1" is going up and "2" going down (PowerOff and PowerOn ordinals).
	switch p {
	case wire.PowerOff:
		return WindowCoveringGoingUp
	case wire.PowerOn:
		return WindowCoveringGoingDown
	default:
		return WindowCoveringStopped
	}
}

// parseTenths parses a decimal string carrying tenths-of-a-unit (e.g. "235"
// for 23.5 degrees) into its integer tenths value, defaulting to 0 for an
// empty or malformed field rather than failing the whole decode.
func parseTenths(s string) int {
	if s == "" {
		return 0
	}
	neg := false
	i := 0
	if s[0] == '-' {
		neg = true
		i = 1
	}
	n := 0
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0
		}
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n
}
