// Package wire implements the hub's JSON-over-broker request/response
// codec: the request and response frame shapes and the integer enumerations
// that appear inside them. Ordinal values are preserved bit-exact against
// the hub firmware and must never be renumbered.
package wire

import (
	"strconv"
)

// RequestType identifies the kind of request frame.
type RequestType int32

const (
	RequestStatus     RequestType = 0
	RequestAction     RequestType = 1
	RequestSubscribe  RequestType = 3
	RequestLogin      RequestType = 5
	RequestPing       RequestType = 7
	RequestReadParams RequestType = 8
	RequestGetDatetime RequestType = 9
	RequestAnnounce   RequestType = 13
)

// RequestSubType refines a RequestType. None (-1) means "not applicable".
type RequestSubType int32

const (
	SubTypeNone               RequestSubType = -1
	SubTypeCreateObj          RequestSubType = 0
	SubTypeUpdateObj          RequestSubType = 1
	SubTypeDeleteObj          RequestSubType = 2
	SubTypeSetActionObj       RequestSubType = 3
	SubTypeGetTempoObj        RequestSubType = 4
	SubTypeSubscribeRt        RequestSubType = 5
	SubTypeUnsubscribeRt      RequestSubType = 6
	SubTypeGetConfParamGroup  RequestSubType = 23
)

// ObjectType is the device taxonomy discriminator used in out_data.
type ObjectType int32

const (
	ObjectOther          ObjectType = 1
	ObjectWindowCovering ObjectType = 2
	ObjectLight          ObjectType = 3
	ObjectIrrigation     ObjectType = 4
	ObjectThermostat     ObjectType = 9
	ObjectOutlet         ObjectType = 10
	ObjectPowerSupplier  ObjectType = 11
	ObjectAgent          ObjectType = 13
	ObjectZone           ObjectType = 1001
	ObjectVipElement     ObjectType = 2000
	ObjectDoor           ObjectType = 2001
	ObjectUnknown        ObjectType = -1
)

// ObjectSubtype is the finer-grained taxonomy discriminator.
type ObjectSubtype int32

const (
	SubtypeUnknown                     ObjectSubtype = -1
	SubtypeGeneric                     ObjectSubtype = 0
	SubtypeDigitalLight                ObjectSubtype = 1
	SubtypeRgbLight                    ObjectSubtype = 2
	SubtypeTemporizedLight             ObjectSubtype = 3
	SubtypeDimmerLight                 ObjectSubtype = 4
	SubtypeOtherDigit                  ObjectSubtype = 5
	SubtypeOtherTmp                    ObjectSubtype = 6
	SubtypeElectricBlind               ObjectSubtype = 7
	SubtypeClimaTerm                   ObjectSubtype = 12
	SubtypeGenericZone                 ObjectSubtype = 13
	SubtypeConsumption                 ObjectSubtype = 15
	SubtypeClimaThermostatDehumidifier ObjectSubtype = 16
	SubtypeClimaDehumidifier           ObjectSubtype = 17
	SubtypeDoor                        ObjectSubtype = 23
	SubtypeEnhancedElectricBlind       ObjectSubtype = 31
)

// ActionType identifies the kind of change an Action request requests.
type ActionType uint32

const (
	ActionSet             ActionType = 0
	ActionClimaMode       ActionType = 1
	ActionClimaSetPoint   ActionType = 2
	ActionSwitchSeason    ActionType = 4
	ActionSwitchClimaMode ActionType = 13
	ActionUmiSetpoint     ActionType = 19
	ActionSwitchUmiMode   ActionType = 23
	ActionSetBlindPosition ActionType = 52
)

// ClimaMode is the thermostat auto/manual mode, as set by SwitchClimaMode.
type ClimaMode int32

const (
	ClimaModeNone       ClimaMode = 0
	ClimaModeAuto       ClimaMode = 1
	ClimaModeManual     ClimaMode = 2
	ClimaModeSemiAuto   ClimaMode = 3
	ClimaModeSemiMan    ClimaMode = 4
	ClimaModeOffAuto    ClimaMode = 5
	ClimaModeOffManual  ClimaMode = 6
)

// ClimaOnOff is the ordinal set used with the ClimaMode action type to
// toggle a thermostat or humidifier on/off.
type ClimaOnOff int32

const (
	ClimaOffThermo ClimaOnOff = 0
	ClimaOnThermo  ClimaOnOff = 1
	ClimaOffHumi   ClimaOnOff = 2
	ClimaOnHumi    ClimaOnOff = 3
	ClimaOff       ClimaOnOff = 4
	ClimaOn        ClimaOnOff = 5
)

// DeviceStatus, PowerStatus and ThermoSeason are encoded on the wire as
// quoted numeral strings ("0", "1", ...), never bare integers, even though
// they are ordinary small enumerations. The codec tolerates either form on
// input and always emits the historical quoted-string form.

// DeviceStatus is the generic on/off/running status of a device.
type DeviceStatus int32

const (
	StatusOff     DeviceStatus = 0
	StatusOn      DeviceStatus = 1
	StatusRunning DeviceStatus = 2
)

// PowerStatus is the window-covering/relay power state.
type PowerStatus int32

const (
	PowerStopped PowerStatus = 0
	PowerOff     PowerStatus = 1
	PowerOn      PowerStatus = 2
)

// ThermoSeason selects the heating/cooling season for a thermostat.
type ThermoSeason int32

const (
	SeasonSummer ThermoSeason = 0
	SeasonWinter ThermoSeason = 1
)

// --- JSON marshalling -------------------------------------------------

// marshalQuotedOrdinal renders n as a quoted numeral string, e.g. 1 -> `"1"`.
func marshalQuotedOrdinal(n int32) ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatInt(int64(n), 10))), nil
}

// parseOrdinal accepts either a bare JSON integer or a quoted numeral
// string and returns the ordinal value.
func parseOrdinal(data []byte) (int32, error) {
	if len(data) == 0 {
		return 0, strconv.ErrSyntax
	}
	s := string(data)
	if s[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return 0, err
		}
		s = unquoted
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

func (s DeviceStatus) MarshalJSON() ([]byte, error) { return marshalQuotedOrdinal(int32(s)) }

// UnmarshalJSON defaults to Off on any unrecognized input, per spec.
func (s *DeviceStatus) UnmarshalJSON(data []byte) error {
	n, err := parseOrdinal(data)
	if err != nil {
		*s = StatusOff
		return nil
	}
	switch DeviceStatus(n) {
	case StatusOn, StatusOff, StatusRunning:
		*s = DeviceStatus(n)
	default:
		*s = StatusOff
	}
	return nil
}

func (s PowerStatus) MarshalJSON() ([]byte, error) { return marshalQuotedOrdinal(int32(s)) }

// UnmarshalJSON defaults to Stopped on any unrecognized input, per spec.
func (s *PowerStatus) UnmarshalJSON(data []byte) error {
	n, err := parseOrdinal(data)
	if err != nil {
		*s = PowerStopped
		return nil
	}
	switch PowerStatus(n) {
	case PowerStopped, PowerOff, PowerOn:
		*s = PowerStatus(n)
	default:
		*s = PowerStopped
	}
	return nil
}

func (s ThermoSeason) MarshalJSON() ([]byte, error) { return marshalQuotedOrdinal(int32(s)) }

// UnmarshalJSON defaults to Summer on any unrecognized input, per spec.
func (s *ThermoSeason) UnmarshalJSON(data []byte) error {
	n, err := parseOrdinal(data)
	if err != nil {
		*s = SeasonSummer
		return nil
	}
	switch ThermoSeason(n) {
	case SeasonSummer, SeasonWinter:
		*s = ThermoSeason(n)
	default:
		*s = SeasonSummer
	}
	return nil
}

// ClimaMode is also wire-encoded as a quoted numeral string.
func (m ClimaMode) MarshalJSON() ([]byte, error) { return marshalQuotedOrdinal(int32(m)) }

func (m *ClimaMode) UnmarshalJSON(data []byte) error {
	n, err := parseOrdinal(data)
	if err != nil {
		*m = ClimaModeNone
		return nil
	}
	*m = ClimaMode(n)
	return nil
}

// RequestType and RequestSubType decode unknown ordinals to their documented
// default (Status / None) rather than failing, matching the hub firmware's
// own lenient decoding.

func (t *RequestType) UnmarshalJSON(data []byte) error {
	n, err := parseOrdinal(data)
	if err != nil {
		*t = RequestStatus
		return nil
	}
	switch RequestType(n) {
	case RequestStatus, RequestAction, RequestSubscribe, RequestLogin, RequestPing,
		RequestReadParams, RequestGetDatetime, RequestAnnounce:
		*t = RequestType(n)
	default:
		*t = RequestStatus
	}
	return nil
}

func (t *RequestSubType) UnmarshalJSON(data []byte) error {
	n, err := parseOrdinal(data)
	if err != nil {
		*t = SubTypeNone
		return nil
	}
	switch RequestSubType(n) {
	case SubTypeNone, SubTypeCreateObj, SubTypeUpdateObj, SubTypeDeleteObj, SubTypeSetActionObj,
		SubTypeGetTempoObj, SubTypeSubscribeRt, SubTypeUnsubscribeRt, SubTypeGetConfParamGroup:
		*t = RequestSubType(n)
	default:
		*t = SubTypeNone
	}
	return nil
}

// ObjectType and ObjectSubtype decode unknown ordinals to Unknown/Generic
// rather than failing, but encode/decode as plain integers (they appear on
// request/response frames, not inside device status fields).

func (t *ObjectType) UnmarshalJSON(data []byte) error {
	n, err := parseOrdinal(data)
	if err != nil {
		*t = ObjectUnknown
		return nil
	}
	switch ObjectType(n) {
	case ObjectOther, ObjectWindowCovering, ObjectLight, ObjectIrrigation, ObjectThermostat,
		ObjectOutlet, ObjectPowerSupplier, ObjectAgent, ObjectZone, ObjectVipElement, ObjectDoor:
		*t = ObjectType(n)
	default:
		*t = ObjectUnknown
	}
	return nil
}

func (t *ObjectSubtype) UnmarshalJSON(data []byte) error {
	n, err := parseOrdinal(data)
	if err != nil {
		*t = SubtypeUnknown
		return nil
	}
	switch ObjectSubtype(n) {
	case SubtypeUnknown, SubtypeGeneric, SubtypeDigitalLight, SubtypeRgbLight, SubtypeTemporizedLight,
		SubtypeDimmerLight, SubtypeOtherDigit, SubtypeOtherTmp, SubtypeElectricBlind, SubtypeClimaTerm,
		SubtypeGenericZone, SubtypeConsumption, SubtypeClimaThermostatDehumidifier,
		SubtypeClimaDehumidifier, SubtypeDoor, SubtypeEnhancedElectricBlind:
		*t = ObjectSubtype(n)
	default:
		*t = SubtypeGeneric
	}
	return nil
}
