package wire

import (
	"encoding/json"
	"testing"
)

func TestEncodeOmitsAbsentFields(t *testing.T) {
	req := NewAnnounceFrame(1, 0)
	data, err := Encode(req)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, absent := range []string{"user_name", "password", "sessiontoken", "obj_id", "detail_level", "act_params"} {
		if _, ok := raw[absent]; ok {
			t.Errorf("expected %q to be omitted, got %s", absent, raw[absent])
		}
	}
	if _, ok := raw["agent_type"]; !ok {
		t.Errorf("expected agent_type to be present")
	}
}

func TestDecodeRoundTripStatusResponse(t *testing.T) {
	payload := []byte(`{
		"req_type":0,"req_sub_type":-1,"seq_id":2,"req_result":0,
		"out_data":[{"id":"GEN#17#13#1","type":1001,"sub_type":13,"descrizione":"root"}]
	}`)
	resp, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if resp.SeqID == nil || *resp.SeqID != 2 {
		t.Fatalf("expected seq_id 2, got %v", resp.SeqID)
	}
	if !resp.Ok() {
		t.Fatalf("expected Ok() response")
	}
	if len(resp.OutData) != 1 {
		t.Fatalf("expected 1 out_data element, got %d", len(resp.OutData))
	}
}

func TestDecodePush(t *testing.T) {
	payload := []byte(`{"req_type":0,"req_sub_type":-1,"req_result":0,"obj_id":"X","out_data":[{"id":"X","type":3}]}`)
	resp, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !resp.IsPush() {
		t.Fatalf("expected push frame (no seq_id)")
	}
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	if err == nil {
		t.Fatalf("expected CodecError for malformed JSON")
	}
	var cerr *CodecError
	if ok := errorsAs(err, &cerr); !ok {
		t.Fatalf("expected *CodecError, got %T", err)
	}
}

func TestDecodeWrongShape(t *testing.T) {
	_, err := Decode([]byte(`{"not_a_frame": true}`))
	if err == nil {
		t.Fatalf("expected CodecError for non-frame JSON")
	}
}

func TestRequestFrameRoundTrip(t *testing.T) {
	cases := []RequestFrame{
		NewAnnounceFrame(1, 0),
		NewLoginFrame(2, "alice", "secret", 42),
		NewStatusFrame(3, "T", "GEN#17#13#1", 2),
		NewSubscribeFrame(4, "T", "GEN#17#13#1"),
		NewActionFrame(5, "T", "X", ActionSet, 1),
	}
	for _, req := range cases {
		data, err := Encode(req)
		if err != nil {
			t.Fatalf("Encode(%+v): %v", req, err)
		}
		var decoded RequestFrame
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if decoded.ReqType != req.ReqType || decoded.SeqID != req.SeqID || decoded.ReqSubType != req.ReqSubType {
			t.Errorf("round-trip mismatch: got %+v, want %+v", decoded, req)
		}
	}
}

func TestDeviceStatusWireEncoding(t *testing.T) {
	data, err := json.Marshal(StatusOn)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"1"` {
		t.Fatalf("expected quoted numeral \"1\", got %s", data)
	}

	var fromString DeviceStatus
	if err := json.Unmarshal([]byte(`"2"`), &fromString); err != nil {
		t.Fatalf("unmarshal string form: %v", err)
	}
	if fromString != StatusRunning {
		t.Fatalf("expected Running, got %v", fromString)
	}

	var fromInt DeviceStatus
	if err := json.Unmarshal([]byte(`2`), &fromInt); err != nil {
		t.Fatalf("unmarshal int form: %v", err)
	}
	if fromInt != StatusRunning {
		t.Fatalf("expected Running, got %v", fromInt)
	}

	var fromGarbage DeviceStatus
	if err := json.Unmarshal([]byte(`"not-a-number"`), &fromGarbage); err != nil {
		t.Fatalf("unmarshal garbage should not error: %v", err)
	}
	if fromGarbage != StatusOff {
		t.Fatalf("expected default Off for unrecognized input, got %v", fromGarbage)
	}
}

func TestPowerAndSeasonDefaults(t *testing.T) {
	var p PowerStatus
	if err := json.Unmarshal([]byte(`"9"`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p != PowerStopped {
		t.Fatalf("expected default Stopped, got %v", p)
	}

	var season ThermoSeason
	if err := json.Unmarshal([]byte(`"9"`), &season); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if season != SeasonSummer {
		t.Fatalf("expected default Summer, got %v", season)
	}
}

func TestUnknownObjectTypeDecodesToUnknown(t *testing.T) {
	var ot ObjectType
	if err := json.Unmarshal([]byte(`424242`), &ot); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ot != ObjectUnknown {
		t.Fatalf("expected Unknown, got %v", ot)
	}
}

// errorsAs is a tiny local wrapper so this file does not need to import
// "errors" just for a single As call in several tests.
func errorsAs(err error, target **CodecError) bool {
	for err != nil {
		if c, ok := err.(*CodecError); ok {
			*target = c
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
