package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CodecError wraps a JSON encode/decode failure. Malformed broker payloads
// surface as *CodecError rather than panicking; callers are expected to log
// and drop the frame (see internal/hubclient's inbound dispatcher).
type CodecError struct {
	Detail string
	Cause  error
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("codec: %s: %v", e.Detail, e.Cause)
	}
	return fmt.Sprintf("codec: %s", e.Detail)
}

func (e *CodecError) Unwrap() error { return e.Cause }

// Encode serialises a request frame to its wire JSON form. Fields set to
// nil/zero-value Option are omitted rather than emitted as explicit null,
// and empty ActParams is omitted rather than emitted as [].
func Encode(req RequestFrame) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, &CodecError{Detail: "failed to encode request", Cause: err}
	}
	return data, nil
}

// Decode parses a broker payload into a response frame. It fails with
// *CodecError when the JSON is syntactically invalid or does not look like
// a response frame at all (no req_type key present).
func Decode(data []byte) (ResponseFrame, error) {
	var resp ResponseFrame
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&resp); err != nil {
		return ResponseFrame{}, &CodecError{Detail: "failed to decode response", Cause: err}
	}

	var shape map[string]json.RawMessage
	if err := json.Unmarshal(data, &shape); err != nil {
		return ResponseFrame{}, &CodecError{Detail: "response is not a JSON object", Cause: err}
	}
	if _, hasReqType := shape["req_type"]; !hasReqType {
		return ResponseFrame{}, &CodecError{Detail: "missing req_type in response frame"}
	}
	return resp, nil
}
