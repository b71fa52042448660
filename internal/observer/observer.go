// Package observer defines the narrow interface the protocol client uses to
// push unsolicited status updates (push frames, which carry no seq_id) up
// into the accessory bridge, without hubclient importing bridge.
package observer

import "github.com/markus-barta/viperhap/internal/devices"

// Sink receives device status updates decoded from push frames as they
// arrive from the hub. Responses to the client's own requests, Subscribe
// acknowledgements included, are not delivered here. Implementations must
// not block: the inbound dispatcher
// goroutine calls StatusUpdate synchronously for every update and a slow
// sink stalls request correlation for every in-flight call.
type Sink interface {
	StatusUpdate(device devices.Device)
}

// MultiSink fans a single update out to every registered sink in order, so
// more than one observer (e.g. the accessory bridge and a debug logger) can
// share one client. cmd/hub-bridged passes its bridge.Manager directly and
// does not use it.
type MultiSink []Sink

func (m MultiSink) StatusUpdate(device devices.Device) {
	for _, s := range m {
		s.StatusUpdate(device)
	}
}

// NopSink discards every update. Used in tests that exercise the protocol
// client without a bridge attached.
type NopSink struct{}

func (NopSink) StatusUpdate(devices.Device) {}
