package hubclient

import (
	"fmt"

	"github.com/markus-barta/viperhap/internal/transport"
	"github.com/markus-barta/viperhap/internal/wire"
)

// TransportError and CodecError are re-exported so callers can errors.As
// against a single package for every failure the client surfaces.
type TransportError = transport.TransportError
type CodecError = wire.CodecError

// InvalidStateError is returned when an operation that requires a Logged
// session is called while the session is not logged in: before the first
// successful login, or after Disconnect.
type InvalidStateError struct {
	Op string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("hubclient: %s: client is not logged in", e.Op)
}

// LoginError wraps a non-zero req_result from Announce or Authenticate.
type LoginError struct {
	Step      string
	ReqResult uint32
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("hubclient: login: %s failed with req_result %d", e.Step, e.ReqResult)
}

// PublishError wraps a publish failure, or a second non-zero req_result
// observed after the one permitted re-login-and-retry.
type PublishError struct {
	Detail string
	Cause  error
}

func (e *PublishError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("hubclient: publish: %s: %v", e.Detail, e.Cause)
	}
	return fmt.Sprintf("hubclient: publish: %s", e.Detail)
}

func (e *PublishError) Unwrap() error { return e.Cause }

// ReadError wraps a timed-out or failed wait on a pending request.
type ReadError struct {
	Detail string
}

func (e *ReadError) Error() string { return fmt.Sprintf("hubclient: read: %s", e.Detail) }

// ScannerError is returned by operations that depend on the Scanner seam
// when no hub address has been discovered or supplied.
type ScannerError struct {
	Detail string
}

func (e *ScannerError) Error() string { return fmt.Sprintf("hubclient: scanner: %s", e.Detail) }

// GenericError wraps any failure that does not fit the taxonomy above.
type GenericError struct {
	Detail string
	Cause  error
}

func (e *GenericError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("hubclient: %s: %v", e.Detail, e.Cause)
	}
	return fmt.Sprintf("hubclient: %s", e.Detail)
}

func (e *GenericError) Unwrap() error { return e.Cause }
