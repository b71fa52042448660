// Package transport wraps the MQTT broker connection that carries hub
// protocol frames. It owns exactly one concern: bytes in, bytes out, over a
// long-lived broker session. Framing, correlation and retry-on-bad-session
// all live above this package in hubclient.
package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MaxFrameBytes is the application-level frame size ceiling enforced on
// every publish and every inbound delivery. MQTT 3.1.1, which this broker
// speaks, has no negotiated max-packet-size (that is an MQTT5 feature), so
// the cap has to be enforced here rather than by the wire protocol.
const MaxFrameBytes = 128 * 1024

const keepAlive = 5 * time.Second

// TransportError wraps a broker-level failure: connect, publish, or a
// frame that violates MaxFrameBytes.
type TransportError struct {
	Op     string
	Detail string
	Cause  error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transport: %s: %s: %v", e.Op, e.Detail, e.Cause)
	}
	return fmt.Sprintf("transport: %s: %s", e.Op, e.Detail)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// Adapter is the narrow surface hubclient depends on. A fake implementation
// backs every hubclient test; Broker is the paho.mqtt.golang-backed
// production implementation.
type Adapter interface {
	// Publish sends payload on the client's outbound topic. Returns
	// *TransportError if payload exceeds MaxFrameBytes or the publish
	// itself fails.
	Publish(ctx context.Context, payload []byte) error
	// Inbound delivers frames received on the client's subscribed topic.
	// Frames larger than MaxFrameBytes are dropped with a logged warning,
	// never delivered.
	Inbound() <-chan []byte
	// Close disconnects from the broker. Idempotent.
	Close() error
}

// ClientID returns a fresh hub client identifier in the firmware's expected
// shape: HSrv_<uppercase UUIDv4>.
func ClientID() string {
	return "HSrv_" + strings.ToUpper(uuid.NewString())
}

// Broker is the production Adapter, backed by paho.mqtt.golang.
type Broker struct {
	log      zerolog.Logger
	client   mqtt.Client
	clientID string
	rxTopic  string
	txTopic  string
	inbound  chan []byte

	closeOnce sync.Once
}

// Config names the broker endpoint and hub addressing needed to build the
// rx/tx topic pair (HSrv/<mac>/rx/<client-id>, HSrv/<mac>/tx/<client-id>).
type Config struct {
	BrokerURL string // e.g. "tcp://192.168.1.10:1883"
	Username  string
	Password  string
	HubMAC    string
}

// topics computes the rx (client-publishes, hub-subscribes) and tx
// (hub-publishes, client-subscribes) topic pair for a given hub MAC and
// client id.
func topics(hubMAC, clientID string) (rx, tx string) {
	return fmt.Sprintf("HSrv/%s/rx/%s", hubMAC, clientID), fmt.Sprintf("HSrv/%s/tx/%s", hubMAC, clientID)
}

// Dial opens a broker connection, retrying the initial Connect() with
// bounded backoff (three attempts) before giving up. Steady-state
// reconnection after a successful initial connect is left to paho's own
// AutoReconnect.
func Dial(ctx context.Context, cfg Config, log zerolog.Logger) (*Broker, error) {
	clientID := ClientID()
	rxTopic, txTopic := topics(cfg.HubMAC, clientID)
	b := &Broker{
		log:      log.With().Str("component", "transport").Str("client_id", clientID).Logger(),
		clientID: clientID,
		rxTopic:  rxTopic,
		txTopic:  txTopic,
		inbound:  make(chan []byte, 64),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(keepAlive).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			b.log.Info().Msg("connected to broker")
			if token := c.Subscribe(b.txTopic, 1, b.onMessage); token.Wait() && token.Error() != nil {
				b.log.Error().Err(token.Error()).Str("topic", b.txTopic).Msg("resubscribe failed")
			}
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			b.log.Warn().Err(err).Msg("broker connection lost, paho will auto-reconnect")
		})

	b.client = mqtt.NewClient(opts)

	connectOnce := func() error {
		token := b.client.Connect()
		if !token.WaitTimeout(15 * time.Second) {
			return &TransportError{Op: "connect", Detail: "timed out waiting for CONNACK"}
		}
		return token.Error()
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2) // 3 total attempts
	policy = backoff.WithContext(policy, ctx)
	if err := backoff.Retry(connectOnce, policy); err != nil {
		return nil, &TransportError{Op: "connect", Detail: "exhausted retries", Cause: err}
	}

	return b, nil
}

func (b *Broker) onMessage(_ mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	if len(payload) > MaxFrameBytes {
		b.log.Warn().Int("bytes", len(payload)).Msg("dropping oversized inbound frame")
		return
	}
	select {
	case b.inbound <- payload:
	default:
		b.log.Warn().Msg("inbound queue full, dropping frame")
	}
}

// Publish sends payload to the client's rx topic at QoS 0 (AtMostOnce),
// matching the firmware's own fire-and-forget request delivery — a lost
// frame surfaces as the caller's request-manager wait timing out; neither
// the broker nor this adapter re-sends it.
func (b *Broker) Publish(ctx context.Context, payload []byte) error {
	if len(payload) > MaxFrameBytes {
		return &TransportError{Op: "publish", Detail: fmt.Sprintf("frame of %d bytes exceeds %d byte cap", len(payload), MaxFrameBytes)}
	}
	token := b.client.Publish(b.rxTopic, 0, false, payload)
	done := make(chan struct{})
	go func() {
		token.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return &TransportError{Op: "publish", Detail: "context cancelled", Cause: ctx.Err()}
	case <-done:
	}
	if err := token.Error(); err != nil {
		return &TransportError{Op: "publish", Detail: "broker rejected publish", Cause: err}
	}
	return nil
}

// Inbound returns the channel of raw frames received on the tx topic.
func (b *Broker) Inbound() <-chan []byte { return b.inbound }

// Close disconnects from the broker, waiting up to 250ms for in-flight
// work to drain. Idempotent.
func (b *Broker) Close() error {
	b.closeOnce.Do(func() {
		if b.client != nil && b.client.IsConnected() {
			b.client.Disconnect(250)
		}
	})
	return nil
}
