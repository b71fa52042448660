// Package hubclient implements the hub protocol client: the login state
// machine, request/response correlation, and the public operations a
// HomeKit accessory bridge drives (info, fetch_index, subscribe,
// send_action and its convenience wrappers).
package hubclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rs/zerolog"

	"github.com/markus-barta/viperhap/internal/devices"
	"github.com/markus-barta/viperhap/internal/observer"
	"github.com/markus-barta/viperhap/internal/reqmanager"
	"github.com/markus-barta/viperhap/internal/session"
	"github.com/markus-barta/viperhap/internal/transport"
	"github.com/markus-barta/viperhap/internal/wire"
)

// RootID is the fixed identifier fetch_index queries at detail level 2.
const RootID = "GEN#17#13#1"

const requestTimeout = 5 * time.Second
const maxLoginDepth = 3

// Options carries the account credentials and agent identity a Client
// logs in with.
type Options struct {
	Username  string
	Password  string
	AgentType uint32
}

// Client is the hub protocol client. One instance owns one transport
// connection, one session, and one inbound dispatcher goroutine.
type Client struct {
	log  zerolog.Logger
	tr   transport.Adapter
	reqs *reqmanager.Manager
	sess *session.Machine
	sink observer.Sink
	opts Options

	seq        atomic.Uint32
	loginGroup singleflight.Group

	stopDispatch chan struct{}
	dispatchDone chan struct{}
}

// New creates a Client and starts its inbound dispatcher goroutine. sink
// may be nil, in which case pushed updates are discarded.
func New(tr transport.Adapter, sink observer.Sink, opts Options, log zerolog.Logger) *Client {
	if sink == nil {
		sink = observer.NopSink{}
	}
	c := &Client{
		log:          log.With().Str("component", "hubclient").Logger(),
		tr:           tr,
		reqs:         reqmanager.New(),
		sess:         session.NewMachine(),
		sink:         sink,
		opts:         opts,
		stopDispatch: make(chan struct{}),
		dispatchDone: make(chan struct{}),
	}
	go c.runDispatch()
	return c
}

func (c *Client) nextSeqID() uint32 { return c.seq.Add(1) }

// runDispatch is the single goroutine reading every inbound frame, routing
// correlated responses to the Request Manager and unsolicited pushes to the
// observer sink.
func (c *Client) runDispatch() {
	defer close(c.dispatchDone)
	for {
		select {
		case <-c.stopDispatch:
			return
		case raw, ok := <-c.tr.Inbound():
			if !ok {
				return
			}
			resp, err := wire.Decode(raw)
			if err != nil {
				c.log.Debug().Err(err).Msg("dropping malformed inbound frame")
				c.reqs.Sweep()
				continue
			}
			if resp.IsPush() {
				c.handlePush(resp)
			} else if !c.reqs.Complete(resp) {
				c.log.Debug().Uint32("seq_id", *resp.SeqID).Msg("response for unknown request")
			}
			c.reqs.Sweep()
		}
	}
}

func (c *Client) handlePush(resp wire.ResponseFrame) {
	if len(resp.OutData) == 0 {
		return
	}
	ds, err := devices.ToHomeDevices(resp.OutData[0])
	if err != nil {
		c.log.Debug().Err(err).Msg("failed to decode pushed device")
		return
	}
	for _, d := range ds {
		c.sink.StatusUpdate(d)
	}
}

// doRequestOnce registers, publishes and waits for a single frame, with no
// retry or re-login logic — the building block both login() and
// sendRequest() share.
func (c *Client) doRequestOnce(ctx context.Context, frame wire.RequestFrame) (wire.ResponseFrame, error) {
	pending := c.reqs.Add(frame.SeqID)
	payload, err := wire.Encode(frame)
	if err != nil {
		return wire.ResponseFrame{}, err
	}
	if err := c.tr.Publish(ctx, payload); err != nil {
		return wire.ResponseFrame{}, &PublishError{Detail: "publish failed", Cause: err}
	}
	resp, ok := pending.Wait(requestTimeout)
	if !ok {
		return wire.ResponseFrame{}, &ReadError{Detail: fmt.Sprintf("timed out waiting for seq_id %d", frame.SeqID)}
	}
	return resp, nil
}

// sendRequest implements the 5-step contract: register, publish, wait, and
// on a non-zero req_result force a single re-login and retry exactly once.
// The retry carries a fresh seq_id and, where the frame has one, the new
// session token.
func (c *Client) sendRequest(ctx context.Context, frame wire.RequestFrame) (wire.ResponseFrame, error) {
	resp, err := c.doRequestOnce(ctx, frame)
	if err != nil {
		return wire.ResponseFrame{}, err
	}
	if resp.Ok() {
		return resp, nil
	}

	c.sess.Reset()
	_, token, err := c.login(ctx)
	if err != nil {
		return wire.ResponseFrame{}, &PublishError{Detail: "re-login after invalid token failed", Cause: err}
	}

	frame.SeqID = c.nextSeqID()
	if frame.SessionToken != nil {
		frame.SessionToken = &token
	}
	resp, err = c.doRequestOnce(ctx, frame)
	if err != nil {
		return wire.ResponseFrame{}, err
	}
	if !resp.Ok() {
		return wire.ResponseFrame{}, &PublishError{Detail: "failed after re-login"}
	}
	return resp, nil
}

type loginResult struct {
	agentID uint32
	token   string
}

// login drives the Disconnected -> Announced -> Logged sequence, bounded at
// depth 3, re-entrant, and collapsed across concurrent callers via
// singleflight so only one Announce+Login round-trip runs at a time.
func (c *Client) login(ctx context.Context) (uint32, string, error) {
	v, err, _ := c.loginGroup.Do("login", func() (interface{}, error) {
		return c.loginSteps(ctx)
	})
	if err != nil {
		return 0, "", err
	}
	res := v.(loginResult)
	return res.agentID, res.token, nil
}

func (c *Client) loginSteps(ctx context.Context) (loginResult, error) {
	for depth := 0; depth < maxLoginDepth; depth++ {
		state := c.sess.Snapshot()
		switch state.Kind {
		case session.Disconnected:
			frame := wire.NewAnnounceFrame(c.nextSeqID(), c.opts.AgentType)
			resp, err := c.doRequestOnce(ctx, frame)
			if err != nil {
				return loginResult{}, &GenericError{Detail: "announce", Cause: err}
			}
			if !resp.Ok() || len(resp.OutData) == 0 {
				return loginResult{}, &LoginError{Step: "announce", ReqResult: resp.ReqResult}
			}
			var agent struct {
				AgentID uint32 `json:"agent_id"`
			}
			if err := json.Unmarshal(resp.OutData[0], &agent); err != nil {
				return loginResult{}, &GenericError{Detail: "announce: decode agent record", Cause: err}
			}
			c.sess.SetAnnounced(agent.AgentID)

		case session.Announced:
			frame := wire.NewLoginFrame(c.nextSeqID(), c.opts.Username, c.opts.Password, state.AgentID)
			resp, err := c.doRequestOnce(ctx, frame)
			if err != nil {
				return loginResult{}, &GenericError{Detail: "authenticate", Cause: err}
			}
			if !resp.Ok() || resp.SessionToken == nil {
				return loginResult{}, &LoginError{Step: "authenticate", ReqResult: resp.ReqResult}
			}
			c.sess.SetLogged(*resp.SessionToken)

		case session.Logged:
			return loginResult{agentID: state.AgentID, token: state.Token}, nil
		}
	}
	return loginResult{}, &LoginError{Step: "bounded login recursion exceeded"}
}

// Login runs (or joins an in-flight) login sequence and returns the
// resulting (agent_id, session_token).
func (c *Client) Login(ctx context.Context) (uint32, string, error) {
	return c.login(ctx)
}

func (c *Client) requireLoggedIn(op string) error {
	if !c.sess.IsLogged() {
		return &InvalidStateError{Op: op}
	}
	return nil
}

// Info issues a Status request for a single device subtree.
func (c *Client) Info(ctx context.Context, deviceID string, detailLevel uint8) ([]devices.Device, error) {
	if err := c.requireLoggedIn("info"); err != nil {
		return nil, err
	}
	_, token, err := c.login(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.sendRequest(ctx, wire.NewStatusFrame(c.nextSeqID(), token, deviceID, detailLevel))
	if err != nil {
		return nil, err
	}
	return devices.ToHomeDeviceList(resp.OutData)
}

// FetchIndex issues a Status request on RootID at detail level 2 and
// flattens the result into an id -> Device index.
func (c *Client) FetchIndex(ctx context.Context) (map[string]devices.Device, error) {
	if err := c.requireLoggedIn("fetch_index"); err != nil {
		return nil, err
	}
	_, token, err := c.login(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.sendRequest(ctx, wire.NewStatusFrame(c.nextSeqID(), token, RootID, 2))
	if err != nil {
		return nil, err
	}
	ds, err := devices.ToHomeDeviceList(resp.OutData)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]devices.Device, len(ds))
	for _, d := range ds {
		idx[d.ID()] = d
	}
	return idx, nil
}

// Subscribe enables unsolicited pushes for a device subtree; delivery is
// via the observer sink passed to New.
func (c *Client) Subscribe(ctx context.Context, deviceID string) error {
	if err := c.requireLoggedIn("subscribe"); err != nil {
		return err
	}
	_, token, err := c.login(ctx)
	if err != nil {
		return err
	}
	_, err = c.sendRequest(ctx, wire.NewSubscribeFrame(c.nextSeqID(), token, deviceID))
	return err
}

// SendAction issues an Action request against a device.
func (c *Client) SendAction(ctx context.Context, deviceID string, actionType wire.ActionType, value uint32) error {
	if err := c.requireLoggedIn("send_action"); err != nil {
		return err
	}
	_, token, err := c.login(ctx)
	if err != nil {
		return err
	}
	_, err = c.sendRequest(ctx, wire.NewActionFrame(c.nextSeqID(), token, deviceID, actionType, value))
	return err
}

// ToggleDeviceStatus is the Set action convenience wrapper used by lights,
// outlets, irrigation zones and doors.
func (c *Client) ToggleDeviceStatus(ctx context.Context, deviceID string, on bool) error {
	var v uint32
	if on {
		v = 1
	}
	return c.SendAction(ctx, deviceID, wire.ActionSet, v)
}

// SetThermostatTemperature issues a ClimaSetPoint action with the target
// temperature expressed in tenths of a degree Celsius.
func (c *Client) SetThermostatTemperature(ctx context.Context, deviceID string, tenthsC int) error {
	return c.SendAction(ctx, deviceID, wire.ActionClimaSetPoint, uint32(tenthsC))
}

// SetHumidity issues a UmiSetpoint action with the target relative
// humidity expressed in tenths of a percent.
func (c *Client) SetHumidity(ctx context.Context, deviceID string, tenthsPercent int) error {
	return c.SendAction(ctx, deviceID, wire.ActionUmiSetpoint, uint32(tenthsPercent))
}

// SetThermostatMode issues a SwitchClimaMode action.
func (c *Client) SetThermostatMode(ctx context.Context, deviceID string, mode wire.ClimaMode) error {
	return c.SendAction(ctx, deviceID, wire.ActionSwitchClimaMode, uint32(mode))
}

// SetThermostatSeason issues a SwitchSeason action.
func (c *Client) SetThermostatSeason(ctx context.Context, deviceID string, season wire.ThermoSeason) error {
	return c.SendAction(ctx, deviceID, wire.ActionSwitchSeason, uint32(season))
}

// ToggleThermostatStatus issues a ClimaMode action with the ClimaOnOff
// ordinal that turns the thermostat or humidifier branch on or off.
func (c *Client) ToggleThermostatStatus(ctx context.Context, deviceID string, onOff wire.ClimaOnOff) error {
	return c.SendAction(ctx, deviceID, wire.ActionClimaMode, uint32(onOff))
}

// Disconnect stops the dispatcher and tears down the transport. Subsequent
// operations fail with InvalidStateError.
func (c *Client) Disconnect() error {
	close(c.stopDispatch)
	<-c.dispatchDone
	c.sess.Reset()
	return c.tr.Close()
}
