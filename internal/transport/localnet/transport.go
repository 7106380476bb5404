package localnet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumina-home/lumina-core/internal/infrastructure/config"
	"github.com/lumina-home/lumina-core/internal/infrastructure/mqtt"
	"github.com/lumina-home/lumina-core/internal/transport"
)

// Sentinel errors for the local transport.
var (
	// ErrReplyTimeout indicates the agent did not reply within the
	// configured timeout.
	ErrReplyTimeout = errors.New("localnet: agent reply timeout")

	// ErrNotStarted indicates Start was not called before use.
	ErrNotStarted = errors.New("localnet: transport not started")
)

// Broker is the slice of the MQTT client the transport depends on.
// *mqtt.Client satisfies it; tests substitute an in-process fake.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// Transport reaches devices through an on-premises agent over MQTT.
//
// Every operation is a request/reply exchange: a request envelope is
// published to the agent's request topic and the matching reply arrives
// on lumina/agent/{id}/reply/{request_id}. One wildcard subscription
// covers all replies; a pending-request table routes each to its waiter.
type Transport struct {
	desc    transport.Descriptor
	agentID string
	broker  Broker
	qos     byte
	timeout time.Duration
	topics  mqtt.Topics

	// pending maps request IDs to their reply channels.
	pendingMu sync.Mutex
	pending   map[string]chan replyEnvelope
	started   bool

	// devices is the supported-command set per device from the last
	// discovery; nil until the first successful discovery.
	devMu   sync.RWMutex
	devices map[transport.DeviceKey]map[transport.Command]bool
}

// New creates a local transport from configuration. Call Start before
// using it.
func New(cfg config.LocalConfig, qos int, broker Broker) *Transport {
	return &Transport{
		desc: transport.Descriptor{
			Kind:     transport.KindLocal,
			Label:    cfg.Label,
			Priority: cfg.Priority,
		},
		agentID: cfg.AgentID,
		broker:  broker,
		qos:     byte(qos),
		timeout: cfg.RequestTimeout(),
		pending: make(map[string]chan replyEnvelope),
	}
}

// Start subscribes to the agent's reply topic. Must be called once
// before any operation; the mqtt client restores the subscription on
// reconnect.
func (t *Transport) Start() error {
	if err := t.broker.Subscribe(t.topics.AllAgentReplies(t.agentID), t.qos, t.handleReply); err != nil {
		return fmt.Errorf("localnet: subscribing to replies: %w", err)
	}

	t.pendingMu.Lock()
	t.started = true
	t.pendingMu.Unlock()
	return nil
}

// Stop unsubscribes from the reply topic.
func (t *Transport) Stop() error {
	t.pendingMu.Lock()
	t.started = false
	t.pendingMu.Unlock()

	return t.broker.Unsubscribe(t.topics.AllAgentReplies(t.agentID))
}

// handleReply routes an incoming reply to the waiter registered for its
// request ID. Replies for unknown IDs (late arrivals after timeout) are
// dropped.
func (t *Transport) handleReply(_ string, payload []byte) error {
	var reply replyEnvelope
	if err := json.Unmarshal(payload, &reply); err != nil {
		return fmt.Errorf("localnet: decoding reply: %w", err)
	}

	t.pendingMu.Lock()
	ch, ok := t.pending[reply.RequestID]
	t.pendingMu.Unlock()

	if !ok {
		return nil
	}

	select {
	case ch <- reply:
	default:
	}
	return nil
}

// roundTrip publishes a request and waits for its reply, the context, or
// the transport timeout, whichever comes first.
func (t *Transport) roundTrip(ctx context.Context, req requestEnvelope) (replyEnvelope, error) {
	t.pendingMu.Lock()
	if !t.started {
		t.pendingMu.Unlock()
		return replyEnvelope{}, ErrNotStarted
	}

	req.RequestID = uuid.NewString()
	ch := make(chan replyEnvelope, 1)
	t.pending[req.RequestID] = ch
	t.pendingMu.Unlock()

	defer func() {
		t.pendingMu.Lock()
		delete(t.pending, req.RequestID)
		t.pendingMu.Unlock()
	}()

	payload, err := json.Marshal(req)
	if err != nil {
		return replyEnvelope{}, fmt.Errorf("localnet: encoding request: %w", err)
	}

	topic := t.topics.AgentRequest(t.agentID, req.RequestID)
	if err := t.broker.Publish(topic, payload, t.qos, false); err != nil {
		return replyEnvelope{}, fmt.Errorf("localnet: publishing request: %w", err)
	}

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case reply := <-ch:
		if !reply.OK {
			return replyEnvelope{}, &AgentError{Message: reply.Error}
		}
		return reply, nil
	case <-ctx.Done():
		return replyEnvelope{}, fmt.Errorf("localnet: %w", ctx.Err())
	case <-timer.C:
		return replyEnvelope{}, fmt.Errorf("%w after %v", ErrReplyTimeout, t.timeout)
	}
}

// Descriptor implements transport.Transport.
func (t *Transport) Descriptor() transport.Descriptor {
	return t.desc
}

// CheckHealth implements transport.Transport. A disconnected broker
// fails fast without a round trip; otherwise the agent is pinged and
// the reply latency recorded.
func (t *Transport) CheckHealth(ctx context.Context) transport.Health {
	now := func() transport.Health {
		return transport.Health{Descriptor: t.desc, LastChecked: time.Now()}
	}

	if !t.broker.IsConnected() {
		h := now()
		h.Err = transport.DescribeError(mqtt.ErrNotConnected)
		return h
	}

	start := time.Now()
	_, err := t.roundTrip(ctx, requestEnvelope{Op: opPing})
	latency := time.Since(start)

	h := now()
	h.Healthy = err == nil
	h.LatencyMs = latency.Milliseconds()
	h.Err = transport.DescribeError(err)
	return h
}

// DiscoverDevices implements transport.Transport.
func (t *Transport) DiscoverDevices(ctx context.Context) (transport.DiscoveryResult, error) {
	reply, err := t.roundTrip(ctx, requestEnvelope{Op: opDiscover})
	if err != nil {
		return transport.DiscoveryResult{}, err
	}

	lights := make([]transport.Light, len(reply.Lights))
	devices := make(map[transport.DeviceKey]map[transport.Command]bool, len(reply.Lights))
	for i, rl := range reply.Lights {
		lights[i] = transport.Light{
			DeviceID:          rl.DeviceID,
			Model:             rl.Model,
			Name:              rl.Name,
			Label:             rl.Label,
			Controllable:      rl.Controllable,
			Retrievable:       rl.Retrievable,
			SupportedCommands: rl.SupportedCommands,
		}

		cmds := make(map[transport.Command]bool, len(rl.SupportedCommands))
		for _, c := range rl.SupportedCommands {
			cmds[transport.Command(c)] = true
		}
		devices[lights[i].Key()] = cmds
	}

	t.devMu.Lock()
	t.devices = devices
	t.devMu.Unlock()

	return transport.DiscoveryResult{Lights: lights, Stale: reply.Stale}, nil
}

// GetLightState implements transport.Transport.
func (t *Transport) GetLightState(ctx context.Context, deviceID, model string) (transport.StateResult, error) {
	reply, err := t.roundTrip(ctx, requestEnvelope{
		Op:       opState,
		DeviceID: deviceID,
		Model:    model,
	})
	if err != nil {
		return transport.StateResult{}, err
	}

	return transport.StateResult{
		Transport: transport.KindLocal,
		State:     reply.State,
	}, nil
}

// SendCommand implements transport.Transport.
func (t *Transport) SendCommand(ctx context.Context, req transport.CommandRequest) error {
	_, err := t.roundTrip(ctx, requestEnvelope{
		Op:       opCommand,
		DeviceID: req.DeviceID,
		Model:    req.Model,
		Command:  string(req.Command),
		Payload:  req.Payload,
	})
	return err
}

// Supports implements transport.Transport.
//
// Before the first discovery the answer is optimistically true; after a
// discovery the device must be in the agent's catalogue and, for a
// non-empty command, list it in its supported commands.
func (t *Transport) Supports(deviceID, model string, command transport.Command) bool {
	t.devMu.RLock()
	defer t.devMu.RUnlock()

	if t.devices == nil {
		return true
	}

	cmds, ok := t.devices[transport.DeviceKey{DeviceID: deviceID, Model: model}]
	if !ok {
		return false
	}
	if command == "" {
		return true
	}
	return cmds[command]
}
