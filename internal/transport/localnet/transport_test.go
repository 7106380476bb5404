package localnet

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lumina-home/lumina-core/internal/infrastructure/config"
	"github.com/lumina-home/lumina-core/internal/infrastructure/mqtt"
	"github.com/lumina-home/lumina-core/internal/transport"
)

// fakeBroker is an in-process broker: publishes to a request topic are
// answered by the configured respond function, delivered through the
// subscribed reply handler like a real broker would.
type fakeBroker struct {
	mu        sync.Mutex
	connected bool
	handler   mqtt.MessageHandler
	respond   func(req requestEnvelope) *replyEnvelope
	published []string
}

func newFakeBroker(respond func(req requestEnvelope) *replyEnvelope) *fakeBroker {
	return &fakeBroker{connected: true, respond: respond}
}

func (b *fakeBroker) Publish(topic string, payload []byte, _ byte, _ bool) error {
	b.mu.Lock()
	b.published = append(b.published, topic)
	handler := b.handler
	respond := b.respond
	b.mu.Unlock()

	if respond == nil || handler == nil {
		return nil
	}

	var req requestEnvelope
	if err := json.Unmarshal(payload, &req); err != nil {
		return err
	}

	reply := respond(req)
	if reply == nil {
		return nil
	}
	reply.RequestID = req.RequestID

	encoded, err := json.Marshal(reply)
	if err != nil {
		return err
	}

	go handler(mqtt.Topics{}.AgentReply("agent-01", req.RequestID), encoded)
	return nil
}

func (b *fakeBroker) Subscribe(_ string, _ byte, handler mqtt.MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = handler
	return nil
}

func (b *fakeBroker) Unsubscribe(string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = nil
	return nil
}

func (b *fakeBroker) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func startedTransport(t *testing.T, broker Broker) *Transport {
	t.Helper()

	tr := New(config.LocalConfig{
		AgentID:  "agent-01",
		Label:    "LAN",
		Priority: 5,
		Timeout:  2,
	}, 1, broker)

	if err := tr.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	t.Cleanup(func() { tr.Stop() })

	return tr
}

func discoverReply() *replyEnvelope {
	return &replyEnvelope{
		OK: true,
		Lights: []replyLight{
			{DeviceID: "dev-2", Model: "bulb-a", Name: "Kitchen", Label: "Kitchen (LAN)",
				Controllable: true, SupportedCommands: []string{"Power", "Scene"}},
		},
		Stale: false,
	}
}

func TestDiscoverDevices(t *testing.T) {
	broker := newFakeBroker(func(req requestEnvelope) *replyEnvelope {
		if req.Op != opDiscover {
			t.Errorf("op = %q, want discover", req.Op)
		}
		return discoverReply()
	})
	tr := startedTransport(t, broker)

	result, err := tr.DiscoverDevices(context.Background())
	if err != nil {
		t.Fatalf("DiscoverDevices() failed: %v", err)
	}
	if len(result.Lights) != 1 {
		t.Fatalf("got %d lights, want 1", len(result.Lights))
	}
	if result.Lights[0].Label != "Kitchen (LAN)" {
		t.Errorf("Label = %q, want Kitchen (LAN)", result.Lights[0].Label)
	}
}

func TestCheckHealth(t *testing.T) {
	t.Run("agent replies", func(t *testing.T) {
		broker := newFakeBroker(func(req requestEnvelope) *replyEnvelope {
			return &replyEnvelope{OK: true}
		})
		tr := startedTransport(t, broker)

		h := tr.CheckHealth(context.Background())
		if !h.Healthy {
			t.Errorf("Healthy = false, want true (err: %+v)", h.Err)
		}
		if h.Descriptor.Kind != transport.KindLocal {
			t.Errorf("Kind = %q, want local", h.Descriptor.Kind)
		}
	})

	t.Run("broker disconnected", func(t *testing.T) {
		broker := newFakeBroker(nil)
		broker.connected = false
		tr := startedTransport(t, broker)

		h := tr.CheckHealth(context.Background())
		if h.Healthy {
			t.Error("Healthy = true with disconnected broker")
		}
		if h.Err == nil {
			t.Fatal("Err = nil, want populated")
		}
	})
}

func TestGetLightState(t *testing.T) {
	broker := newFakeBroker(func(req requestEnvelope) *replyEnvelope {
		if req.DeviceID != "dev-2" || req.Model != "bulb-a" {
			t.Errorf("request addressed %s/%s, want dev-2/bulb-a", req.DeviceID, req.Model)
		}
		return &replyEnvelope{OK: true, State: map[string]any{"on": false}}
	})
	tr := startedTransport(t, broker)

	result, err := tr.GetLightState(context.Background(), "dev-2", "bulb-a")
	if err != nil {
		t.Fatalf("GetLightState() failed: %v", err)
	}
	if result.Transport != transport.KindLocal {
		t.Errorf("Transport = %q, want local", result.Transport)
	}
	if result.State["on"] != false {
		t.Errorf("State[on] = %v, want false", result.State["on"])
	}
}

func TestSendCommand_AgentError(t *testing.T) {
	broker := newFakeBroker(func(req requestEnvelope) *replyEnvelope {
		return &replyEnvelope{OK: false, Error: "device not paired"}
	})
	tr := startedTransport(t, broker)

	err := tr.SendCommand(context.Background(), transport.CommandRequest{
		DeviceID: "dev-2",
		Model:    "bulb-a",
		Command:  transport.CommandPower,
		Payload:  transport.PowerPayload{On: true},
	})

	var agentErr *AgentError
	if !errors.As(err, &agentErr) {
		t.Fatalf("err = %v, want *AgentError", err)
	}
	if agentErr.Message != "device not paired" {
		t.Errorf("Message = %q, want device not paired", agentErr.Message)
	}

	info := transport.DescribeError(err)
	if info.Name != "AgentError" {
		t.Errorf("descriptor name = %q, want AgentError", info.Name)
	}
}

func TestRoundTrip_ReplyTimeout(t *testing.T) {
	// Agent never replies.
	broker := newFakeBroker(func(requestEnvelope) *replyEnvelope { return nil })
	tr := startedTransport(t, broker)
	tr.timeout = 20 * time.Millisecond

	_, err := tr.DiscoverDevices(context.Background())
	if !errors.Is(err, ErrReplyTimeout) {
		t.Errorf("err = %v, want ErrReplyTimeout", err)
	}
}

func TestRoundTrip_ContextCancelled(t *testing.T) {
	broker := newFakeBroker(func(requestEnvelope) *replyEnvelope { return nil })
	tr := startedTransport(t, broker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.DiscoverDevices(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNotStarted(t *testing.T) {
	tr := New(config.LocalConfig{AgentID: "agent-01", Timeout: 1}, 1, newFakeBroker(nil))

	_, err := tr.DiscoverDevices(context.Background())
	if !errors.Is(err, ErrNotStarted) {
		t.Errorf("err = %v, want ErrNotStarted", err)
	}
}

func TestSupports_AfterDiscovery(t *testing.T) {
	broker := newFakeBroker(func(requestEnvelope) *replyEnvelope { return discoverReply() })
	tr := startedTransport(t, broker)

	if !tr.Supports("dev-9", "x", transport.CommandPower) {
		t.Error("Supports() not optimistic before first discovery")
	}

	if _, err := tr.DiscoverDevices(context.Background()); err != nil {
		t.Fatalf("DiscoverDevices() failed: %v", err)
	}

	if !tr.Supports("dev-2", "bulb-a", transport.CommandScene) {
		t.Error("Supports() = false for discovered device with Scene")
	}
	if tr.Supports("dev-2", "bulb-a", transport.CommandBrightness) {
		t.Error("Supports() = true for unsupported Brightness")
	}
	if tr.Supports("dev-9", "x", "") {
		t.Error("Supports() = true for unknown device after discovery")
	}
}

func TestRequestTopicPerRequest(t *testing.T) {
	broker := newFakeBroker(func(requestEnvelope) *replyEnvelope {
		return &replyEnvelope{OK: true}
	})
	tr := startedTransport(t, broker)

	ctx := context.Background()
	tr.CheckHealth(ctx)
	tr.CheckHealth(ctx)

	broker.mu.Lock()
	defer broker.mu.Unlock()
	if len(broker.published) != 2 {
		t.Fatalf("published %d requests, want 2", len(broker.published))
	}
	if broker.published[0] == broker.published[1] {
		t.Error("request topics not unique per request")
	}
}
