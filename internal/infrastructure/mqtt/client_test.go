package mqtt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/lumina-home/lumina-core/internal/infrastructure/config"
)

func TestTopics_AgentRequestReply(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"request", topics.AgentRequest("agent-01", "req-abc"), "lumina/agent/agent-01/request/req-abc"},
		{"reply", topics.AgentReply("agent-01", "req-abc"), "lumina/agent/agent-01/reply/req-abc"},
		{"status", topics.AgentStatus("agent-01"), "lumina/agent/agent-01/status"},
		{"event", topics.AgentEvent("agent-01", "state_changed"), "lumina/agent/agent-01/event/state_changed"},
		{"system status", topics.SystemStatus(), "lumina/system/status"},
		{"all replies", topics.AllAgentReplies("agent-01"), "lumina/agent/agent-01/reply/+"},
		{"all events", topics.AllAgentEvents("agent-01"), "lumina/agent/agent-01/event/+"},
		{"everything", topics.AllTopics(), "lumina/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestBuildClientOptions_BrokerURL(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "broker.local",
			Port:     1883,
			ClientID: "lumina-core",
		},
	}

	opts := buildClientOptions(cfg)
	servers := opts.Servers
	if len(servers) != 1 {
		t.Fatalf("expected 1 broker, got %d", len(servers))
	}
	if got := servers[0].String(); got != "tcp://broker.local:1883" {
		t.Errorf("broker URL = %q, want tcp://broker.local:1883", got)
	}
}

func TestBuildClientOptions_TLSScheme(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host: "broker.local",
			Port: 8883,
			TLS:  true,
		},
	}

	opts := buildClientOptions(cfg)
	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("scheme = %q, want ssl", got)
	}
	if opts.TLSConfig == nil {
		t.Fatal("TLSConfig not set for TLS broker")
	}
}

func TestBuildClientOptions_Credentials(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{Host: "broker.local", Port: 1883},
		Auth:   config.MQTTAuthConfig{Username: "lumina", Password: "secret"},
	}

	opts := buildClientOptions(cfg)
	if opts.Username != "lumina" {
		t.Errorf("username = %q, want lumina", opts.Username)
	}
	if opts.Password != "secret" {
		t.Errorf("password not carried through")
	}
}

func TestStatusPayloads(t *testing.T) {
	t.Run("online", func(t *testing.T) {
		payload := buildOnlinePayload("lumina-core")

		var msg map[string]string
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			t.Fatalf("online payload is not valid JSON: %v", err)
		}
		if msg["status"] != "online" {
			t.Errorf("status = %q, want online", msg["status"])
		}
		if msg["client_id"] != "lumina-core" {
			t.Errorf("client_id = %q, want lumina-core", msg["client_id"])
		}
	})

	t.Run("offline", func(t *testing.T) {
		payload := buildOfflinePayload("lumina-core")

		if !strings.Contains(payload, `"reason":"graceful_shutdown"`) {
			t.Errorf("offline payload missing graceful_shutdown reason: %s", payload)
		}
	})
}

func TestPublish_Validation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	t.Run("empty topic", func(t *testing.T) {
		if err := c.Publish("", []byte("{}"), 1, false); err != ErrInvalidTopic {
			t.Errorf("err = %v, want ErrInvalidTopic", err)
		}
	})

	t.Run("invalid qos", func(t *testing.T) {
		if err := c.Publish("lumina/test", []byte("{}"), 3, false); err != ErrInvalidQoS {
			t.Errorf("err = %v, want ErrInvalidQoS", err)
		}
	})
}

func TestSubscribe_Validation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	t.Run("empty topic", func(t *testing.T) {
		err := c.Subscribe("", 1, func(string, []byte) error { return nil })
		if err != ErrInvalidTopic {
			t.Errorf("err = %v, want ErrInvalidTopic", err)
		}
	})

	t.Run("nil handler", func(t *testing.T) {
		err := c.Subscribe("lumina/test", 1, nil)
		if err == nil {
			t.Error("expected error for nil handler")
		}
	})
}
