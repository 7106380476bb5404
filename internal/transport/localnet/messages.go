package localnet

import "fmt"

// Operations in the agent request/reply protocol.
const (
	opPing     = "ping"
	opDiscover = "discover"
	opState    = "state"
	opCommand  = "command"
)

// requestEnvelope is one request published to the agent's request topic.
// RequestID correlates the eventual reply; it doubles as the topic
// suffix so replies can be routed without decoding unrelated messages.
type requestEnvelope struct {
	RequestID string `json:"request_id"`
	Op        string `json:"op"`
	DeviceID  string `json:"device_id,omitempty"`
	Model     string `json:"model,omitempty"`
	Command   string `json:"command,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// replyLight is one device record in a discover reply.
type replyLight struct {
	DeviceID          string   `json:"device_id"`
	Model             string   `json:"model"`
	Name              string   `json:"name"`
	Label             string   `json:"label"`
	Controllable      bool     `json:"controllable"`
	Retrievable       bool     `json:"retrievable"`
	SupportedCommands []string `json:"supported_commands"`
}

// replyEnvelope is the agent's answer to one request.
type replyEnvelope struct {
	RequestID string `json:"request_id"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`

	// Discover replies.
	Lights []replyLight `json:"lights,omitempty"`
	Stale  bool         `json:"stale,omitempty"`

	// State replies.
	State map[string]any `json:"state,omitempty"`
}

// AgentError is a failure the agent itself reported in a reply.
type AgentError struct {
	Message string
}

// Error implements error.
func (e *AgentError) Error() string {
	return fmt.Sprintf("localnet: agent error: %s", e.Message)
}

// ErrorName implements transport.Namer.
func (e *AgentError) ErrorName() string { return "AgentError" }
