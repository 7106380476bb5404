package mqtt

import "fmt"

// Topic prefixes for the Lumina MQTT namespace.
//
// Agent topics follow the scheme: lumina/agent/{agent_id}/{category}[/{id}]
// where the agent is the on-premises bridge that speaks to the fixtures.
const (
	// TopicPrefixAgent is the base for all agent topics.
	TopicPrefixAgent = "lumina/agent"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "lumina/system"
)

// Topics provides builders for Lumina MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	reqTopic := topics.AgentRequest("agent-01", "req-abc123")
//	// Returns: "lumina/agent/agent-01/request/req-abc123"
type Topics struct{}

// AgentRequest returns the topic for a request to an agent.
//
// Example: lumina/agent/agent-01/request/req-abc123
func (Topics) AgentRequest(agentID, requestID string) string {
	return fmt.Sprintf("%s/%s/request/%s", TopicPrefixAgent, agentID, requestID)
}

// AgentReply returns the topic for an agent's reply to a request.
//
// Example: lumina/agent/agent-01/reply/req-abc123
func (Topics) AgentReply(agentID, requestID string) string {
	return fmt.Sprintf("%s/%s/reply/%s", TopicPrefixAgent, agentID, requestID)
}

// AgentStatus returns the topic for an agent's retained online status.
//
// Example: lumina/agent/agent-01/status
func (Topics) AgentStatus(agentID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixAgent, agentID)
}

// AgentEvent returns the topic for unsolicited device events from an agent.
//
// Example: lumina/agent/agent-01/event/state_changed
func (Topics) AgentEvent(agentID, eventType string) string {
	return fmt.Sprintf("%s/%s/event/%s", TopicPrefixAgent, agentID, eventType)
}

// SystemStatus returns the orchestrator's own status topic.
//
// Example: lumina/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllAgentReplies returns a pattern matching every reply from one agent.
//
// Pattern: lumina/agent/agent-01/reply/+
func (Topics) AllAgentReplies(agentID string) string {
	return fmt.Sprintf("%s/%s/reply/+", TopicPrefixAgent, agentID)
}

// AllAgentEvents returns a pattern matching every event from one agent.
//
// Pattern: lumina/agent/agent-01/event/+
func (Topics) AllAgentEvents(agentID string) string {
	return fmt.Sprintf("%s/%s/event/+", TopicPrefixAgent, agentID)
}

// AllTopics returns a pattern matching all Lumina topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: lumina/#
func (Topics) AllTopics() string {
	return "lumina/#"
}
