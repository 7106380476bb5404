// Package mqtt provides MQTT connectivity for Lumina Core.
//
// It wraps the eclipse/paho.mqtt.golang library with Lumina-specific
// patterns for connection management, topic naming, and reconnection.
//
// # Purpose
//
// The local-network transport speaks to on-premises agents over MQTT
// using a request/reply envelope. This package owns the broker
// connection those exchanges run over:
//   - Automatic reconnection with exponential backoff
//   - Subscription restoration after reconnect
//   - Last Will and Testament for crash detection
//   - Consistent topic naming via the Topics builders
//
// # Topic Hierarchy
//
//	lumina/agent/{agent_id}/request/{request_id}   orchestrator -> agent
//	lumina/agent/{agent_id}/reply/{request_id}     agent -> orchestrator
//	lumina/agent/{agent_id}/status                 retained agent status
//	lumina/system/status                           retained orchestrator status
//
// # Thread Safety
//
// All client methods are safe for concurrent use. Message handlers are
// invoked in separate goroutines and are wrapped with panic recovery.
package mqtt
