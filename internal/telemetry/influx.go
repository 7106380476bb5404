package telemetry

import (
	"time"

	"github.com/lumina-home/lumina-core/internal/infrastructure/influxdb"
	"github.com/lumina-home/lumina-core/internal/transport"
)

// InfluxSink writes telemetry to InfluxDB via the shared client.
//
// Points are batched by the underlying client, so the Sink methods stay
// non-blocking on the control path.
type InfluxSink struct {
	client *influxdb.Client
}

// NewInfluxSink creates a sink over an already connected InfluxDB client.
func NewInfluxSink(client *influxdb.Client) *InfluxSink {
	return &InfluxSink{client: client}
}

// RecordDiscovery implements Sink.
func (s *InfluxSink) RecordDiscovery(rec DiscoveryRecord) {
	s.client.WritePoint("discovery",
		map[string]string{},
		map[string]interface{}{
			"total":       rec.Total,
			"devices":     rec.LastCount,
			"stale":       rec.Stale,
			"duration_ms": float64(rec.LastDuration.Microseconds()) / 1000.0,
		})
}

// RecordCommand implements Sink.
func (s *InfluxSink) RecordCommand(command string, stats CommandStats) {
	fields := map[string]interface{}{
		"total":             stats.Total,
		"failures":          stats.Failures,
		"total_duration_ms": float64(stats.TotalDuration.Microseconds()) / 1000.0,
	}
	if stats.LastError != nil {
		fields["last_error"] = stats.LastError.Name
	}

	s.client.WritePoint("commands",
		map[string]string{"command": command},
		fields)
}

// RecordTransportHealth implements Sink.
func (s *InfluxSink) RecordTransportHealth(snapshot []transport.Health, duration time.Duration, err error) {
	now := time.Now()

	// One point per transport so each can be graphed independently.
	for _, h := range snapshot {
		fields := map[string]interface{}{
			"healthy":    h.Healthy,
			"latency_ms": h.LatencyMs,
		}
		if h.Err != nil {
			fields["error"] = h.Err.Name
		}

		s.client.WritePointWithTime("transport_health",
			map[string]string{
				"transport": string(h.Descriptor.Kind),
				"label":     h.Descriptor.Label,
			},
			fields,
			now)
	}

	refreshFields := map[string]interface{}{
		"duration_ms": float64(duration.Microseconds()) / 1000.0,
		"transports":  len(snapshot),
	}
	if info := transport.DescribeError(err); info != nil {
		refreshFields["error"] = info.Name
	}

	s.client.WritePointWithTime("health_refresh",
		map[string]string{},
		refreshFields,
		now)
}
