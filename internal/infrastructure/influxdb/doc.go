// Package influxdb provides InfluxDB connectivity for Lumina Core.
//
// It wraps the official influxdb-client-go v2 library with Lumina-specific
// patterns for connection management, point writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Discovery run statistics (device counts, staleness, duration)
//   - Per-command delivery metrics (counts, failures, latency)
//   - Transport health refresh results
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "lumina",
//	    Bucket: "telemetry",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WritePoint("discovery",
//	    map[string]string{},
//	    map[string]interface{}{"devices": 12})
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via a
// callback set with SetOnError. Connection and health check errors are
// returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size,
// flush_interval). This reduces network overhead for high-frequency
// telemetry data.
package influxdb
