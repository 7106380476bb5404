// Package telemetry collects operational metrics from the device and
// health services.
//
// The Sink interface decouples metric producers from storage. Two
// implementations are provided:
//   - MemorySink retains the latest values for the diagnostics API and
//     for tests.
//   - InfluxSink forwards points to InfluxDB for long-term graphing.
//
// Sinks must not block: the device service records telemetry on the
// command path, so a slow sink would slow every command.
package telemetry
