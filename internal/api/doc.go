// Package api serves the read-only operational surface: health, the
// coordinator status snapshot, the SSE telemetry stream, and Prometheus
// metrics. It deliberately carries no radio control endpoints; radio
// state is driven exclusively by input events.
package api
