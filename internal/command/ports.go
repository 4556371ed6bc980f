package command

import (
	"context"
	"time"

	"github.com/radio-control/rfkilld/internal/telemetry"
)

// AuditLogger records the outcome of every backend invocation.
type AuditLogger interface {
	LogAction(ctx context.Context, action, radio, result string, latency time.Duration)
}

// EventPublisher receives coordinator telemetry events.
type EventPublisher interface {
	PublishRadio(radio string, event telemetry.Event)
	Publish(event telemetry.Event)
}
