package builder

import (
	"context"

	"go.uber.org/zap"
)

// Telemetry records builder events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// Telemetry event names.
const (
	EventBlockInsert   = "builder.block.insert"
	EventBlockMove     = "builder.block.move"
	EventBlockUpdate   = "builder.block.update"
	EventBlockDelete   = "builder.block.delete"
	EventLayoutCreate  = "builder.layout.create"
	EventLayoutOpen    = "builder.layout.open"
	EventLayoutUpdate  = "builder.layout.update"
	EventExport        = "builder.export"
	EventSaveSucceeded = "builder.save.ok"
	EventSaveFailed    = "builder.save.failed"
)

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// ZapTelemetry writes telemetry events as debug log entries.
type ZapTelemetry struct {
	Logger *zap.Logger
}

// Record satisfies Telemetry.
func (t ZapTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	if t.Logger == nil {
		return
	}
	fields := []zap.Field{zap.String("event", event), zap.Any("payload", payload)}
	if actor := ActorFromContext(ctx); actor.ActorID != "" {
		fields = append(fields, zap.String("actor_id", actor.ActorID))
	}
	t.Logger.Debug("builder telemetry", fields...)
}

// MultiTelemetry fans events out to several sinks.
type MultiTelemetry []Telemetry

// Record satisfies Telemetry.
func (m MultiTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	for _, t := range m {
		if t != nil {
			t.Record(ctx, event, payload)
		}
	}
}
