package commands

import "github.com/goliatone/go-emailbuilder/components/builder"

// Telemetry is the builder telemetry sink; commands record one event per
// accepted command on top of the session's own mutation events.
type Telemetry = builder.Telemetry

// Command telemetry event names.
const (
	EventInsert       = "builder.command.insert"
	EventMove         = "builder.command.move"
	EventUpdate       = "builder.command.update"
	EventRemove       = "builder.command.remove"
	EventLayout       = "builder.command.layout"
	EventSave         = "builder.command.save"
	EventCreateLayout = "builder.command.create_layout"
)

// normalizeTelemetry swaps a nil sink for an empty fan-out, which records
// nothing.
func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return builder.MultiTelemetry{}
	}
	return t
}
