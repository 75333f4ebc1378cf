package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-emailbuilder/components/builder"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// DefaultChannel tags records written by the builder.
const DefaultChannel = "email_builder"

// ActivitySink persists go-users activity records.
type ActivitySink interface {
	Log(ctx context.Context, record types.ActivityRecord) error
}

// Hook records layout changes in a go-users activity log. It satisfies
// builder.ChangeHook.
type Hook struct {
	Sink    ActivitySink
	Channel string
	Now     func() time.Time
}

var _ builder.ChangeHook = Hook{}

// LayoutChanged maps the change into an activity record. Events without a
// reason are skipped.
func (h Hook) LayoutChanged(ctx context.Context, event builder.ChangeEvent) error {
	if h.Sink == nil || strings.TrimSpace(event.Reason) == "" {
		return nil
	}
	actor := builder.ActorFromContext(ctx)
	record := types.ActivityRecord{
		ActorID:    parseUUID(actor.ActorID),
		UserID:     parseUUID(actor.ActorID),
		TenantID:   parseUUID(actor.TenantID),
		Verb:       event.Reason,
		ObjectType: "layout",
		ObjectID:   event.LayoutID,
		Channel:    h.channel(),
		OccurredAt: h.now(),
		Data: map[string]any{
			"layout_id": event.LayoutID,
		},
	}
	if event.BlockID != "" {
		record.ObjectType = "block"
		record.ObjectID = event.BlockID
	}
	if event.Block != nil {
		record.Data["block_type"] = event.Block.BlockType
		record.Data["row_position"] = event.Block.Row
		record.Data["column_position"] = event.Block.Column
	}
	return h.Sink.Log(ctx, record)
}

func (h Hook) channel() string {
	if h.Channel != "" {
		return h.Channel
	}
	return DefaultChannel
}

func (h Hook) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func parseUUID(value string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return id
}
