package commands

import (
	"context"

	"github.com/goliatone/go-emailbuilder/components/builder"
)

// Actor fields carried by every mutating input.
type Actor struct {
	ActorID  string `json:"actor_id,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
}

func (a Actor) apply(ctx context.Context) context.Context {
	if a.ActorID == "" && a.TenantID == "" {
		return ctx
	}
	return builder.ContextWithActor(ctx, builder.Actor{ActorID: a.ActorID, TenantID: a.TenantID})
}
