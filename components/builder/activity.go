package builder

import "context"

// Actor identifies who issued an editor command. It travels on the context
// and is attached to telemetry and change notifications.
type Actor struct {
	ActorID  string
	TenantID string
}

type actorContextKey struct{}

// ContextWithActor stores actor metadata on the provided context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor, if present.
func ActorFromContext(ctx context.Context) Actor {
	if ctx == nil {
		return Actor{}
	}
	if actor, ok := ctx.Value(actorContextKey{}).(Actor); ok {
		return actor
	}
	return Actor{}
}
