package dashboard

import "context"

// Actor identifies who triggered a document change.
type Actor struct {
	ID       string
	TenantID string
}

type actorContextKey struct{}

// ContextWithActor stores the acting user on the provided context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFrom extracts the actor from the context, if present.
func ActorFrom(ctx context.Context) Actor {
	if ctx == nil {
		return Actor{}
	}
	if actor, ok := ctx.Value(actorContextKey{}).(Actor); ok {
		return actor
	}
	return Actor{}
}
