package history

import (
	"context"
	"fmt"

	"workhub/internal/auth"
)

// Actor is the caller performing the action being recorded.
type Actor struct {
	UserID      int64
	ClientIP    string
	ClientAgent string
}

// ActorProvider resolves the current caller.
// It must fail with ErrAuthenticationRequired when there is no session.
type ActorProvider interface {
	CurrentActor(ctx context.Context) (Actor, error)
}

// ContextActors reads the actor from the identity and request metadata
// that the auth middlewares put on the request context.
type ContextActors struct{}

func (ContextActors) CurrentActor(ctx context.Context) (Actor, error) {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %w", ErrAuthenticationRequired, err)
	}
	return Actor{
		UserID:      uid,
		ClientIP:    auth.ClientIP(ctx),
		ClientAgent: auth.UserAgent(ctx),
	}, nil
}
