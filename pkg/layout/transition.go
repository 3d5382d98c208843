package layout

import (
	"context"

	"github.com/google/uuid"
)

type transitionKey struct{}

// NewTransitionID mints an identifier for one editing transaction's
// measurement pass.
func NewTransitionID() string {
	return uuid.NewString()
}

// WithTransition tags the context with a transaction's transition ID. The
// pipeline stamps every measurement it schedules so contents that log or
// trace can attribute work to the edit that caused it.
func WithTransition(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, transitionKey{}, id)
}

// TransitionFrom returns the transition ID carried by ctx, or "" when the
// measurement happened outside a transaction.
func TransitionFrom(ctx context.Context) string {
	id, _ := ctx.Value(transitionKey{}).(string)
	return id
}
