// README: Actor identity: closed role set and request-context plumbing.
package identity

import (
	"context"
	"errors"

	"uride/internal/types"
)

type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

// Actor is the authenticated caller of a core operation. Roles are a closed
// set; driver-only attributes live in the driver directory, not here.
type Actor struct {
	ID   types.ID
	Role Role
}

var ErrNotAuthenticated = errors.New("not authenticated")

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the actor attached to the request context, or
// ErrNotAuthenticated when the call carries no identity.
func FromContext(ctx context.Context) (Actor, error) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	if !ok || a.ID == "" {
		return Actor{}, ErrNotAuthenticated
	}
	return a, nil
}
