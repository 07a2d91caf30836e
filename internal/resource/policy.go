package resource

import "context"

// Policy decides whether an actor may perform an action. Allow runs before
// any storage access; AllowObject runs once the target snapshot is loaded.
// Both return an *AuthorizationError to deny.
type Policy interface {
	Allow(ctx context.Context, actor *Actor, action Action) error
	AllowObject(ctx context.Context, actor *Actor, action Action, obj Attrs) error
}

// Deny builds the AuthorizationError matching actor.
func Deny(actor *Actor) error {
	return &AuthorizationError{Authenticated: actor != nil}
}

type allowAll struct{}

func (allowAll) Allow(context.Context, *Actor, Action) error { return nil }
func (allowAll) AllowObject(context.Context, *Actor, Action, Attrs) error { return nil }
