package auth

import (
	"context"

	"bookshelf/internal/resource"
)

// AllowAny permits every action.
type AllowAny struct{}

func (AllowAny) Allow(context.Context, *resource.Actor, resource.Action) error { return nil }

func (AllowAny) AllowObject(context.Context, *resource.Actor, resource.Action, resource.Attrs) error {
	return nil
}

// IsAuthenticated requires an authenticated caller for every action.
type IsAuthenticated struct{}

func (IsAuthenticated) Allow(_ context.Context, actor *resource.Actor, _ resource.Action) error {
	if actor == nil {
		return resource.Deny(actor)
	}
	return nil
}

func (IsAuthenticated) AllowObject(context.Context, *resource.Actor, resource.Action, resource.Attrs) error {
	return nil
}

// IsAuthenticatedOrReadOnly lets anyone read and authenticated callers write.
type IsAuthenticatedOrReadOnly struct{}

func (IsAuthenticatedOrReadOnly) Allow(_ context.Context, actor *resource.Actor, action resource.Action) error {
	if action.Safe() || actor != nil {
		return nil
	}
	return resource.Deny(actor)
}

func (IsAuthenticatedOrReadOnly) AllowObject(context.Context, *resource.Actor, resource.Action, resource.Attrs) error {
	return nil
}

// IsAdminUser restricts every action to staff.
type IsAdminUser struct{}

func (IsAdminUser) Allow(_ context.Context, actor *resource.Actor, _ resource.Action) error {
	if actor == nil || !actor.IsStaff {
		return resource.Deny(actor)
	}
	return nil
}

func (IsAdminUser) AllowObject(context.Context, *resource.Actor, resource.Action, resource.Attrs) error {
	return nil
}

// UserAccountPolicy guards user accounts: anyone may register, listing is
// staff only, and an account can be read or changed by its owner or staff.
type UserAccountPolicy struct{}

func (UserAccountPolicy) Allow(_ context.Context, actor *resource.Actor, action resource.Action) error {
	switch action {
	case resource.ActionCreate:
		return nil
	case resource.ActionList:
		if actor != nil && actor.IsStaff {
			return nil
		}
		return resource.Deny(actor)
	}
	if actor == nil {
		return resource.Deny(actor)
	}
	return nil
}

func (UserAccountPolicy) AllowObject(_ context.Context, actor *resource.Actor, _ resource.Action, obj resource.Attrs) error {
	if actor != nil && (actor.IsStaff || actor.ID == obj.ID()) {
		return nil
	}
	return resource.Deny(actor)
}

// IsOwnerOrReadOnly lets anyone read. Writes need a caller, and changing an
// existing object needs the caller to be the id stored in Field.
type IsOwnerOrReadOnly struct {
	Field string
}

func (IsOwnerOrReadOnly) Allow(_ context.Context, actor *resource.Actor, action resource.Action) error {
	if action.Safe() || actor != nil {
		return nil
	}
	return resource.Deny(actor)
}

func (p IsOwnerOrReadOnly) AllowObject(_ context.Context, actor *resource.Actor, action resource.Action, obj resource.Attrs) error {
	if action.Safe() {
		return nil
	}
	if owner, _ := obj[p.Field].(int64); actor != nil && owner == actor.ID {
		return nil
	}
	return resource.Deny(actor)
}
