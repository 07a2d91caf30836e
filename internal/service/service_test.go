package service_test

import (
	"context"
	"errors"
	"testing"

	"bookshelf/internal/auth"
	"bookshelf/internal/catalog"
	dom "bookshelf/internal/domain"
	"bookshelf/internal/resource"
	"bookshelf/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUsers(t *testing.T) *service.UserService {
	t.Helper()
	catalog.PasswordCost = bcrypt.MinCost
	stores := catalog.MemoryStores()
	return service.NewUserService(resource.New(catalog.UserSchema(nil), stores.Users, resource.WithPolicy(auth.UserAccountPolicy{})))
}

func TestEnsureAdminAndCredentials(t *testing.T) {
	users := newUsers(t)
	ctx := context.Background()

	admin, err := users.EnsureAdmin(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)
	assert.True(t, admin.IsStaff)

	again, err := users.EnsureAdmin(ctx, "admin", "other-pass")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)

	u, err := users.ValidateCredentials(ctx, " admin ", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, u.ID)

	_, err = users.ValidateCredentials(ctx, "admin", "other-pass")
	assert.ErrorIs(t, err, dom.ErrInvalidCredentials)
	_, err = users.ValidateCredentials(ctx, "nobody", "s3cret-pass")
	assert.ErrorIs(t, err, dom.ErrInvalidCredentials)

	got, err := users.Get(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)
	_, err = users.Get(ctx, 999)
	assert.ErrorIs(t, err, resource.ErrNotFound)
}

func TestSetPassword(t *testing.T) {
	users := newUsers(t)
	ctx := context.Background()
	admin, err := users.EnsureAdmin(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)
	actor := admin.Actor(auth.SchemeToken)

	err = users.SetPassword(ctx, resource.Request{ID: admin.ID, Actor: actor, Payload: map[string]any{"password": "123456"}})
	var verr *resource.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"Password cannot be entirely numeric."}, verr.Fields["password"])

	err = users.SetPassword(ctx, resource.Request{ID: admin.ID, Payload: map[string]any{"password": "n3w-pass"}})
	var aerr *resource.AuthorizationError
	require.True(t, errors.As(err, &aerr))

	require.NoError(t, users.SetPassword(ctx, resource.Request{ID: admin.ID, Actor: actor, Payload: map[string]any{"password": "n3w-pass"}}))
	_, err = users.ValidateCredentials(ctx, "admin", "n3w-pass")
	assert.NoError(t, err)
}

func TestSetReadCount(t *testing.T) {
	stores := catalog.MemoryStores()
	books := resource.New(catalog.BookSchema(stores.Heroes), stores.Books)
	svc := service.NewBookService(books)
	ctx := context.Background()

	created, err := books.Create(ctx, resource.Request{Payload: map[string]any{"btitle": "连城诀", "bpub_date": "1963-01-01"}})
	require.NoError(t, err)
	id := created["id"].(int64)

	out, err := svc.SetReadCount(ctx, resource.Request{ID: id, Payload: map[string]any{"read": "12", "btitle": "ignored"}})
	require.NoError(t, err)
	assert.Equal(t, int64(12), out["bread"])
	assert.Equal(t, "连城诀", out["btitle"])

	_, err = svc.SetReadCount(ctx, resource.Request{ID: id, Payload: map[string]any{"read": -3}})
	var verr *resource.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "read")
	assert.NotContains(t, verr.Fields, "bread")

	_, err = svc.SetReadCount(ctx, resource.Request{ID: id, Payload: map[string]any{}})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"This field is required."}, verr.Fields["read"])

	latest, err := svc.Latest(ctx, resource.Request{})
	require.NoError(t, err)
	assert.Equal(t, id, latest["id"])

	require.NoError(t, svc.Archive(ctx, resource.Request{ID: id}))
	_, err = svc.Latest(ctx, resource.Request{})
	assert.ErrorIs(t, err, resource.ErrNotFound)
}
