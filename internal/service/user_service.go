package service

import (
	"context"
	"strings"

	dom "bookshelf/internal/domain"
	"bookshelf/internal/resource"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the username is unknown.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-password"), bcrypt.MinCost)

// UserService handles account lookups, credential checks and password
// changes on top of the users pipeline.
type UserService struct {
	users *resource.Pipeline
}

// NewUserService returns a new UserService.
func NewUserService(users *resource.Pipeline) *UserService {
	return &UserService{users: users}
}

// Get loads a user by ID. Unknown IDs are reported with resource.ErrNotFound.
func (s *UserService) Get(ctx context.Context, id int64) (dom.User, error) {
	attrs, err := s.users.Store().Get(ctx, id)
	if err != nil {
		return dom.User{}, errors.Wrapf(err, "get user %d", id)
	}
	return dom.UserFromAttrs(attrs), nil
}

// ValidateCredentials checks username and password; returns user if valid.
func (s *UserService) ValidateCredentials(ctx context.Context, username, password string) (dom.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return dom.User{}, dom.ErrInvalidCredentials
	}
	u, found, err := s.byUsername(ctx, username)
	if err != nil {
		return dom.User{}, err
	}
	hash := dummyHash
	if found {
		hash = []byte(u.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || !found {
		return dom.User{}, dom.ErrInvalidCredentials
	}
	return u, nil
}

// SetPassword changes the password of the account in req.ID, subject to
// the users policy and password rules.
func (s *UserService) SetPassword(ctx context.Context, req resource.Request) error {
	password, ok := req.Payload["password"]
	if !ok {
		return resource.FieldError("password", "This field is required.")
	}
	req.Payload = map[string]any{"password": password}
	_, err := s.users.Update(ctx, req, true)
	return err
}

// EnsureAdmin creates a staff account unless username is already taken.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (dom.User, error) {
	if u, found, err := s.byUsername(ctx, username); err != nil || found {
		return u, err
	}
	out, err := s.users.Create(ctx, resource.Request{
		Payload: map[string]any{"username": username, "password": password},
	})
	if err != nil {
		return dom.User{}, errors.Wrap(err, "create admin")
	}
	id, _ := out["id"].(int64)
	attrs, err := s.users.Store().Update(ctx, id, resource.Attrs{"is_staff": true})
	if err != nil {
		return dom.User{}, errors.Wrap(err, "promote admin")
	}
	return dom.UserFromAttrs(attrs), nil
}

func (s *UserService) byUsername(ctx context.Context, username string) (dom.User, bool, error) {
	list, _, err := s.users.Store().List(ctx, resource.Query{
		Filters: map[string]any{"username": username},
		Limit:   1,
	})
	if err != nil {
		return dom.User{}, false, errors.Wrap(err, "find user")
	}
	if len(list) == 0 {
		return dom.User{}, false, nil
	}
	return dom.UserFromAttrs(list[0]), true, nil
}
