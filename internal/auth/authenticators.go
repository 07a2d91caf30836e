package auth

import (
	"context"
	"strings"

	"bookshelf/internal/domain"
	"bookshelf/internal/resource"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const (
	SchemeToken   = "token"
	SchemeSession = "session"
	SchemeBasic   = "basic"

	SessionCookieName = "session_id"
)

// Users resolves accounts for the authenticators.
type Users interface {
	Get(ctx context.Context, id int64) (domain.User, error)
	ValidateCredentials(ctx context.Context, username, password string) (domain.User, error)
}

// FailedError means credentials were supplied but rejected.
type FailedError struct {
	Detail string
}

func (e *FailedError) Error() string { return e.Detail }

// Authenticator resolves the caller from one credential scheme. It returns
// (nil, nil) when the request carries no credentials for that scheme.
type Authenticator interface {
	Authenticate(c *gin.Context) (*resource.Actor, error)
	// Challenge is the WWW-Authenticate value, empty when the scheme has none.
	Challenge() string
}

type TokenAuthenticator struct {
	Tokens *Tokens
	Users  Users
}

func (a TokenAuthenticator) Challenge() string { return `Bearer realm="api"` }

func (a TokenAuthenticator) Authenticate(c *gin.Context) (*resource.Actor, error) {
	header := c.GetHeader("Authorization")
	scheme, raw, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return nil, nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, " ") {
		return nil, &FailedError{Detail: "Invalid token header."}
	}
	userID, err := a.Tokens.Parse(raw)
	if err != nil {
		return nil, &FailedError{Detail: "Invalid token."}
	}
	return lookup(c.Request.Context(), a.Users, userID, SchemeToken)
}

// SessionAuthenticator reads the session cookie. Unknown or expired
// sessions are treated as anonymous.
type SessionAuthenticator struct {
	Sessions *Store
	Users    Users
}

func (a SessionAuthenticator) Challenge() string { return "" }

func (a SessionAuthenticator) Authenticate(c *gin.Context) (*resource.Actor, error) {
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil || sessionID == "" {
		return nil, nil
	}
	userID, ok, err := a.Sessions.GetUserID(c.Request.Context(), sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return lookup(c.Request.Context(), a.Users, userID, SchemeSession)
}

type BasicAuthenticator struct {
	Users Users
}

func (a BasicAuthenticator) Challenge() string { return `Basic realm="api"` }

func (a BasicAuthenticator) Authenticate(c *gin.Context) (*resource.Actor, error) {
	if !strings.HasPrefix(strings.ToLower(c.GetHeader("Authorization")), "basic ") {
		return nil, nil
	}
	username, password, ok := c.Request.BasicAuth()
	if !ok {
		return nil, &FailedError{Detail: "Invalid basic header. Credentials not correctly base64 encoded."}
	}
	user, err := a.Users.ValidateCredentials(c.Request.Context(), username, password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return nil, &FailedError{Detail: "Invalid username/password."}
	}
	if err != nil {
		return nil, err
	}
	return user.Actor(SchemeBasic), nil
}

func lookup(ctx context.Context, users Users, id int64, scheme string) (*resource.Actor, error) {
	user, err := users.Get(ctx, id)
	if errors.Is(err, resource.ErrNotFound) {
		return nil, &FailedError{Detail: "User not found."}
	}
	if err != nil {
		return nil, err
	}
	return user.Actor(scheme), nil
}
