package auth

import (
	"context"
	"log/slog"
	"net/http"

	"bookshelf/internal/resource"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type actorKey struct{}

const contextKeyActor = "actor"

// WithActor returns ctx carrying actor.
func WithActor(ctx context.Context, actor *resource.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor set by Authenticate, nil for anonymous
// callers.
func ActorFromContext(ctx context.Context) *resource.Actor {
	actor, _ := ctx.Value(actorKey{}).(*resource.Actor)
	return actor
}

// ActorFrom is ActorFromContext for a gin context.
func ActorFrom(c *gin.Context) *resource.Actor {
	if v, ok := c.Get(contextKeyActor); ok {
		if actor, ok := v.(*resource.Actor); ok {
			return actor
		}
	}
	return ActorFromContext(c.Request.Context())
}

// Authenticate tries each authenticator in order and stores the first
// resolved actor. Requests without credentials continue anonymously;
// rejected credentials get 401.
func Authenticate(authenticators ...Authenticator) gin.HandlerFunc {
	challenge := ""
	if len(authenticators) > 0 {
		challenge = authenticators[0].Challenge()
	}
	return func(c *gin.Context) {
		for _, a := range authenticators {
			actor, err := a.Authenticate(c)
			var failed *FailedError
			if errors.As(err, &failed) {
				if challenge != "" {
					c.Header("WWW-Authenticate", challenge)
				}
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": failed.Detail})
				return
			}
			if err != nil {
				slog.ErrorContext(c.Request.Context(), "authentication failed", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "A server error occurred."})
				return
			}
			if actor != nil {
				c.Set(contextKeyActor, actor)
				c.Request = c.Request.WithContext(WithActor(c.Request.Context(), actor))
				break
			}
		}
		c.Next()
	}
}

// RequireActor rejects anonymous callers with 401.
func RequireActor(challenge string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ActorFrom(c) == nil {
			if challenge != "" {
				c.Header("WWW-Authenticate", challenge)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": (&resource.AuthorizationError{}).Error()})
			return
		}
		c.Next()
	}
}
