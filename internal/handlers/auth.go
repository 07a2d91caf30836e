package handlers

import (
	"errors"
	"net/http"

	"bookshelf/internal/auth"
	dom "bookshelf/internal/domain"
	"bookshelf/internal/dto"
	"bookshelf/internal/resource"
	"bookshelf/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles login, logout and the current-user view.
type AuthHandler struct {
	tokens   *auth.Tokens
	sessions *auth.Store
	userSvc  *service.UserService
}

// NewAuthHandler returns a new AuthHandler. sessions may be nil, in which
// case login only issues a bearer token.
func NewAuthHandler(tokens *auth.Tokens, sessions *auth.Store, userSvc *service.UserService) *AuthHandler {
	return &AuthHandler{tokens: tokens, sessions: sessions, userSvc: userSvc}
}

// Login godoc
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Credentials"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	user, err := h.userSvc.ValidateCredentials(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, dom.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Detail: "Unable to log in with provided credentials."})
			return
		}
		renderError(c, err)
		return
	}
	token, exp, err := h.tokens.Issue(user.ID)
	if err != nil {
		renderError(c, err)
		return
	}
	if h.sessions != nil {
		sessionID, err := h.sessions.Create(c.Request.Context(), user.ID)
		if err != nil {
			renderError(c, err)
			return
		}
		c.SetCookie(auth.SessionCookieName, sessionID, int(h.sessions.TTL().Seconds()), "/", "", c.Request.TLS != nil, true)
	}
	c.JSON(http.StatusOK, dto.LoginResponse{Token: token, ExpiresAt: exp, User: userResponse(user)})
}

// Logout godoc
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, err := c.Cookie(auth.SessionCookieName)
	if err == nil && sessionID != "" && h.sessions != nil {
		_ = h.sessions.Delete(c.Request.Context(), sessionID)
	}
	c.SetCookie(auth.SessionCookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  dto.MeResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	actor := auth.ActorFrom(c)
	if actor == nil {
		renderError(c, resource.Deny(nil))
		return
	}
	user, err := h.userSvc.Get(c.Request.Context(), actor.ID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MeResponse{User: userResponse(user), Auth: actor.Scheme})
}

func userResponse(u dom.User) dto.UserResponse {
	return dto.UserResponse{ID: u.ID, Username: u.Username, IsStaff: u.IsStaff}
}
