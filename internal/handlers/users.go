package handlers

import (
	"net/http"

	"bookshelf/internal/dto"
	"bookshelf/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc   *service.UserService
	users *ViewSet
}

func NewUserHandler(svc *service.UserService, users *ViewSet) *UserHandler {
	return &UserHandler{svc: svc, users: users}
}

func (h *UserHandler) Routes(_, detail *gin.RouterGroup) {
	detail.PUT("/password", h.SetPassword)
}

// SetPassword godoc
// @Summary      Change a user's password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path  int     true  "User ID"
// @Param        body  body  object  true  "{\"password\": \"...\"}"
// @Success      200  {object}  dto.StatusResponse
// @Failure      400  {object}  map[string][]string
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id}/password [put]
func (h *UserHandler) SetPassword(c *gin.Context) {
	req, ok := h.users.object(c, true)
	if !ok {
		return
	}
	if err := h.svc.SetPassword(c.Request.Context(), req); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: "password set"})
}
