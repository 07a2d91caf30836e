package handlers

import (
	"net/http"

	"bookshelf/internal/service"

	"github.com/gin-gonic/gin"
)

// BookHandler serves the book actions beside CRUD.
type BookHandler struct {
	svc   *service.BookService
	books *ViewSet
}

func NewBookHandler(svc *service.BookService, books *ViewSet) *BookHandler {
	return &BookHandler{svc: svc, books: books}
}

// Routes attaches the actions; pass it to Router.Register.
func (h *BookHandler) Routes(list, detail *gin.RouterGroup) {
	list.GET("/latest", h.Latest)
	detail.PUT("/read", h.Read)
	detail.POST("/archive", h.Archive)
}

// Latest godoc
// @Summary      Most recently created book
// @Tags         books
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /books/latest [get]
func (h *BookHandler) Latest(c *gin.Context) {
	out, err := h.svc.Latest(c.Request.Context(), h.books.request(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Read godoc
// @Summary      Set the read count of a book
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id    path  int     true  "Book ID"
// @Param        body  body  object  true  "{\"read\": 12}"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string][]string
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /books/{id}/read [put]
func (h *BookHandler) Read(c *gin.Context) {
	req, ok := h.books.object(c, true)
	if !ok {
		return
	}
	out, err := h.svc.SetReadCount(c.Request.Context(), req)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Archive godoc
// @Summary      Archive (soft delete) a book
// @Tags         books
// @Param        id  path  int  true  "Book ID"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /books/{id}/archive [post]
func (h *BookHandler) Archive(c *gin.Context) {
	req, ok := h.books.object(c, false)
	if !ok {
		return
	}
	if err := h.svc.Archive(c.Request.Context(), req); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
