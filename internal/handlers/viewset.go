package handlers

import (
	"net/http"

	"bookshelf/internal/resource"

	"github.com/gin-gonic/gin"
)

// ViewSet exposes one resource pipeline over HTTP.
type ViewSet struct {
	pipeline *resource.Pipeline
	prefix   string
}

// NewViewSet returns a ViewSet for p. prefix is the API root path, e.g.
// "/api/v1".
func NewViewSet(p *resource.Pipeline, prefix string) *ViewSet {
	return &ViewSet{pipeline: p, prefix: prefix}
}

// Name is the resource name and URL segment.
func (v *ViewSet) Name() string { return v.pipeline.Schema().Name }

func (v *ViewSet) request(c *gin.Context) resource.Request {
	return newRequest(c, v.prefix, v.Name())
}

// object builds a request for the :id route, writing 404 on a bad id.
func (v *ViewSet) object(c *gin.Context, withBody bool) (resource.Request, bool) {
	req := v.request(c)
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
		return req, false
	}
	req.ID = id
	if withBody {
		payload, err := readPayload(c)
		if err != nil {
			badRequest(c, err.Error())
			return req, false
		}
		req.Payload = payload
	}
	return req, true
}

// List godoc
// @Summary      List resources
// @Description  Paginated list. Filter by declared fields, sort with ordering=field,-field.
// @Tags         resources
// @Produce      json
// @Param        resource   path   string  true   "Resource name"  Enums(books, heroes, users, posts, tags)
// @Param        page       query  int     false  "Page number"
// @Param        page_size  query  int     false  "Page size"
// @Param        ordering   query  string  false  "Ordering"
// @Success      200  {object}  resource.Page
// @Failure      400  {object}  map[string][]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /{resource} [get]
func (v *ViewSet) List(c *gin.Context) {
	page, err := v.pipeline.List(c.Request.Context(), v.request(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Create godoc
// @Summary      Create a resource
// @Tags         resources
// @Accept       json
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        resource  path  string  true  "Resource name"  Enums(books, heroes, users, posts, tags)
// @Param        body      body  object  true  "Resource fields"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string][]string
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /{resource} [post]
func (v *ViewSet) Create(c *gin.Context) {
	req := v.request(c)
	payload, err := readPayload(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	req.Payload = payload
	out, err := v.pipeline.Create(c.Request.Context(), req)
	if err != nil {
		renderError(c, err)
		return
	}
	if link, ok := out["url"].(string); ok {
		c.Header("Location", link)
	}
	c.JSON(http.StatusCreated, out)
}

// Retrieve godoc
// @Summary      Get a resource by ID
// @Tags         resources
// @Produce      json
// @Param        resource  path  string  true  "Resource name"  Enums(books, heroes, users, posts, tags)
// @Param        id        path  int     true  "ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /{resource}/{id} [get]
func (v *ViewSet) Retrieve(c *gin.Context) {
	req, ok := v.object(c, false)
	if !ok {
		return
	}
	out, err := v.pipeline.Retrieve(c.Request.Context(), req)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Update godoc
// @Summary      Replace a resource
// @Description  Every required field must be supplied.
// @Tags         resources
// @Accept       json
// @Produce      json
// @Param        resource  path  string  true  "Resource name"  Enums(books, heroes, users, posts, tags)
// @Param        id        path  int     true  "ID"
// @Param        body      body  object  true  "Resource fields"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string][]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /{resource}/{id} [put]
func (v *ViewSet) Update(c *gin.Context) {
	v.update(c, false)
}

// PartialUpdate godoc
// @Summary      Update some fields of a resource
// @Tags         resources
// @Accept       json
// @Produce      json
// @Param        resource  path  string  true  "Resource name"  Enums(books, heroes, users, posts, tags)
// @Param        id        path  int     true  "ID"
// @Param        body      body  object  true  "Fields to change"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string][]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /{resource}/{id} [patch]
func (v *ViewSet) PartialUpdate(c *gin.Context) {
	v.update(c, true)
}

func (v *ViewSet) update(c *gin.Context, partial bool) {
	req, ok := v.object(c, true)
	if !ok {
		return
	}
	out, err := v.pipeline.Update(c.Request.Context(), req, partial)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Destroy godoc
// @Summary      Delete a resource
// @Tags         resources
// @Param        resource  path  string  true  "Resource name"  Enums(books, heroes, users, posts, tags)
// @Param        id        path  int     true  "ID"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /{resource}/{id} [delete]
func (v *ViewSet) Destroy(c *gin.Context) {
	req, ok := v.object(c, false)
	if !ok {
		return
	}
	if err := v.pipeline.Destroy(c.Request.Context(), req); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
