package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Router registers view sets under an API group and serves the API root.
type Router struct {
	group     *gin.RouterGroup
	resources []string
}

func NewRouter(group *gin.RouterGroup) *Router {
	return &Router{group: group}
}

// Register mounts the list and detail routes of v. extra attaches custom
// actions to the list and detail groups.
func (r *Router) Register(v *ViewSet, extra ...func(list, detail *gin.RouterGroup)) {
	list := r.group.Group("/" + v.Name())
	list.GET("", v.List)
	list.POST("", v.Create)

	detail := list.Group("/:id")
	detail.GET("", v.Retrieve)
	detail.PUT("", v.Update)
	detail.PATCH("", v.PartialUpdate)
	detail.DELETE("", v.Destroy)

	for _, fn := range extra {
		fn(list, detail)
	}
	r.resources = append(r.resources, v.Name())
}

// Root godoc
// @Summary      API root
// @Description  Links to every registered resource.
// @Tags         root
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       / [get]
func (r *Router) Root(c *gin.Context) {
	base := baseURL(c, r.group.BasePath())
	out := make(map[string]string, len(r.resources))
	for _, name := range r.resources {
		out[name] = base + "/" + name
	}
	c.JSON(http.StatusOK, out)
}
