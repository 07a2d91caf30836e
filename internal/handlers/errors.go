package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"bookshelf/internal/dto"
	"bookshelf/internal/resource"

	"github.com/gin-gonic/gin"
)

const detailNotFound = "Not found."

// renderError writes the response matching err's type. Unknown errors are
// logged and reported as 500 without internals.
func renderError(c *gin.Context, err error) {
	var (
		verr *resource.ValidationError
		nf   *resource.NotFoundError
		aerr *resource.AuthorizationError
		perr *resource.PersistenceError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr.Fields)
	case errors.As(err, &nf):
		detail := nf.Detail
		if detail == "" {
			detail = detailNotFound
		}
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Detail: detail})
	case errors.As(err, &aerr):
		status := http.StatusForbidden
		if !aerr.Authenticated {
			status = http.StatusUnauthorized
			c.Header("WWW-Authenticate", `Bearer realm="api"`)
		}
		c.JSON(status, dto.ErrorResponse{Detail: aerr.Error()})
	case errors.As(err, &perr):
		slog.ErrorContext(c.Request.Context(), "persistence failure",
			"resource", perr.Resource, "op", perr.Op, "error", perr.Err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Detail: "A server error occurred."})
	default:
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Detail: "A server error occurred."})
	}
}

func badRequest(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Detail: detail})
}
