package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"bookshelf/internal/auth"
	"bookshelf/internal/resource"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/pkg/errors"
)

const maxFormMemory = 8 << 20

var errNoID = errors.New("missing or invalid id")

// parseID reads the :id path parameter.
func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errNoID
	}
	return id, nil
}

// baseURL is the absolute URL of the API root, e.g.
// "http://localhost:8080/api/v1".
func baseURL(c *gin.Context, prefix string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	host := c.Request.Host
	if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + host + strings.TrimRight(prefix, "/")
}

// newRequest builds the pipeline request for c. path is the resource path
// relative to the API root, used for page links.
func newRequest(c *gin.Context, prefix, path string) resource.Request {
	return resource.Request{
		Query:   c.Request.URL.Query(),
		BaseURL: baseURL(c, prefix),
		Path:    path,
		Actor:   auth.ActorFrom(c),
	}
}

// readPayload decodes a JSON or form body into a field map. Numbers in JSON
// bodies are kept as json.Number.
func readPayload(c *gin.Context) (map[string]any, error) {
	payload := map[string]any{}
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return payload, nil
	}
	switch c.ContentType() {
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, errors.Wrap(err, "Form parse error")
		}
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				payload[k] = v[0]
			}
		}
		return payload, nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return payload, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "JSON parse error")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}
