package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	catalog.PasswordCost = bcrypt.MinCost

	cfg := config.Config{
		App:        config.AppConfig{Env: "dev", Version: "test"},
		Storage:    config.StorageConfig{Driver: config.StorageMemory},
		Auth:       config.AuthConfig{JWTSecret: "test-secret"},
		Pagination: config.PaginationConfig{PageSize: 2, MaxPageSize: 5},
	}
	a := &App{cfg: cfg}
	deps, err := a.wire(catalog.MemoryStores())
	require.NoError(t, err)
	_, err = service.NewUserService(deps.Users).EnsureAdmin(context.Background(), "admin", "s3cret-pass")
	require.NoError(t, err)
	return &testServer{t: t, engine: newRouter(cfg, deps)}
}

type call struct {
	method, path string
	body         any
	token        string
	basic        [2]string
	form         url.Values
}

func (s *testServer) do(c call) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	var req *http.Request
	switch {
	case c.form != nil:
		req = httptest.NewRequest(c.method, c.path, strings.NewReader(c.form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	case c.body != nil:
		raw, ok := c.body.(string)
		if !ok {
			b, err := json.Marshal(c.body)
			require.NoError(s.t, err)
			raw = string(b)
		}
		req = httptest.NewRequest(c.method, c.path, bytes.NewBufferString(raw))
		req.Header.Set("Content-Type", "application/json")
	default:
		req = httptest.NewRequest(c.method, c.path, nil)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.basic[0] != "" {
		req.SetBasicAuth(c.basic[0], c.basic[1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	w, out := s.do(call{method: http.MethodPost, path: "/api/v1/auth/login", body: map[string]string{"username": username, "password": password}})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	token, _ := out["token"].(string)
	require.NotEmpty(s.t, token)
	return token
}

func TestOpsRoutes(t *testing.T) {
	s := newTestServer(t)

	w, out := s.do(call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["ok"])

	w, out = s.do(call{method: http.MethodGet, path: "/version"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", out["version"])

	w, out = s.do(call{method: http.MethodGet, path: "/api/v1/"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{
		"books":  "http://example.com/api/v1/books",
		"heroes": "http://example.com/api/v1/heroes",
		"users":  "http://example.com/api/v1/users",
		"posts":  "http://example.com/api/v1/posts",
		"tags":   "http://example.com/api/v1/tags",
	}, out)
}

func TestBookLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.login("admin", "s3cret-pass")
	book := map[string]any{"btitle": "连城诀", "bpub_date": "1963-01-01"}

	w, out := s.do(call{method: http.MethodPost, path: "/api/v1/books", body: book})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authentication credentials were not provided.", out["detail"])

	w, out = s.do(call{method: http.MethodPost, path: "/api/v1/books", body: book, token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, float64(1), out["id"])
	assert.Equal(t, "http://example.com/api/v1/books/1", out["url"])
	assert.Equal(t, "http://example.com/api/v1/books/1", w.Header().Get("Location"))

	w, out = s.do(call{method: http.MethodPost, path: "/api/v1/books", body: book, token: token})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{"book with this btitle already exists."}, out["btitle"])

	w, out = s.do(call{method: http.MethodGet, path: "/api/v1/books/1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "连城诀", out["btitle"])

	w, out = s.do(call{method: http.MethodPatch, path: "/api/v1/books/1", body: `{"bread": 10}`, token: token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(10), out["bread"])
	assert.Equal(t, "1963-01-01", out["bpub_date"])

	w, out = s.do(call{method: http.MethodPut, path: "/api/v1/books/1", body: `{"bcomment": 2}`, token: token})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, out, "btitle")

	w, out = s.do(call{method: http.MethodPut, path: "/api/v1/books/1/read", body: `{"read": 30}`, token: token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(30), out["bread"])

	w, out = s.do(call{method: http.MethodPut, path: "/api/v1/books/1/read", body: `{"read": "many"}`, token: token})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{"A valid integer is required."}, out["read"])

	w, out = s.do(call{method: http.MethodGet, path: "/api/v1/books/latest"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), out["id"])

	w, out = s.do(call{method: http.MethodGet, path: "/api/v1/books/abc"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found.", out["detail"])

	w, _ = s.do(call{method: http.MethodPost, path: "/api/v1/books/1/archive", token: token})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, out = s.do(call{method: http.MethodGet, path: "/api/v1/books/1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found.", out["detail"])
}

func TestListPaginationOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.login("admin", "s3cret-pass")
	for _, title := range catalog.NovelTitles[:3] {
		w, _ := s.do(call{method: http.MethodPost, path: "/api/v1/books", form: url.Values{"btitle": {title}, "bpub_date": {"1960-05-01"}}, token: token})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w, out := s.do(call{method: http.MethodGet, path: "/api/v1/books"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), out["count"])
	assert.Len(t, out["results"], 2)
	assert.Equal(t, "http://example.com/api/v1/books?page=2", out["next"])
	assert.Nil(t, out["previous"])

	w, out = s.do(call{method: http.MethodGet, path: "/api/v1/books?page_size=50"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["results"], 3)

	w, out = s.do(call{method: http.MethodGet, path: "/api/v1/books?page=7"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Invalid page.", out["detail"])

	w, out = s.do(call{method: http.MethodGet, path: "/api/v1/books?ordering=-btitle&btitle=" + url.QueryEscape(catalog.NovelTitles[1])})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), out["count"])
}

func TestHeroesReferenceBooks(t *testing.T) {
	s := newTestServer(t)
	token := s.login("admin", "s3cret-pass")

	w, _ := s.do(call{method: http.MethodPost, path: "/api/v1/books", body: map[string]any{"btitle": "连城诀", "bpub_date": "1963-01-01"}, token: token})
	require.Equal(t, http.StatusCreated, w.Code)

	w, out := s.do(call{method: http.MethodPost, path: "/api/v1/heroes", body: map[string]any{"hname": "狄云", "hbook": 9}, token: token})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{`Invalid pk "9" - related resource not found.`}, out["hbook"])

	w, out = s.do(call{method: http.MethodPost, path: "/api/v1/heroes", body: map[string]any{
		"hname": "狄云", "hbook": "http://example.com/api/v1/books/1/", "hcomment": "连城剑法",
	}, token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "http://example.com/api/v1/books/1", out["hbook"])

	w, out = s.do(call{method: http.MethodGet, path: strings.TrimPrefix(out["url"].(string), "http://example.com")})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "狄云", out["hname"])
	assert.Equal(t, "male", out["hgender_display"])

	_, out = s.do(call{method: http.MethodGet, path: "/api/v1/books/1"})
	assert.Equal(t, []any{"狄云"}, out["heroes"])

	w, _ = s.do(call{method: http.MethodDelete, path: "/api/v1/heroes/1", token: token})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, out = s.do(call{method: http.MethodDelete, path: "/api/v1/heroes/1", token: token})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found.", out["detail"])
}

func TestUserAccounts(t *testing.T) {
	s := newTestServer(t)

	w, out := s.do(call{method: http.MethodPost, path: "/api/v1/users", body: map[string]any{"username": "ada", "password": "123456"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{"Password cannot be entirely numeric."}, out["password"])

	w, out = s.do(call{method: http.MethodPost, path: "/api/v1/users", body: map[string]any{"username": "ada", "password": "engine42", "is_staff": true}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, false, out["is_staff"])
	assert.NotContains(t, out, "password")
	adaID := out["id"]

	ada := [2]string{"ada", "engine42"}
	w, out = s.do(call{method: http.MethodGet, path: "/api/v1/auth/me", basic: ada})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "basic", out["auth"])

	w, _ = s.do(call{method: http.MethodGet, path: "/api/v1/auth/me"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(call{method: http.MethodGet, path: "/api/v1/auth/me", basic: [2]string{"ada", "wrong-pass"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(call{method: http.MethodGet, path: "/api/v1/users", basic: ada})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(call{method: http.MethodPut, path: "/api/v1/users/1/password", body: map[string]any{"password": "hijack99"}, basic: ada})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, out = s.do(call{method: http.MethodPut, path: "/api/v1/users/2/password", body: map[string]any{"password": "ada"}, basic: ada})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, out, "password")

	w, out = s.do(call{method: http.MethodPut, path: "/api/v1/users/2/password", body: map[string]any{"password": "analytic7"}, basic: ada})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "password set", out["status"])

	token := s.login("ada", "analytic7")
	w, out = s.do(call{method: http.MethodGet, path: "/api/v1/users/2", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, adaID, out["id"])

	admin := s.login("admin", "s3cret-pass")
	w, out = s.do(call{method: http.MethodGet, path: "/api/v1/users", token: admin})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), out["count"])
}

func TestLoginAndMalformedBodies(t *testing.T) {
	s := newTestServer(t)

	w, out := s.do(call{method: http.MethodPost, path: "/api/v1/auth/login", body: map[string]string{"username": "admin", "password": "nope"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unable to log in with provided credentials.", out["detail"])

	w, _ = s.do(call{method: http.MethodPost, path: "/api/v1/auth/login", body: map[string]string{"username": "admin"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	token := s.login("admin", "s3cret-pass")
	w, out = s.do(call{method: http.MethodGet, path: "/api/v1/auth/me", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "token", out["auth"])
	assert.Equal(t, map[string]any{"id": float64(1), "username": "admin", "is_staff": true}, out["user"])

	w, out = s.do(call{method: http.MethodPost, path: "/api/v1/books", body: `{"btitle": `, token: token})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, out["detail"], "JSON parse error")

	w, _ = s.do(call{method: http.MethodPost, path: "/api/v1/auth/logout"})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPostsAndTags(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "s3cret-pass")
	w, _ := s.do(call{method: http.MethodPost, path: "/api/v1/users", body: map[string]any{"username": "ada", "password": "engine42"}})
	require.Equal(t, http.StatusCreated, w.Code)
	ada := s.login("ada", "engine42")

	post := map[string]any{"title": "Hello World", "content": "first"}
	w, _ = s.do(call{method: http.MethodPost, path: "/api/v1/posts", body: post})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, out := s.do(call{method: http.MethodPost, path: "/api/v1/posts", body: post, token: ada})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "http://example.com/api/v1/users/2", out["author"])
	assert.Equal(t, "hello-world", out["slug"])
	postURL := out["url"].(string)

	w, _ = s.do(call{method: http.MethodPatch, path: "/api/v1/posts/1", body: `{"status": "published"}`, token: admin})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, out = s.do(call{method: http.MethodPatch, path: "/api/v1/posts/1", body: `{"status": "published"}`, token: ada})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "published", out["status"])

	w, out = s.do(call{method: http.MethodPost, path: "/api/v1/tags", body: map[string]any{"name": "go", "posts": []string{postURL}}, token: admin})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []any{postURL}, out["posts"])

	_, out = s.do(call{method: http.MethodGet, path: "/api/v1/posts/1"})
	assert.Equal(t, []any{"go"}, out["tag_set"])

	_, out = s.do(call{method: http.MethodGet, path: "/api/v1/tags?posts=1"})
	assert.Equal(t, float64(1), out["count"])

	w, _ = s.do(call{method: http.MethodDelete, path: "/api/v1/posts/1", token: ada})
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, out = s.do(call{method: http.MethodGet, path: "/api/v1/tags/1"})
	assert.Equal(t, []any{}, out["posts"])
}
