package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"workhub/internal/auth"
	"workhub/internal/config"
	"workhub/internal/history"
	"workhub/internal/post"
	"workhub/internal/rbac"
	"workhub/internal/timeline"
	"workhub/internal/users"
	"workhub/pkg/utils"

	"github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const sqlitePosts = `CREATE TABLE posts (
	post_id        INTEGER PRIMARY KEY AUTOINCREMENT,
	title          TEXT NOT NULL,
	content        TEXT NOT NULL,
	post_type      TEXT NOT NULL,
	post_ip        TEXT,
	parent_post_id INTEGER,
	user_id        INTEGER NOT NULL,
	deleted        BOOLEAN NOT NULL DEFAULT 0,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
)`

const sqliteComments = `CREATE TABLE post_comments (
	comment_id        INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id           INTEGER NOT NULL,
	parent_comment_id INTEGER,
	user_id           INTEGER NOT NULL,
	content           TEXT NOT NULL,
	deleted           BOOLEAN NOT NULL DEFAULT 0,
	created_at        TIMESTAMP NOT NULL,
	updated_at        TIMESTAMP NOT NULL
)`

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	router *gin.Engine
	tokens *auth.Manager
	store  *history.MemoryStore
}

func newTestEnv(t *testing.T, issueTokens bool) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	store := history.NewMemoryStore()
	handlers, err := history.NewHandlers(store, history.DefaultTables)
	require.NoError(t, err)
	reg, err := history.NewRegistry(handlers...)
	require.NoError(t, err)
	recorder := history.NewRecorder(reg, history.ContextActors{}, nil)

	db, err := utils.OpenPostgres(context.Background(), "sqlite", ":memory:", utils.PostgresPoolConfig{MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	for _, ddl := range []string{sqlitePosts, sqliteComments} {
		_, err = db.Exec(ddl)
		require.NoError(t, err)
	}

	dir := users.NewMemoryDirectory(
		users.Info{UserID: 1, UserName: "admin"},
		users.Info{UserID: 10, UserName: "kim"},
	)
	posts := post.NewRepository(db, squirrel.Question)
	h := Handlers{
		Auth:     m,
		Timeline: timeline.NewService(timeline.NewFanoutReader(store, reg.Tables()), dir, timeline.DefaultLimits),
		Posts:    post.NewService(db, posts, recorder),
		Comments: post.NewCommentService(db, posts, post.NewCommentRepository(db, squirrel.Question), recorder),
	}

	r := gin.New()
	r.Use(auth.CaptureRequestMeta())
	h.Register(r, auth.RequireAccessToken(m), issueTokens)
	return testEnv{router: r, tokens: m, store: store}
}

func (e testEnv) seed(t *testing.T, typ history.Type, recs ...history.Record) {
	t.Helper()
	for _, r := range recs {
		_, err := e.store.Append(context.Background(), history.DefaultTables[typ], r)
		require.NoError(t, err)
	}
}

func (e testEnv) do(t *testing.T, method, path string, userID int64, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "handlers-test")
	if userID > 0 {
		pair, err := e.tokens.IssuePair(time.Now(), userID, 1, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type pageBody struct {
	Content       []map[string]any `json:"content"`
	Page          int              `json:"page"`
	Size          int              `json:"size"`
	TotalElements int              `json:"totalElements"`
	TotalPages    int              `json:"totalPages"`
}

func decodePage(t *testing.T, w *httptest.ResponseRecorder) pageBody {
	t.Helper()
	var p pageBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func seedSample(t *testing.T, e testEnv) {
	e.seed(t, history.TypePost,
		history.Record{TargetID: 5, Action: history.ActionCreate, CreatedBy: 10, UpdatedBy: 10, UpdatedAt: base, ClientIP: "10.0.0.1"},
		history.Record{TargetID: 5, Action: history.ActionUpdate, BeforeData: `{"title":"a"}`, CreatedBy: 10, UpdatedBy: 1, UpdatedAt: base.Add(time.Hour), ClientIP: "10.0.0.2"},
	)
	e.seed(t, history.TypeProject,
		history.Record{TargetID: 5, Action: history.ActionCreate, CreatedBy: 1, UpdatedBy: 1, UpdatedAt: base.Add(30 * time.Minute)},
	)
}

func TestListHistories_RequiresAdmin(t *testing.T) {
	e := newTestEnv(t, false)
	seedSample(t, e)

	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/v1/admin/histories", 0, "", nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/v1/admin/histories", 10, rbac.RoleClient, nil).Code)

	w := e.do(t, http.MethodGet, "/v1/admin/histories", 1, rbac.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decodePage(t, w)
	assert.Equal(t, 3, p.TotalElements)
	require.Len(t, p.Content, 3)
	assert.Equal(t, "10.0.0.2", p.Content[0]["ipAddress"])
	assert.Equal(t, "PROJECT", p.Content[1]["historyType"])
}

func TestListHistories_Filters(t *testing.T) {
	e := newTestEnv(t, false)
	seedSample(t, e)

	w := e.do(t, http.MethodGet, "/v1/admin/histories?type=post&action=UPDATE,DELETE&actor_id=1", 1, rbac.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decodePage(t, w)
	require.Len(t, p.Content, 1)
	assert.Equal(t, "UPDATE", p.Content[0]["actionType"])
	updatedBy := p.Content[0]["updatedBy"].(map[string]any)
	assert.Equal(t, "admin", updatedBy["userName"])

	w = e.do(t, http.MethodGet, "/v1/admin/histories?sort=asc&size=1&page=1", 1, rbac.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	p = decodePage(t, w)
	require.Len(t, p.Content, 1)
	assert.Equal(t, "PROJECT", p.Content[0]["historyType"])
	assert.Equal(t, 3, p.TotalPages)

	from := base.Add(10 * time.Minute).Format(time.RFC3339)
	w = e.do(t, http.MethodGet, "/v1/admin/histories?from="+from, 1, rbac.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodePage(t, w).TotalElements)
}

func TestListHistories_BadInput(t *testing.T) {
	e := newTestEnv(t, false)

	for _, q := range []string{
		"?type=BOGUS",
		"?action=MOVE",
		"?sort=sideways",
		"?page=-1",
		"?size=abc",
		"?target_id=0",
		"?from=yesterday",
		"?from=2025-06-02T00:00:00Z&to=2025-06-01T00:00:00Z",
	} {
		w := e.do(t, http.MethodGet, "/v1/admin/histories"+q, 1, rbac.RoleAdmin, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Contains(t, w.Body.String(), `"error"`, q)
	}
}

func TestListHistoriesByType_PublicProjection(t *testing.T) {
	e := newTestEnv(t, false)
	seedSample(t, e)

	w := e.do(t, http.MethodGet, "/v1/histories/type/POST", 10, rbac.RoleClient, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "ipAddress")
	assert.NotContains(t, w.Body.String(), "10.0.0.1")
	assert.Equal(t, 2, decodePage(t, w).TotalElements)

	w = e.do(t, http.MethodGet, "/v1/histories/type/NOPE", 10, rbac.RoleClient, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTargetHistories(t *testing.T) {
	e := newTestEnv(t, false)
	seedSample(t, e)

	w := e.do(t, http.MethodGet, "/v1/histories/5", 10, rbac.RoleDeveloper, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decodePage(t, w).TotalElements)

	w = e.do(t, http.MethodGet, "/v1/histories/5?history_type=project", 10, rbac.RoleDeveloper, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodePage(t, w).TotalElements)

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/v1/histories/abc", 10, rbac.RoleDeveloper, nil).Code)
}

func TestPosts_LifecycleIsRecorded(t *testing.T) {
	e := newTestEnv(t, false)

	w := e.do(t, http.MethodPost, "/v1/posts", 10, rbac.RoleClient, post.CreateRequest{Title: "hello", Content: "first", PostType: "NOTICE"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created post.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Positive(t, created.ID)

	path := "/v1/posts/" + jsonNumber(created.ID)
	update := post.UpdateRequest{Title: "hello 2", Content: "second", PostType: "NOTICE"}

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPatch, path, 11, rbac.RoleDeveloper, update).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPatch, path, 10, rbac.RoleClient, update).Code)
	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, path, 10, rbac.RoleClient, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, path, 10, rbac.RoleClient, nil).Code)
	assert.Equal(t, http.StatusConflict, e.do(t, http.MethodDelete, path, 10, rbac.RoleClient, nil).Code)

	w = e.do(t, http.MethodGet, "/v1/admin/histories?type=POST&target_id="+jsonNumber(created.ID)+"&sort=asc", 1, rbac.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decodePage(t, w)
	require.Len(t, p.Content, 3)
	for i, action := range []string{"CREATE", "UPDATE", "DELETE"} {
		assert.Equal(t, action, p.Content[i]["actionType"])
		assert.Equal(t, "kim", p.Content[i]["createdBy"].(map[string]any)["userName"])
		assert.Equal(t, "handlers-test", p.Content[i]["userAgent"])
	}
}

func TestPosts_BadInput(t *testing.T) {
	e := newTestEnv(t, false)

	w := e.do(t, http.MethodPost, "/v1/posts", 10, rbac.RoleClient, post.CreateRequest{Title: "t", Content: "c", PostType: "MEMO"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/posts", bytes.NewBufferString("{"))
	pair, err := e.tokens.IssuePair(time.Now(), 10, 1, rbac.RoleClient)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/v1/posts/999", 10, rbac.RoleClient, nil).Code)
}

func TestPosts_RequireCompany(t *testing.T) {
	e := newTestEnv(t, false)

	req := httptest.NewRequest(http.MethodPost, "/v1/posts", bytes.NewBufferString(`{"title":"t","content":"c","postType":"NOTICE"}`))
	pair, err := e.tokens.IssuePair(time.Now(), 10, 0, rbac.RoleClient)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// admins carry no company
	req = httptest.NewRequest(http.MethodGet, "/v1/posts/999", nil)
	pair, err = e.tokens.IssuePair(time.Now(), 1, 0, rbac.RoleAdmin)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComments_LifecycleIsRecorded(t *testing.T) {
	e := newTestEnv(t, false)

	w := e.do(t, http.MethodPost, "/v1/posts", 10, rbac.RoleClient, post.CreateRequest{Title: "hello", Content: "first", PostType: "QUESTION"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p post.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	base := "/v1/posts/" + jsonNumber(p.ID) + "/comments"

	w = e.do(t, http.MethodPost, base, 10, rbac.RoleClient, post.CommentRequest{Content: "root"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var root post.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &root))

	w = e.do(t, http.MethodPost, base, 10, rbac.RoleClient, post.CommentRequest{Content: "reply", ParentCommentID: &root.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reply post.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))

	rootPath := base + "/" + jsonNumber(root.ID)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, base, 10, rbac.RoleClient, post.CommentRequest{Content: " "}).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPatch, base+"/abc", 10, rbac.RoleClient, post.CommentUpdateRequest{Content: "x"}).Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPatch, rootPath, 11, rbac.RoleDeveloper, post.CommentUpdateRequest{Content: "x"}).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPatch, rootPath, 10, rbac.RoleClient, post.CommentUpdateRequest{Content: "root 2"}).Code)

	w = e.do(t, http.MethodGet, base, 11, rbac.RoleDeveloper, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []post.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 2)

	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, rootPath, 10, rbac.RoleClient, nil).Code)
	assert.Equal(t, http.StatusConflict, e.do(t, http.MethodDelete, rootPath, 10, rbac.RoleClient, nil).Code)

	w = e.do(t, http.MethodGet, "/v1/admin/histories?type=POST_COMMENT&sort=asc", 1, rbac.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodePage(t, w)
	require.Len(t, page.Content, 5)
	var actions []string
	for _, c := range page.Content {
		actions = append(actions, c["actionType"].(string))
		assert.Equal(t, "kim", c["createdBy"].(map[string]any)["userName"])
	}
	assert.Equal(t, []string{"CREATE", "CREATE", "UPDATE", "DELETE", "DELETE"}, actions)

	w = e.do(t, http.MethodGet, "/v1/admin/histories?type=POST_COMMENT&action=DELETE&target_id="+jsonNumber(reply.ID), 1, rbac.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodePage(t, w).TotalElements)
}

func TestIssueToken(t *testing.T) {
	off := newTestEnv(t, false)
	assert.Equal(t, http.StatusNotFound, off.do(t, http.MethodPost, "/v1/auth/token", 0, "", tokenRequest{UserID: 1, Role: "admin"}).Code)

	e := newTestEnv(t, true)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/v1/auth/token", 0, "", tokenRequest{UserID: 1, Role: "owner"}).Code)

	w := e.do(t, http.MethodPost, "/v1/auth/token", 0, "", tokenRequest{UserID: 7, CompanyID: 3, Role: rbac.RoleDeveloper})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+body["access_token"])
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":7,"company_id":3,"role":"developer"}`, rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, statusFor(history.ErrAuthenticationRequired))
	assert.Equal(t, http.StatusInternalServerError, statusFor(history.ErrDataIntegrity))
	assert.Equal(t, http.StatusInternalServerError, statusFor(history.ErrPersistence))
	assert.Equal(t, http.StatusBadRequest, statusFor(post.ErrPostMismatch))
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
