package post

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"workhub/internal/auth"
	"workhub/internal/history"
	"workhub/pkg/utils"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var fixedNow = time.Date(2025, 5, 2, 14, 0, 0, 0, time.UTC)

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

const sqliteHistory = `CREATE TABLE %s (
	change_log_id INTEGER PRIMARY KEY AUTOINCREMENT,
	target_id     INTEGER NOT NULL,
	action_type   TEXT NOT NULL,
	before_data   TEXT,
	created_by    INTEGER NOT NULL,
	updated_by    INTEGER NOT NULL,
	updated_at    TIMESTAMP NOT NULL,
	ip_address    TEXT,
	user_agent    TEXT
)`

type fixture struct {
	db       *sql.DB
	svc      *Service
	comments *CommentService
	history  *history.SQLStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := utils.OpenPostgres(context.Background(), "sqlite", ":memory:", utils.PostgresPoolConfig{MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	for _, ddl := range []string{
		sqlitePosts,
		sqliteComments,
		fmt.Sprintf(sqliteHistory, "post_history"),
		fmt.Sprintf(sqliteHistory, "post_comment_history"),
	} {
		_, err := db.Exec(ddl)
		require.NoError(t, err)
	}

	store := history.NewSQLStore(db, squirrel.Question)
	reg, err := history.NewRegistry(
		history.NewTableHandler(history.TypePost, "post_history", store),
		history.NewTableHandler(history.TypePostComment, "post_comment_history", store),
	)
	require.NoError(t, err)
	rec := history.NewRecorder(reg, history.ContextActors{}, nil)

	posts := NewRepository(db, squirrel.Question)
	svc := NewService(db, posts, rec)
	svc.clock = func() time.Time { return fixedNow }
	comments := NewCommentService(db, posts, NewCommentRepository(db, squirrel.Question), rec)
	comments.clock = func() time.Time { return fixedNow }
	return fixture{db: db, svc: svc, comments: comments, history: store}
}

func as(userID int64) context.Context {
	ctx := auth.WithIdentity(context.Background(), userID, 1, "client")
	ctx = auth.WithClientIP(ctx, "203.0.113.9")
	return auth.WithUserAgent(ctx, "test-agent")
}

func (f fixture) records(t *testing.T, targetID int64) []history.Record {
	t.Helper()
	recs, err := f.history.ListTable(context.Background(), "post_history", history.TypePost, history.Query{TargetID: targetID, Ascending: true}, 0)
	require.NoError(t, err)
	return recs
}

func (f fixture) commentRecords(t *testing.T, q history.Query) []history.Record {
	t.Helper()
	q.Ascending = true
	recs, err := f.history.ListTable(context.Background(), "post_comment_history", history.TypePostComment, q, 0)
	require.NoError(t, err)
	return recs
}

func TestService_CreateRecordsSavedState(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.Create(as(10), CreateRequest{Title: " Hello ", Content: "body", PostType: "notice"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "Hello", p.Title)
	assert.Equal(t, TypeNotice, p.PostType)
	assert.Equal(t, "203.0.113.9", p.PostIP)

	stored, err := f.svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stored.UserID)
	assert.True(t, fixedNow.Equal(stored.CreatedAt))

	recs := f.records(t, p.ID)
	require.Len(t, recs, 1)
	assert.Equal(t, history.ActionCreate, recs[0].Action)
	assert.Equal(t, int64(10), recs[0].CreatedBy)
	assert.Equal(t, int64(10), recs[0].UpdatedBy)
	assert.Equal(t, "test-agent", recs[0].ClientAgent)

	var snap history.PostSnapshot
	require.NoError(t, json.Unmarshal([]byte(recs[0].BeforeData), &snap))
	assert.Equal(t, "Hello", snap.Title)
	assert.Equal(t, "NOTICE", snap.PostType)
}

func TestService_CreateValidates(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateRequest{Title: "t", Content: "c", PostType: "NOTICE"})
	require.ErrorIs(t, err, auth.ErrNoIdentity)

	_, err = f.svc.Create(as(10), CreateRequest{Title: " ", Content: "c", PostType: "NOTICE"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.Create(as(10), CreateRequest{Title: "t", Content: "c", PostType: "MEMO"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	missing := int64(99)
	_, err = f.svc.Create(as(10), CreateRequest{Title: "t", Content: "c", PostType: "NOTICE", ParentPostID: &missing})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.records(t, 0))
}

func TestService_UpdateRecordsPreviousStateAndOriginalCreator(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.Create(as(10), CreateRequest{Title: "v1", Content: "first", PostType: "NOTICE"})
	require.NoError(t, err)

	updated, err := f.svc.Update(as(10), p.ID, UpdateRequest{Title: "v2", Content: "second", PostType: "GENERAL"})
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Title)
	assert.Equal(t, TypeGeneral, updated.PostType)

	recs := f.records(t, p.ID)
	require.Len(t, recs, 2)
	assert.Equal(t, history.ActionUpdate, recs[1].Action)
	assert.Equal(t, int64(10), recs[1].CreatedBy)

	var snap history.PostSnapshot
	require.NoError(t, json.Unmarshal([]byte(recs[1].BeforeData), &snap))
	assert.Equal(t, "v1", snap.Title)
	assert.Equal(t, "first", snap.Content)
}

func TestService_UpdateRequiresAuthor(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.Create(as(10), CreateRequest{Title: "t", Content: "c", PostType: "NOTICE"})
	require.NoError(t, err)

	_, err = f.svc.Update(as(20), p.ID, UpdateRequest{Title: "x", Content: "y", PostType: "NOTICE"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Update(as(10), 404, UpdateRequest{Title: "x", Content: "y", PostType: "NOTICE"})
	require.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, f.records(t, p.ID), 1)
}

func TestService_HistoryFailureRollsBackMutation(t *testing.T) {
	f := newFixture(t)

	// A post with no CREATE record cannot be updated: the history write fails
	// and the update must not stick.
	repo := NewRepository(f.db, squirrel.Question)
	id, err := repo.Insert(context.Background(), Post{Title: "orphan", Content: "c", PostType: TypeNotice, UserID: 10, CreatedAt: fixedNow, UpdatedAt: fixedNow})
	require.NoError(t, err)

	_, err = f.svc.Update(as(10), id, UpdateRequest{Title: "changed", Content: "c", PostType: "NOTICE"})
	require.ErrorIs(t, err, history.ErrDataIntegrity)

	p, err := f.svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "orphan", p.Title)

	err = f.svc.Delete(as(10), id)
	require.ErrorIs(t, err, history.ErrDataIntegrity)
	_, err = f.svc.Get(context.Background(), id)
	require.NoError(t, err)
}

func TestService_DeleteIsRecursiveAndRecordsOnce(t *testing.T) {
	f := newFixture(t)
	root, err := f.svc.Create(as(10), CreateRequest{Title: "root", Content: "c", PostType: "QUESTION"})
	require.NoError(t, err)
	reply, err := f.svc.Create(as(20), CreateRequest{Title: "reply", Content: "c", PostType: "GENERAL", ParentPostID: &root.ID})
	require.NoError(t, err)
	nested, err := f.svc.Create(as(30), CreateRequest{Title: "nested", Content: "c", PostType: "GENERAL", ParentPostID: &reply.ID})
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.Delete(as(20), root.ID), ErrForbidden)
	require.NoError(t, f.svc.Delete(as(10), root.ID))

	for _, id := range []int64{root.ID, reply.ID, nested.ID} {
		_, err := f.svc.Get(context.Background(), id)
		require.ErrorIs(t, err, ErrNotFound)
	}

	recs := f.records(t, root.ID)
	require.Len(t, recs, 2)
	assert.Equal(t, history.ActionDelete, recs[1].Action)
	assert.Equal(t, int64(10), recs[1].CreatedBy)
	assert.Len(t, f.records(t, reply.ID), 1)

	require.ErrorIs(t, f.svc.Delete(as(10), root.ID), ErrAlreadyDeleted)
}

func TestParseType(t *testing.T) {
	got, err := ParseType(" question ")
	require.NoError(t, err)
	assert.Equal(t, TypeQuestion, got)

	_, err = ParseType("")
	require.ErrorIs(t, err, ErrInvalidArgument)
}
