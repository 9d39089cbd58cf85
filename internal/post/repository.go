package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"workhub/pkg/utils"

	"github.com/Masterminds/squirrel"
)

const table = "posts"

var columns = []string{
	"post_id",
	"title",
	"content",
	"post_type",
	"post_ip",
	"parent_post_id",
	"user_id",
	"deleted",
	"created_at",
	"updated_at",
}

// Repository reads and writes posts. Every statement runs on the transaction
// carried by ctx when there is one.
type Repository struct {
	db   *sql.DB
	sb   squirrel.StatementBuilderType
	lock bool
}

// NewRepository builds a repository. Row locks (FOR UPDATE) are only issued for
// the postgres placeholder format.
func NewRepository(db *sql.DB, ph squirrel.PlaceholderFormat) *Repository {
	return &Repository{
		db:   db,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(ph),
		lock: ph == squirrel.Dollar,
	}
}

func (r *Repository) Insert(ctx context.Context, p Post) (int64, error) {
	query, args, err := r.sb.Insert(table).
		Columns(columns[1:]...).
		Values(p.Title, p.Content, string(p.PostType), p.PostIP, nullableID(p.ParentPostID), p.UserID, p.Deleted, p.CreatedAt, p.UpdatedAt).
		Suffix("RETURNING post_id").
		ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	if err := utils.QuerierFromCtx(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	return id, nil
}

// Get loads a post, deleted or not. forUpdate locks the row for the rest of the transaction.
func (r *Repository) Get(ctx context.Context, id int64, forUpdate bool) (Post, error) {
	b := r.sb.Select(columns...).From(table).Where(squirrel.Eq{"post_id": id})
	if forUpdate && r.lock {
		b = b.Suffix("FOR UPDATE")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return Post{}, err
	}

	var (
		p         Post
		postType  string
		postIP    sql.NullString
		parentID  sql.NullInt64
		createdAt utils.Timestamp
		updatedAt utils.Timestamp
	)
	err = utils.QuerierFromCtx(ctx, r.db).QueryRowContext(ctx, query, args...).
		Scan(&p.ID, &p.Title, &p.Content, &postType, &postIP, &parentID, &p.UserID, &p.Deleted, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("get post %d: %w", id, err)
	}
	p.PostType = Type(postType)
	p.PostIP = postIP.String
	if parentID.Valid {
		v := parentID.Int64
		p.ParentPostID = &v
	}
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return p, nil
}

func (r *Repository) Update(ctx context.Context, p Post) error {
	query, args, err := r.sb.Update(table).
		Set("title", p.Title).
		Set("content", p.Content).
		Set("post_type", string(p.PostType)).
		Set("post_ip", p.PostIP).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{"post_id": p.ID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := utils.QuerierFromCtx(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update post %d: %w", p.ID, err)
	}
	return nil
}

// ChildIDs returns the ids of live replies to parentID.
func (r *Repository) ChildIDs(ctx context.Context, parentID int64) ([]int64, error) {
	query, args, err := r.sb.Select("post_id").
		From(table).
		Where(squirrel.Eq{"parent_post_id": parentID, "deleted": false}).
		OrderBy("post_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := utils.QuerierFromCtx(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list replies of %d: %w", parentID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) MarkDeleted(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := r.sb.Update(table).
		Set("deleted", true).
		Set("updated_at", at).
		Where(squirrel.Eq{"post_id": ids}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := utils.QuerierFromCtx(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete posts: %w", err)
	}
	return nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
