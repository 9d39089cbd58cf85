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

const commentTable = "post_comments"

var commentColumns = []string{
	"comment_id",
	"post_id",
	"parent_comment_id",
	"user_id",
	"content",
	"deleted",
	"created_at",
	"updated_at",
}

// CommentRepository reads and writes post comments on the transaction in ctx, if any.
type CommentRepository struct {
	db   *sql.DB
	sb   squirrel.StatementBuilderType
	lock bool
}

func NewCommentRepository(db *sql.DB, ph squirrel.PlaceholderFormat) *CommentRepository {
	return &CommentRepository{
		db:   db,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(ph),
		lock: ph == squirrel.Dollar,
	}
}

func (r *CommentRepository) Insert(ctx context.Context, c Comment) (int64, error) {
	query, args, err := r.sb.Insert(commentTable).
		Columns(commentColumns[1:]...).
		Values(c.PostID, nullableID(c.ParentCommentID), c.UserID, c.Content, c.Deleted, c.CreatedAt, c.UpdatedAt).
		Suffix("RETURNING comment_id").
		ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	if err := utils.QuerierFromCtx(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}
	return id, nil
}

func (r *CommentRepository) Get(ctx context.Context, id int64, forUpdate bool) (Comment, error) {
	b := r.sb.Select(commentColumns...).From(commentTable).Where(squirrel.Eq{"comment_id": id})
	if forUpdate && r.lock {
		b = b.Suffix("FOR UPDATE")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return Comment{}, err
	}
	c, err := scanComment(utils.QuerierFromCtx(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	if err != nil {
		return Comment{}, fmt.Errorf("get comment %d: %w", id, err)
	}
	return c, nil
}

// ListByPost returns the live comments of postID in creation order.
func (r *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]Comment, error) {
	query, args, err := r.sb.Select(commentColumns...).
		From(commentTable).
		Where(squirrel.Eq{"post_id": postID, "deleted": false}).
		OrderBy("comment_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := utils.QuerierFromCtx(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments of %d: %w", postID, err)
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Replies returns the live direct replies to parentID.
func (r *CommentRepository) Replies(ctx context.Context, parentID int64) ([]Comment, error) {
	query, args, err := r.sb.Select(commentColumns...).
		From(commentTable).
		Where(squirrel.Eq{"parent_comment_id": parentID, "deleted": false}).
		OrderBy("comment_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := utils.QuerierFromCtx(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list replies of comment %d: %w", parentID, err)
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CommentRepository) UpdateContent(ctx context.Context, id int64, content string, at time.Time) error {
	query, args, err := r.sb.Update(commentTable).
		Set("content", content).
		Set("updated_at", at).
		Where(squirrel.Eq{"comment_id": id}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := utils.QuerierFromCtx(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update comment %d: %w", id, err)
	}
	return nil
}

func (r *CommentRepository) MarkDeleted(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := r.sb.Update(commentTable).
		Set("deleted", true).
		Set("updated_at", at).
		Where(squirrel.Eq{"comment_id": ids}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := utils.QuerierFromCtx(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (Comment, error) {
	var (
		c         Comment
		parentID  sql.NullInt64
		createdAt utils.Timestamp
		updatedAt utils.Timestamp
	)
	if err := row.Scan(&c.ID, &c.PostID, &parentID, &c.UserID, &c.Content, &c.Deleted, &createdAt, &updatedAt); err != nil {
		return Comment{}, err
	}
	if parentID.Valid {
		v := parentID.Int64
		c.ParentCommentID = &v
	}
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time
	return c, nil
}
