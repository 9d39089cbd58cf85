package post

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"workhub/internal/auth"
	"workhub/internal/history"
	"workhub/pkg/logger"
	"workhub/pkg/utils"
)

// CommentService mutates post comments. Like Service, each mutation commits
// together with its POST_COMMENT history records or not at all.
type CommentService struct {
	db       *sql.DB
	posts    *Repository
	comments *CommentRepository
	history  HistoryRecorder
	clock    func() time.Time
}

func NewCommentService(db *sql.DB, posts *Repository, comments *CommentRepository, recorder HistoryRecorder) *CommentService {
	return &CommentService{db: db, posts: posts, comments: comments, history: recorder, clock: time.Now}
}

// List returns the live comments of a live post.
func (s *CommentService) List(ctx context.Context, postID int64) ([]Comment, error) {
	p, err := s.posts.Get(ctx, postID, false)
	if err != nil {
		return nil, err
	}
	if p.Deleted {
		return nil, ErrNotFound
	}
	return s.comments.ListByPost(ctx, postID)
}

// Create adds a comment by the caller to postID, optionally replying to another
// comment of the same post, and records CREATE with the saved state.
func (s *CommentService) Create(ctx context.Context, postID int64, req CommentRequest) (Comment, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return Comment{}, err
	}
	if strings.TrimSpace(req.Content) == "" {
		return Comment{}, fmt.Errorf("%w: content is required", ErrInvalidArgument)
	}

	now := s.clock().UTC()
	c := Comment{
		PostID:          postID,
		ParentCommentID: req.ParentCommentID,
		UserID:          userID,
		Content:         req.Content,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = utils.WithTx(ctx, s.db, nil, func(ctx context.Context, _ *sql.Tx) error {
		p, err := s.posts.Get(ctx, postID, false)
		if err != nil {
			return err
		}
		if p.Deleted {
			return ErrNotFound
		}
		if c.ParentCommentID != nil {
			parent, err := s.comments.Get(ctx, *c.ParentCommentID, false)
			if err != nil {
				return fmt.Errorf("parent comment: %w", err)
			}
			if parent.PostID != postID {
				return ErrPostMismatch
			}
			if parent.Deleted {
				return fmt.Errorf("parent comment: %w", ErrNotFound)
			}
		}
		id, err := s.comments.Insert(ctx, c)
		if err != nil {
			return err
		}
		c.ID = id
		return s.history.RecordSnapshot(ctx, history.TypePostComment, id, history.ActionCreate, c.Snapshot())
	})
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

// Update rewrites the content of the caller's own comment, recording the previous state.
func (s *CommentService) Update(ctx context.Context, postID, commentID int64, req CommentUpdateRequest) (Comment, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return Comment{}, err
	}
	if strings.TrimSpace(req.Content) == "" {
		return Comment{}, fmt.Errorf("%w: content is required", ErrInvalidArgument)
	}

	var updated Comment
	err = utils.WithTx(ctx, s.db, nil, func(ctx context.Context, _ *sql.Tx) error {
		c, err := s.owned(ctx, postID, commentID, userID)
		if err != nil {
			return err
		}
		if c.Deleted {
			return ErrNotFound
		}
		if err := s.history.RecordSnapshot(ctx, history.TypePostComment, c.ID, history.ActionUpdate, c.Snapshot()); err != nil {
			return err
		}
		c.Content = req.Content
		c.UpdatedAt = s.clock().UTC()
		if err := s.comments.UpdateContent(ctx, c.ID, c.Content, c.UpdatedAt); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return Comment{}, err
	}
	return updated, nil
}

// Delete soft-deletes the caller's comment and every live reply below it.
// Each removed comment gets its own DELETE record, replies before their parent.
func (s *CommentService) Delete(ctx context.Context, postID, commentID int64) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}

	return utils.WithTx(ctx, s.db, nil, func(ctx context.Context, _ *sql.Tx) error {
		c, err := s.owned(ctx, postID, commentID, userID)
		if err != nil {
			return err
		}
		if c.Deleted {
			return ErrAlreadyDeleted
		}

		var removed []int64
		if err := s.deleteTree(ctx, c, &removed); err != nil {
			return err
		}
		if err := s.comments.MarkDeleted(ctx, removed, s.clock().UTC()); err != nil {
			return err
		}
		logger.From(ctx).Info("comment deleted", "comment_id", commentID, "post_id", postID, "removed", len(removed))
		return nil
	})
}

func (s *CommentService) deleteTree(ctx context.Context, c Comment, removed *[]int64) error {
	replies, err := s.comments.Replies(ctx, c.ID)
	if err != nil {
		return err
	}
	for _, r := range replies {
		if err := s.deleteTree(ctx, r, removed); err != nil {
			return err
		}
	}
	if err := s.history.RecordSnapshot(ctx, history.TypePostComment, c.ID, history.ActionDelete, c.Snapshot()); err != nil {
		return err
	}
	*removed = append(*removed, c.ID)
	return nil
}

// owned loads a comment for update and checks it sits under postID and belongs to userID.
func (s *CommentService) owned(ctx context.Context, postID, commentID, userID int64) (Comment, error) {
	c, err := s.comments.Get(ctx, commentID, true)
	if err != nil {
		return Comment{}, err
	}
	if c.PostID != postID {
		return Comment{}, ErrPostMismatch
	}
	if c.UserID != userID {
		return Comment{}, ErrForbidden
	}
	return c, nil
}
