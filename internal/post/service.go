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

// HistoryRecorder is the part of history.Recorder the post service needs.
type HistoryRecorder interface {
	RecordSnapshot(ctx context.Context, t history.Type, targetID int64, action history.Action, snapshot any) error
}

// Service mutates posts.
//
// Every mutation and its history record commit in one transaction. If the
// history write fails, the post change is rolled back with it.
type Service struct {
	db      *sql.DB
	repo    *Repository
	history HistoryRecorder
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(db *sql.DB, repo *Repository, recorder HistoryRecorder) *Service {
	return &Service{db: db, repo: repo, history: recorder, clock: time.Now}
}

func (s *Service) Get(ctx context.Context, id int64) (Post, error) {
	p, err := s.repo.Get(ctx, id, false)
	if err != nil {
		return Post{}, err
	}
	if p.Deleted {
		return Post{}, ErrNotFound
	}
	return p, nil
}

// Create stores a new post authored by the caller and records CREATE with the saved state.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Post, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return Post{}, err
	}
	postType, err := validate(req.Title, req.Content, req.PostType)
	if err != nil {
		return Post{}, err
	}

	now := s.clock().UTC()
	p := Post{
		Title:        strings.TrimSpace(req.Title),
		Content:      req.Content,
		PostType:     postType,
		PostIP:       auth.ClientIP(ctx),
		ParentPostID: req.ParentPostID,
		UserID:       userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = utils.WithTx(ctx, s.db, nil, func(ctx context.Context, _ *sql.Tx) error {
		if p.ParentPostID != nil {
			parent, err := s.repo.Get(ctx, *p.ParentPostID, false)
			if err != nil {
				return fmt.Errorf("parent post: %w", err)
			}
			if parent.Deleted {
				return fmt.Errorf("parent post: %w", ErrNotFound)
			}
		}
		id, err := s.repo.Insert(ctx, p)
		if err != nil {
			return err
		}
		p.ID = id
		return s.history.RecordSnapshot(ctx, history.TypePost, id, history.ActionCreate, p.Snapshot())
	})
	if err != nil {
		return Post{}, err
	}

	logger.From(ctx).Info("post created", "post_id", p.ID, "user_id", userID)
	return p, nil
}

// Update rewrites a post. Only the author may update; the state before the change is recorded.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Post, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return Post{}, err
	}
	postType, err := validate(req.Title, req.Content, req.PostType)
	if err != nil {
		return Post{}, err
	}

	var updated Post
	err = utils.WithTx(ctx, s.db, nil, func(ctx context.Context, _ *sql.Tx) error {
		p, err := s.repo.Get(ctx, id, true)
		if err != nil {
			return err
		}
		if p.Deleted {
			return ErrNotFound
		}
		if p.UserID != userID {
			return ErrForbidden
		}
		if err := s.history.RecordSnapshot(ctx, history.TypePost, id, history.ActionUpdate, p.Snapshot()); err != nil {
			return err
		}

		p.Title = strings.TrimSpace(req.Title)
		p.Content = req.Content
		p.PostType = postType
		if ip := auth.ClientIP(ctx); ip != "" {
			p.PostIP = ip
		}
		p.UpdatedAt = s.clock().UTC()
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return Post{}, err
	}
	return updated, nil
}

// Delete soft-deletes a post and all of its replies. Only the author may delete.
// One DELETE record is written for the post itself, carrying its last state.
func (s *Service) Delete(ctx context.Context, id int64) error {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return err
	}

	return utils.WithTx(ctx, s.db, nil, func(ctx context.Context, _ *sql.Tx) error {
		p, err := s.repo.Get(ctx, id, true)
		if err != nil {
			return err
		}
		if p.Deleted {
			return ErrAlreadyDeleted
		}
		if p.UserID != userID {
			return ErrForbidden
		}
		if err := s.history.RecordSnapshot(ctx, history.TypePost, id, history.ActionDelete, p.Snapshot()); err != nil {
			return err
		}

		ids, err := s.subtree(ctx, id)
		if err != nil {
			return err
		}
		if err := s.repo.MarkDeleted(ctx, ids, s.clock().UTC()); err != nil {
			return err
		}
		logger.From(ctx).Info("post deleted", "post_id", id, "removed", len(ids))
		return nil
	})
}

// subtree returns root followed by every live descendant, breadth first.
func (s *Service) subtree(ctx context.Context, root int64) ([]int64, error) {
	ids := []int64{root}
	for i := 0; i < len(ids); i++ {
		children, err := s.repo.ChildIDs(ctx, ids[i])
		if err != nil {
			return nil, err
		}
		ids = append(ids, children...)
	}
	return ids, nil
}

func validate(title, content, postType string) (Type, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: content is required", ErrInvalidArgument)
	}
	t, err := ParseType(postType)
	if err != nil {
		return "", fmt.Errorf("%w: unknown post type %q", ErrInvalidArgument, postType)
	}
	return t, nil
}
