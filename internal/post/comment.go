package post

import (
	"errors"
	"time"

	"workhub/internal/history"
)

type Comment struct {
	ID              int64     `json:"commentId"`
	PostID          int64     `json:"postId"`
	ParentCommentID *int64    `json:"parentCommentId,omitempty"`
	UserID          int64     `json:"userId"`
	Content         string    `json:"content"`
	Deleted         bool      `json:"deleted"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (c Comment) Snapshot() history.CommentSnapshot {
	return history.CommentSnapshot{
		Content:         c.Content,
		PostID:          c.PostID,
		ParentCommentID: c.ParentCommentID,
		UserID:          c.UserID,
	}
}

type CommentRequest struct {
	Content         string `json:"content"`
	ParentCommentID *int64 `json:"parentCommentId,omitempty"`
}

type CommentUpdateRequest struct {
	Content string `json:"content"`
}

// ErrPostMismatch means the comment (or its parent) belongs to another post.
var ErrPostMismatch = errors.New("comment does not belong to this post")
