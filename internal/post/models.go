package post

import (
	"errors"
	"strings"
	"time"

	"workhub/internal/history"
)

type Type string

const (
	TypeNotice   Type = "NOTICE"
	TypeQuestion Type = "QUESTION"
	TypeGeneral  Type = "GENERAL"
)

func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(s))); t {
	case TypeNotice, TypeQuestion, TypeGeneral:
		return t, nil
	default:
		return "", ErrInvalidArgument
	}
}

type Post struct {
	ID           int64     `json:"postId"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	PostType     Type      `json:"postType"`
	PostIP       string    `json:"postIp"`
	ParentPostID *int64    `json:"parentPostId,omitempty"`
	UserID       int64     `json:"userId"`
	Deleted      bool      `json:"deleted"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Snapshot is the before_data payload written for this post.
func (p Post) Snapshot() history.PostSnapshot {
	return history.PostSnapshot{
		Title:        p.Title,
		Content:      p.Content,
		PostType:     string(p.PostType),
		PostIP:       p.PostIP,
		ParentPostID: p.ParentPostID,
	}
}

type CreateRequest struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	PostType     string `json:"postType"`
	ParentPostID *int64 `json:"parentPostId,omitempty"`
}

type UpdateRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	PostType string `json:"postType"`
}

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("only the author may modify this")
	ErrAlreadyDeleted  = errors.New("already deleted")
	ErrInvalidArgument = errors.New("invalid argument")
)
