package history

// Snapshot shapes stored in before_data by the services that record history.

type PostSnapshot struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	PostType     string `json:"postType"`
	PostIP       string `json:"postIp"`
	ParentPostID *int64 `json:"parentPostId"`
}

type CommentSnapshot struct {
	Content         string `json:"content"`
	PostID          int64  `json:"postId"`
	ParentCommentID *int64 `json:"parentCommentId"`
	UserID          int64  `json:"userId"`
}
