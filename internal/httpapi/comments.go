package httpapi

import (
	"net/http"

	"workhub/internal/post"

	"github.com/gin-gonic/gin"
)

func (h Handlers) ListComments(c *gin.Context) {
	if h.Comments == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "comments not configured"})
		return
	}
	postID, err := positiveID(c.Param("post_id"), "post_id")
	if err != nil {
		abortWithError(c, err)
		return
	}
	comments, err := h.Comments.List(c.Request.Context(), postID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if comments == nil {
		comments = []post.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

func (h Handlers) CreateComment(c *gin.Context) {
	if h.Comments == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "comments not configured"})
		return
	}
	postID, err := positiveID(c.Param("post_id"), "post_id")
	if err != nil {
		abortWithError(c, err)
		return
	}
	var req post.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	comment, err := h.Comments.Create(c.Request.Context(), postID, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h Handlers) UpdateComment(c *gin.Context) {
	if h.Comments == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "comments not configured"})
		return
	}
	postID, commentID, err := commentPath(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	var req post.CommentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	comment, err := h.Comments.Update(c.Request.Context(), postID, commentID, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h Handlers) DeleteComment(c *gin.Context) {
	if h.Comments == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "comments not configured"})
		return
	}
	postID, commentID, err := commentPath(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.Comments.Delete(c.Request.Context(), postID, commentID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func commentPath(c *gin.Context) (postID, commentID int64, err error) {
	if postID, err = positiveID(c.Param("post_id"), "post_id"); err != nil {
		return 0, 0, err
	}
	if commentID, err = positiveID(c.Param("comment_id"), "comment_id"); err != nil {
		return 0, 0, err
	}
	return postID, commentID, nil
}
