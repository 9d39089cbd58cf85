package httpapi

import (
	"net/http"

	"workhub/internal/post"

	"github.com/gin-gonic/gin"
)

func (h Handlers) GetPost(c *gin.Context) {
	if h.Posts == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "posts not configured"})
		return
	}
	id, err := positiveID(c.Param("post_id"), "post_id")
	if err != nil {
		abortWithError(c, err)
		return
	}
	p, err := h.Posts.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h Handlers) CreatePost(c *gin.Context) {
	if h.Posts == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "posts not configured"})
		return
	}
	var req post.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := h.Posts.Create(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h Handlers) UpdatePost(c *gin.Context) {
	if h.Posts == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "posts not configured"})
		return
	}
	id, err := positiveID(c.Param("post_id"), "post_id")
	if err != nil {
		abortWithError(c, err)
		return
	}
	var req post.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := h.Posts.Update(c.Request.Context(), id, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h Handlers) DeletePost(c *gin.Context) {
	if h.Posts == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "posts not configured"})
		return
	}
	id, err := positiveID(c.Param("post_id"), "post_id")
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.Posts.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
