package httpapi

import (
	"errors"
	"net/http"
	"time"

	"workhub/internal/auth"
	"workhub/internal/history"
	"workhub/internal/post"
	"workhub/internal/rbac"
	"workhub/internal/timeline"
	"workhub/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth     *auth.Manager
	Timeline *timeline.Service
	Posts    *post.Service
	Comments *post.CommentService
	// Now is injectable for deterministic token tests.
	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// --- Auth ---

type tokenRequest struct {
	UserID    int64  `json:"user_id"`
	CompanyID int64  `json:"company_id"`
	Role      string `json:"role"`
}

// IssueToken issues a JWT token pair for the given identity.
//
// NOTE: There is no credential check. Only register this route outside production.
func (h Handlers) IssueToken(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID <= 0 || !rbac.IsKnown(req.Role) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id and a known role required"})
		return
	}
	pair, err := h.Auth.IssuePair(h.now(), req.UserID, req.CompanyID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// Me echoes the identity carried by the access token.
func (h Handlers) Me(c *gin.Context) {
	ctx := c.Request.Context()
	uid, _ := auth.UserID(ctx)
	cid, _ := auth.CompanyID(ctx)
	role, _ := auth.Role(ctx)
	c.JSON(http.StatusOK, gin.H{"user_id": uid, "company_id": cid, "role": role})
}

// abortWithError maps domain errors to HTTP status codes. Unmapped errors are
// logged and reported as 500 without detail.
func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", "err", err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, history.ErrInvalidArgument), errors.Is(err, post.ErrInvalidArgument), errors.Is(err, post.ErrPostMismatch):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrNoIdentity), errors.Is(err, history.ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, post.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, post.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, post.ErrAlreadyDeleted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
