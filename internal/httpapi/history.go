package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"workhub/internal/history"
	"workhub/internal/timeline"

	"github.com/gin-gonic/gin"
)

// ListHistories serves the admin timeline.
//
// Query: type, action (repeatable or comma separated), target_id, actor_id,
// creator_id, from, to (RFC3339, from inclusive, to exclusive), sort (asc|desc),
// page (zero based), size.
func (h Handlers) ListHistories(c *gin.Context) {
	if h.Timeline == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "timeline not configured"})
		return
	}
	f, err := parseFilter(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	page, err := h.Timeline.List(c.Request.Context(), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListHistoriesByType serves the public timeline of one history type.
func (h Handlers) ListHistoriesByType(c *gin.Context) {
	if h.Timeline == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "timeline not configured"})
		return
	}
	t, err := history.ParseType(c.Param("history_type"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	f, err := parsePaging(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	f.Types = []history.Type{t}
	page, err := h.Timeline.ListPublic(c.Request.Context(), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListTargetHistories serves the public timeline of one target id,
// optionally narrowed with ?history_type=.
func (h Handlers) ListTargetHistories(c *gin.Context) {
	if h.Timeline == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "timeline not configured"})
		return
	}
	targetID, err := positiveID(c.Param("target_id"), "target_id")
	if err != nil {
		abortWithError(c, err)
		return
	}
	f, err := parsePaging(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	f.TargetID = targetID
	if raw := c.Query("history_type"); raw != "" {
		t, err := history.ParseType(raw)
		if err != nil {
			abortWithError(c, err)
			return
		}
		f.Types = []history.Type{t}
	}
	page, err := h.Timeline.ListPublic(c.Request.Context(), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func parseFilter(c *gin.Context) (timeline.Filter, error) {
	f, err := parsePaging(c)
	if err != nil {
		return timeline.Filter{}, err
	}
	for _, raw := range listParam(c, "type") {
		t, err := history.ParseType(raw)
		if err != nil {
			return timeline.Filter{}, err
		}
		f.Types = append(f.Types, t)
	}
	for _, raw := range listParam(c, "action") {
		a, err := history.ParseAction(raw)
		if err != nil {
			return timeline.Filter{}, err
		}
		f.Actions = append(f.Actions, a)
	}
	if f.TargetID, err = optionalID(c, "target_id"); err != nil {
		return timeline.Filter{}, err
	}
	if f.ActorID, err = optionalID(c, "actor_id"); err != nil {
		return timeline.Filter{}, err
	}
	if f.CreatorID, err = optionalID(c, "creator_id"); err != nil {
		return timeline.Filter{}, err
	}
	if f.From, err = optionalTime(c, "from"); err != nil {
		return timeline.Filter{}, err
	}
	if f.To, err = optionalTime(c, "to"); err != nil {
		return timeline.Filter{}, err
	}
	return f, nil
}

func parsePaging(c *gin.Context) (timeline.Filter, error) {
	var f timeline.Filter
	var err error
	if f.Page, err = optionalInt(c, "page"); err != nil {
		return f, err
	}
	if f.Size, err = optionalInt(c, "size"); err != nil {
		return f, err
	}
	switch strings.ToLower(c.DefaultQuery("sort", "desc")) {
	case "desc":
	case "asc":
		f.Ascending = true
	default:
		return f, fmt.Errorf("%w: sort must be asc or desc", history.ErrInvalidArgument)
	}
	return f, nil
}

func listParam(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func optionalInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", history.ErrInvalidArgument, key)
	}
	return n, nil
}

func optionalID(c *gin.Context, key string) (int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return positiveID(raw, key)
}

func positiveID(raw, key string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", history.ErrInvalidArgument, key)
	}
	return id, nil
}

func optionalTime(c *gin.Context, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC3339", history.ErrInvalidArgument, key)
	}
	return t, nil
}
