package logger

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-Id"
	ginKey          = "logger"
)

// Middleware tags every request with a request id, makes the request-scoped logger
// available through both FromGin and From(c.Request.Context()), and logs one summary
// line per request.
func Middleware(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(HeaderRequestID, rid)

		reqLogger := l.With("request_id", rid)
		c.Set(ginKey, reqLogger)
		c.Request = c.Request.WithContext(With(c.Request.Context(), reqLogger))

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", float64(time.Since(start).Milliseconds()),
		}
		if uid, ok := c.Get("user_id"); ok {
			attrs = append(attrs, "user_id", uid)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
			reqLogger.Error("request", attrs...)
			return
		}
		reqLogger.Info("request", attrs...)
	}
}

// FromGin pulls the request-scoped logger from Gin context.
func FromGin(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(ginKey); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
