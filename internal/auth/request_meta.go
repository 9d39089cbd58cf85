package auth

import (
	"context"

	"github.com/gin-gonic/gin"
)

// Client metadata travels on the request context so that layers far from
// the HTTP handler (the history recorder) can attach it to what they write.

type clientIPKey struct{}

type userAgentKey struct{}

func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func ClientIP(ctx context.Context) string {
	if s, ok := ctx.Value(clientIPKey{}).(string); ok {
		return s
	}
	return ""
}

func WithUserAgent(ctx context.Context, ua string) context.Context {
	if ua == "" {
		return ctx
	}
	return context.WithValue(ctx, userAgentKey{}, ua)
}

func UserAgent(ctx context.Context) string {
	if s, ok := ctx.Value(userAgentKey{}).(string); ok {
		return s
	}
	return ""
}

// CaptureRequestMeta copies gin's resolved client IP and the User-Agent header
// onto the request context.
func CaptureRequestMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithClientIP(c.Request.Context(), c.ClientIP())
		ctx = WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
