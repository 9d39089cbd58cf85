package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"workhub/internal/httpapi"
	"workhub/pkg/logger"
	"workhub/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, ping func(ctx context.Context) error, h httpapi.Handlers, authMW gin.HandlerFunc, issueTokens bool) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := ping(c.Request.Context()); err != nil {
			logger.FromGin(c).Warn("health check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.Register(r, authMW, issueTokens)
}

func healthCheck(db *sql.DB, rdb *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := utils.HealthCheck(ctx, db, 2*time.Second); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return rdb.Ping(ctx).Err()
	}
}
