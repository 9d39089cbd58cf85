package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workhub/internal/auth"
	"workhub/internal/config"
	"workhub/internal/history"
	"workhub/internal/httpapi"
	"workhub/internal/migrations"
	"workhub/internal/post"
	"workhub/internal/timeline"
	"workhub/internal/users"
	"workhub/pkg/logger"
	"workhub/pkg/utils"

	"github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.MigrateOnStart {
		if err := migrations.Up(rootCtx, db, log); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// History write path: one handler per type, all backed by the SQL store.
	historyStore := history.NewSQLStore(db, squirrel.Dollar)
	handlers, err := history.NewHandlers(historyStore, history.DefaultTables)
	if err != nil {
		log.Error("history handlers init failed", "err", err)
		os.Exit(1)
	}
	registry, err := history.NewRegistry(handlers...)
	if err != nil {
		log.Error("history registry init failed", "err", err)
		os.Exit(1)
	}
	recorder := history.NewRecorder(registry, history.ContextActors{}, history.NewMetrics(prometheus.DefaultRegisterer))

	// History read path.
	var reader timeline.Reader
	switch cfg.History.ReadMode {
	case config.ReadModeFanout:
		reader = timeline.NewFanoutReader(historyStore, registry.Tables())
	default:
		reader = timeline.NewViewReader(db, squirrel.Dollar)
	}
	directory := users.NewCachedDirectory(users.NewSQLDirectory(db, squirrel.Dollar), rdb, cfg.Redis.UserCacheTTL)
	timelineSvc := timeline.NewService(reader, directory, timeline.Limits{
		DefaultSize: cfg.History.DefaultPageSize,
		MaxSize:     cfg.History.MaxPageSize,
	})

	postRepo := post.NewRepository(db, squirrel.Dollar)
	postSvc := post.NewService(db, postRepo, recorder)
	commentSvc := post.NewCommentService(db, postRepo, post.NewCommentRepository(db, squirrel.Dollar), recorder)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(auth.CaptureRequestMeta())

	registerRoutes(r, healthCheck(db, rdb), httpapi.Handlers{
		Auth:     authManager,
		Timeline: timelineSvc,
		Posts:    postSvc,
		Comments: commentSvc,
	}, auth.RequireAccessToken(authManager), !cfg.IsProduction())

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "history_read_mode", cfg.History.ReadMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
