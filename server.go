package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"quizarena/config"
	"quizarena/game"
	"quizarena/handlers"
	"quizarena/middleware"
	"quizarena/models"
	"quizarena/routes"
	"quizarena/services"
)

const shutdownTimeout = 10 * time.Second

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := config.NewLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(log)

	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	questionService := services.NewQuestionService(db, log)
	if cfg.Seed {
		if err := questionService.Seed(ctx); err != nil {
			return fmt.Errorf("failed to seed questions: %w", err)
		}
	}

	var snapshots services.SnapshotStore = services.NopSnapshotStore{}
	if cfg.RedisEnabled {
		client := config.InitRedis(cfg)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, game snapshots disabled", "error", err)
		} else {
			snapshots = services.NewRedisSnapshotStore(client, cfg.SnapshotTTL, log)
		}
	}

	tokens, err := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		log.Warn("no jwt secret configured, reconnect tokens will not survive a restart")
	}

	opts := game.Options{
		Source:       questionService,
		Logger:       log,
		Defaults:     cfg.GameDefaults(),
		StartDelay:   cfg.StartDelay,
		AdvanceDelay: cfg.AdvanceDelay,
		IdleTimeout:  cfg.IdleTimeout,
		HostLeave:    cfg.HostLeavePolicy(),
		Spectators:   cfg.EnableSpectators,
		Chat:         cfg.EnableChat,
	}
	var statsReader services.StatsReader
	if cfg.EnableStats {
		statsService := services.NewStatsService(db, log)
		opts.Stats = statsService
		statsReader = statsService
	}

	hub := services.NewHub(cfg.CORSOrigin, log)
	dispatcher, err := services.NewDispatcher(services.DispatcherOptions{
		Game:      opts,
		Sender:    hub,
		Tokens:    tokens,
		Stats:     statsReader,
		Snapshots: snapshots,
		Limits: services.RateLimits{
			Window:           cfg.RateWindow,
			Max:              cfg.RateMax,
			ChatInterval:     cfg.ChatInterval,
			AnswersPerSecond: cfg.AnswersPerSecond,
		},
		Logger: log,
	})
	if err != nil {
		return err
	}
	hub.Attach(dispatcher)
	go hub.Run(ctx)
	go dispatcher.Registry().RunReaper(ctx, cfg.ReapInterval)

	if config.ParseLevel(cfg.LogLevel) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS(cfg.CORSOrigin))
	routes.SetupRoutes(router,
		handlers.NewGameHandler(dispatcher.Registry(), snapshots, log),
		handlers.NewStatsHandler(statsReader),
		handlers.NewQuestionHandler(questionService),
		hub,
		cfg.AdminToken,
	)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddress, strconv.Itoa(cfg.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", srv.Addr, "version", releaseVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	dispatcher.FlushSnapshots()
	return nil
}
