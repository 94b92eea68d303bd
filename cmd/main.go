package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wantok/backend/internal/api/handler"
	"wantok/backend/internal/auth"
	"wantok/backend/internal/chathub"
	"wantok/backend/internal/config"
	"wantok/backend/internal/events"
	"wantok/backend/internal/moderation"
	"wantok/backend/internal/observability"
	"wantok/backend/internal/storage"
	"wantok/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func setupDependencies(ctx context.Context, cfg config.Config) (*gorm.DB, *redis.Client) {
	db, err := storage.OpenPostgres(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect PostgreSQL")
	}
	if err := storage.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	rdb, err := storage.OpenRedis(ctx, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect Redis")
	}
	if rdb == nil {
		log.Warn().Msg("redis disabled: no ban cache and no cross-instance kicks")
	}

	log.Info().Msg("database and redis connections established, migrations complete")
	return db, rdb
}

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.SetupLogger(cfg.LogLevel, cfg.LogPretty)
	log.Info().Str("port", cfg.Port).Msg("starting WanTok backend")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Dependencies
	db, rdb := setupDependencies(ctx, cfg)
	store := storage.NewStorageService(db, rdb)

	if n, err := store.CloseActiveSessions(ctx, "server_restart"); err != nil {
		log.Error().Err(err).Msg("failed to close orphaned sessions")
	} else if n > 0 {
		log.Info().Int64("sessions", n).Msg("closed sessions orphaned by restart")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	notifier, err := telegram.NewNotifier(cfg.TelegramBotToken, cfg.TelegramAdminChatID)
	if err != nil {
		log.Error().Err(err).Msg("telegram notifier disabled")
	}

	recorders := []events.Recorder{store}
	publisher := events.NewKafkaPublisher(cfg.Brokers(), cfg.KafkaTopic)
	if publisher != nil {
		recorders = append(recorders, publisher)
	}

	// 2. Chat hub
	jwtSvc := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty, logins and chat authentication are disabled")
	}
	hub := chathub.NewManagerService(auth.NewConnectionAuthenticator(jwtSvc, store), events.NewFanout(recorders...), metrics)

	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	if rdb != nil {
		kicks := store.SubscribeKicks(ctx)
		defer kicks.Close()
		go hub.ListenForKicks(ctx, kicks.Channel())
	}

	// 3. Moderation and the expiry sweep
	modSvc := moderation.NewService(store, notifier)
	modSvc.Kicker = hub

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	if _, err := moderation.ScheduleSweep(scheduler, modSvc, cfg.SuspensionSweepInterval); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule suspension sweep")
	}
	scheduler.Start()

	// 4. HTTP
	if !cfg.LogPretty {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	h := handler.NewHandler(hub, store, modSvc, jwtSvc, metrics, handler.Options{
		AdminKey:       cfg.AdminAPIKey,
		AllowedOrigins: cfg.Origins(),
		SendBuffer:     cfg.SendBufferSize,
	})
	h.Routes(r, reg)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("addr", server.Addr).Msg("http server listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	hub.CloseAll()
	stopHub()

	if err := scheduler.Shutdown(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown")
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("kafka writer close")
		}
	}
	if rdb != nil {
		rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info().Msg("stopped")
}
