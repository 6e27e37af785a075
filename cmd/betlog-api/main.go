package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/betlog"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/config"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/db"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/display"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/logger"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/middleware"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/syncjob"
)

const serviceName = "betlog-api"

func main() {
	cfg, err := config.Load(os.Getenv("BETLOG_CONFIG"))
	if err != nil {
		panic(err)
	}

	log, err := logger.New(serviceName, cfg.App.Env, cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Dates, months and times of day are filtered in the display timezone
	formatter, err := display.NewFormatter(cfg.Display.Timezone)
	if err != nil {
		log.Fatal("invalid display timezone", zap.Error(err))
	}

	store, err := db.NewBetlogPostgres(cfg.DB, formatter.Location())
	if err != nil {
		log.Fatal("failed to connect to bet log database", zap.Error(err))
	}
	defer store.Close()
	log.Info("connected to bet log database")

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatal("failed to parse redis url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Redis is a cache; reads fall back to Postgres when it is down
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, serving from postgres", zap.Error(err))
	} else {
		log.Info("connected to redis")
	}
	pingCancel()

	cached := db.NewCachedBetlog(store, redisClient, cfg.Redis.CacheTTL, log)

	writer := syncjob.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.SyncTopic)
	defer writer.Close()
	syncService := syncjob.NewService(syncjob.NewKafkaPublisher(writer), cached, log)

	baseCtx, stop := context.WithCancel(context.Background())
	defer stop()

	var runner *syncjob.Runner
	if cfg.Sync.Schedule != "" {
		runner = syncjob.NewRunner(log, baseCtx)
		if _, err := runner.ScheduleSync(cfg.Sync.Schedule, cfg.Sync.Season, syncService); err != nil {
			log.Fatal("invalid sync schedule", zap.String("schedule", cfg.Sync.Schedule), zap.Error(err))
		}
		runner.Start()
	}

	handler := handlers.NewHandler(serviceName, cached, log)
	betHandler := handlers.NewBetHandler(cached, syncService, cfg.Sync.AdminToken, cfg.IsLocal(), log)

	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(metrics.Middleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", betlog.AdminTokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/bets", betHandler.GetBets)
		r.Get("/stats", betHandler.GetStats)
		r.Get("/tournaments", betHandler.GetTournaments)
		r.Get("/season-data", betHandler.GetSeasonData)
		r.Post("/sync", betHandler.TriggerSync)
	})

	srv := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.HTTPAddr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("server error", zap.Error(err))

	case sig := <-shutdown:
		log.Info("received signal", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Warn("graceful shutdown failed", zap.Error(err))
			if err := srv.Close(); err != nil {
				log.Error("could not stop server", zap.Error(err))
			}
		}
	}

	stop()
	if runner != nil {
		runner.Stop()
	}

	log.Info("shutdown complete")
}
