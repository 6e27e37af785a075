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
	"go.uber.org/zap"

	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/betlog"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/config"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/display"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/logger"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/middleware"
	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/reconcile"
)

const serviceName = "dashboard-gateway"

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

	formatter, err := display.NewFormatter(cfg.Display.Timezone)
	if err != nil {
		log.Fatal("invalid display timezone", zap.Error(err))
	}

	upstream := betlog.NewClient(cfg.Upstream.BaseURL, &http.Client{Timeout: cfg.Upstream.Timeout}, cfg.Upstream.AdminToken)

	// The source may start later; the dashboard degrades until it does
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := upstream.Ping(pingCtx); err != nil {
		log.Warn("bet log source unavailable", zap.String("base_url", cfg.Upstream.BaseURL), zap.Error(err))
	} else {
		log.Info("connected to bet log source", zap.String("base_url", cfg.Upstream.BaseURL))
	}
	pingCancel()

	reconciler := reconcile.New(upstream, log)

	handler := handlers.NewHandler(serviceName, upstream, log)
	dashboardHandler := handlers.NewDashboardHandler(upstream, reconciler, formatter, cfg.Display.PageSize, log)

	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(metrics.Middleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", betlog.AdminTokenHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", metrics.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dashboard", dashboardHandler.GetDashboard)
		r.Get("/season-data", dashboardHandler.GetSeasonData)
		r.Get("/tournaments", dashboardHandler.GetTournaments)
		r.Post("/sync", dashboardHandler.TriggerSync)
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

		// Give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Warn("graceful shutdown failed", zap.Error(err))
			if err := srv.Close(); err != nil {
				log.Error("could not stop server", zap.Error(err))
			}
		}
	}

	log.Info("shutdown complete")
}
