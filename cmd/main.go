package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"
	"github.com/weiawesome/wes-io-live/relay-service/internal/config"
	"github.com/weiawesome/wes-io-live/relay-service/internal/handler"
	"github.com/weiawesome/wes-io-live/relay-service/internal/hub"
	"github.com/weiawesome/wes-io-live/relay-service/internal/ice"
	"github.com/weiawesome/wes-io-live/relay-service/internal/registry"
	"github.com/weiawesome/wes-io-live/relay-service/internal/service"
	pkglog "github.com/weiawesome/wes-io-live/relay-service/pkg/log"
	"github.com/weiawesome/wes-io-live/relay-service/pkg/pubsub"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := pkglog.Init(pkglog.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, ServiceName: "relay-service"})

	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting relay-service")

	// Initialize room event bus
	var publisher pubsub.Publisher
	if cfg.Events.Enabled {
		bus, err := pubsub.NewBus(cfg.PubSub)
		if err != nil {
			logger.Warn().Err(err).Str("driver", cfg.PubSub.Driver).Msg("failed to initialize event bus, room events disabled")
		} else {
			defer bus.Close()
			publisher = bus
			logger.Info().Str("driver", cfg.PubSub.Driver).Msg("room events enabled")
		}
	}

	// Initialize hub
	wsHub := hub.NewHub(cfg.WebSocket)

	// Initialize service
	signalSvc := service.NewSignalService(registry.New(), publisher, service.Options{
		NotifyHostLeft: cfg.Signal.NotifyHostLeft,
		EventBuffer:    cfg.Events.BufferSize,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := signalSvc.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start signal service")
	}
	defer signalSvc.Stop()

	// Initialize handlers
	wsHandler := handler.NewWSHandler(wsHub, signalSvc, cfg.Signal.ReportErrors)
	gin.SetMode(gin.ReleaseMode)
	adminHandler := handler.NewAdminHandler(signalSvc, wsHub, ice.NewResolver(cfg.WebRTC))

	// Setup routes
	router := mux.NewRouter()
	router.PathPrefix("/api/").Handler(adminHandler.NewRouter(logger))

	wsRoutes := router.NewRoute().Subrouter()
	wsRoutes.Use(pkglog.HTTPMiddleware(logger))
	wsRoutes.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")
	wsHandler.RegisterRoutes(wsRoutes)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return wsHub.Run(gctx)
	})

	g.Go(func() error {
		logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("relay-service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down relay-service")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("relay-service exited with error")
	}

	logger.Info().Msg("relay-service stopped")
}
