package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fedeportes/torneo-engine/brackets"
	"github.com/fedeportes/torneo-engine/config"
	"github.com/fedeportes/torneo-engine/db"
	"github.com/fedeportes/torneo-engine/handlers"
	"github.com/fedeportes/torneo-engine/repositories"
	api "github.com/fedeportes/torneo-engine/routes"
	"github.com/fedeportes/torneo-engine/services"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(dbConn, cfg.MigrationsPath); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied")

	wsHub := brackets.NewHub()
	go wsHub.Run()
	logger.Info("websocket hub started")

	txManager := repositories.NewTxManager(dbConn)
	phaseRepo := repositories.NewPostgresPhaseRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	participationRepo := repositories.NewPostgresParticipationRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	matchGameRepo := repositories.NewPostgresMatchGameRepository(dbConn)
	logger.Info("repositories initialized")

	bracketService := services.NewBracketService(txManager, phaseRepo, matchRepo, participationRepo, wsHub, logger)
	progressionService := services.NewProgressionService(txManager, matchRepo, participationRepo, wsHub, logger)
	groupService := services.NewGroupService(txManager, phaseRepo, matchRepo, participationRepo, standingRepo, matchGameRepo, wsHub, logger)
	seriesService := services.NewSeriesService(txManager, phaseRepo, matchRepo, participationRepo, wsHub, logger)
	logger.Info("services initialized")

	bracketHandler := handlers.NewBracketHandler(bracketService, progressionService)
	standingsHandler := handlers.NewStandingsHandler(groupService)
	seriesHandler := handlers.NewSeriesHandler(seriesService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)

	router := chi.NewRouter()
	api.SetupRoutes(router, cfg.CORSAllowedOrigins, bracketHandler, standingsHandler, seriesHandler, webSocketHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
