package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/spots-api/config"
	"github.com/sidhant-sriv/spots-api/db"
	"github.com/sidhant-sriv/spots-api/logging"
	"github.com/sidhant-sriv/spots-api/middleware"
	"github.com/sidhant-sriv/spots-api/routes"
	"github.com/sidhant-sriv/spots-api/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logging.Info().Str("mode", cfg.Server.Mode).Msg("Starting spots API")

	gin.SetMode(cfg.Server.Mode)

	DB, err := db.Connect(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	if err := db.MakeMigration(DB); err != nil {
		logging.Fatal().Err(err).Msg("Failed to migrate the database")
	}
	if cfg.Database.Seed {
		if err := db.Seed(DB); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed the database")
		}
	}

	sessions := middleware.NewSessions(cfg.Auth)
	router := routes.NewRouter(DB, sessions)
	srv := server.New(cfg, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := server.NewSupervisor("spots-api", cfg.Server.ShutdownTimeout)
	sup.Add(server.NewService(srv, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", srv.Addr).Msg("Server listening")
	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor stopped")
		os.Exit(1)
	}
	logging.Info().Msg("Server stopped")
}
