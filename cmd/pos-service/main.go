package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/cascade"
	"github.com/vasiliy-maslov/restaurant-pos/internal/config"
	"github.com/vasiliy-maslov/restaurant-pos/internal/db"
	"github.com/vasiliy-maslov/restaurant-pos/internal/events"
	posHttp "github.com/vasiliy-maslov/restaurant-pos/internal/handler/http"
	"github.com/vasiliy-maslov/restaurant-pos/internal/pos"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store/memory"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store/postgres"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg.App)

	log.Info().Msg("POS service starting...")

	mode, err := cascade.ParseMode(cfg.RPC.CascadeMode)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid cascade mode")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore := openStore(ctx, cfg)
	defer closeStore()

	publisher := openPublisher(cfg.App.Name, cfg.Events)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close event publisher")
		}
	}()

	registry := pos.NewRegistry(pos.Deps{
		Store:       store.WithTimeout(st, cfg.RPC.CallTimeout),
		Publisher:   publisher,
		CascadeMode: mode,
	})
	log.Info().Strs("procedures", registry.Names()).Str("cascade_mode", string(mode)).Msg("Procedures registered")

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      posHttp.NewRouter(registry, cfg.RPC.BasePath),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Str("base_path", cfg.RPC.BasePath).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

func setupLogger(app config.AppConfig) {
	level, err := zerolog.ParseLevel(app.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if app.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", app.Name).Logger()
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, func()) {
	if cfg.StoreDriver == "memory" {
		log.Warn().Msg("Using in-memory store; data is lost on restart")
		return memory.New(), func() {}
	}

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if cfg.Postgres.AutoMigrate {
		if err := db.Migrate(cfg.Postgres.MigrationURL()); err != nil {
			pg.Close()
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}
	return postgres.New(pg.Pool), pg.Close
}

func openPublisher(name string, cfg config.EventsConfig) events.Publisher {
	switch cfg.Driver {
	case "nats":
		p, err := events.NewNATSPublisher(cfg.NATSURL, name)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.NATSURL).Msg("Failed to connect to NATS")
		}
		log.Info().Str("url", cfg.NATSURL).Msg("Publishing events to NATS")
		return p
	case "amqp":
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatal().Err(err).Str("exchange", cfg.AMQPExchange).Msg("Failed to connect to RabbitMQ")
		}
		log.Info().Str("exchange", cfg.AMQPExchange).Msg("Publishing events to RabbitMQ")
		return p
	default:
		return events.Noop{}
	}
}
