package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"transcript-bridge-service/internal/app"
	"transcript-bridge-service/internal/config"
	"transcript-bridge-service/internal/events"
	httpapi "transcript-bridge-service/internal/http"
	"transcript-bridge-service/internal/observability"
	"transcript-bridge-service/internal/observability/logging"
	"transcript-bridge-service/internal/session"
	"transcript-bridge-service/internal/transcript"
	"transcript-bridge-service/internal/transport"
	"transcript-bridge-service/internal/wire"
)

func main() {
	// Load .env if present
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, falling back to environment variables")
	}

	cfg := config.Load()
	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("application start failed")
	}

	// Observability endpoints (metrics, health)
	obs := observability.NewServer(cfg.Observability.Addr)
	obs.Start()

	// Reconciliation core
	acc := transcript.NewAccumulator(logging.WithComponent("accumulator"))
	ctrl := session.New(acc, logging.WithComponent("session"))

	// Kafka sink for downstream consumers
	publisher := events.New(&events.Config{
		Enabled:          cfg.Kafka.Enabled,
		Brokers:          cfg.Kafka.Brokers,
		TopicPartial:     cfg.Kafka.TopicPartial,
		TopicFinal:       cfg.Kafka.TopicFinal,
		TopicTranslation: cfg.Kafka.TopicTranslation,
		Principal:        cfg.Kafka.Principal,
	})
	defer publisher.Close()

	// Rebroadcast hub for viewer clients
	hub := httpapi.NewHub(logging.WithComponent("hub"))
	go hub.Run()
	acc.Subscribe(hub)

	// API server
	router := httpapi.NewRouter(ctrl, hub)
	apiServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("Starting API server")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("API server failed")
		}
	}()

	// Classification boundary and subscription to the transcript source
	classifier := wire.NewClassifier(logging.WithComponent("classifier"))
	conn, err := transport.New(transport.Config{
		URL:        cfg.Source.URL,
		RetryDelay: cfg.Source.RetryDelay,
		Handler: func(payload []byte) {
			ev, ok := classifier.Classify(payload)
			if !ok {
				return
			}
			outcome := acc.Apply(ev)
			publisher.PublishOutcome(context.Background(), outcome, ev)
		},
		OnConnectionChange: acc.SetConnected,
	}, logging.WithSource(cfg.Source.URL))
	if err != nil {
		log.Fatal().Err(err).Msg("transport setup failed")
	}
	if err := conn.Connect(); err != nil {
		log.Fatal().Err(err).Msg("initial connect failed")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")
	conn.Close()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown error")
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Observability server shutdown error")
	}
	application.Shutdown()
}
