package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/avvvet/orderbot/internal/config"
	"github.com/avvvet/orderbot/internal/dialog"
	"github.com/avvvet/orderbot/internal/logger"
	"github.com/avvvet/orderbot/internal/nlu"
	"github.com/avvvet/orderbot/internal/session"
	"github.com/avvvet/orderbot/internal/transport"
)

func main() {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	log.Info("starting orderbot",
		zap.String("service", cfg.ServiceName),
		zap.String("natsURL", cfg.NatsURL),
		zap.Bool("nluConfigured", cfg.NLUConfigured()),
	)

	catalog, err := nlu.NewCatalog(cfg.Catalog)
	if err != nil {
		log.Fatal("invalid catalog", zap.Error(err))
	}

	// The extractor is optional: without credentials the bot degrades to
	// manual slot-filling.
	var extractor nlu.Extractor
	if cfg.NLUConfigured() {
		llmExtractor, err := nlu.NewLLMExtractor(cfg.NLUAPIKey, cfg.NLUModel, cfg.NLUEndpoint, cfg.NLUTimeout, catalog, log)
		if err != nil {
			log.Fatal("failed to initialize extractor", zap.Error(err))
		}
		extractor = llmExtractor
		log.Info("intent extractor initialized", zap.String("model", cfg.NLUModel))
	} else {
		log.Warn("NLU credentials not set, running in manual slot-filling mode")
	}

	store, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer store.Close()
	log.Info("Redis connected", zap.String("url", cfg.RedisURL))

	sessions, err := session.NewManager(store, log)
	if err != nil {
		log.Fatal("failed to initialize session manager", zap.Error(err))
	}
	defer sessions.Close()

	engine, err := dialog.NewEngine(extractor, catalog, cfg.MaxDatePrompts, log)
	if err != nil {
		log.Fatal("failed to initialize dialog engine", zap.Error(err))
	}

	natsTransport, err := transport.NewNATSTransport(cfg, engine, sessions, log)
	if err != nil {
		log.Fatal("failed to initialize NATS transport", zap.Error(err))
	}
	defer natsTransport.Close()

	if err := natsTransport.Start(); err != nil {
		log.Fatal("failed to start NATS transport", zap.Error(err))
	}

	log.Info("orderbot is running", zap.String("turnSubject", cfg.NatsTurnSubject))

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("shutting down", zap.String("signal", sig.String()))

	if err := sessions.Close(); err != nil {
		log.Warn("error closing session manager", zap.Error(err))
	}
	if err := natsTransport.Close(); err != nil {
		log.Warn("error closing NATS transport", zap.Error(err))
	}

	log.Info("orderbot stopped")
}
