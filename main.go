package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"dealerchat/internal/chat"
	"dealerchat/internal/config"
	"dealerchat/internal/llm"
	"dealerchat/internal/search"
	"dealerchat/internal/store"
	transport "dealerchat/internal/transport/http"
	"dealerchat/policy"
)

func main() {
	// Load configuration
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	log.Info().
		Int("http_port", cfg.HTTPPort).
		Str("db_driver", cfg.DBDriver).
		Str("grounding_mode", cfg.GroundingMode).
		Msg("starting dealerchat")

	ctx := context.Background()

	// Initialize store
	db, err := newStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer db.Close()

	// Initialize completion/embedding endpoint
	endpoint := llm.NewEndpoint(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.ChatModel, cfg.EmbedModel, cfg.LLMTimeout)

	// Initialize search index client
	index := search.NewClient(search.Config{
		Endpoint: cfg.SearchEndpoint,
		APIKey:   cfg.SearchAPIKey,
		Index:    cfg.SearchIndex,
		Timeout:  cfg.SearchTimeout,
	})
	expander := chat.NewExpander(endpoint, index, cfg.RetrievalK, cfg.RetrievalTop, cfg.NeighborWindow, log)

	// Initialize policy engine
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize policy engine")
	}

	orch := chat.NewOrchestrator(db, endpoint, expander, policyEngine, chat.Config{
		MaxTokens:    cfg.MaxTokens,
		Temperature:  cfg.Temperature,
		Mode:         chat.GroundingMode(cfg.GroundingMode),
		SystemPrompt: cfg.SystemPrompt,
		Window: chat.WindowConfig{
			Ceiling:         cfg.MaxTokens,
			Threshold:       cfg.CompressThreshold,
			RetainHead:      cfg.RetainHead,
			RetainTail:      cfg.RetainTail,
			RetainCap:       cfg.RetainCap,
			ShortRetainTail: cfg.ShortRetainTail,
		},
	}, log)

	server := transport.NewServer(orch, db, log)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()
	log.Info().Int("port", cfg.HTTPPort).Msg("API started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newStore builds the configured store backend, wrapped in the redis history
// cache when REDIS_URL is set.
func newStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	var (
		db  store.Store
		err error
	)
	switch cfg.DBDriver {
	case "postgres":
		db, err = store.NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		db, err = store.NewSQLiteStore(cfg.DatabaseURL)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RedisURL == "" {
		return db, nil
	}
	cached, err := store.NewCachedStore(ctx, db, cfg.RedisURL, log)
	if err != nil {
		return nil, err
	}
	return cached, nil
}
