// Command synapse runs the WHU Club Synapse AI gateway: a chat relay over a
// self-hosted vLLM server or the DashScope cloud API, plus the AI-assisted
// club management endpoints built on it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/whuclubsynapse/synapse-ai/internal/assist"
	"github.com/whuclubsynapse/synapse-ai/internal/config"
	"github.com/whuclubsynapse/synapse-ai/internal/finance"
	"github.com/whuclubsynapse/synapse-ai/internal/llm"
	"github.com/whuclubsynapse/synapse-ai/internal/relay"
	"github.com/whuclubsynapse/synapse-ai/internal/server"
	"github.com/whuclubsynapse/synapse-ai/internal/version"
	pkgllm "github.com/whuclubsynapse/synapse-ai/pkg/llm"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Local development convenience; a missing .env file is not an error.
	_ = godotenv.Load()

	// Load configuration (before logger, so log level/format can be configured).
	viperCfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("synapse gateway starting", zap.String("version", version.Short()))

	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", f),
		)
	} else {
		logger.Warn("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}

	// Backend provider.
	llmCfg := llm.DefaultConfig()
	if err := viperCfg.UnmarshalKey("llm", &llmCfg); err != nil {
		logger.Fatal("invalid llm configuration", zap.Error(err))
	}
	provider, err := llm.New(llmCfg, logger.Named("llm"))
	if err != nil {
		logger.Fatal("failed to create backend provider", zap.Error(err))
	}
	logger.Info("backend provider initialized",
		zap.String("component", "llm"),
		zap.String("provider", llmCfg.Provider),
	)

	// Chat engine.
	defaults := relay.DefaultDefaults()
	if err := viperCfg.UnmarshalKey("chat", &defaults); err != nil {
		logger.Fatal("invalid chat configuration", zap.Error(err))
	}
	engine := relay.NewEngine(provider, defaults, logger.Named("relay"))

	// Ledger store.
	ledgerPath := viperCfg.GetString("ledger.path")
	store := finance.NewStore(ledgerPath, logger.Named("ledger"))
	logger.Info("ledger store initialized",
		zap.String("component", "ledger"),
		zap.String("path", ledgerPath),
	)

	// HTTP handlers.
	info := relay.ConfigInfo{
		Provider:    llmCfg.Provider,
		Model:       activeModel(llmCfg),
		MaxTokens:   defaults.MaxTokens,
		Temperature: defaults.Temperature,
		TopP:        defaults.TopP,
	}
	relayHandler := relay.NewHandler(engine, provider, info, logger.Named("relay"))
	assistHandler := assist.NewHandler(engine, logger.Named("assist"))
	financeHandler := finance.NewHandler(engine, store, logger.Named("finance"))

	var srvCfg server.Config
	if err := viperCfg.UnmarshalKey("server", &srvCfg); err != nil {
		logger.Fatal("invalid server configuration", zap.Error(err))
	}

	ready := server.ReadinessChecker(func(ctx context.Context) error {
		if reporter, ok := provider.(pkgllm.HealthReporter); ok {
			return reporter.Heartbeat(ctx)
		}
		return nil
	})

	srv := server.New(srvCfg, logger.Named("server"), ready,
		relayHandler, assistHandler, financeHandler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server failure.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("synapse gateway stopped")
}

// activeModel returns the default model of the selected provider.
func activeModel(cfg llm.Config) string {
	if cfg.Provider == "dashscope" {
		return cfg.DashScope.Model
	}
	return cfg.VLLM.Model
}
