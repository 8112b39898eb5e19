// Chainpool - Multi-chain RPC failover manager
//
// The connection layer behind the trading bot: a pool of rate-limited RPC
// endpoints per chain with health monitoring, retry/backoff and a
// circuit breaker, plus an admin API, Prometheus metrics and Telegram
// ops alerts.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/web3guy0/chainpool/internal/chains"
	"github.com/web3guy0/chainpool/internal/config"
	"github.com/web3guy0/chainpool/internal/gasoracle"
	"github.com/web3guy0/chainpool/internal/notify"
	"github.com/web3guy0/chainpool/internal/rpcpool"
	"github.com/web3guy0/chainpool/internal/server"
	"github.com/web3guy0/chainpool/internal/storage"
)

const version = "1.2.0"

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load environment
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().
		Str("version", version).
		Dur("health_interval", cfg.HealthCheckInterval).
		Int("max_rps", cfg.MaxRequestsPerSecond).
		Msg("⚡ Chainpool starting...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Probe history store (observability only; pool state is config-built)
	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Store unavailable, running without probe history")
		store = nil
	}

	// ====== CORE COMPONENTS ======

	// 1. Endpoint pools
	endpoints, err := cfg.Endpoints()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve endpoint configuration")
	}

	manager := rpcpool.New(chains.NewDialer(), cfg.MaxRequestsPerSecond)
	manager.SetMaxRetries(cfg.MaxRetries)
	for chain, eps := range endpoints {
		manager.AddChain(chain, eps)
	}

	connectCtx, connectCancel := context.WithTimeout(ctx, 2*time.Minute)
	manager.Connect(connectCtx)
	connectCancel()

	// 2. Health monitor - probes liveness outside the request path
	monitor := rpcpool.NewHealthMonitor(manager, cfg.HealthCheckInterval)
	if store != nil {
		monitor.SetRecorder(store)
		store.StartSnapshotLoop(ctx, cfg.SnapshotInterval, manager.Status)
	}
	monitor.Start(ctx)

	// 3. Gas oracle - startup connectivity check doubles as a cache warm
	oracle := gasoracle.New(manager)
	if gwei, gerr := oracle.GasPrice(ctx, chains.Ethereum); gerr == nil {
		log.Info().Str("gwei", gwei.StringFixed(2)).Msg("⛽ Ethereum gas price")
	} else {
		log.Warn().Err(gerr).Msg("⚠️ Ethereum gas price check failed")
	}

	// 4. Telegram ops alerter
	if cfg.TelegramToken != "" {
		notifier, nerr := notify.New(cfg.TelegramToken, cfg.TelegramChatID, manager)
		if nerr != nil {
			log.Warn().Err(nerr).Msg("⚠️ Telegram alerter disabled")
		} else {
			manager.SetEventHandler(notifier.HandleEvent)
			notifier.Start()
			defer notifier.Stop()
		}
	} else {
		log.Warn().Msg("⚠️ No TELEGRAM_BOT_TOKEN - ops alerts disabled")
	}

	// 5. Admin API
	srv := server.New(cfg.AdminAddr, manager, store)
	srv.Start(ctx)

	// ====== STARTUP COMPLETE ======
	log.Info().Strs("chains", manager.Chains()).Msg("✅ All systems online")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("🛑 Received shutdown signal")

	// Graceful shutdown
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Admin API shutdown failed")
	}

	manager.Close()
	log.Info().Msg("👋 Goodbye!")
}
