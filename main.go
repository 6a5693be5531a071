package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/giygas/smartpharmacy-api/assistant"
	"github.com/giygas/smartpharmacy-api/catalog"
	"github.com/giygas/smartpharmacy-api/config"
	"github.com/giygas/smartpharmacy-api/forecast"
	"github.com/giygas/smartpharmacy-api/handlers"
	"github.com/giygas/smartpharmacy-api/health"
	"github.com/giygas/smartpharmacy-api/interfaces"
	"github.com/giygas/smartpharmacy-api/logging"
	"github.com/giygas/smartpharmacy-api/orders"
	"github.com/giygas/smartpharmacy-api/pharmacy"
	"github.com/giygas/smartpharmacy-api/prescription"
	"github.com/giygas/smartpharmacy-api/scheduler"
	"github.com/giygas/smartpharmacy-api/server"
	"github.com/giygas/smartpharmacy-api/validation"
	"github.com/joho/godotenv"
)

func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	// If failed, try loading from executable directory
	ex, err := os.Executable()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to get executable path:", err)
		os.Exit(1)
	}
	exPath := filepath.Dir(ex)
	if err := os.Chdir(exPath); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to change directory:", err)
		os.Exit(1)
	}
	// Running without a .env file is fine; the environment may carry everything
	_ = godotenv.Load()
}

// newCatalogSource opens the drug and cosmetics sources. Both come from the
// same MySQL database when it is configured.
func newCatalogSource(cfg *config.Config) (interfaces.CatalogSource, interfaces.CosmeticsSource, io.Closer, error) {
	if cfg.CatalogSource == config.CatalogSourceMySQL {
		source, err := catalog.NewMySQLSource(cfg.MySQLDSN, cfg.CatalogMaxEntries)
		if err != nil {
			return nil, nil, nil, err
		}
		return source, source, source, nil
	}
	return catalog.NewCSVSource(cfg.CatalogMaxEntries, cfg.CatalogPaths...),
		catalog.NewCosmeticsCSVSource(cfg.CosmeticsPaths...), nil, nil
}

func newOrderStore(cfg *config.Config) interfaces.OrderStore {
	if cfg.OrderStore == config.OrderStoreRedis {
		logging.Info("Using redis order store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return orders.NewRedisStore(orders.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), cfg.OrderTTL)
	}
	logging.Info("Using in-memory order store")
	return orders.NewMemoryStore()
}

func newAIProvider(cfg *config.Config) interfaces.AIProvider {
	if !assistant.LooksLikeAPIKey(cfg.GeminiAPIKey) {
		logging.Warn("No usable Gemini API key, assistant answers locally")
		return nil
	}
	return assistant.NewGeminiProvider(cfg.GeminiAPIKey)
}

func main() {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Configuration error:", err)
		os.Exit(1)
	}

	if err := logging.Init(logging.Options{
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		Dir:            cfg.LogDir,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logging:", err)
		os.Exit(1)
	}
	defer logging.Close()

	source, cosmetics, closer, err := newCatalogSource(cfg)
	if err != nil {
		logging.Error("Failed to open catalog source", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}

	drugs := catalog.New(source, validation.NewDataValidator())
	pharmacies := pharmacy.Default()
	store := newOrderStore(cfg)
	history := forecast.NewMemoryHistory()

	sched := scheduler.NewScheduler(drugs, cfg.CatalogRefreshTimes)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	h := handlers.NewHTTPHandler(handlers.Deps{
		Catalog:    drugs,
		Pharmacies: pharmacies,
		Validator:  prescription.NewValidator(drugs, nil),
		Orders:     orders.NewService(drugs, pharmacies, nil, store, orders.WithDemandRecorder(history)),
		Assistant:  assistant.NewService(newAIProvider(cfg), cfg.AITimeout),
		Screen:     validation.NewDataValidator(),
		Health:     health.NewHealthChecker(drugs, store, sched),
		Cosmetics:  catalog.NewCosmetics(cosmetics),
		Forecast:   forecast.NewService(history),
	})
	srv := server.NewServer(cfg, h)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown failed", "error", err)
	}
}
