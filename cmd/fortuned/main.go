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

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/cyberdamus-go/internal/adapters/artwork"
	"github.com/randomtoy/cyberdamus-go/internal/adapters/clock"
	httpadapter "github.com/randomtoy/cyberdamus-go/internal/adapters/http"
	"github.com/randomtoy/cyberdamus-go/internal/adapters/llm/openrouter"
	"github.com/randomtoy/cyberdamus-go/internal/adapters/storage/memory"
	"github.com/randomtoy/cyberdamus-go/internal/adapters/storage/sqlite"
	"github.com/randomtoy/cyberdamus-go/internal/app"
	"github.com/randomtoy/cyberdamus-go/internal/config"
	"github.com/randomtoy/cyberdamus-go/internal/domain"
	"github.com/randomtoy/cyberdamus-go/internal/ports"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	store, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open store", "store", cfg.Store, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	slots := clock.NewSlotClock(time.Unix(cfg.RoundGenesis, 0), cfg.SlotDuration)

	var interp ports.Interpreter
	if cfg.InterpretationEnabled() {
		interp = openrouter.NewClient(
			&http.Client{Timeout: cfg.LLMTimeout},
			cfg.OpenRouterAPIKey,
			cfg.OpenRouterBaseURL,
			cfg.LLMModel,
			cfg.LLMFallbackModels,
			logger,
		)
	} else {
		logger.Info("OPENROUTER_API_KEY not set, interpretations disabled")
	}

	oracle := app.NewOracleService(store, slots, interp, logger)
	admin := app.NewAdminService(store, slots, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ArtworkAutoseed {
		if err := bootstrap(ctx, cfg, admin, oracle); err != nil {
			logger.Error("bootstrap failed", "error", err)
			os.Exit(1)
		}
	}

	trusted, err := cfg.TrustedProxyRanges()
	if err != nil {
		logger.Error("invalid trusted proxies", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = httpadapter.IPExtractor(trusted)

	e.Use(httpadapter.RequestIDMiddleware())
	e.Use(httpadapter.LoggingMiddleware(logger))
	e.Use(httpadapter.RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	handler := httpadapter.NewHandler(oracle, admin, cfg.AdminToken)
	handler.Register(e)

	if cfg.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN not set, admin routes disabled")
	}

	go func() {
		logger.Info("starting server", "addr", cfg.HTTPAddr, "store", cfg.Store)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func openStore(cfg config.Config) (ports.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StoreSQLite:
		return sqlite.Open(sqlite.DefaultConfig(cfg.DBPath))
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// bootstrap initializes the oracle and uploads the generated card library
// when either step has not happened yet.
func bootstrap(ctx context.Context, cfg config.Config, admin *app.AdminService, oracle *app.OracleService) error {
	_, err := admin.Initialize(ctx, cfg.OracleAuthority, cfg.OracleTreasury, cfg.OracleFee)
	if err != nil && !errors.Is(err, domain.ErrAlreadyInitialized) {
		return err
	}

	status, err := oracle.ArtworkStatus(ctx)
	if err != nil {
		return err
	}
	if status.Complete {
		return nil
	}
	_, err = admin.SeedArtwork(ctx, cfg.OracleAuthority, artwork.NewDefaultLibrary())
	return err
}
