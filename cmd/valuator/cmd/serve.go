package cmd

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

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hossamelshenawy/device-valuator/internal/api/handlers"
	"github.com/hossamelshenawy/device-valuator/internal/api/middleware"
	"github.com/hossamelshenawy/device-valuator/internal/config"
	"github.com/hossamelshenawy/device-valuator/internal/engine"
	"github.com/hossamelshenawy/device-valuator/internal/store"
	"github.com/hossamelshenawy/device-valuator/pkg/logger"
	"github.com/hossamelshenawy/device-valuator/pkg/market"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and reference price scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN())
	cancel()
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer st.Close()

	eng := buildEngine(cfg, st, log)

	sched, err := engine.NewScheduler(
		st,
		cfg.Schedule.PruneInterval,
		cfg.Valuation.ReferenceTTL,
		logger.ForComponent(log, "scheduler"),
	)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	e := newServer(cfg, eng, st, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// newServer builds the Echo instance with middleware, operational
// endpoints, and the versioned API.
func newServer(cfg *config.Config, eng *engine.Engine, st store.Store, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if cfg.Server.ReadTimeout > 0 {
		e.Server.ReadTimeout = cfg.Server.ReadTimeout
	}
	if cfg.Server.WriteTimeout > 0 {
		e.Server.WriteTimeout = cfg.Server.WriteTimeout
	}

	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Recovery(log))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("Device Valuator API", Version))
	handlers.RegisterValuationRoutes(api, handlers.NewValuationsHandler(eng))
	handlers.RegisterConditionRoutes(api, handlers.NewConditionsHandler(
		buildPenalties(cfg.Valuation.Penalties),
	))
	handlers.RegisterBandRoutes(api, handlers.NewBandsHandler(
		buildRates(cfg.Rates),
		market.Config{
			MinSamples:     cfg.Valuation.MinSamples,
			LowPercentile:  cfg.Valuation.LowPercentile,
			HighPercentile: cfg.Valuation.HighPercentile,
			DedupWindow:    cfg.Valuation.DedupWindow,
		},
	))

	return e
}
