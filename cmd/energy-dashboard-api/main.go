package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	httpapi "github.com/i474232898/energy-dashboard-api/internal/api/http"
	"github.com/i474232898/energy-dashboard-api/internal/appliance"
	"github.com/i474232898/energy-dashboard-api/internal/common"
	"github.com/i474232898/energy-dashboard-api/internal/config"
	"github.com/i474232898/energy-dashboard-api/internal/energy"
	energyproviders "github.com/i474232898/energy-dashboard-api/internal/energy/providers"
	"github.com/i474232898/energy-dashboard-api/internal/geo"
	"github.com/i474232898/energy-dashboard-api/internal/weather"
	weatherproviders "github.com/i474232898/energy-dashboard-api/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot build logger")
	}
	log.Logger = logger

	// Shared HTTP client; Timeout bounds every individual attempt.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	var geocoder *geo.Geocoder
	if cfg.Geocoder.DatasetPath != "" {
		geocoder, err = geo.LoadFile(cfg.Geocoder.DatasetPath, logger)
	} else {
		geocoder, err = geo.LoadDefault(logger)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot load postal code dataset")
	}
	logger.Info().Int("postal_codes", geocoder.Len()).Msg("geocoder ready")
	if cfg.Geocoder.DatasetPath == "" && geocoder.Len() < geo.FullDatasetSize {
		logger.Warn().
			Int("postal_codes", geocoder.Len()).
			Msg("embedded postal table is partial; run go generate ./internal/geo or set GEOCODER_DATASET")
	}

	nws := weatherproviders.NewNWSProvider(httpClient, weatherproviders.NWSConfig{
		BaseURL:   cfg.Weather.BaseURL,
		UserAgent: cfg.Weather.UserAgent,
		Retry: common.RetryConfig{
			MaxAttempts: cfg.Weather.MaxAttempts,
			Delay:       cfg.Weather.RetryDelay,
		},
		CircuitBreaker: cfg.Weather.CircuitBreaker,
	}, logger)

	if cfg.NREL.APIKey == "" {
		logger.Warn().Msg("NREL_API_KEY is not set; /api/electric-cost will fail")
	}
	if cfg.EIA.APIKey == "" {
		logger.Warn().Msg("EIA_API_KEY is not set; /api/electric-usage will fail")
	}
	if !cfg.Kaggle.HasCredentials() {
		logger.Warn().Msg("Kaggle credentials not found, appliance data will be served from the built-in mock dataset")
	}

	services := httpapi.Services{
		Weather: weather.NewService(geocoder, nws, logger),
		Energy: energy.NewService(
			energyproviders.NewNRELProvider(httpClient, cfg.NREL.BaseURL, cfg.NREL.APIKey, logger),
			energyproviders.NewEIAProvider(httpClient, cfg.EIA.BaseURL, cfg.EIA.APIKey, logger),
			logger,
		),
		Appliances: appliance.NewMockDataset(),
	}

	app := httpapi.NewApp(services, logger)

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
}
