package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/i474232898/energy-dashboard-api/internal/apperr"
	"github.com/i474232898/energy-dashboard-api/internal/common"
	"github.com/i474232898/energy-dashboard-api/internal/geo"
	"github.com/i474232898/energy-dashboard-api/internal/weather"
)

const (
	DefaultNWSBaseURL   = "https://api.weather.gov"
	DefaultNWSUserAgent = "(Universal Energy Management System, contact@example.com)"
)

const msgInvalidGridResponse = "Invalid response format from weather service."

// NWSConfig configures the National Weather Service client.
type NWSConfig struct {
	BaseURL   string
	UserAgent string
	Retry     common.RetryConfig

	// CircuitBreaker enables a shared breaker in front of both calls.
	CircuitBreaker bool
}

// NWSProvider implements weather.Provider for api.weather.gov.
type NWSProvider struct {
	name    string
	baseURL string
	httpCfg common.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

func NewNWSProvider(client *http.Client, cfg NWSConfig, logger zerolog.Logger) *NWSProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultNWSBaseURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultNWSUserAgent
	}

	var cb *gobreaker.CircuitBreaker
	if cfg.CircuitBreaker {
		cb = common.NewCircuitBreaker("nws", 10)
	}

	return &NWSProvider{
		name:    "nws",
		baseURL: baseURL,
		httpCfg: common.HTTPClientConfig{
			Client: client,
			Retry:  cfg.Retry,
			Headers: map[string]string{
				"User-Agent": userAgent,
				"Accept":     "application/json",
			},
		},
		circuit: cb,
		logger:  logger.With().Str("component", "nws-provider").Logger(),
	}
}

func (p *NWSProvider) Name() string {
	return p.name
}

// PointsURL is the grid metadata endpoint for a coordinate pair.
func (p *NWSProvider) PointsURL(coords geo.Coordinates) string {
	return fmt.Sprintf("%s/points/%s,%s",
		p.baseURL,
		strconv.FormatFloat(coords.Latitude, 'f', -1, 64),
		strconv.FormatFloat(coords.Longitude, 'f', -1, 64),
	)
}

// LookupGrid asks the points endpoint which forecast URL serves coords.
// A body without properties.forecast is a protocol error and is not retried.
func (p *NWSProvider) LookupGrid(ctx context.Context, coords geo.Coordinates) (weather.GridReference, error) {
	u := p.PointsURL(coords)
	p.logger.Debug().Str("url", u).Msg("requesting grid point")

	resp, err := p.get(ctx, u)
	if err != nil {
		return weather.GridReference{}, err
	}

	var payload struct {
		Properties *struct {
			Forecast string `json:"forecast"`
		} `json:"properties"`
	}
	if err := common.DecodeJSON(resp, &payload); err != nil {
		return weather.GridReference{}, apperr.Wrap(apperr.KindUpstreamProtocol, err, msgInvalidGridResponse)
	}
	if payload.Properties == nil || payload.Properties.Forecast == "" {
		return weather.GridReference{}, apperr.Protocol(msgInvalidGridResponse)
	}

	p.logger.Debug().Str("forecast_url", payload.Properties.Forecast).Msg("grid point resolved")
	return weather.GridReference{ForecastURL: payload.Properties.Forecast}, nil
}

// FetchForecast downloads the forecast document the grid lookup pointed at.
func (p *NWSProvider) FetchForecast(ctx context.Context, grid weather.GridReference) (weather.ForecastDocument, error) {
	if grid.ForecastURL == "" {
		return nil, apperr.Protocol(msgInvalidGridResponse)
	}
	p.logger.Debug().Str("url", grid.ForecastURL).Msg("requesting forecast")

	resp, err := p.get(ctx, grid.ForecastURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Already buffered by the retry loop.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnexpected, err, "An unexpected error occurred: %v", err)
	}
	return weather.ForecastDocument(body), nil
}

func (p *NWSProvider) get(ctx context.Context, u string) (*http.Response, error) {
	attempt := 0
	buildRequest := func() (*http.Request, error) {
		attempt++
		if attempt > 1 {
			p.logger.Warn().Str("url", u).Int("attempt", attempt).Msg("retrying weather request")
		}
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := common.DoRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err == nil {
		return resp, nil
	}

	var retryErr *common.RetryError
	switch {
	case errors.As(err, &retryErr):
		return nil, apperr.Unavailable(err, retryErr.Attempts,
			"Failed to fetch weather data after %d attempts: %v", retryErr.Attempts, retryErr.Err)
	case errors.Is(err, common.ErrCircuitOpen):
		return nil, apperr.Unavailable(err, attempt, "Weather service temporarily unavailable: %v", err)
	default:
		return nil, apperr.Wrap(apperr.KindUnexpected, err, "An unexpected error occurred: %v", err)
	}
}
