package weather

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/i474232898/energy-dashboard-api/internal/apperr"
)

const (
	msgZipNotFound    = "ZIP code not found in provided location data."
	msgInvalidZipCode = "Invalid ZIP code or unable to fetch coordinates."
)

// Service runs the ZIP -> coordinates -> grid -> forecast pipeline.
// It holds no per-request state and is shared by all handlers.
type Service struct {
	geocoder Geocoder
	provider Provider
	logger   zerolog.Logger
}

// NewService creates a new Service.
func NewService(geocoder Geocoder, provider Provider, logger zerolog.Logger) *Service {
	return &Service{
		geocoder: geocoder,
		provider: provider,
		logger:   logger.With().Str("component", "weather-service").Logger(),
	}
}

// FetchForecast returns the upstream forecast document for loc. The
// geocoder fills loc.Coordinates when they are not already set.
// Every failure is returned as an *apperr.Error.
func (s *Service) FetchForecast(ctx context.Context, loc *Location) (ForecastDocument, error) {
	zipcode := strings.TrimSpace(loc.ZipCode)
	if zipcode == "" {
		return nil, apperr.Validation(msgZipNotFound)
	}

	if loc.Coordinates == nil {
		resolved, ok := s.geocoder.Resolve(zipcode)
		if !ok {
			s.logger.Info().Str("zipcode", zipcode).Msg("unable to geocode zip code")
			return nil, apperr.Validation(msgInvalidZipCode)
		}
		loc.Coordinates = &resolved
	}
	coords := *loc.Coordinates

	s.logger.Debug().
		Str("zipcode", zipcode).
		Str("provider", s.provider.Name()).
		Float64("lat", coords.Latitude).
		Float64("lon", coords.Longitude).
		Msg("fetching forecast")

	grid, err := s.provider.LookupGrid(ctx, coords)
	if err != nil {
		return nil, s.fail(zipcode, "grid lookup", err)
	}

	doc, err := s.provider.FetchForecast(ctx, grid)
	if err != nil {
		return nil, s.fail(zipcode, "forecast fetch", err)
	}

	return doc, nil
}

// GetForecast fetches and formats the forecast for a ZIP code.
func (s *Service) GetForecast(ctx context.Context, zipcode string) (FormattedForecast, error) {
	doc, err := s.FetchForecast(ctx, &Location{ZipCode: zipcode})
	if err != nil {
		return FormattedForecast{}, err
	}

	formatted, err := Format(doc)
	if err != nil {
		s.logger.Warn().Err(err).Str("zipcode", zipcode).Msg("unable to format forecast")
		return FormattedForecast{}, err
	}
	return formatted, nil
}

func (s *Service) fail(zipcode, step string, err error) error {
	appErr := apperr.Ensure(err)
	s.logger.Warn().
		Err(appErr.Err).
		Str("zipcode", zipcode).
		Str("step", step).
		Str("kind", string(appErr.Kind)).
		Int("attempts", appErr.Attempts).
		Msg(appErr.Message)
	return appErr
}
