package energy

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/i474232898/energy-dashboard-api/internal/apperr"
)

// Defaults applied to empty UsageQuery fields.
const (
	DefaultUsageState     = "FL"
	DefaultUsageSector    = "ALL"
	DefaultUsageStart     = "2023-01"
	DefaultUsageEnd       = "2023-12"
	DefaultUsageFrequency = "monthly"
)

const msgAddressRequired = "Address or ZIP code is required"

// RateProvider looks up utility rates for an address.
type RateProvider interface {
	ResidentialRate(ctx context.Context, address string) (ResidentialRate, error)
}

// UsageProvider fetches historical electricity sales.
type UsageProvider interface {
	RetailSales(ctx context.Context, q UsageQuery) (UsageReport, error)
}

// Service fronts the utility-rate and usage-statistics fetchers.
type Service struct {
	rates  RateProvider
	usage  UsageProvider
	logger zerolog.Logger
}

func NewService(rates RateProvider, usage UsageProvider, logger zerolog.Logger) *Service {
	return &Service{
		rates:  rates,
		usage:  usage,
		logger: logger.With().Str("component", "energy-service").Logger(),
	}
}

// GetResidentialRate returns the residential rate for an address or ZIP code.
func (s *Service) GetResidentialRate(ctx context.Context, address string) (ResidentialRate, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return ResidentialRate{}, apperr.Validation(msgAddressRequired)
	}

	rate, err := s.rates.ResidentialRate(ctx, address)
	if err != nil {
		appErr := apperr.Ensure(err)
		s.logger.Warn().Err(appErr.Err).Str("kind", string(appErr.Kind)).Msg(appErr.Message)
		return ResidentialRate{}, appErr
	}
	return rate, nil
}

// GetHistoricalUsage returns retail electricity sales, filling unset query fields with defaults.
func (s *Service) GetHistoricalUsage(ctx context.Context, q UsageQuery) (UsageReport, error) {
	q = withDefaults(q)

	report, err := s.usage.RetailSales(ctx, q)
	if err != nil {
		appErr := apperr.Ensure(err)
		s.logger.Warn().
			Err(appErr.Err).
			Str("state", q.State).
			Str("kind", string(appErr.Kind)).
			Msg(appErr.Message)
		return UsageReport{}, appErr
	}
	if report.Data == nil {
		report.Data = []UsageRecord{}
	}
	return report, nil
}

func withDefaults(q UsageQuery) UsageQuery {
	if q.State == "" {
		q.State = DefaultUsageState
	}
	q.State = strings.ToUpper(q.State)
	if q.Sector == "" {
		q.Sector = DefaultUsageSector
	}
	if q.Start == "" {
		q.Start = DefaultUsageStart
	}
	if q.End == "" {
		q.End = DefaultUsageEnd
	}
	if q.Frequency == "" {
		q.Frequency = DefaultUsageFrequency
	}
	return q
}
