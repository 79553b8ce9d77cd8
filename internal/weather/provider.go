package weather

import (
	"context"

	"github.com/i474232898/energy-dashboard-api/internal/geo"
)

// Geocoder maps a ZIP code to coordinates without network access.
type Geocoder interface {
	Resolve(zipcode string) (geo.Coordinates, bool)
}

// Provider abstracts the two-step grid -> forecast weather service.
// Both calls return *apperr.Error values on failure.
type Provider interface {
	Name() string
	LookupGrid(ctx context.Context, coords geo.Coordinates) (GridReference, error)
	FetchForecast(ctx context.Context, grid GridReference) (ForecastDocument, error)
}
