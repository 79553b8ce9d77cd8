package weather

import (
	"encoding/json"

	"github.com/i474232898/energy-dashboard-api/internal/geo"
)

// TemperatureUnit is the unit reported by the forecast service.
type TemperatureUnit string

const (
	Fahrenheit TemperatureUnit = "F"
	Celsius    TemperatureUnit = "C"
)

// Location is the per-request lookup input. Coordinates stay nil until geocoded.
type Location struct {
	ZipCode     string           `json:"zipcode"`
	Coordinates *geo.Coordinates `json:"coordinates,omitempty"`
}

// GridReference is the forecast endpoint discovered for a grid point.
// It is only valid for the request that fetched it.
type GridReference struct {
	ForecastURL string
}

// ForecastDocument is the raw forecast body returned by the upstream service.
type ForecastDocument json.RawMessage

// ForecastPeriod is one time slot of an upstream forecast.
type ForecastPeriod struct {
	Name             string          `json:"name"`
	Temperature      int             `json:"temperature"`
	TemperatureUnit  TemperatureUnit `json:"temperatureUnit"`
	ShortForecast    string          `json:"shortForecast"`
	DetailedForecast string          `json:"detailedForecast"`
	WindSpeed        string          `json:"windSpeed"`
	WindDirection    string          `json:"windDirection"`
	Icon             string          `json:"icon"`
	IsDaytime        *bool           `json:"isDaytime"`
}

// CurrentConditions is the display view of the first forecast period.
type CurrentConditions struct {
	Temperature      int             `json:"temperature"`
	TemperatureUnit  TemperatureUnit `json:"temperatureUnit"`
	ShortForecast    string          `json:"shortForecast"`
	DetailedForecast string          `json:"detailedForecast"`
	WindSpeed        string          `json:"windSpeed"`
	WindDirection    string          `json:"windDirection"`
	Icon             string          `json:"icon"`
	IsDaytime        bool            `json:"isDaytime"`
}

// PeriodSummary is the reduced view of an upcoming forecast period.
type PeriodSummary struct {
	Name            string          `json:"name"`
	Temperature     int             `json:"temperature"`
	TemperatureUnit TemperatureUnit `json:"temperatureUnit"`
	ShortForecast   string          `json:"shortForecast"`
	Icon            string          `json:"icon"`
	WindSpeed       string          `json:"windSpeed"`
}

// FormattedForecast is what the dashboard client receives.
// Forecast holds at most MaxUpcomingPeriods entries and never repeats Current.
type FormattedForecast struct {
	Current  CurrentConditions `json:"current"`
	Forecast []PeriodSummary   `json:"forecast"`
}
