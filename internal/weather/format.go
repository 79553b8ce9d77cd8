package weather

import (
	"encoding/json"

	"github.com/i474232898/energy-dashboard-api/internal/apperr"
)

// MaxUpcomingPeriods caps FormattedForecast.Forecast.
const MaxUpcomingPeriods = 5

const msgNoForecastData = "No forecast data available"

// Format projects a raw forecast document into the client view. The first
// period becomes Current; up to MaxUpcomingPeriods following periods become
// Forecast, in upstream order.
func Format(doc ForecastDocument) (FormattedForecast, error) {
	var payload struct {
		Properties struct {
			Periods []ForecastPeriod `json:"periods"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(doc, &payload); err != nil {
		return FormattedForecast{}, apperr.Wrap(apperr.KindFormatting, err, "Error formatting weather data: %v", err)
	}

	periods := payload.Properties.Periods
	if len(periods) == 0 {
		return FormattedForecast{}, apperr.New(apperr.KindFormatting, msgNoForecastData)
	}

	upcoming := periods[1:]
	if len(upcoming) > MaxUpcomingPeriods {
		upcoming = upcoming[:MaxUpcomingPeriods]
	}

	forecast := make([]PeriodSummary, 0, len(upcoming))
	for _, p := range upcoming {
		forecast = append(forecast, summarize(p))
	}

	return FormattedForecast{
		Current:  currentConditions(periods[0]),
		Forecast: forecast,
	}, nil
}

func currentConditions(p ForecastPeriod) CurrentConditions {
	// Missing isDaytime is treated as daytime.
	isDaytime := true
	if p.IsDaytime != nil {
		isDaytime = *p.IsDaytime
	}

	return CurrentConditions{
		Temperature:      p.Temperature,
		TemperatureUnit:  p.TemperatureUnit,
		ShortForecast:    p.ShortForecast,
		DetailedForecast: p.DetailedForecast,
		WindSpeed:        p.WindSpeed,
		WindDirection:    p.WindDirection,
		Icon:             p.Icon,
		IsDaytime:        isDaytime,
	}
}

func summarize(p ForecastPeriod) PeriodSummary {
	return PeriodSummary{
		Name:            p.Name,
		Temperature:     p.Temperature,
		TemperatureUnit: p.TemperatureUnit,
		ShortForecast:   p.ShortForecast,
		Icon:            p.Icon,
		WindSpeed:       p.WindSpeed,
	}
}
