package httpapi

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/i474232898/energy-dashboard-api/internal/apperr"
	"github.com/i474232898/energy-dashboard-api/internal/appliance"
	"github.com/i474232898/energy-dashboard-api/internal/energy"
	"github.com/i474232898/energy-dashboard-api/internal/weather"
)

var validate = newValidator()

// newValidator reports fields by their query parameter names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

const defaultSampleSize = 5

type WeatherService interface {
	GetForecast(ctx context.Context, zipcode string) (weather.FormattedForecast, error)
}

type EnergyService interface {
	GetResidentialRate(ctx context.Context, address string) (energy.ResidentialRate, error)
	GetHistoricalUsage(ctx context.Context, q energy.UsageQuery) (energy.UsageReport, error)
}

type ApplianceCatalog interface {
	Sample(name string, sampleSize int) (appliance.Samples, bool)
	SampleAll(sampleSize int) appliance.AllSamples
	Average(name string) (appliance.Average, bool)
	Averages() appliance.AllAverages
}

// Services groups the backends the routes dispatch to.
type Services struct {
	Weather    WeatherService
	Energy     EnergyService
	Appliances ApplianceCatalog
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Services, log zerolog.Logger) {
	api := app.Group("/api")

	api.Get("/weather", func(c *fiber.Ctx) error {
		q := weatherQuery{ZipCode: c.Query("zipcode")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "ZIP code is required")
		}

		forecast, err := svc.Weather.GetForecast(c.UserContext(), q.ZipCode)
		if err != nil {
			return failure(log, c, err, "Failed to fetch weather data")
		}
		return c.JSON(forecast)
	})

	api.Get("/electric-cost", func(c *fiber.Ctx) error {
		q := addressQuery{Address: c.Query("address")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Address or ZIP code is required")
		}

		rate, err := svc.Energy.GetResidentialRate(c.UserContext(), q.Address)
		if err != nil {
			return failure(log, c, err, "Failed to fetch electricity cost data")
		}
		return c.JSON(rate)
	})

	api.Get("/electric-usage", func(c *fiber.Ctx) error {
		q := usageQuery{
			State:     c.Query("state"),
			Sector:    c.Query("sector"),
			Start:     c.Query("start"),
			End:       c.Query("end"),
			Frequency: c.Query("frequency"),
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
		}

		report, err := svc.Energy.GetHistoricalUsage(c.UserContext(), q.toUsageQuery())
		if err != nil {
			return failure(log, c, err, "Failed to fetch electricity usage data")
		}
		return c.JSON(report)
	})

	api.Get("/appliances", func(c *fiber.Ctx) error {
		q, err := parseApplianceQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if q.Average {
			if avg, ok := svc.Appliances.Average(q.Name); ok {
				return c.JSON(avg)
			}
			return c.JSON(svc.Appliances.Averages())
		}

		if samples, ok := svc.Appliances.Sample(q.Name, q.SampleSize); ok {
			return c.JSON(samples)
		}
		return c.JSON(svc.Appliances.SampleAll(q.SampleSize))
	})

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
}

// failure maps service errors onto responses: classified errors are the
// caller's 400, anything else is logged and hidden behind fallback.
func failure(log zerolog.Logger, c *fiber.Ctx, err error, fallback string) error {
	if appErr, ok := apperr.As(err); ok {
		return fiber.NewError(fiber.StatusBadRequest, appErr.Message)
	}

	log.Error().
		Err(err).
		Str("path", c.Path()).
		Interface("request_id", c.Locals("requestid")).
		Msg("unclassified service error")
	return fiber.NewError(fiber.StatusInternalServerError, fallback)
}

// validationMessage renders validator failures as client-facing text.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid query parameters"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	name, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "len":
		return fmt.Sprintf("%s must be a %s-letter code", name, param)
	case "alpha":
		return name + " must contain only letters"
	case "alphanum":
		return name + " must contain only letters and digits"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, param)
	case "min":
		return fmt.Sprintf("%s must be >= %s", name, param)
	case "datetime":
		return name + " must use the YYYY-MM format"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(param, " ", ", "))
	default:
		return name + " is invalid"
	}
}

type weatherQuery struct {
	ZipCode string `validate:"required"`
}

type addressQuery struct {
	Address string `validate:"required"`
}

// usageQuery leaves blanks to the service defaults.
type usageQuery struct {
	State     string `query:"state" validate:"omitempty,len=2,alpha"`
	Sector    string `query:"sector" validate:"omitempty,alphanum,max=4"`
	Start     string `query:"start" validate:"omitempty,datetime=2006-01"`
	End       string `query:"end" validate:"omitempty,datetime=2006-01"`
	Frequency string `query:"frequency" validate:"omitempty,oneof=monthly quarterly annual"`
}

func (q usageQuery) toUsageQuery() energy.UsageQuery {
	return energy.UsageQuery{
		State:     q.State,
		Sector:    q.Sector,
		Start:     q.Start,
		End:       q.End,
		Frequency: q.Frequency,
	}
}

type applianceQuery struct {
	Name       string `query:"name"`
	Average    bool   `query:"average"`
	SampleSize int    `query:"sample_size" validate:"min=1"`
}

func parseApplianceQuery(c *fiber.Ctx) (applianceQuery, error) {
	q := applianceQuery{
		Name:       c.Query("name"),
		SampleSize: defaultSampleSize,
	}

	if raw := c.Query("average"); raw != "" {
		avg, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fiber.NewError(fiber.StatusBadRequest, "average must be a boolean")
		}
		q.Average = avg
	}

	if raw := c.Query("sample_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, fiber.NewError(fiber.StatusBadRequest, "sample_size must be an integer")
		}
		q.SampleSize = n
	}

	if err := validate.Struct(q); err != nil {
		return q, errors.New(validationMessage(err))
	}
	return q, nil
}
