package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const msgInternalError = "Internal server error"

// NewApp builds the fiber application with middleware, error handling and routes.
func NewApp(services Services, log zerolog.Logger) *fiber.App {
	log = log.With().Str("component", "http").Logger()

	app := fiber.New(fiber.Config{
		AppName:               "energy-dashboard-api",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          errorHandler(log),
	})

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}?${queryParams}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New())

	RegisterRoutes(app, services, log)
	return app
}

// errorHandler renders every error as {"error": "..."}. Anything that is not
// a *fiber.Error is unexpected and becomes a generic 500.
func errorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := msgInternalError

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			log.Error().
				Err(err).
				Str("path", c.Path()).
				Interface("request_id", c.Locals("requestid")).
				Msg("unhandled error")
		}

		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}
