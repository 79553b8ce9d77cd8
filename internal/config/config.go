package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"oneof=trace debug info warn error fatal panic disabled"`
	LogFormat string `validate:"oneof=json console"`

	// HTTPTimeout bounds each individual outbound attempt.
	HTTPTimeout time.Duration `validate:"gt=0"`

	Weather  WeatherConfig
	Geocoder GeocoderConfig
	NREL     APIConfig
	EIA      APIConfig
	Kaggle   KaggleConfig
}

type WeatherConfig struct {
	BaseURL        string        `validate:"required,url"`
	UserAgent      string        `validate:"required"`
	MaxAttempts    int           `validate:"min=1"`
	RetryDelay     time.Duration `validate:"gte=0"`
	CircuitBreaker bool
}

type GeocoderConfig struct {
	// DatasetPath points at a GeoNames postal file; empty means the embedded sample.
	DatasetPath string
}

type APIConfig struct {
	BaseURL string `validate:"required,url"`
	APIKey  string
}

type KaggleConfig struct {
	Username string
	Key      string
}

// HasCredentials reports whether both Kaggle variables are set.
func (k KaggleConfig) HasCredentials() bool {
	return k.Username != "" && k.Key != ""
}

var validate = validator.New()

// Load reads configuration from the environment (after a best-effort .env load)
// with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Err(err).Msg("no .env file found or error loading it")
	}
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("HTTP_TIMEOUT", "10s")

	v.SetDefault("WEATHER_BASE_URL", "https://api.weather.gov")
	v.SetDefault("WEATHER_USER_AGENT", "(Universal Energy Management System, contact@example.com)")
	v.SetDefault("WEATHER_MAX_ATTEMPTS", 3)
	v.SetDefault("WEATHER_RETRY_DELAY", "1s")
	v.SetDefault("CIRCUIT_BREAKER_ENABLED", false)

	v.SetDefault("NREL_BASE_URL", "https://developer.nrel.gov/api/utility_rates/v3.json")
	v.SetDefault("EIA_BASE_URL", "https://api.eia.gov/v2")

	if err := bindEnv(v, envBindings); err != nil {
		return nil, err
	}
	return v, nil
}

// envBindings lists keys without defaults, each followed by the variables
// that may carry it. Older .env files use lower-case key names.
var envBindings = [][]string{
	{"NREL_API_KEY", "NREL_API_KEY", "nreal_api_key"},
	{"EIA_API_KEY", "EIA_API_KEY", "eia_api_key"},
	{"KAGGLE_USERNAME"},
	{"KAGGLE_KEY"},
	{"GEOCODER_DATASET"},
}

func bindEnv(v *viper.Viper, bindings [][]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b...); err != nil {
			return fmt.Errorf("bind env %v: %w", b, err)
		}
	}
	return nil
}

// FromViper builds and validates an AppConfig from v.
func FromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		Port:        v.GetString("PORT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogFormat:   v.GetString("LOG_FORMAT"),
		HTTPTimeout: v.GetDuration("HTTP_TIMEOUT"),
		Weather: WeatherConfig{
			BaseURL:        v.GetString("WEATHER_BASE_URL"),
			UserAgent:      v.GetString("WEATHER_USER_AGENT"),
			MaxAttempts:    v.GetInt("WEATHER_MAX_ATTEMPTS"),
			RetryDelay:     v.GetDuration("WEATHER_RETRY_DELAY"),
			CircuitBreaker: v.GetBool("CIRCUIT_BREAKER_ENABLED"),
		},
		Geocoder: GeocoderConfig{
			DatasetPath: v.GetString("GEOCODER_DATASET"),
		},
		NREL: APIConfig{
			BaseURL: v.GetString("NREL_BASE_URL"),
			APIKey:  v.GetString("NREL_API_KEY"),
		},
		EIA: APIConfig{
			BaseURL: v.GetString("EIA_BASE_URL"),
			APIKey:  v.GetString("EIA_API_KEY"),
		},
		Kaggle: KaggleConfig{
			Username: v.GetString("KAGGLE_USERNAME"),
			Key:      v.GetString("KAGGLE_KEY"),
		},
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
