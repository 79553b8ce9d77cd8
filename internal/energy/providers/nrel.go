package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/i474232898/energy-dashboard-api/internal/apperr"
	"github.com/i474232898/energy-dashboard-api/internal/common"
	"github.com/i474232898/energy-dashboard-api/internal/energy"
)

const DefaultNRELBaseURL = "https://developer.nrel.gov/api/utility_rates/v3.json"

const msgNoResidentialRate = "No residential rate data available."

// NRELProvider implements energy.RateProvider for the NREL utility rates API.
type NRELProvider struct {
	apiKey  string
	baseURL string
	httpCfg common.HTTPClientConfig
	logger  zerolog.Logger
}

func NewNRELProvider(client *http.Client, baseURL, apiKey string, logger zerolog.Logger) *NRELProvider {
	if baseURL == "" {
		baseURL = DefaultNRELBaseURL
	}
	return &NRELProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: common.HTTPClientConfig{
			Client: client,
			Retry:  common.RetryConfig{MaxAttempts: 1},
			Headers: map[string]string{
				"Accept": "application/json",
			},
		},
		logger: logger.With().Str("component", "nrel-provider").Logger(),
	}
}

func (p *NRELProvider) ResidentialRate(ctx context.Context, address string) (energy.ResidentialRate, error) {
	if p.apiKey == "" {
		return energy.ResidentialRate{}, apperr.New(apperr.KindUpstreamUnavailable, "Utility rates API key is not configured.")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("api_key", p.apiKey)
		values.Set("address", address)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := common.DoRequestWithResilience(ctx, p.httpCfg, nil, buildRequest)
	if err != nil {
		return energy.ResidentialRate{}, upstreamError(err)
	}

	var payload struct {
		Outputs map[string]json.RawMessage `json:"outputs"`
	}
	if err := common.DecodeJSON(resp, &payload); err != nil {
		return energy.ResidentialRate{}, apperr.Wrap(apperr.KindUpstreamProtocol, err, "Unexpected API response format")
	}

	rawRate, ok := payload.Outputs["residential"]
	if !ok {
		return energy.ResidentialRate{}, apperr.Protocol(msgNoResidentialRate)
	}

	// The API reports "no data" as a string or null instead of a number.
	var rate *float64
	if err := json.Unmarshal(rawRate, &rate); err != nil || rate == nil {
		p.logger.Debug().Str("address", address).RawJSON("residential", rawRate).Msg("residential rate is not numeric")
		return energy.ResidentialRate{}, apperr.Protocol(msgNoResidentialRate)
	}

	name := "Unknown"
	if rawName, ok := payload.Outputs["utility_name"]; ok {
		var s string
		if err := json.Unmarshal(rawName, &s); err == nil && strings.TrimSpace(s) != "" {
			name = s
		}
	}

	return energy.ResidentialRate{UtilityName: name, ResidentialRate: *rate}, nil
}

// upstreamError converts a failed single-shot request into a client-facing error.
func upstreamError(err error) error {
	var statusErr *common.StatusError
	if errors.As(err, &statusErr) {
		return apperr.Wrap(apperr.KindUpstreamUnavailable, err, "API request failed with status code %d", statusErr.Code)
	}
	cause := err
	var retryErr *common.RetryError
	if errors.As(err, &retryErr) {
		cause = retryErr.Err
	}
	return apperr.Wrap(apperr.KindUpstreamUnavailable, err, "API request failed: %v", cause)
}
