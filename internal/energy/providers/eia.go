package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/i474232898/energy-dashboard-api/internal/apperr"
	"github.com/i474232898/energy-dashboard-api/internal/common"
	"github.com/i474232898/energy-dashboard-api/internal/energy"
)

const DefaultEIABaseURL = "https://api.eia.gov/v2"

// EIAProvider implements energy.UsageProvider for the EIA v2 retail-sales dataset.
type EIAProvider struct {
	apiKey  string
	baseURL string
	httpCfg common.HTTPClientConfig
	logger  zerolog.Logger
}

func NewEIAProvider(client *http.Client, baseURL, apiKey string, logger zerolog.Logger) *EIAProvider {
	if baseURL == "" {
		baseURL = DefaultEIABaseURL
	}
	return &EIAProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: common.HTTPClientConfig{
			Client: client,
			Retry:  common.RetryConfig{MaxAttempts: 1},
			Headers: map[string]string{
				"Accept": "application/json",
			},
		},
		logger: logger.With().Str("component", "eia-provider").Logger(),
	}
}

// RetailSales fetches electricity sales for one state and sector, newest period first.
func (p *EIAProvider) RetailSales(ctx context.Context, q energy.UsageQuery) (energy.UsageReport, error) {
	if p.apiKey == "" {
		return energy.UsageReport{}, apperr.New(apperr.KindUpstreamUnavailable, "Usage statistics API key is not configured.")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("api_key", p.apiKey)
		values.Set("frequency", q.Frequency)
		values.Set("data[]", "sales")
		values.Set("facets[stateid][]", q.State)
		values.Set("facets[sectorid][]", q.Sector)
		values.Set("start", q.Start)
		values.Set("end", q.End)
		values.Set("sort[0][column]", "period")
		values.Set("sort[0][direction]", "desc")

		u := fmt.Sprintf("%s/electricity/retail-sales/data?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	p.logger.Debug().
		Str("state", q.State).
		Str("sector", q.Sector).
		Str("start", q.Start).
		Str("end", q.End).
		Msg("requesting retail sales")

	resp, err := common.DoRequestWithResilience(ctx, p.httpCfg, nil, buildRequest)
	if err != nil {
		return energy.UsageReport{}, upstreamError(err)
	}

	var payload struct {
		Response *struct {
			Total json.Number          `json:"total"`
			Data  []energy.UsageRecord `json:"data"`
		} `json:"response"`
	}
	if err := common.DecodeJSON(resp, &payload); err != nil {
		return energy.UsageReport{}, apperr.Wrap(apperr.KindUpstreamProtocol, err, "Unexpected API response format")
	}
	if payload.Response == nil {
		return energy.UsageReport{}, apperr.Protocol("Unexpected API response format")
	}

	total, err := payload.Response.Total.Int64()
	if err != nil {
		total = int64(len(payload.Response.Data))
	}

	return energy.UsageReport{
		Data:         payload.Response.Data,
		TotalRecords: int(total),
	}, nil
}
