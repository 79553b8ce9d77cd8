package weather

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/energy-dashboard-api/internal/apperr"
	"github.com/i474232898/energy-dashboard-api/internal/geo"
)

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Resolve(zipcode string) (geo.Coordinates, bool) {
	args := m.Called(zipcode)
	return args.Get(0).(geo.Coordinates), args.Bool(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) LookupGrid(ctx context.Context, coords geo.Coordinates) (GridReference, error) {
	args := m.Called(ctx, coords)
	return args.Get(0).(GridReference), args.Error(1)
}

func (m *MockProvider) FetchForecast(ctx context.Context, grid GridReference) (ForecastDocument, error) {
	args := m.Called(ctx, grid)
	doc, _ := args.Get(0).(ForecastDocument)
	return doc, args.Error(1)
}

var tampa = geo.Coordinates{Latitude: 28.05, Longitude: -82.42}

func TestFetchForecastRequiresZip(t *testing.T) {
	geocoder := new(MockGeocoder)
	provider := new(MockProvider)
	svc := NewService(geocoder, provider, zerolog.Nop())

	for _, zip := range []string{"", "   "} {
		_, err := svc.FetchForecast(context.Background(), &Location{ZipCode: zip})

		appErr, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, apperr.KindValidation, appErr.Kind)
		assert.Contains(t, appErr.Message, "ZIP code")
	}

	geocoder.AssertNotCalled(t, "Resolve", mock.Anything)
	provider.AssertNotCalled(t, "LookupGrid", mock.Anything, mock.Anything)
}

func TestFetchForecastUnknownZipMakesNoUpstreamCall(t *testing.T) {
	geocoder := new(MockGeocoder)
	provider := new(MockProvider)
	geocoder.On("Resolve", "00000").Return(geo.Coordinates{}, false)

	svc := NewService(geocoder, provider, zerolog.Nop())
	_, err := svc.FetchForecast(context.Background(), &Location{ZipCode: "00000"})

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Message, "Invalid ZIP code")

	geocoder.AssertExpectations(t)
	provider.AssertNotCalled(t, "LookupGrid", mock.Anything, mock.Anything)
	provider.AssertNotCalled(t, "FetchForecast", mock.Anything, mock.Anything)
}

func TestFetchForecastFollowsGridReference(t *testing.T) {
	grid := GridReference{ForecastURL: "https://api.weather.gov/gridpoints/TBW/71,98/forecast"}
	doc := ForecastDocument(`{"properties":{"periods":[]}}`)

	geocoder := new(MockGeocoder)
	provider := new(MockProvider)
	geocoder.On("Resolve", "33620").Return(tampa, true)
	provider.On("LookupGrid", mock.Anything, tampa).Return(grid, nil)
	provider.On("FetchForecast", mock.Anything, grid).Return(doc, nil)

	svc := NewService(geocoder, provider, zerolog.Nop())
	loc := &Location{ZipCode: "33620"}
	got, err := svc.FetchForecast(context.Background(), loc)

	require.NoError(t, err)
	assert.Equal(t, doc, got)
	require.NotNil(t, loc.Coordinates)
	assert.Equal(t, tampa, *loc.Coordinates)
	geocoder.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestFetchForecastUsesKnownCoordinates(t *testing.T) {
	grid := GridReference{ForecastURL: "https://api.weather.gov/gridpoints/TBW/71,98/forecast"}
	doc := ForecastDocument(`{"properties":{"periods":[]}}`)

	geocoder := new(MockGeocoder)
	provider := new(MockProvider)
	provider.On("LookupGrid", mock.Anything, tampa).Return(grid, nil)
	provider.On("FetchForecast", mock.Anything, grid).Return(doc, nil)

	svc := NewService(geocoder, provider, zerolog.Nop())
	coords := tampa
	got, err := svc.FetchForecast(context.Background(), &Location{ZipCode: "33620", Coordinates: &coords})

	require.NoError(t, err)
	assert.Equal(t, doc, got)
	geocoder.AssertNotCalled(t, "Resolve", mock.Anything)
	provider.AssertExpectations(t)
}

func TestFetchForecastStopsAfterGridFailure(t *testing.T) {
	gridErr := apperr.Protocol("Invalid response format from weather service.")

	geocoder := new(MockGeocoder)
	provider := new(MockProvider)
	geocoder.On("Resolve", "33620").Return(tampa, true)
	provider.On("LookupGrid", mock.Anything, tampa).Return(GridReference{}, gridErr)

	svc := NewService(geocoder, provider, zerolog.Nop())
	_, err := svc.FetchForecast(context.Background(), &Location{ZipCode: "33620"})

	assert.Same(t, gridErr, err)
	provider.AssertNotCalled(t, "FetchForecast", mock.Anything, mock.Anything)
}

func TestFetchForecastWrapsUnexpectedErrors(t *testing.T) {
	grid := GridReference{ForecastURL: "https://example.invalid/fcst"}

	geocoder := new(MockGeocoder)
	provider := new(MockProvider)
	geocoder.On("Resolve", "33620").Return(tampa, true)
	provider.On("LookupGrid", mock.Anything, tampa).Return(grid, nil)
	provider.On("FetchForecast", mock.Anything, grid).Return(nil, errors.New("boom"))

	svc := NewService(geocoder, provider, zerolog.Nop())
	_, err := svc.FetchForecast(context.Background(), &Location{ZipCode: "33620"})

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindUnexpected, appErr.Kind)
	assert.Equal(t, "An unexpected error occurred: boom", appErr.Message)
}

func TestGetForecastFormatsDocument(t *testing.T) {
	grid := GridReference{ForecastURL: "https://api.weather.gov/fcst"}

	geocoder := new(MockGeocoder)
	provider := new(MockProvider)
	geocoder.On("Resolve", "33620").Return(tampa, true)
	provider.On("LookupGrid", mock.Anything, tampa).Return(grid, nil)
	provider.On("FetchForecast", mock.Anything, grid).Return(periodsDocument(t, 6), nil)

	svc := NewService(geocoder, provider, zerolog.Nop())
	got, err := svc.GetForecast(context.Background(), "33620")

	require.NoError(t, err)
	assert.Equal(t, 70, got.Current.Temperature)
	assert.Len(t, got.Forecast, 5)
}

func TestGetForecastPropagatesFormattingError(t *testing.T) {
	grid := GridReference{ForecastURL: "https://api.weather.gov/fcst"}

	geocoder := new(MockGeocoder)
	provider := new(MockProvider)
	geocoder.On("Resolve", "33620").Return(tampa, true)
	provider.On("LookupGrid", mock.Anything, tampa).Return(grid, nil)
	provider.On("FetchForecast", mock.Anything, grid).Return(ForecastDocument(`{"properties":{"periods":[]}}`), nil)

	svc := NewService(geocoder, provider, zerolog.Nop())
	_, err := svc.GetForecast(context.Background(), "33620")

	assert.EqualError(t, err, "No forecast data available")
}
