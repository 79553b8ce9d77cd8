package energy

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/energy-dashboard-api/internal/apperr"
)

type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) ResidentialRate(ctx context.Context, address string) (ResidentialRate, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(ResidentialRate), args.Error(1)
}

type MockUsageProvider struct {
	mock.Mock
}

func (m *MockUsageProvider) RetailSales(ctx context.Context, q UsageQuery) (UsageReport, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(UsageReport), args.Error(1)
}

func TestGetResidentialRate(t *testing.T) {
	tests := []struct {
		name        string
		address     string
		mockRate    ResidentialRate
		mockError   error
		expected    ResidentialRate
		expectKind  apperr.Kind
		expectCalls bool
	}{
		{
			name:       "empty address",
			address:    "  ",
			expectKind: apperr.KindValidation,
		},
		{
			name:        "rate found",
			address:     "33620",
			mockRate:    ResidentialRate{UtilityName: "Tampa Electric Co", ResidentialRate: 0.11},
			expected:    ResidentialRate{UtilityName: "Tampa Electric Co", ResidentialRate: 0.11},
			expectCalls: true,
		},
		{
			name:        "no residential rate",
			address:     "33620",
			mockError:   apperr.Protocol("No residential rate data available."),
			expectKind:  apperr.KindUpstreamProtocol,
			expectCalls: true,
		},
		{
			name:        "unexpected provider error",
			address:     "33620",
			mockError:   errors.New("boom"),
			expectKind:  apperr.KindUnexpected,
			expectCalls: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rates := new(MockRateProvider)
			svc := NewService(rates, new(MockUsageProvider), zerolog.Nop())

			if tt.expectCalls {
				rates.On("ResidentialRate", mock.Anything, tt.address).Return(tt.mockRate, tt.mockError)
			}

			got, err := svc.GetResidentialRate(context.Background(), tt.address)

			if tt.expectKind != "" {
				appErr, ok := apperr.As(err)
				require.True(t, ok)
				assert.Equal(t, tt.expectKind, appErr.Kind)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			}
			rates.AssertExpectations(t)
		})
	}
}

func TestGetHistoricalUsageAppliesDefaults(t *testing.T) {
	usage := new(MockUsageProvider)
	svc := NewService(new(MockRateProvider), usage, zerolog.Nop())

	want := UsageQuery{State: "FL", Sector: "ALL", Start: "2023-01", End: "2023-12", Frequency: "monthly"}
	usage.On("RetailSales", mock.Anything, want).Return(UsageReport{}, nil)

	got, err := svc.GetHistoricalUsage(context.Background(), UsageQuery{})
	require.NoError(t, err)
	assert.NotNil(t, got.Data)
	assert.Empty(t, got.Data)
	usage.AssertExpectations(t)
}

func TestGetHistoricalUsageKeepsCallerValues(t *testing.T) {
	usage := new(MockUsageProvider)
	svc := NewService(new(MockRateProvider), usage, zerolog.Nop())

	want := UsageQuery{State: "TX", Sector: "RES", Start: "2022-06", End: "2022-08", Frequency: "quarterly"}
	report := UsageReport{Data: []UsageRecord{{Period: "2022-08", StateID: "TX"}}, TotalRecords: 1}
	usage.On("RetailSales", mock.Anything, want).Return(report, nil)

	got, err := svc.GetHistoricalUsage(context.Background(), UsageQuery{
		State: "tx", Sector: "RES", Start: "2022-06", End: "2022-08", Frequency: "quarterly",
	})
	require.NoError(t, err)
	assert.Equal(t, report, got)
}

func TestGetHistoricalUsageError(t *testing.T) {
	usage := new(MockUsageProvider)
	svc := NewService(new(MockRateProvider), usage, zerolog.Nop())
	usage.On("RetailSales", mock.Anything, mock.Anything).Return(UsageReport{}, apperr.Protocol("Unexpected API response format"))

	_, err := svc.GetHistoricalUsage(context.Background(), UsageQuery{})
	assert.EqualError(t, err, "Unexpected API response format")
}
