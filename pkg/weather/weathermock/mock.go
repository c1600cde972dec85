// Package weathermock provides testify mocks for the weather interfaces.
package weathermock

import (
	"context"
	"time"

	"github.com/billcast/billcast/pkg/weather"
	"github.com/stretchr/testify/mock"
)

type MockArchive struct {
	mock.Mock
}

var _ weather.Archive = (*MockArchive)(nil)

func (m *MockArchive) Observations(ctx context.Context, start, end time.Time) ([]weather.DailyObservation, error) {
	args := m.Called(ctx, start, end)
	if obs, ok := args.Get(0).([]weather.DailyObservation); ok {
		return obs, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockForecaster struct {
	mock.Mock
}

var _ weather.Forecaster = (*MockForecaster)(nil)

func (m *MockForecaster) Forecast(ctx context.Context) ([]weather.DailyForecast, error) {
	args := m.Called(ctx)
	if fc, ok := args.Get(0).([]weather.DailyForecast); ok {
		return fc, args.Error(1)
	}
	return nil, args.Error(1)
}
