// Package storagemock provides a testify mock of the storage interface.
package storagemock

import (
	"context"
	"time"

	"github.com/billcast/billcast/pkg/storage"
	"github.com/billcast/billcast/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) LatestReading(ctx context.Context) (types.MeterReading, error) {
	args := m.Called(ctx)
	return args.Get(0).(types.MeterReading), args.Error(1)
}

func (m *MockDatabase) ReadingOn(ctx context.Context, date time.Time) (types.MeterReading, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(types.MeterReading), args.Error(1)
}

func (m *MockDatabase) ReadingHistory(ctx context.Context, start, end time.Time) ([]types.MeterReading, error) {
	args := m.Called(ctx, start, end)
	if readings, ok := args.Get(0).([]types.MeterReading); ok {
		return readings, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDatabase) InsertReading(ctx context.Context, r types.MeterReading) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
