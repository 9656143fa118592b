package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"almanac/internal/bars"
	"almanac/internal/loader"
)

// MockBarLoader is a mock for the BarLoader interface
type MockBarLoader struct {
	mock.Mock
}

func (m *MockBarLoader) Load(ctx context.Context, path string, from, to bars.Date) (*loader.Series, error) {
	args := m.Called(ctx, path, from, to)
	series, _ := args.Get(0).(*loader.Series)
	return series, args.Error(1)
}
