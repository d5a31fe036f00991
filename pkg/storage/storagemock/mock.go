package storagemock

import (
	"context"
	"time"

	"github.com/heliotrack/heliotrack/pkg/storage"
	"github.com/heliotrack/heliotrack/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) SaveRun(ctx context.Context, run types.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockDatabase) GetRun(ctx context.Context, id string) (types.Run, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.Run), args.Error(1)
}

func (m *MockDatabase) ListRuns(ctx context.Context, start, end time.Time) ([]types.Run, error) {
	args := m.Called(ctx, start, end)
	if runs := args.Get(0); runs != nil {
		return runs.([]types.Run), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDatabase) Close() error {
	return nil
}
