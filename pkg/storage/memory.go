package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/heliotrack/heliotrack/pkg/types"
)

// Memory keeps runs in process memory. Runs are lost on restart.
type Memory struct {
	mu   sync.RWMutex
	runs map[string]types.Run
}

var _ Database = (*Memory)(nil)

// NewMemory returns an empty Memory database.
func NewMemory() *Memory {
	return &Memory{runs: map[string]types.Run{}}
}

// SaveRun implements Database.
func (m *Memory) SaveRun(ctx context.Context, run types.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}
	run.Records = slices.Clone(run.Records)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

// GetRun implements Database.
func (m *Memory) GetRun(ctx context.Context, id string) (types.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return types.Run{}, ErrRunNotFound
	}
	run.Records = slices.Clone(run.Records)
	return run, nil
}

// ListRuns implements Database.
func (m *Memory) ListRuns(ctx context.Context, start, end time.Time) ([]types.Run, error) {
	m.mu.RLock()
	var runs []types.Run
	for _, run := range m.runs {
		if run.CreatedAt.Before(start) || !run.CreatedAt.Before(end) {
			continue
		}
		run.Records = nil
		runs = append(runs, run)
	}
	m.mu.RUnlock()

	slices.SortFunc(runs, func(a, b types.Run) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return runs, nil
}

// Close implements Database.
func (m *Memory) Close() error {
	return nil
}
