package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/heliotrack/heliotrack/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// ErrRunNotFound is returned by GetRun if no run has the requested ID.
var ErrRunNotFound = types.ErrRunNotFound

// Database persists simulation runs.
type Database interface {
	// SaveRun stores run under run.ID, replacing any previous run with the
	// same ID.
	SaveRun(ctx context.Context, run types.Run) error
	// GetRun returns the run including its records.
	GetRun(ctx context.Context, id string) (types.Run, error)
	// ListRuns returns the runs created in [start, end) ordered by creation
	// time. Records are not included.
	ListRuns(ctx context.Context, start, end time.Time) ([]types.Run, error)

	// Lifecycle
	Close() error
}

// Configured sets up the Storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "memory", "Storage provider to use (available: firestore, memory)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		case "memory":
			p.Database = NewMemory()
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}
