package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/heliotrack/heliotrack/pkg/log"
	"github.com/heliotrack/heliotrack/pkg/types"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const runsCollection = "runs"

// FirestoreProvider implements Database using Google Cloud Firestore.
// Each run is a document in the "runs" collection keyed by the run ID.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

var _ Database = (*FirestoreProvider)(nil)

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// an empty project ID is detected from the environment
	return nil
}

// Init creates the Firestore client. It must be called before any other
// method.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// SaveRun stores the run header and its records as two JSON strings so that
// ListRuns can skip the records.
func (f *FirestoreProvider) SaveRun(ctx context.Context, run types.Run) error {
	if run.ID == "" {
		return errors.New("run ID cannot be empty")
	}
	records := run.Records
	run.Records = nil

	header, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal run records: %w", err)
	}

	_, err = f.client.Collection(runsCollection).Doc(run.ID).Set(ctx, map[string]interface{}{
		"json":      string(header),
		"records":   string(body),
		"createdAt": run.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun returns the run with its records.
func (f *FirestoreProvider) GetRun(ctx context.Context, id string) (types.Run, error) {
	if id == "" {
		return types.Run{}, ErrRunNotFound
	}
	doc, err := f.client.Collection(runsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Run{}, ErrRunNotFound
		}
		return types.Run{}, fmt.Errorf("failed to fetch run %s: %w", id, err)
	}

	run, err := decodeRunField(ctx, doc, "json")
	if err != nil {
		return types.Run{}, err
	}

	raw, err := stringField(doc, "records")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "run doc missing records", slog.String("runID", id), slog.Any("err", err))
		return types.Run{}, err
	}
	if err := json.Unmarshal([]byte(raw), &run.Records); err != nil {
		return types.Run{}, fmt.Errorf("failed to unmarshal records of run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns runs created in [start, end) without their records.
func (f *FirestoreProvider) ListRuns(ctx context.Context, start, end time.Time) ([]types.Run, error) {
	iter := f.client.Collection(runsCollection).
		Select("json", "createdAt").
		Where("createdAt", ">=", start.UTC()).
		Where("createdAt", "<", end.UTC()).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var runs []types.Run
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating runs: %w", err)
		}
		run, err := decodeRunField(ctx, doc, "json")
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func decodeRunField(ctx context.Context, doc *firestore.DocumentSnapshot, field string) (types.Run, error) {
	raw, err := stringField(doc, field)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "run doc has bad json", slog.String("runID", doc.Ref.ID), slog.Any("err", err))
		return types.Run{}, err
	}
	var run types.Run
	if err := json.Unmarshal([]byte(raw), &run); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal run", slog.String("runID", doc.Ref.ID), slog.Any("err", err))
		return types.Run{}, fmt.Errorf("failed to unmarshal run (id=%s): %w", doc.Ref.ID, err)
	}
	return run, nil
}

func stringField(doc *firestore.DocumentSnapshot, field string) (string, error) {
	val, err := doc.DataAt(field)
	if err != nil {
		return "", fmt.Errorf("run document %s missing '%s' field: %w", doc.Ref.ID, field, err)
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("run document %s '%s' field is not a string", doc.Ref.ID, field)
	}
	return s, nil
}
