package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/billcast/billcast/pkg/types"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreDatabase persists meter readings to Google Cloud Firestore, for
// installs where the poller runs in the cloud and the estimator elsewhere.
type FirestoreDatabase struct {
	client    *firestore.Client
	projectID string
	database  string
	meterID   string
}

type firestoreReading struct {
	ReadingCcf int64     `firestore:"readingCcf"`
	RecordedAt time.Time `firestore:"recordedAt"`
}

// configuredFirestore registers the firestore flags and returns the
// provider.
func configuredFirestore() *FirestoreDatabase {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")
	meterID := lflag.String("firestore-meter", "home", "Meter document ID readings are stored under")

	f := &FirestoreDatabase{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database
		f.meterID = *meterID

		// the firestore client picks the emulator up from the environment
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Init initializes the Firestore client. Must be called before any query.
func (f *FirestoreDatabase) Init(ctx context.Context) error {
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
func (f *FirestoreDatabase) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreDatabase) readings() *firestore.CollectionRef {
	return f.client.Collection("meters").Doc(f.meterID).Collection("readings")
}

func (f *FirestoreDatabase) firstReading(ctx context.Context, q firestore.Query) (types.MeterReading, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err != nil {
		if errors.Is(err, iterator.Done) || status.Code(err) == codes.NotFound {
			return types.MeterReading{}, ErrNoReadings
		}
		return types.MeterReading{}, fmt.Errorf("fetching meter reading: %w", err)
	}

	var r firestoreReading
	if err := doc.DataTo(&r); err != nil {
		return types.MeterReading{}, fmt.Errorf("decoding meter reading doc: %w", err)
	}
	return types.MeterReading{ReadingCcf: r.ReadingCcf, RecordedAt: r.RecordedAt}, nil
}

// LatestReading returns the most recent reading.
func (f *FirestoreDatabase) LatestReading(ctx context.Context) (types.MeterReading, error) {
	q := f.readings().OrderBy("recordedAt", firestore.Desc).Limit(1)
	return f.firstReading(ctx, q)
}

// ReadingOn returns the last reading recorded on or before the end of the
// given calendar day.
func (f *FirestoreDatabase) ReadingOn(ctx context.Context, date time.Time) (types.MeterReading, error) {
	endOfDay := types.DateOf(date).AddDate(0, 0, 1)
	q := f.readings().
		Where("recordedAt", "<", endOfDay).
		OrderBy("recordedAt", firestore.Desc).
		Limit(1)
	return f.firstReading(ctx, q)
}

// ReadingHistory returns readings recorded in [start, end], oldest first.
func (f *FirestoreDatabase) ReadingHistory(ctx context.Context, start, end time.Time) ([]types.MeterReading, error) {
	iter := f.readings().
		Where("recordedAt", ">=", start).
		Where("recordedAt", "<=", end).
		OrderBy("recordedAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var out []types.MeterReading
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating meter readings: %w", err)
		}
		var r firestoreReading
		if err := doc.DataTo(&r); err != nil {
			return nil, fmt.Errorf("decoding meter reading doc: %w", err)
		}
		out = append(out, types.MeterReading{ReadingCcf: r.ReadingCcf, RecordedAt: r.RecordedAt})
	}
	return out, nil
}

// InsertReading records a new reading, keyed by its timestamp.
func (f *FirestoreDatabase) InsertReading(ctx context.Context, r types.MeterReading) error {
	recordedAt := r.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	doc := f.readings().Doc(recordedAt.UTC().Format(time.RFC3339))
	_, err := doc.Set(ctx, firestoreReading{
		ReadingCcf: r.ReadingCcf,
		RecordedAt: recordedAt,
	})
	if err != nil {
		return fmt.Errorf("inserting meter reading: %w", err)
	}
	return nil
}
