package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"

	"github.com/uplink-io/uplink/internal/ingestion"
	"github.com/uplink-io/uplink/internal/reports"
)

var (
	// ErrBulkInsertFailed is returned when a bulk insert fails for a
	// non-retryable reason.
	ErrBulkInsertFailed = errors.New("bulk insert failed")

	// Compile-time interface assertions to ensure UplinkStore implements both
	// interfaces. This provides early compile-time errors if interface
	// contracts change.

	// UplinkStore implements ingestion.RecordStore (write interface for uplink records).
	_ ingestion.RecordStore = (*UplinkStore)(nil)

	// UplinkStore implements reports.Store (aggregation and snapshot interface)
	// Methods defined in report_views.go file (same package, same type).
	_ reports.Store = (*UplinkStore)(nil)
)

// uplinkIndexes are the supporting indexes for the uplink collection: the
// three single-field query paths plus the compound device timeline index.
var uplinkIndexes = []mgo.Index{
	{Key: []string{"device_id"}, Name: "device_id_1", Background: true},
	{Key: []string{"gateway_id"}, Name: "gateway_id_1", Background: true},
	{Key: []string{"timestamp"}, Name: "timestamp_1", Background: true},
	{Key: []string{"device_id", "timestamp"}, Name: "device_id_1_timestamp_1", Background: true},
}

// UplinkStore implements ingestion.RecordStore with a MongoDB backend.
//
// Writes are unordered bulk inserts: one rejected document does not block the
// rest of the batch, and the per-document failures come back with their batch
// indices so the loader can retry or skip them individually.
//
// Cancellation is honored between operations; an in-flight server round trip
// is bounded by the configured socket timeout.
type UplinkStore struct {
	conn   *Connection
	logger *slog.Logger
}

// NewUplinkStore creates a MongoDB-backed uplink record store.
// Returns error if conn is nil (ErrNoConnection).
func NewUplinkStore(conn *Connection, logger *slog.Logger) (*UplinkStore, error) {
	if conn == nil {
		return nil, ErrNoConnection
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &UplinkStore{
		conn:   conn,
		logger: logger.With(slog.String("component", "uplink_store")),
	}, nil
}

// InsertBatch performs an unordered bulk insert of normalized records.
//
// Outcome classification follows the ingestion.RecordStore contract:
//   - every document accepted: (len(records), nil, nil)
//   - per-document write errors (duplicates and friends): the reported
//     insertion count plus the failed batch indices, err nil
//   - server unreachable: err wraps ingestion.ErrStoreUnavailable
//   - anything else: err wraps ErrBulkInsertFailed, nothing retried
func (s *UplinkStore) InsertBatch(
	ctx context.Context,
	records []ingestion.NormalizedRecord,
) (int, []int, error) {
	if len(records) == 0 {
		return 0, nil, nil
	}

	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	docs := make([]interface{}, len(records))
	for i, record := range records {
		docs[i] = toDocument(record)
	}

	session := s.conn.copySession()
	defer session.Close()

	bulk := s.conn.uplinks(session).Bulk()
	bulk.Unordered()
	bulk.Insert(docs...)

	_, err := bulk.Run()
	if err == nil {
		return len(records), nil, nil
	}

	var bulkErr *mgo.BulkError
	if errors.As(err, &bulkErr) {
		failed, classifiable := failedIndices(bulkErr)
		if classifiable {
			s.logger.Warn("Bulk insert partially failed",
				slog.Int("batch_size", len(records)),
				slog.Int("failed", len(failed)),
			)

			return len(records) - len(failed), failed, nil
		}
	}

	if isConnectionError(err) {
		return 0, nil, fmt.Errorf("%w: %w", ingestion.ErrStoreUnavailable, err)
	}

	return 0, nil, fmt.Errorf("%w: %w", ErrBulkInsertFailed, err)
}

// EnsureIndexes creates the uplink collection indexes if absent. Idempotent:
// an index that already exists with the same definition is a no-op.
func (s *UplinkStore) EnsureIndexes(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	session := s.conn.copySession()
	defer session.Close()

	collection := s.conn.uplinks(session)

	for _, index := range uplinkIndexes {
		if err := collection.EnsureIndex(index); err != nil {
			return fmt.Errorf("ensuring index %s: %w", index.Name, err)
		}
	}

	s.logger.Info("Uplink indexes ensured", slog.Int("indexes", len(uplinkIndexes)))

	return nil
}

// toDocument converts a normalized record to a BSON document. Absent fields
// are omitted entirely rather than stored as null.
func toDocument(record ingestion.NormalizedRecord) bson.M {
	doc := make(bson.M, len(record))

	for field, value := range record {
		if value.IsAbsent() {
			continue
		}

		doc[field] = value.Interface()
	}

	return doc
}

// failedIndices extracts per-document failure indices from a bulk error.
//
// Returns classifiable=false when any case carries an unknown index or a
// connection-level error; the caller then falls back to whole-batch
// classification instead of trusting a partial result.
func failedIndices(bulkErr *mgo.BulkError) ([]int, bool) {
	cases := bulkErr.Cases()
	failed := make([]int, 0, len(cases))

	for _, c := range cases {
		if c.Index < 0 || isConnectionError(c.Err) {
			return nil, false
		}

		failed = append(failed, c.Index)
	}

	return failed, true
}

// isConnectionError checks if an error indicates MongoDB connection failure.
//
// mgo surfaces lost servers as io.EOF, net errors, or a handful of
// well-known message strings rather than typed sentinels; the string checks
// cover the cases the driver does not type.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, io.EOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := err.Error()
	for _, probe := range []string{
		"no reachable servers",
		"i/o timeout",
		"connection reset",
		"Closed explicitly",
		"EOF",
	} {
		if strings.Contains(msg, probe) {
			return true
		}
	}

	return false
}
