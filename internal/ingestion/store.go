package ingestion

import (
	"context"
	"errors"
)

// ErrStoreUnavailable is the classification for transient connectivity
// failures: the store could not be reached and the whole batch went
// unattempted. Implementations wrap this sentinel so the loader can retry the
// batch as-is. Any other error from InsertBatch is treated as non-retryable.
var ErrStoreUnavailable = errors.New("record store unavailable")

type (
	// RecordStore defines what the pipeline needs for durable record
	// persistence. The concrete MongoDB implementation lives in
	// internal/storage; tests use in-memory fakes.
	RecordStore interface {
		// InsertBatch performs an unordered bulk insert: one record's rejection
		// does not block others in the same request, and no ordering guarantee
		// is made about which records land first.
		//
		// Returns (inserted, failed, err) where:
		//   - full success: inserted == len(records), failed empty, err nil
		//   - partial failure: inserted is the store-reported insertion count and
		//     failed holds the indices (into records) of rejected writes; err nil
		//   - transient connectivity failure: err wraps ErrStoreUnavailable and
		//     nothing was attempted
		//   - any other err: the request itself was malformed or otherwise
		//     non-retryable; nothing was inserted
		InsertBatch(ctx context.Context, records []NormalizedRecord) (inserted int, failed []int, err error)

		// EnsureIndexes creates the supporting indexes if absent. Idempotent.
		// Callers treat failure as non-fatal.
		EnsureIndexes(ctx context.Context) error
	}

	// Source produces a lazy, forward-only sequence of raw records. A fresh
	// call restarts from the requested line; the stream is not restartable
	// mid-flight.
	Source interface {
		// Read streams records to fn, skipping the first fromLine data lines
		// (fromLine is the last line a previous run processed; 0 streams
		// everything). Read stops and returns the first error fn returns.
		// A missing or unreadable source returns an error before fn is called.
		Read(ctx context.Context, fromLine int64, fn func(RawRecord) error) error
	}

	// CheckpointStore persists ingestion progress across runs.
	CheckpointStore interface {
		// Read returns the last processed line, or 0 when no usable checkpoint
		// exists. A malformed checkpoint means "start over", never an error.
		Read() int64

		// Write durably records the last processed line. Fails on negative input.
		Write(line int64) error
	}
)
