package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

// insertOutcome scripts one InsertBatch attempt of the fake store.
type insertOutcome struct {
	inserted int
	failed   []int
	err      error
}

// fakeStore replays scripted outcomes attempt by attempt and records the
// batches it was handed. Once the script is exhausted it reports full success.
type fakeStore struct {
	script     []insertOutcome
	attempts   [][]NormalizedRecord
	ensureErr  error
	ensureHits int
}

func (s *fakeStore) InsertBatch(_ context.Context, records []NormalizedRecord) (int, []int, error) {
	copied := make([]NormalizedRecord, len(records))
	copy(copied, records)
	s.attempts = append(s.attempts, copied)

	if len(s.attempts) <= len(s.script) {
		outcome := s.script[len(s.attempts)-1]

		return outcome.inserted, outcome.failed, outcome.err
	}

	return len(records), nil, nil
}

func (s *fakeStore) EnsureIndexes(_ context.Context) error {
	s.ensureHits++

	return s.ensureErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func quickConfig() *Config {
	return &Config{BatchSize: 1000, MaxRetries: 3, RetryDelay: 0}
}

func makeBatch(n int) []NormalizedRecord {
	batch := make([]NormalizedRecord, n)
	for i := range batch {
		batch[i] = NormalizedRecord{
			FieldDeviceID: StringValue(fmt.Sprintf("dev-%03d", i)),
		}
	}

	return batch
}

func TestLoad_EmptyBatch(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	store := &fakeStore{}
	loader := NewLoader(store, quickConfig(), testLogger())

	inserted, skipped := loader.Load(context.Background(), nil)
	if inserted != 0 || skipped != 0 {
		t.Errorf("Load(empty) = (%d, %d), want (0, 0)", inserted, skipped)
	}

	if len(store.attempts) != 0 {
		t.Errorf("store attempts = %d, want 0", len(store.attempts))
	}
}

func TestLoad_FullSuccess(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	store := &fakeStore{}
	loader := NewLoader(store, quickConfig(), testLogger())

	inserted, skipped := loader.Load(context.Background(), makeBatch(10))
	if inserted != 10 || skipped != 0 {
		t.Errorf("Load() = (%d, %d), want (10, 0)", inserted, skipped)
	}

	if store.ensureHits != 1 {
		t.Errorf("EnsureIndexes calls = %d, want 1", store.ensureHits)
	}
}

func TestLoad_PermanentDuplicates(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	// Store rejects indices 5 and 17 as duplicates on every attempt.
	store := &fakeStore{
		script: []insertOutcome{
			{inserted: 998, failed: []int{5, 17}},
			{inserted: 0, failed: []int{0, 1}},
			{inserted: 0, failed: []int{0, 1}},
			{inserted: 0, failed: []int{0, 1}},
		},
	}
	loader := NewLoader(store, quickConfig(), testLogger())

	inserted, skipped := loader.Load(context.Background(), makeBatch(1000))
	if inserted != 998 || skipped != 2 {
		t.Errorf("Load() = (%d, %d), want (998, 2)", inserted, skipped)
	}

	if len(store.attempts) != 4 {
		t.Fatalf("attempts = %d, want 4", len(store.attempts))
	}

	// Only the rejected records are re-submitted.
	if len(store.attempts[1]) != 2 {
		t.Errorf("retry batch size = %d, want 2", len(store.attempts[1]))
	}

	if store.attempts[1][0][FieldDeviceID] != StringValue("dev-005") {
		t.Errorf("retried record 0 = %+v, want dev-005", store.attempts[1][0][FieldDeviceID])
	}

	if store.attempts[1][1][FieldDeviceID] != StringValue("dev-017") {
		t.Errorf("retried record 1 = %+v, want dev-017", store.attempts[1][1][FieldDeviceID])
	}
}

func TestLoad_PartialFailureThenSuccess(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	store := &fakeStore{
		script: []insertOutcome{
			{inserted: 8, failed: []int{2, 6}},
		},
	}
	loader := NewLoader(store, quickConfig(), testLogger())

	inserted, skipped := loader.Load(context.Background(), makeBatch(10))
	if inserted != 10 || skipped != 0 {
		t.Errorf("Load() = (%d, %d), want (10, 0)", inserted, skipped)
	}

	if len(store.attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(store.attempts))
	}
}

func TestLoad_StoreUnreachable(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	unavailable := fmt.Errorf("%w: no reachable servers", ErrStoreUnavailable)
	store := &fakeStore{
		script: []insertOutcome{
			{err: unavailable},
			{err: unavailable},
			{err: unavailable},
			{err: unavailable},
		},
	}
	loader := NewLoader(store, quickConfig(), testLogger())

	inserted, skipped := loader.Load(context.Background(), makeBatch(25))
	if inserted != 0 || skipped != 25 {
		t.Errorf("Load() = (%d, %d), want (0, 25)", inserted, skipped)
	}

	if len(store.attempts) != 4 {
		t.Errorf("attempts = %d, want 4 (1 initial + 3 retries)", len(store.attempts))
	}
}

func TestLoad_TransientThenSuccess(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	store := &fakeStore{
		script: []insertOutcome{
			{err: fmt.Errorf("%w: connection reset", ErrStoreUnavailable)},
		},
	}
	loader := NewLoader(store, quickConfig(), testLogger())

	inserted, skipped := loader.Load(context.Background(), makeBatch(25))
	if inserted != 25 || skipped != 0 {
		t.Errorf("Load() = (%d, %d), want (25, 0)", inserted, skipped)
	}

	// Transient errors retry the whole batch as-is.
	if len(store.attempts[1]) != 25 {
		t.Errorf("retry batch size = %d, want 25", len(store.attempts[1]))
	}
}

func TestLoad_NonRetryableAborts(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	store := &fakeStore{
		script: []insertOutcome{
			{err: errors.New("malformed write request")},
		},
	}
	loader := NewLoader(store, quickConfig(), testLogger())

	inserted, skipped := loader.Load(context.Background(), makeBatch(12))
	if inserted != 0 || skipped != 12 {
		t.Errorf("Load() = (%d, %d), want (0, 12)", inserted, skipped)
	}

	if len(store.attempts) != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on non-retryable error)", len(store.attempts))
	}
}

func TestLoad_NonRetryableAfterPartialKeepsEarlierInserts(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	store := &fakeStore{
		script: []insertOutcome{
			{inserted: 7, failed: []int{1, 3, 5}},
			{err: errors.New("document too large")},
		},
	}
	loader := NewLoader(store, quickConfig(), testLogger())

	inserted, skipped := loader.Load(context.Background(), makeBatch(10))
	if inserted != 7 || skipped != 3 {
		t.Errorf("Load() = (%d, %d), want (7, 3)", inserted, skipped)
	}
}

func TestLoad_AccountingInvariant(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	scripts := [][]insertOutcome{
		nil,
		{{inserted: 3, failed: []int{0, 1}}},
		{{err: fmt.Errorf("%w: dial tcp", ErrStoreUnavailable)}},
		{{err: errors.New("bad request")}},
		{
			{inserted: 2, failed: []int{0, 1, 2}},
			{inserted: 1, failed: []int{0, 1}},
			{err: fmt.Errorf("%w: i/o timeout", ErrStoreUnavailable)},
			{inserted: 0, failed: []int{0, 1}},
		},
	}

	for i, script := range scripts {
		t.Run(fmt.Sprintf("script_%d", i), func(t *testing.T) {
			store := &fakeStore{script: script}
			loader := NewLoader(store, quickConfig(), testLogger())

			batch := makeBatch(5)
			inserted, skipped := loader.Load(context.Background(), batch)

			if inserted+skipped != len(batch) {
				t.Errorf("inserted(%d) + skipped(%d) != len(batch)(%d)", inserted, skipped, len(batch))
			}
		})
	}
}

func TestLoad_EnsureIndexesFailureIsNonFatal(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	store := &fakeStore{ensureErr: errors.New("not authorized on lorawan")}
	loader := NewLoader(store, quickConfig(), testLogger())

	inserted, skipped := loader.Load(context.Background(), makeBatch(3))
	if inserted != 3 || skipped != 0 {
		t.Errorf("Load() = (%d, %d), want (3, 0) despite index failure", inserted, skipped)
	}
}

func TestLoad_EnsureIndexesOnlyOnce(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	store := &fakeStore{}
	loader := NewLoader(store, quickConfig(), testLogger())

	loader.Load(context.Background(), makeBatch(2))
	loader.Load(context.Background(), makeBatch(2))

	if store.ensureHits != 1 {
		t.Errorf("EnsureIndexes calls = %d, want 1 across loads", store.ensureHits)
	}
}
