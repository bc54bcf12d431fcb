package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Loader groups normalized records into bulk writes against a RecordStore,
// classifying and retrying recoverable failures. Every record handed to Load
// is accounted for as either inserted or skipped; a batch is never partially
// lost silently.
type Loader struct {
	store      RecordStore
	logger     *slog.Logger
	maxRetries int
	retryDelay time.Duration

	indexOnce sync.Once
}

// NewLoader creates a batch loader with the given retry policy.
//
// The store's supporting indexes are ensured on first use; index-creation
// failure is logged and ignored, never fatal.
func NewLoader(store RecordStore, cfg *Config, logger *slog.Logger) *Loader {
	return &Loader{
		store:      store,
		logger:     logger,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// Load submits the batch as an unordered bulk insert and returns
// (inserted, skipped) with inserted+skipped == len(batch).
//
// Failure handling:
//   - partial failure: store-reported successes are removed from the pending
//     set; only the rejected records are re-submitted
//   - transient connectivity failure: the whole pending set is retried as-is
//   - non-retryable error: the remaining pending set is abandoned as skipped;
//     records inserted by earlier attempts are still counted
//
// Up to maxRetries additional attempts are made with a fixed delay between
// them. Load never returns an error: all failures are absorbed into the
// skipped count.
func (l *Loader) Load(ctx context.Context, batch []NormalizedRecord) (inserted, skipped int) {
	if len(batch) == 0 {
		return 0, 0
	}

	l.indexOnce.Do(func() {
		if err := l.store.EnsureIndexes(ctx); err != nil {
			l.logger.Warn("Failed to ensure store indexes",
				slog.String("error", err.Error()),
			)
		}
	})

	pending := batch
	total := 0

	for attempt := 0; ; attempt++ {
		n, failed, err := l.store.InsertBatch(ctx, pending)

		switch {
		case err == nil && len(failed) == 0:
			total += len(pending)

			if attempt > 0 {
				l.logger.Info("Bulk insert succeeded after retry",
					slog.Int("attempt", attempt+1),
					slog.Int("inserted", total),
				)
			}

			return total, len(batch) - total

		case err == nil:
			// Partial failure: keep only the rejected records as retry candidates.
			total += n
			pending = selectIndices(pending, failed)

			if attempt >= l.maxRetries {
				l.logger.Error("Bulk insert exhausted retries with rejected records",
					slog.Int("attempts", attempt+1),
					slog.Int("inserted", total),
					slog.Int("skipped", len(batch)-total),
				)

				return total, len(batch) - total
			}

			l.logger.Warn("Bulk insert partial failure, retrying rejected records",
				slog.Int("attempt", attempt+1),
				slog.Int("inserted", total),
				slog.Int("rejected", len(pending)),
			)

		case errors.Is(err, ErrStoreUnavailable):
			if attempt >= l.maxRetries {
				l.logger.Error("Bulk insert failed, store unreachable",
					slog.Int("attempts", attempt+1),
					slog.Int("skipped", len(batch)-total),
					slog.String("error", err.Error()),
				)

				return total, len(batch) - total
			}

			l.logger.Warn("Transient store error, retrying batch",
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()),
			)

		default:
			// Non-retryable: abandon the remaining pending set immediately.
			l.logger.Error("Bulk insert failed with non-retryable error",
				slog.Int("attempt", attempt+1),
				slog.Int("inserted", total),
				slog.Int("skipped", len(batch)-total),
				slog.String("error", err.Error()),
			)

			return total, len(batch) - total
		}

		if !l.wait(ctx) {
			l.logger.Warn("Load interrupted during retry delay",
				slog.Int("inserted", total),
				slog.Int("skipped", len(batch)-total),
			)

			return total, len(batch) - total
		}
	}
}

// wait blocks for the fixed retry delay. Returns false when the context is
// cancelled before the delay elapses.
func (l *Loader) wait(ctx context.Context) bool {
	if l.retryDelay <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(l.retryDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// selectIndices returns the records at the given indices, preserving order.
// Out-of-range indices are ignored.
func selectIndices(records []NormalizedRecord, indices []int) []NormalizedRecord {
	out := make([]NormalizedRecord, 0, len(indices))

	for _, i := range indices {
		if i >= 0 && i < len(records) {
			out = append(out, records[i])
		}
	}

	return out
}
