package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// State is the orchestrator's position in the pipeline state machine:
// INIT → READING → LOADING → CHECKPOINTING → DONE, with FAILED reachable
// from any state.
type State string

// Pipeline states.
const (
	StateInit          State = "INIT"
	StateReading       State = "READING"
	StateLoading       State = "LOADING"
	StateCheckpointing State = "CHECKPOINTING"
	StateDone          State = "DONE"
	StateFailed        State = "FAILED"
)

// ErrRunIncomplete indicates the run was interrupted before all batches
// resolved; the checkpoint is left untouched so the next run reprocesses the
// same range.
var ErrRunIncomplete = errors.New("ingestion run incomplete")

// RunSummary reports what a single ingestion run did.
type RunSummary struct {
	// RunID uniquely identifies this run.
	RunID string `json:"run_id"`

	// LinesRead counts every data line pulled from the source this run,
	// accepted or not.
	LinesRead int64 `json:"lines_read"`

	// RowsAccepted counts rows that passed the acceptance gate.
	RowsAccepted int64 `json:"rows_accepted"`

	// RowsInserted counts rows durably persisted by the loader.
	RowsInserted int64 `json:"rows_inserted"`

	// RowsSkipped counts rows the loader could not persist. Skipped rows are
	// not retried by a later run.
	RowsSkipped int64 `json:"rows_skipped"`

	// CheckpointStart and CheckpointEnd are the checkpoint line before and
	// after the run. Equal when the run read nothing.
	CheckpointStart int64 `json:"checkpoint_start"`
	CheckpointEnd   int64 `json:"checkpoint_end"`

	// StartedAt and Duration bound the run in time.
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Runner drives the pipeline end to end: it reads raw records from the source
// starting at the checkpoint, feeds them through the acceptance gate and the
// normalizer, hands fixed-size batches to the loader, and advances the
// checkpoint only after all batches for the run have been attempted.
//
// Single-threaded: reading, normalizing, batching, and loading
// proceed strictly in input order with no overlap between stages, so the
// source is never read further ahead than one batch.
type Runner struct {
	source      Source
	checkpoints CheckpointStore
	loader      *Loader
	batchSize   int
	logger      *slog.Logger
	state       State
}

// NewRunner wires a pipeline run. The configuration must already be validated.
func NewRunner(
	source Source,
	checkpoints CheckpointStore,
	loader *Loader,
	cfg *Config,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		source:      source,
		checkpoints: checkpoints,
		loader:      loader,
		batchSize:   cfg.BatchSize,
		logger:      logger,
		state:       StateInit,
	}
}

// State returns the runner's current pipeline state.
func (r *Runner) State() State {
	return r.state
}

// Run executes one ingestion run and returns its summary.
//
// Only the source-read phase can abort the run: loader failures are absorbed
// into the skipped count and the run always proceeds to checkpointing after
// loading completes, so the checkpoint advances even when some rows were
// skipped. A context cancellation during loading leaves the checkpoint
// untouched and returns ErrRunIncomplete.
//
// A checkpoint write failure is logged but the run still reports success:
// the next run simply reprocesses the same range, which the store absorbs
// through duplicate rejection.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	r.state = StateInit
	start := r.checkpoints.Read()
	summary.CheckpointStart = start
	summary.CheckpointEnd = start

	r.logger.Info("Starting ingestion run",
		slog.String("run_id", summary.RunID),
		slog.Int64("checkpoint", start),
	)

	r.state = StateReading
	batch := make([]NormalizedRecord, 0, r.batchSize)

	err := r.source.Read(ctx, start, func(record RawRecord) error {
		summary.LinesRead++

		if err := Accept(record); err != nil {
			r.logger.Debug("Row rejected",
				slog.Int64("line", record.Line),
				slog.String("reason", err.Error()),
			)

			return nil
		}

		summary.RowsAccepted++
		batch = append(batch, Normalize(record))

		if len(batch) >= r.batchSize {
			r.flush(ctx, summary, &batch)
		}

		return ctx.Err()
	})
	if err != nil {
		r.state = StateFailed
		r.logger.Error("Ingestion run failed",
			slog.String("run_id", summary.RunID),
			slog.String("error", err.Error()),
		)

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return summary, fmt.Errorf("%w: %w", ErrRunIncomplete, err)
		}

		return summary, fmt.Errorf("reading source: %w", err)
	}

	// Final partial batch.
	r.flush(ctx, summary, &batch)

	if ctx.Err() != nil {
		r.state = StateFailed

		return summary, fmt.Errorf("%w: %w", ErrRunIncomplete, ctx.Err())
	}

	r.state = StateCheckpointing

	if summary.LinesRead > 0 {
		summary.CheckpointEnd = start + summary.LinesRead

		if err := r.checkpoints.Write(summary.CheckpointEnd); err != nil {
			// Next run reprocesses the same range; duplicate rejection in the
			// store keeps that safe.
			r.logger.Error("Failed to write checkpoint",
				slog.Int64("line", summary.CheckpointEnd),
				slog.String("error", err.Error()),
			)
		}
	}

	r.state = StateDone
	summary.Duration = time.Since(summary.StartedAt)

	r.logger.Info("Ingestion run complete",
		slog.String("run_id", summary.RunID),
		slog.Int64("lines_read", summary.LinesRead),
		slog.Int64("rows_accepted", summary.RowsAccepted),
		slog.Int64("rows_inserted", summary.RowsInserted),
		slog.Int64("rows_skipped", summary.RowsSkipped),
		slog.Int64("checkpoint", summary.CheckpointEnd),
		slog.Duration("duration", summary.Duration),
	)

	return summary, nil
}

// flush hands the current batch to the loader and folds the outcome into the
// summary. The batch slice is reset for reuse.
func (r *Runner) flush(ctx context.Context, summary *RunSummary, batch *[]NormalizedRecord) {
	if len(*batch) == 0 {
		return
	}

	r.state = StateLoading
	inserted, skipped := r.loader.Load(ctx, *batch)
	summary.RowsInserted += int64(inserted)
	summary.RowsSkipped += int64(skipped)
	*batch = (*batch)[:0]
	r.state = StateReading
}
