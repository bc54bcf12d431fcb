// Package checkpoint persists ingestion progress as a small JSON file so runs
// can resume safely across process restarts.
//
// Exactly one ingestion process is assumed to run at a time (single-writer),
// so no file locking is used. Writes go through a temporary file and an atomic
// rename: a crash mid-write never leaves a corrupted or partially-written
// checkpoint visible to the next read.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ErrNegativeLine is returned when attempting to persist a negative line
// number.
var ErrNegativeLine = errors.New("checkpoint line must be non-negative")

// state is the on-disk checkpoint payload.
type state struct {
	LastProcessedLine int64  `json:"last_processed_line"`
	LastUpdated       string `json:"last_updated"`
}

// Store reads and writes the checkpoint file for a single pipeline instance.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a checkpoint store backed by the file at path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Read returns the last processed line number, or 0 when no checkpoint
// exists, the file is unreadable, or the stored content is malformed.
// A malformed checkpoint means "start over", never a fatal error.
func (s *Store) Read() int64 {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Checkpoint unreadable, starting from beginning",
				slog.String("path", s.path),
				slog.String("error", err.Error()),
			)
		}

		return 0
	}

	var cp state
	if err := json.Unmarshal(data, &cp); err != nil {
		s.logger.Warn("Checkpoint corrupted, starting from beginning",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)

		return 0
	}

	if cp.LastProcessedLine < 0 {
		s.logger.Warn("Checkpoint holds a negative line, starting from beginning",
			slog.String("path", s.path),
			slog.Int64("line", cp.LastProcessedLine),
		)

		return 0
	}

	return cp.LastProcessedLine
}

// Write persists the last processed line atomically: the payload is written to
// a temporary file in the checkpoint directory and renamed into place.
func (s *Store) Write(line int64) error {
	if line < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeLine, line)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}

	payload, err := json.MarshalIndent(state{
		LastProcessedLine: line,
		LastUpdated:       time.Now().UTC().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating checkpoint temp file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("writing checkpoint temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("closing checkpoint temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("replacing checkpoint: %w", err)
	}

	s.logger.Info("Checkpoint updated",
		slog.String("path", s.path),
		slog.Int64("line", line),
	)

	return nil
}

// Reset deletes the checkpoint file so the next run starts from the
// beginning. Deleting a checkpoint that does not exist is not an error.
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing checkpoint: %w", err)
	}

	return nil
}
