// Package source reads raw uplink records from append-only CSV exports.
//
// The CSV source implements ingestion.Source: a lazy, forward-only stream of
// RawRecords starting at a requested line, so the pipeline can resume from a
// checkpoint without re-reading everything before it.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/uplink-io/uplink/internal/aliasing"
	"github.com/uplink-io/uplink/internal/ingestion"
)

// ErrSourceUnreadable indicates the input file is missing or cannot be
// opened. This is the one fatal source condition: the pipeline aborts before
// any loading.
var ErrSourceUnreadable = errors.New("source file unreadable")

// CSVSource streams raw records from a header-row CSV file.
//
// Line numbering is 1-indexed over data lines; the header row is not counted.
// A malformed data line is surfaced as an empty raw record so that it still
// occupies its line number (the acceptance gate rejects it); line accounting
// must stay exact or resumed runs would drift.
type CSVSource struct {
	path     string
	resolver *aliasing.Resolver
	logger   *slog.Logger
}

// NewCSVSource creates a CSV source for the file at path. Headers are
// resolved to canonical field names through the resolver.
func NewCSVSource(path string, resolver *aliasing.Resolver, logger *slog.Logger) *CSVSource {
	return &CSVSource{
		path:     path,
		resolver: resolver,
		logger:   logger,
	}
}

// Read streams records to fn, skipping the first fromLine data lines. Read
// stops at end of input or at the first error fn returns. The stream is not
// restartable mid-flight; a fresh call reopens the file.
func (s *CSVSource) Read(ctx context.Context, fromLine int64, fn func(ingestion.RawRecord) error) error {
	file, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}

	defer func() {
		_ = file.Close()
	}()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // network-server exports pad rows unevenly

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.logger.Warn("Source file is empty", slog.String("path", s.path))

			return nil
		}

		return fmt.Errorf("%w: reading header: %w", ErrSourceUnreadable, err)
	}

	fields := s.resolver.ResolveAll(headers)

	s.logger.Info("Reading source file",
		slog.String("path", s.path),
		slog.Int("columns", len(fields)),
		slog.Int64("from_line", fromLine),
	)

	var line int64

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return fmt.Errorf("reading source: %w", err)
			}

			// Malformed line: keep its line number, let the gate reject it.
			line++

			if line <= fromLine {
				continue
			}

			s.logger.Warn("Malformed source line",
				slog.Int64("line", line),
				slog.String("error", err.Error()),
			)

			if err := fn(ingestion.RawRecord{Line: line, Fields: map[string]string{}}); err != nil {
				return err
			}

			continue
		}

		line++

		if line <= fromLine {
			continue
		}

		record := ingestion.RawRecord{
			Line:   line,
			Fields: make(map[string]string, len(fields)),
		}

		for i, value := range row {
			if i >= len(fields) {
				break
			}

			record.Fields[fields[i]] = value
		}

		if err := fn(record); err != nil {
			return err
		}
	}
}
