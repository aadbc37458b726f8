// Package ingest implements the resumable call record ingestion pipeline:
// locating the downloaded file, streaming its rows from the persisted resume
// offset, normalizing and deduplicating each row, and persisting records
// with their progress in lockstep.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/callingest/internal/store"
)

// ContextCheckInterval is how often (in rows) to check for context
// cancellation. A killed run is safe by design, so this only bounds how
// promptly a signal is honored.
var ContextCheckInterval int64 = 100

// Locator resolves the file a run should process.
type Locator interface {
	Locate(ctx context.Context) (located *LocatedFile, found bool, err error)
}

// RecordStore is the slice of the store the engine needs.
type RecordStore interface {
	CallRecordExists(ctx context.Context, naturalKey string) (bool, error)
	InsertCallRecordWithProgress(ctx context.Context, rec *store.CallRecord, sourceFileID uuid.UUID, line int64) error
}

// Engine drives one ingestion run end to end.
//
// Progress is persisted only together with a successful insert, so the
// resume offset always points at a position from which replay is safe:
// skipped rows between the last insert and a crash are simply re-evaluated
// (and deterministically re-skipped) on the next run.
type Engine struct {
	locator Locator
	records RecordStore
	norm    *Normalizer
	obs     Observer
	log     *slog.Logger
}

// NewEngine creates an Engine. obs and log may be nil.
func NewEngine(locator Locator, records RecordStore, norm *Normalizer, obs Observer, log *slog.Logger) *Engine {
	if obs == nil {
		obs = nopObserver{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		locator: locator,
		records: records,
		norm:    norm,
		obs:     obs,
		log:     log,
	}
}

// Run executes one ingestion run. A missing source file is not an error:
// the run ends early with FileFound=false and zero counters.
//
// The returned Summary is valid even when err is non-nil; it reflects the
// counters accumulated up to the failure.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	e.log.Info("ingestion run starting")

	located, found, err := e.locator.Locate(ctx)
	if err != nil {
		return sum, fmt.Errorf("locate call record file: %w", err)
	}
	if !found {
		e.log.Info("no call record file available; nothing to ingest")
		return sum, nil
	}

	tracker := located.Tracker
	sum.FileFound = true
	sum.FileURI = tracker.URI

	file, err := OpenCSV(located.Path)
	if err != nil {
		return sum, fmt.Errorf("open call record file: %w", err)
	}
	sum.TotalRows = file.TotalRows()

	offset := tracker.LastProcessedLine
	e.log.Info("call record file located",
		"path", located.Path,
		"total_rows", sum.TotalRows,
		"resume_offset", offset,
	)

	it, err := file.RowsFrom(offset)
	if err != nil {
		return sum, fmt.Errorf("seek to resume offset %d: %w", offset, err)
	}
	defer it.Close()

	for it.Next() {
		row := it.Row()

		if sum.RecordCount%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return e.drain(sum, tracker), fmt.Errorf("run interrupted at row %d: %w", row.Index, err)
			}
		}

		sum.RecordCount++

		outcome, naturalKey, err := e.processRow(ctx, tracker, row, sum)
		if err != nil {
			return e.drain(sum, tracker), err
		}

		e.obs.RowProcessed(Progress{
			RowIndex:   row.Index,
			TotalRows:  sum.TotalRows,
			Outcome:    outcome,
			NaturalKey: naturalKey,
			Processed:  sum.RecordCount,
			Added:      sum.RecordsAdded,
			Skipped:    sum.RecordsSkipped,
			Failed:     sum.RecordsFailedToAdd,
		})
	}
	if err := it.Err(); err != nil {
		return e.drain(sum, tracker), fmt.Errorf("stream call record file: %w", err)
	}

	return e.drain(sum, tracker), nil
}

// processRow evaluates a single row and updates the counters. The returned
// error is run-fatal; per-row failures are counted, not returned.
func (e *Engine) processRow(ctx context.Context, tracker *store.SourceFile, row Row, sum *Summary) (Outcome, string, error) {
	rec, skip := e.norm.Normalize(row.Fields)
	switch skip {
	case SkipMissingID:
		sum.RecordsSkipped++
		return OutcomeSkippedMissingID, "", nil
	case SkipWrongYear:
		sum.RecordsSkipped++
		return OutcomeSkippedWrongYear, "", nil
	}

	dup, err := e.records.CallRecordExists(ctx, rec.NaturalKey)
	if err != nil {
		sum.RecordsFailedToAdd++
		e.log.Warn("duplicate check failed",
			"row", row.Index,
			"natural_key", rec.NaturalKey,
			"error", err,
		)
		return OutcomeFailed, rec.NaturalKey, nil
	}
	if dup {
		sum.RecordsSkipped++
		return OutcomeSkippedDuplicate, rec.NaturalKey, nil
	}

	err = e.records.InsertCallRecordWithProgress(ctx, rec, tracker.ID, row.Index)
	switch {
	case err == nil:
		sum.RecordsAdded++
		tracker.LastProcessedLine = row.Index
		tracker.LastProcessedRecordID = pgtype.Text{String: rec.NaturalKey, Valid: true}
		return OutcomeInserted, rec.NaturalKey, nil

	case errors.Is(err, store.ErrProgressNotSaved):
		// The resume guarantee is broken if progress writes are failing;
		// surface loudly instead of counting and continuing.
		return OutcomeFailed, rec.NaturalKey, fmt.Errorf("row %d: %w", row.Index, err)

	case errors.Is(err, store.ErrDuplicateRecord):
		// Lost a uniqueness race to another writer; the constraint did its job.
		sum.RecordsFailedToAdd++
		e.log.Warn("insert rejected by uniqueness constraint",
			"row", row.Index,
			"natural_key", rec.NaturalKey,
		)
		return OutcomeFailed, rec.NaturalKey, nil

	default:
		sum.RecordsFailedToAdd++
		e.log.Warn("insert failed",
			"row", row.Index,
			"natural_key", rec.NaturalKey,
			"error", err,
		)
		return OutcomeFailed, rec.NaturalKey, nil
	}
}

// drain finalizes the summary and hands it to the observer. It runs on
// every termination path, so observers see the counters accumulated up to
// an interruption too.
func (e *Engine) drain(sum *Summary, tracker *store.SourceFile) *Summary {
	sum.LastProcessedLine = tracker.LastProcessedLine
	sum.CaughtUp = sum.LastProcessedLine >= sum.TotalRows
	e.obs.RunComplete(*sum)
	return sum
}
