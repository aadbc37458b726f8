package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CallRecordExists reports whether a call record with the given natural key
// is already stored. This is a pre-insert optimization; the unique
// constraint on natural_key remains the final arbiter.
func (s *Store) CallRecordExists(ctx context.Context, naturalKey string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM call_records WHERE natural_key = $1)",
		naturalKey,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check call record %q: %w", naturalKey, err)
	}
	return exists, nil
}

// InsertCallRecordWithProgress inserts a call record and advances the source
// file's resume position in a single transaction, so the two can never
// diverge: either the record is stored and progress points past its line, or
// neither happened.
//
// Returns ErrDuplicateRecord if the insert loses a uniqueness race, and an
// error wrapping ErrProgressNotSaved if the record inserted but the progress
// update or commit failed (the insert is rolled back in that case).
func (s *Store) InsertCallRecordWithProgress(ctx context.Context, rec *CallRecord, sourceFileID uuid.UUID, line int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if err := insertCallRecord(ctx, tx, rec); err != nil {
		return err
	}

	if err := saveProgress(ctx, tx, sourceFileID, line, rec.NaturalKey); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrProgressNotSaved, err)
	}

	return nil
}

func insertCallRecord(ctx context.Context, db DBTX, rec *CallRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	_, err := db.Exec(ctx, `
		INSERT INTO call_records
			(id, natural_key, call_time, priority, district, description, address, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.NaturalKey, rec.CallTime, rec.Priority,
		rec.District, rec.Description, rec.Address, rec.Latitude, rec.Longitude,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRecord
		}
		return fmt.Errorf("insert call record %q: %w", rec.NaturalKey, err)
	}
	return nil
}

func saveProgress(ctx context.Context, db DBTX, sourceFileID uuid.UUID, line int64, recordID string) error {
	tag, err := db.Exec(ctx, `
		UPDATE source_files
		SET last_processed_line = $2, last_processed_record_id = $3
		WHERE id = $1 AND last_processed_line <= $2`,
		sourceFileID, line, recordID,
	)
	if err != nil {
		return fmt.Errorf("%w: update for file %s: %v", ErrProgressNotSaved, sourceFileID, err)
	}
	if tag.RowsAffected() == 0 {
		// Tracker row gone or progress moved past this line under us.
		return fmt.Errorf("%w: source file %s progress row not updated", ErrProgressNotSaved, sourceFileID)
	}
	return nil
}
