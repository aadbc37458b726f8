package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sourceFileColumns = "id, uri, last_processed_line, last_processed_record_id, created_at"

// LatestSourceFile returns the most recently created source file entry.
// Returns ErrNoSourceFile if no entry exists yet.
func (s *Store) LatestSourceFile(ctx context.Context) (*SourceFile, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM source_files ORDER BY created_at DESC, id DESC LIMIT 1",
		sourceFileColumns,
	)
	return s.scanSourceFile(s.pool.QueryRow(ctx, query))
}

// FindSourceFileByURI returns the source file entry for the given uri.
// Returns ErrNoSourceFile if none exists.
func (s *Store) FindSourceFileByURI(ctx context.Context, uri string) (*SourceFile, error) {
	query := fmt.Sprintf("SELECT %s FROM source_files WHERE uri = $1", sourceFileColumns)
	return s.scanSourceFile(s.pool.QueryRow(ctx, query, uri))
}

// CreateSourceFile records a new source file with no progress.
func (s *Store) CreateSourceFile(ctx context.Context, uri string) (*SourceFile, error) {
	sf := &SourceFile{
		ID:  uuid.New(),
		URI: uri,
	}

	query := fmt.Sprintf(`
		INSERT INTO source_files (id, uri)
		VALUES ($1, $2)
		RETURNING %s`, sourceFileColumns)

	created, err := s.scanSourceFile(s.pool.QueryRow(ctx, query, sf.ID, sf.URI))
	if err != nil {
		return nil, fmt.Errorf("create source file: %w", err)
	}
	return created, nil
}

func (s *Store) scanSourceFile(row pgx.Row) (*SourceFile, error) {
	var sf SourceFile
	err := row.Scan(&sf.ID, &sf.URI, &sf.LastProcessedLine, &sf.LastProcessedRecordID, &sf.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSourceFile
	}
	if err != nil {
		return nil, fmt.Errorf("scan source file: %w", err)
	}
	return &sf, nil
}
