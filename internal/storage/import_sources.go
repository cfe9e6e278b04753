package storage

import (
	"context"
	"fmt"

	"github.com/jcourtner/leadpipe/internal/model"
)

// CreateImportSource records one committed import batch.
func (s *SQLiteStorage) CreateImportSource(ctx context.Context, source *model.ImportSource) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.createImportSource(ctx, s.db, source)
}

func (s *SQLiteStorage) createImportSource(ctx context.Context, q querier, source *model.ImportSource) (int64, error) {
	if source == nil {
		return 0, fmt.Errorf("%w: source", ErrNilParameter)
	}
	if err := validateString(source.SourceName, "source name"); err != nil {
		return 0, err
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO import_sources (
			source_name, filename, total_records, imported_records,
			duplicate_records, broken_records, dnc_blocked_records
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		source.SourceName,
		nullString(source.Filename),
		source.TotalRecords,
		source.ImportedRecords,
		source.DuplicateRecords,
		source.BrokenRecords,
		source.DNCBlockedRecords,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create import source: %w", mapBusy(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import source ID: %w", err)
	}
	source.ID = id
	return id, nil
}
