package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
)

// ImportLogRepository records spreadsheet import outcomes.
type ImportLogRepository struct {
	db *sqlx.DB
}

// NewImportLogRepository constructs the repository.
func NewImportLogRepository(db *sqlx.DB) *ImportLogRepository {
	return &ImportLogRepository{db: db}
}

// Create inserts an import log row, inside exec when provided.
func (r *ImportLogRepository) Create(ctx context.Context, exec sqlx.ExtContext, entry *models.CSVImportLog) error {
	if exec == nil {
		exec = r.db
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()
	const query = `
INSERT INTO csv_import_logs (id, school_id, user_id, type, file_name, row_count, processed_count, error_count, log, created_at)
VALUES (:id, :school_id, :user_id, :type, :file_name, :row_count, :processed_count, :error_count, :log, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, entry); err != nil {
		return fmt.Errorf("create import log: %w", err)
	}
	return nil
}
