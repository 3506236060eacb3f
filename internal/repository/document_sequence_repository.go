package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DocumentSequenceRepository hands out document sequence values from a counter row per
// (school, type, year).
type DocumentSequenceRepository struct {
	db *sqlx.DB
}

// NewDocumentSequenceRepository constructs the repository.
func NewDocumentSequenceRepository(db *sqlx.DB) *DocumentSequenceRepository {
	return &DocumentSequenceRepository{db: db}
}

// Next atomically increments and returns the counter. seed is the lowest value the call may
// return, so numbers issued before the counter existed are never reused.
func (r *DocumentSequenceRepository) Next(ctx context.Context, exec sqlx.ExtContext, schoolID, docType string, year, seed int) (int, error) {
	if exec == nil {
		exec = r.db
	}
	const query = `
INSERT INTO document_sequences (school_id, doc_type, year, last_value)
VALUES ($1, $2, $3, $4)
ON CONFLICT (school_id, doc_type, year)
DO UPDATE SET last_value = GREATEST(document_sequences.last_value + 1, EXCLUDED.last_value)
RETURNING last_value`
	var value int
	if err := sqlx.GetContext(ctx, exec, &value, query, schoolID, docType, year, seed); err != nil {
		return 0, fmt.Errorf("next document sequence: %w", err)
	}
	return value, nil
}
