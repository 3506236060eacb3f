package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
)

// AttachmentRepository persists uploaded file metadata.
type AttachmentRepository struct {
	db *sqlx.DB
}

// NewAttachmentRepository constructs the repository.
func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create inserts an attachment row.
func (r *AttachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	attachment.CreatedAt = time.Now().UTC()
	const query = `
INSERT INTO attachments (id, school_id, uploaded_by, scope, ref_id, file_name, path, mime_type, size_bytes, created_at)
VALUES (:id, :school_id, :uploaded_by, :scope, :ref_id, :file_name, :path, :mime_type, :size_bytes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attachment); err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

// FindByID loads an attachment.
func (r *AttachmentRepository) FindByID(ctx context.Context, id string) (*models.Attachment, error) {
	const query = `
SELECT id, school_id, uploaded_by, scope, ref_id, file_name, path, mime_type, size_bytes, created_at
FROM attachments WHERE id = $1`
	var attachment models.Attachment
	if err := r.db.GetContext(ctx, &attachment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find attachment: %w", err)
	}
	return &attachment, nil
}

// ListPaths returns every stored path referenced by an attachment row.
func (r *AttachmentRepository) ListPaths(ctx context.Context) ([]string, error) {
	var paths []string
	if err := r.db.SelectContext(ctx, &paths, `SELECT path FROM attachments`); err != nil {
		return nil, fmt.Errorf("list attachment paths: %w", err)
	}
	return paths, nil
}
