package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
)

// DocumentRepository persists documents and their revision log.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const documentColumns = `id, school_id, template_id, created_by, approved_by, status, type, title, content, metadata, number,
	provisional_number, reserved_until, version, approved_at, archived_at, created_at, updated_at`

// Create inserts a document.
func (r *DocumentRepository) Create(ctx context.Context, exec sqlx.ExtContext, doc *models.Document) error {
	now := time.Now().UTC()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Status == "" {
		doc.Status = models.DocumentDraft
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	if len(doc.Metadata) == 0 {
		doc.Metadata = types.JSONText(`{}`)
	}
	doc.CreatedAt = now
	doc.UpdatedAt = now
	const query = `
INSERT INTO documents (id, school_id, template_id, created_by, status, type, title, content, metadata, version, created_at, updated_at)
VALUES (:id, :school_id, :template_id, :created_by, :status, :type, :title, :content, :metadata, :version, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// FindByID loads a document of the school.
func (r *DocumentRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE school_id = $1 AND id = $2`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, schoolID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return &doc, nil
}

// LockByID loads a document of the school with a row lock held until exec completes.
func (r *DocumentRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, schoolID, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE school_id = $1 AND id = $2 FOR UPDATE`
	var doc models.Document
	if err := sqlx.GetContext(ctx, r.exec(exec), &doc, query, schoolID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock document: %w", err)
	}
	return &doc, nil
}

// List returns documents of a school, most recently updated first.
func (r *DocumentRepository) List(ctx context.Context, schoolID string, filter models.DocumentFilter) ([]models.Document, error) {
	var (
		conditions = []string{"school_id = $1"}
		args       = []interface{}{schoolID}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, strings.ToUpper(filter.Type))
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE %s ORDER BY updated_at DESC LIMIT %d`,
		documentColumns, strings.Join(conditions, " AND "), clampLimit(filter.Limit, 100, 100))

	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// UpdateContent writes new content and the bumped version.
func (r *DocumentRepository) UpdateContent(ctx context.Context, exec sqlx.ExtContext, doc *models.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	const query = `
UPDATE documents SET title = :title, content = :content, metadata = :metadata, version = :version, updated_at = :updated_at
WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, doc); err != nil {
		return fmt.Errorf("update document content: %w", err)
	}
	return nil
}

// UpdateStatus moves a document to status.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.DocumentStatus, at time.Time) error {
	const query = `UPDATE documents SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, status, at); err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

// SetProvisional stores a reserved number.
func (r *DocumentRepository) SetProvisional(ctx context.Context, exec sqlx.ExtContext, id, number string, reservedUntil time.Time) error {
	const query = `UPDATE documents SET provisional_number = $2, reserved_until = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, number, reservedUntil); err != nil {
		return fmt.Errorf("set provisional number: %w", err)
	}
	return nil
}

// Approve stores the permanent number, clears the reservation and stamps approval.
func (r *DocumentRepository) Approve(ctx context.Context, exec sqlx.ExtContext, id, number string, approvedBy *string, at time.Time) error {
	const query = `
UPDATE documents SET number = $2, provisional_number = NULL, reserved_until = NULL, status = $3,
	approved_by = $4, approved_at = $5, updated_at = $5
WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, number, models.DocumentApproved, approvedBy, at); err != nil {
		return fmt.Errorf("approve document: %w", err)
	}
	return nil
}

// Archive moves a document to ARCHIVED.
func (r *DocumentRepository) Archive(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) error {
	const query = `UPDATE documents SET status = $2, archived_at = $3, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, models.DocumentArchived, at); err != nil {
		return fmt.Errorf("archive document: %w", err)
	}
	return nil
}

// Reopen returns an approved document to DRAFT under a new version, keeping its number.
func (r *DocumentRepository) Reopen(ctx context.Context, exec sqlx.ExtContext, id string, version int, at time.Time) error {
	const query = `
UPDATE documents SET status = $2, version = $3, provisional_number = NULL, reserved_until = NULL, updated_at = $4
WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, models.DocumentDraft, version, at); err != nil {
		return fmt.Errorf("reopen document: %w", err)
	}
	return nil
}

// MaxSequence returns the highest sequence already used under prefix by a number or provisional number.
func (r *DocumentRepository) MaxSequence(ctx context.Context, exec sqlx.ExtContext, schoolID, prefix string) (int, error) {
	const query = `
SELECT number AS value FROM documents WHERE school_id = $1 AND left(number, length($2::text)) = $2::text
UNION ALL
SELECT provisional_number AS value FROM documents WHERE school_id = $1 AND left(provisional_number, length($2::text)) = $2::text`
	var values []string
	if err := sqlx.SelectContext(ctx, r.exec(exec), &values, query, schoolID, prefix); err != nil {
		return 0, fmt.Errorf("scan document numbers: %w", err)
	}
	highest := 0
	for _, value := range values {
		if seq := models.DocumentNumberSequence(value); seq > highest {
			highest = seq
		}
	}
	return highest, nil
}

// ExpireReservations clears lapsed provisional numbers of unnumbered drafts. An empty schoolID
// covers every school.
func (r *DocumentRepository) ExpireReservations(ctx context.Context, schoolID string, now time.Time) (int64, error) {
	query := `
UPDATE documents SET provisional_number = NULL, reserved_until = NULL
WHERE status = $1 AND number IS NULL AND reserved_until IS NOT NULL AND reserved_until <= $2`
	args := []interface{}{models.DocumentDraft, now}
	if schoolID != "" {
		query += ` AND school_id = $3`
		args = append(args, schoolID)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("expire reservations: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}

// StampPurged marks ARCHIVED documents archived before cutoff with a purgedAt metadata entry.
func (r *DocumentRepository) StampPurged(ctx context.Context, cutoff, now time.Time) (int64, error) {
	const query = `
UPDATE documents
SET metadata = COALESCE(metadata, '{}'::jsonb) || jsonb_build_object('purgedAt', $3::text)
WHERE status = $1 AND archived_at < $2 AND (metadata->>'purgedAt') IS NULL`
	res, err := r.db.ExecContext(ctx, query, models.DocumentArchived, cutoff, now.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("stamp purged documents: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}

// CountByStatus groups the documents of a school by status.
func (r *DocumentRepository) CountByStatus(ctx context.Context, schoolID string) ([]models.CountByKey, error) {
	const query = `SELECT status AS key, COUNT(*) AS total FROM documents WHERE school_id = $1 GROUP BY status ORDER BY status`
	var counts []models.CountByKey
	if err := r.db.SelectContext(ctx, &counts, query, schoolID); err != nil {
		return nil, fmt.Errorf("count documents by status: %w", err)
	}
	return counts, nil
}

// CreateRevision appends a revision row.
func (r *DocumentRepository) CreateRevision(ctx context.Context, exec sqlx.ExtContext, rev *models.DocumentRevision) error {
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO document_revisions (id, document_id, version, status, content, changelog, created_by, created_at)
VALUES (:id, :document_id, :version, :status, :content, :changelog, :created_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, rev); err != nil {
		return fmt.Errorf("create document revision: %w", err)
	}
	return nil
}

// ListRevisions returns the revision log of a document, newest version first.
func (r *DocumentRepository) ListRevisions(ctx context.Context, documentID string) ([]models.DocumentRevision, error) {
	const query = `
SELECT id, document_id, version, status, content, changelog, created_by, created_at
FROM document_revisions WHERE document_id = $1 ORDER BY version DESC`
	var revisions []models.DocumentRevision
	if err := r.db.SelectContext(ctx, &revisions, query, documentID); err != nil {
		return nil, fmt.Errorf("list document revisions: %w", err)
	}
	return revisions, nil
}
