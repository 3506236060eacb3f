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

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
)

// OccurrenceRepository persists occurrences.
type OccurrenceRepository struct {
	db *sqlx.DB
}

// NewOccurrenceRepository constructs the repository.
func NewOccurrenceRepository(db *sqlx.DB) *OccurrenceRepository {
	return &OccurrenceRepository{db: db}
}

const occurrenceSelect = `
SELECT o.id, o.school_id, o.student_id, s.name AS student_name, o.class_id, o.created_by, o.category, o.subtype,
	o.severity, o.description, o.actions_taken, o.status, o.is_confidential, o.happened_at, o.created_at, o.updated_at
FROM occurrences o
JOIN students s ON s.id = o.student_id`

// Create inserts a new occurrence.
func (r *OccurrenceRepository) Create(ctx context.Context, occurrence *models.Occurrence) error {
	now := time.Now().UTC()
	if occurrence.ID == "" {
		occurrence.ID = uuid.NewString()
	}
	if occurrence.Status == "" {
		occurrence.Status = models.OccurrenceOpen
	}
	occurrence.CreatedAt = now
	occurrence.UpdatedAt = now
	const query = `
INSERT INTO occurrences (id, school_id, student_id, class_id, created_by, category, subtype, severity, description,
	actions_taken, status, is_confidential, happened_at, created_at, updated_at)
VALUES (:id, :school_id, :student_id, :class_id, :created_by, :category, :subtype, :severity, :description,
	:actions_taken, :status, :is_confidential, :happened_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, occurrence); err != nil {
		return fmt.Errorf("create occurrence: %w", err)
	}
	return nil
}

// FindByID loads one occurrence of the school.
func (r *OccurrenceRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Occurrence, error) {
	query := occurrenceSelect + ` WHERE o.school_id = $1 AND o.id = $2`
	var occurrence models.Occurrence
	if err := r.db.GetContext(ctx, &occurrence, query, schoolID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find occurrence: %w", err)
	}
	return &occurrence, nil
}

// List returns occurrences newest first.
func (r *OccurrenceRepository) List(ctx context.Context, schoolID string, filter models.OccurrenceFilter) ([]models.Occurrence, error) {
	var (
		conditions = []string{"o.school_id = $1"}
		args       = []interface{}{schoolID}
	)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("o.student_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", len(args)))
	}
	query := fmt.Sprintf("%s WHERE %s ORDER BY o.happened_at DESC LIMIT %d",
		occurrenceSelect, strings.Join(conditions, " AND "), clampLimit(filter.Limit, 200, 200))

	var occurrences []models.Occurrence
	if err := r.db.SelectContext(ctx, &occurrences, query, args...); err != nil {
		return nil, fmt.Errorf("list occurrences: %w", err)
	}
	return occurrences, nil
}

// Update persists mutable occurrence fields.
func (r *OccurrenceRepository) Update(ctx context.Context, occurrence *models.Occurrence) error {
	occurrence.UpdatedAt = time.Now().UTC()
	const query = `
UPDATE occurrences SET severity = :severity, description = :description, actions_taken = :actions_taken,
	status = :status, is_confidential = :is_confidential, updated_at = :updated_at
WHERE id = :id AND school_id = :school_id`
	res, err := r.db.NamedExecContext(ctx, query, occurrence)
	if err != nil {
		return fmt.Errorf("update occurrence: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an occurrence.
func (r *OccurrenceRepository) Delete(ctx context.Context, schoolID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM occurrences WHERE school_id = $1 AND id = $2`, schoolID, id)
	if err != nil {
		return fmt.Errorf("delete occurrence: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListSignalsSince returns the occurrences of the school that happened at or after since.
func (r *OccurrenceRepository) ListSignalsSince(ctx context.Context, schoolID string, since time.Time) ([]models.OccurrenceSignal, error) {
	const query = `
SELECT student_id, severity, happened_at
FROM occurrences
WHERE school_id = $1 AND happened_at >= $2`
	var signals []models.OccurrenceSignal
	if err := r.db.SelectContext(ctx, &signals, query, schoolID, since); err != nil {
		return nil, fmt.Errorf("list occurrence signals: %w", err)
	}
	return signals, nil
}

// CountSince counts the occurrences of a school since a point in time.
func (r *OccurrenceRepository) CountSince(ctx context.Context, schoolID string, since time.Time) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM occurrences WHERE school_id = $1 AND happened_at >= $2`, schoolID, since); err != nil {
		return 0, fmt.Errorf("count occurrences: %w", err)
	}
	return total, nil
}

// PurgeBefore deletes occurrences of every school that happened before cutoff.
func (r *OccurrenceRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM occurrences WHERE happened_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge occurrences: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}
