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

// InterventionRepository persists pedagogical interventions.
type InterventionRepository struct {
	db *sqlx.DB
}

// NewInterventionRepository constructs the repository.
func NewInterventionRepository(db *sqlx.DB) *InterventionRepository {
	return &InterventionRepository{db: db}
}

func (r *InterventionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const interventionSelect = `
SELECT i.id, i.school_id, i.student_id, s.name AS student_name, i.class_id, i.created_by, i.assigned_to, i.status,
	i.title, i.summary, i.plan, i.follow_up_at, i.created_at, i.updated_at
FROM interventions i
JOIN students s ON s.id = i.student_id`

// Create inserts an intervention, inside exec when provided.
func (r *InterventionRepository) Create(ctx context.Context, exec sqlx.ExtContext, intervention *models.Intervention) error {
	now := time.Now().UTC()
	if intervention.ID == "" {
		intervention.ID = uuid.NewString()
	}
	if intervention.Status == "" {
		intervention.Status = models.InterventionOpen
	}
	intervention.CreatedAt = now
	intervention.UpdatedAt = now
	const query = `
INSERT INTO interventions (id, school_id, student_id, class_id, created_by, assigned_to, status, title, summary, plan,
	follow_up_at, created_at, updated_at)
VALUES (:id, :school_id, :student_id, :class_id, :created_by, :assigned_to, :status, :title, :summary, :plan,
	:follow_up_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, intervention); err != nil {
		return fmt.Errorf("create intervention: %w", err)
	}
	return nil
}

// FindByID loads an intervention of the school.
func (r *InterventionRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Intervention, error) {
	query := interventionSelect + ` WHERE i.school_id = $1 AND i.id = $2`
	var intervention models.Intervention
	if err := r.db.GetContext(ctx, &intervention, query, schoolID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find intervention: %w", err)
	}
	return &intervention, nil
}

// List returns interventions newest first.
func (r *InterventionRepository) List(ctx context.Context, schoolID string, filter models.InterventionFilter) ([]models.Intervention, error) {
	var (
		conditions = []string{"i.school_id = $1"}
		args       = []interface{}{schoolID}
	)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("i.student_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)))
	}
	query := fmt.Sprintf("%s WHERE %s ORDER BY i.created_at DESC LIMIT %d",
		interventionSelect, strings.Join(conditions, " AND "), clampLimit(filter.Limit, 200, 200))

	var interventions []models.Intervention
	if err := r.db.SelectContext(ctx, &interventions, query, args...); err != nil {
		return nil, fmt.Errorf("list interventions: %w", err)
	}
	return interventions, nil
}

// Update persists mutable intervention fields.
func (r *InterventionRepository) Update(ctx context.Context, intervention *models.Intervention) error {
	intervention.UpdatedAt = time.Now().UTC()
	const query = `
UPDATE interventions SET status = :status, title = :title, summary = :summary, plan = :plan,
	follow_up_at = :follow_up_at, assigned_to = :assigned_to, updated_at = :updated_at
WHERE id = :id AND school_id = :school_id`
	res, err := r.db.NamedExecContext(ctx, query, intervention)
	if err != nil {
		return fmt.Errorf("update intervention: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus groups the interventions of a school by status.
func (r *InterventionRepository) CountByStatus(ctx context.Context, schoolID string) ([]models.CountByKey, error) {
	const query = `SELECT status AS key, COUNT(*) AS total FROM interventions WHERE school_id = $1 GROUP BY status ORDER BY status`
	var counts []models.CountByKey
	if err := r.db.SelectContext(ctx, &counts, query, schoolID); err != nil {
		return nil, fmt.Errorf("count interventions by status: %w", err)
	}
	return counts, nil
}
