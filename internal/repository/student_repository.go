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

// StudentRepository handles students and their computed metrics.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListRiskSnapshots returns every ACTIVE student of the school with their latest metric row.
func (r *StudentRepository) ListRiskSnapshots(ctx context.Context, schoolID string) ([]models.StudentRiskSnapshot, error) {
	const query = `
SELECT s.id AS student_id, s.name, s.class_id, m.period, m.average, m.attendance
FROM students s
LEFT JOIN LATERAL (
	SELECT period, average, attendance
	FROM student_metrics sm
	WHERE sm.student_id = s.id
	ORDER BY sm.last_computed_at DESC
	LIMIT 1
) m ON TRUE
WHERE s.school_id = $1 AND s.status = $2
ORDER BY s.name ASC`
	var snapshots []models.StudentRiskSnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, schoolID, models.StudentStatusActive); err != nil {
		return nil, fmt.Errorf("list risk snapshots: %w", err)
	}
	return snapshots, nil
}

// List returns the students of a school.
func (r *StudentRepository) List(ctx context.Context, schoolID string, filter models.StudentFilter) ([]models.Student, error) {
	var (
		conditions = []string{"s.school_id = $1"}
		args       = []interface{}{schoolID}
	)
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		conditions = append(conditions, fmt.Sprintf("s.class_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(lower(s.name) LIKE $%d OR s.registration LIKE $%d)", len(args), len(args)))
	}
	limit := clampLimit(filter.Limit, 500, 1000)
	query := fmt.Sprintf(`
SELECT s.id, s.school_id, s.class_id, c.name AS class_name, s.registration, s.name, s.status, s.created_at
FROM students s
LEFT JOIN classes c ON c.id = s.class_id
WHERE %s
ORDER BY s.name ASC
LIMIT %d`, strings.Join(conditions, " AND "), limit)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID loads a student of the school.
func (r *StudentRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Student, error) {
	const query = `
SELECT s.id, s.school_id, s.class_id, c.name AS class_name, s.registration, s.name, s.status, s.created_at
FROM students s
LEFT JOIN classes c ON c.id = s.class_id
WHERE s.school_id = $1 AND s.id = $2`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, schoolID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// FindByRegistration resolves a student by registration number within a school.
func (r *StudentRepository) FindByRegistration(ctx context.Context, exec sqlx.ExtContext, schoolID, registration string) (*models.Student, error) {
	const query = `
SELECT id, school_id, class_id, registration, name, status, created_at
FROM students
WHERE school_id = $1 AND registration = $2`
	var student models.Student
	if err := sqlx.GetContext(ctx, r.exec(exec), &student, query, schoolID, registration); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student by registration: %w", err)
	}
	return &student, nil
}

// UpsertMetric inserts or replaces the metric of (student, period).
func (r *StudentRepository) UpsertMetric(ctx context.Context, exec sqlx.ExtContext, metric *models.StudentMetric) error {
	if metric.ID == "" {
		metric.ID = uuid.NewString()
	}
	if metric.LastComputedAt.IsZero() {
		metric.LastComputedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO student_metrics (id, school_id, student_id, period, average, attendance, severe_occurs_30d, last_computed_at)
VALUES (:id, :school_id, :student_id, :period, :average, :attendance, :severe_occurs_30d, :last_computed_at)
ON CONFLICT (student_id, period) DO UPDATE SET
	average = EXCLUDED.average,
	attendance = EXCLUDED.attendance,
	severe_occurs_30d = EXCLUDED.severe_occurs_30d,
	last_computed_at = EXCLUDED.last_computed_at`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, metric); err != nil {
		return fmt.Errorf("upsert student metric: %w", err)
	}
	return nil
}
