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

// RiskAlertRepository persists risk alerts. At most one OPEN or ACKNOWLEDGED alert exists per
// (school, student, rule); the uq_risk_alerts_active index enforces it.
type RiskAlertRepository struct {
	db *sqlx.DB
}

// NewRiskAlertRepository constructs the repository.
func NewRiskAlertRepository(db *sqlx.DB) *RiskAlertRepository {
	return &RiskAlertRepository{db: db}
}

func (r *RiskAlertRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const riskAlertColumns = `id, school_id, student_id, rule_id, intervention_id, status, severity, summary, details, created_at, updated_at, resolved_at`

// FindActive returns the active alert of (school, student, rule) locking it for the unit of work.
func (r *RiskAlertRepository) FindActive(ctx context.Context, exec sqlx.ExtContext, schoolID, studentID, ruleID string) (*models.RiskAlert, error) {
	query := `SELECT ` + riskAlertColumns + ` FROM risk_alerts
WHERE school_id = $1 AND student_id = $2 AND rule_id = $3 AND status IN ($4, $5)
LIMIT 1 FOR UPDATE`
	var alert models.RiskAlert
	err := sqlx.GetContext(ctx, r.exec(exec), &alert, query, schoolID, studentID, ruleID, models.RiskAlertOpen, models.RiskAlertAcknowledged)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find active risk alert: %w", err)
	}
	return &alert, nil
}

// Create inserts a new OPEN alert.
func (r *RiskAlertRepository) Create(ctx context.Context, exec sqlx.ExtContext, alert *models.RiskAlert) error {
	now := time.Now().UTC()
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.Status == "" {
		alert.Status = models.RiskAlertOpen
	}
	alert.CreatedAt = now
	alert.UpdatedAt = now
	const query = `
INSERT INTO risk_alerts (id, school_id, student_id, rule_id, intervention_id, status, severity, summary, details, created_at, updated_at)
VALUES (:id, :school_id, :student_id, :rule_id, :intervention_id, :status, :severity, :summary, :details, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, alert); err != nil {
		return fmt.Errorf("create risk alert: %w", err)
	}
	return nil
}

// Refresh stamps a still-matching alert with its current severity.
func (r *RiskAlertRepository) Refresh(ctx context.Context, exec sqlx.ExtContext, id string, severity int, at time.Time) error {
	const query = `UPDATE risk_alerts SET severity = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, severity, at); err != nil {
		return fmt.Errorf("refresh risk alert: %w", err)
	}
	return nil
}

// Resolve closes an active alert.
func (r *RiskAlertRepository) Resolve(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) error {
	const query = `UPDATE risk_alerts SET status = $2, resolved_at = $3, updated_at = $3 WHERE id = $1 AND status <> $2`
	res, err := r.exec(exec).ExecContext(ctx, query, id, models.RiskAlertResolved, at)
	if err != nil {
		return fmt.Errorf("resolve risk alert: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Acknowledge moves an OPEN alert to ACKNOWLEDGED.
func (r *RiskAlertRepository) Acknowledge(ctx context.Context, schoolID, id string) error {
	const query = `UPDATE risk_alerts SET status = $3, updated_at = $4 WHERE school_id = $1 AND id = $2 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, schoolID, id, models.RiskAlertAcknowledged, time.Now().UTC(), models.RiskAlertOpen)
	if err != nil {
		return fmt.Errorf("acknowledge risk alert: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID loads an alert of the school.
func (r *RiskAlertRepository) FindByID(ctx context.Context, schoolID, id string) (*models.RiskAlert, error) {
	query := `SELECT ` + riskAlertColumns + ` FROM risk_alerts WHERE school_id = $1 AND id = $2`
	var alert models.RiskAlert
	if err := r.db.GetContext(ctx, &alert, query, schoolID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find risk alert: %w", err)
	}
	return &alert, nil
}

// List returns alerts of a school with student and rule names, newest first.
func (r *RiskAlertRepository) List(ctx context.Context, schoolID string, filter models.RiskAlertFilter) ([]models.RiskAlert, error) {
	var (
		conditions = []string{"a.school_id = $1"}
		args       = []interface{}{schoolID}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)))
	}
	query := fmt.Sprintf(`
SELECT a.id, a.school_id, a.student_id, s.name AS student_name, a.rule_id, r.name AS rule_name, a.intervention_id,
	a.status, a.severity, a.summary, a.details, a.created_at, a.updated_at, a.resolved_at
FROM risk_alerts a
JOIN students s ON s.id = a.student_id
JOIN risk_rule_configs r ON r.id = a.rule_id
WHERE %s
ORDER BY a.updated_at DESC
LIMIT %d`, strings.Join(conditions, " AND "), clampLimit(filter.Limit, 200, 1000))

	var alerts []models.RiskAlert
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, fmt.Errorf("list risk alerts: %w", err)
	}
	return alerts, nil
}

// CountActiveBySeverity groups the active alerts of a school by severity.
func (r *RiskAlertRepository) CountActiveBySeverity(ctx context.Context, schoolID string) ([]models.CountByKey, error) {
	const query = `
SELECT severity::text AS key, COUNT(*) AS total
FROM risk_alerts
WHERE school_id = $1 AND status IN ($2, $3)
GROUP BY severity
ORDER BY severity DESC`
	var counts []models.CountByKey
	if err := r.db.SelectContext(ctx, &counts, query, schoolID, models.RiskAlertOpen, models.RiskAlertAcknowledged); err != nil {
		return nil, fmt.Errorf("count risk alerts: %w", err)
	}
	return counts, nil
}
