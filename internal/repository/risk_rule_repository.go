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

// RiskRuleRepository stores per-school risk rule configurations.
type RiskRuleRepository struct {
	db *sqlx.DB
}

// NewRiskRuleRepository constructs the repository.
func NewRiskRuleRepository(db *sqlx.DB) *RiskRuleRepository {
	return &RiskRuleRepository{db: db}
}

const riskRuleColumns = `id, school_id, name, definition, is_active, created_by, created_at, updated_at`

// Create inserts a rule.
func (r *RiskRuleRepository) Create(ctx context.Context, rule *models.RiskRuleConfig) error {
	now := time.Now().UTC()
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	rule.CreatedAt = now
	rule.UpdatedAt = now
	const query = `
INSERT INTO risk_rule_configs (id, school_id, name, definition, is_active, created_by, created_at, updated_at)
VALUES (:id, :school_id, :name, :definition, :is_active, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create risk rule: %w", err)
	}
	return nil
}

// Update replaces the name and definition of a rule.
func (r *RiskRuleRepository) Update(ctx context.Context, rule *models.RiskRuleConfig) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `
UPDATE risk_rule_configs SET name = :name, definition = :definition, is_active = :is_active, updated_at = :updated_at
WHERE id = :id AND school_id = :school_id`
	res, err := r.db.NamedExecContext(ctx, query, rule)
	if err != nil {
		return fmt.Errorf("update risk rule: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetActive toggles a rule.
func (r *RiskRuleRepository) SetActive(ctx context.Context, schoolID, id string, active bool) error {
	const query = `UPDATE risk_rule_configs SET is_active = $3, updated_at = $4 WHERE school_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, schoolID, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set risk rule active: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID loads a rule of the school.
func (r *RiskRuleRepository) FindByID(ctx context.Context, schoolID, id string) (*models.RiskRuleConfig, error) {
	query := `SELECT ` + riskRuleColumns + ` FROM risk_rule_configs WHERE school_id = $1 AND id = $2`
	var rule models.RiskRuleConfig
	if err := r.db.GetContext(ctx, &rule, query, schoolID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find risk rule: %w", err)
	}
	return &rule, nil
}

// ListActive returns the active rules of a school in creation order.
func (r *RiskRuleRepository) ListActive(ctx context.Context, schoolID string) ([]models.RiskRuleConfig, error) {
	query := `SELECT ` + riskRuleColumns + ` FROM risk_rule_configs WHERE school_id = $1 AND is_active = TRUE ORDER BY created_at ASC`
	var rules []models.RiskRuleConfig
	if err := r.db.SelectContext(ctx, &rules, query, schoolID); err != nil {
		return nil, fmt.Errorf("list active risk rules: %w", err)
	}
	return rules, nil
}

// List returns every rule of a school, newest first.
func (r *RiskRuleRepository) List(ctx context.Context, schoolID string) ([]models.RiskRuleConfig, error) {
	query := `SELECT ` + riskRuleColumns + ` FROM risk_rule_configs WHERE school_id = $1 ORDER BY created_at DESC`
	var rules []models.RiskRuleConfig
	if err := r.db.SelectContext(ctx, &rules, query, schoolID); err != nil {
		return nil, fmt.Errorf("list risk rules: %w", err)
	}
	return rules, nil
}
