package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
)

// TemplateRepository persists document templates. Templates without a school are shared by all.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs the repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

const templateColumns = `id, school_id, code, title, type, html, version, changelog, placeholders, created_by, created_at, updated_at`

// List returns the templates visible to a school, its own first.
func (r *TemplateRepository) List(ctx context.Context, schoolID string) ([]models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates
WHERE school_id = $1 OR school_id IS NULL
ORDER BY school_id NULLS LAST, code ASC, version DESC
LIMIT 100`
	var templates []models.Template
	if err := r.db.SelectContext(ctx, &templates, query, schoolID); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// FindByID loads a template visible to the school.
func (r *TemplateRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = $2 AND (school_id = $1 OR school_id IS NULL)`
	var tpl models.Template
	if err := r.db.GetContext(ctx, &tpl, query, schoolID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find template: %w", err)
	}
	return &tpl, nil
}

// CountByCode counts the versions already stored for (school, code).
func (r *TemplateRepository) CountByCode(ctx context.Context, schoolID, code string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM templates WHERE school_id = $1 AND code = $2`, schoolID, code); err != nil {
		return 0, fmt.Errorf("count templates: %w", err)
	}
	return total, nil
}

// Create inserts a template.
func (r *TemplateRepository) Create(ctx context.Context, tpl *models.Template) error {
	now := time.Now().UTC()
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	if len(tpl.Placeholders) == 0 {
		tpl.Placeholders = types.JSONText(`[]`)
	}
	tpl.CreatedAt = now
	tpl.UpdatedAt = now
	const query = `
INSERT INTO templates (id, school_id, code, title, type, html, version, changelog, placeholders, created_by, created_at, updated_at)
VALUES (:id, :school_id, :code, :title, :type, :html, :version, :changelog, :placeholders, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tpl); err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// UpdateHTML replaces the body of a school template and bumps its version.
func (r *TemplateRepository) UpdateHTML(ctx context.Context, tpl *models.Template) error {
	tpl.UpdatedAt = time.Now().UTC()
	const query = `
UPDATE templates SET html = :html, changelog = :changelog, version = :version, updated_at = :updated_at
WHERE id = :id AND school_id = :school_id`
	res, err := r.db.NamedExecContext(ctx, query, tpl)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
