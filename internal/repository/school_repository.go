package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
)

// SchoolRepository reads tenant records.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs the repository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// FindByID loads a school.
func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*models.School, error) {
	const query = `SELECT id, code, name, address, created_at FROM schools WHERE id = $1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find school: %w", err)
	}
	return &school, nil
}

// CodeOf returns the short code used in document numbers.
func (r *SchoolRepository) CodeOf(ctx context.Context, exec sqlx.ExtContext, id string) (string, error) {
	if exec == nil {
		exec = r.db
	}
	var code string
	if err := sqlx.GetContext(ctx, exec, &code, `SELECT code FROM schools WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("find school code: %w", err)
	}
	return code, nil
}

// ListIDs returns every school id.
func (r *SchoolRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM schools ORDER BY code`); err != nil {
		return nil, fmt.Errorf("list school ids: %w", err)
	}
	return ids, nil
}

// ListClasses returns the classes of a school ordered by name.
func (r *SchoolRepository) ListClasses(ctx context.Context, schoolID string) ([]models.Class, error) {
	const query = `SELECT id, school_id, name FROM classes WHERE school_id = $1 ORDER BY name ASC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, schoolID); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}
