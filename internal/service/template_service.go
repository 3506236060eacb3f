package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

type templateStore interface {
	List(ctx context.Context, schoolID string) ([]models.Template, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.Template, error)
	CountByCode(ctx context.Context, schoolID, code string) (int, error)
	Create(ctx context.Context, tpl *models.Template) error
	UpdateHTML(ctx context.Context, tpl *models.Template) error
}

// TemplateService manages versioned document templates.
type TemplateService struct {
	repo      templateStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTemplateService constructs the service.
func NewTemplateService(repo templateStore, validate *validator.Validate, logger *zap.Logger) *TemplateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{repo: repo, validator: validate, logger: logger}
}

// List returns the school's templates followed by the shared ones.
func (s *TemplateService) List(ctx context.Context, actor models.Actor) ([]models.Template, error) {
	templates, err := s.repo.List(ctx, actor.SchoolID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list templates")
	}
	return templates, nil
}

// Get loads a template visible to the actor's school.
func (s *TemplateService) Get(ctx context.Context, actor models.Actor, id string) (*models.Template, error) {
	tpl, err := s.repo.FindByID(ctx, actor.SchoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Internal(err, "failed to load template")
	}
	return tpl, nil
}

// Create stores the next version of a template code.
func (s *TemplateService) Create(ctx context.Context, actor models.Actor, req dto.CreateTemplateRequest) (*models.Template, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, "invalid template payload")
	}
	count, err := s.repo.CountByCode(ctx, actor.SchoolID, req.Code)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count template versions")
	}
	version := count + 1
	changelog := strings.TrimSpace(req.Changelog)
	if changelog == "" {
		changelog = fmt.Sprintf("Version %d", version)
	}
	placeholders, err := json.Marshal(models.TemplatePlaceholders)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to encode placeholders")
	}
	school := actor.SchoolID
	tpl := &models.Template{
		SchoolID:     &school,
		Code:         req.Code,
		Title:        req.Title,
		Type:         strings.ToUpper(req.Type),
		HTML:         req.HTML,
		Version:      version,
		Changelog:    &changelog,
		Placeholders: placeholders,
		CreatedBy:    actor.IDRef(),
	}
	if err := s.repo.Create(ctx, tpl); err != nil {
		return nil, appErrors.Internal(err, "failed to create template")
	}
	return tpl, nil
}

// Update replaces the body of one of the school's templates and bumps its version. Shared
// templates cannot be edited.
func (s *TemplateService) Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateTemplateRequest) (*models.Template, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, "invalid template payload")
	}
	tpl, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if tpl.SchoolID == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "shared templates are read-only")
	}
	changelog := strings.TrimSpace(req.Changelog)
	if changelog == "" {
		changelog = "Update"
	}
	tpl.HTML = req.HTML
	tpl.Changelog = &changelog
	tpl.Version++
	if err := s.repo.UpdateHTML(ctx, tpl); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Internal(err, "failed to update template")
	}
	return tpl, nil
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// RenderTemplate substitutes {{key}} placeholders with HTML-escaped values. Unknown keys are
// left untouched.
func RenderTemplate(body string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(body, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := values[key]
		if !ok {
			return match
		}
		return html.EscapeString(value)
	})
}
