package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

type interventionStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, intervention *models.Intervention) error
	FindByID(ctx context.Context, schoolID, id string) (*models.Intervention, error)
	List(ctx context.Context, schoolID string, filter models.InterventionFilter) ([]models.Intervention, error)
	Update(ctx context.Context, intervention *models.Intervention) error
}

type studentFinder interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.Student, error)
}

// InterventionService manages manual pedagogical follow-ups.
type InterventionService struct {
	repo      interventionStore
	students  studentFinder
	audit     auditLogger
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInterventionService constructs the service.
func NewInterventionService(repo interventionStore, students studentFinder, audit auditLogger, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *InterventionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InterventionService{repo: repo, students: students, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns the school's interventions, newest first.
func (s *InterventionService) List(ctx context.Context, actor models.Actor, filter models.InterventionFilter) ([]models.Intervention, error) {
	if filter.Status != "" && !validInterventionStatus(string(filter.Status)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	items, err := s.repo.List(ctx, actor.SchoolID, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list interventions")
	}
	return items, nil
}

// Get loads one intervention.
func (s *InterventionService) Get(ctx context.Context, actor models.Actor, id string) (*models.Intervention, error) {
	item, err := s.repo.FindByID(ctx, actor.SchoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "intervention not found")
		}
		return nil, appErrors.Internal(err, "failed to load intervention")
	}
	return item, nil
}

// Create opens an intervention. Status defaults to OPEN and the class defaults to the student's.
func (s *InterventionService) Create(ctx context.Context, actor models.Actor, req dto.CreateInterventionRequest) (*models.Intervention, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, "invalid intervention payload")
	}
	student, err := s.students.FindByID(ctx, actor.SchoolID, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}

	status := models.InterventionOpen
	if req.Status != "" {
		status = models.InterventionStatus(req.Status)
	}
	classID := req.ClassID
	if classID == nil {
		classID = student.ClassID
	}
	item := &models.Intervention{
		SchoolID:   actor.SchoolID,
		StudentID:  student.ID,
		ClassID:    classID,
		CreatedBy:  actor.IDRef(),
		Status:     status,
		Title:      strings.TrimSpace(req.Title),
		Summary:    req.Summary,
		Plan:       req.Plan,
		FollowUpAt: req.FollowUpAt,
	}
	if err := s.repo.Create(ctx, nil, item); err != nil {
		return nil, appErrors.Internal(err, "failed to create intervention")
	}
	s.record(ctx, actor, models.AuditActionCreate, item.ID, "Intervention created", map[string]interface{}{"title": item.Title})
	return item, nil
}

// Update patches status, plan, summary, follow-up date and assignee.
func (s *InterventionService) Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateInterventionRequest) (*models.Intervention, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, "invalid intervention payload")
	}
	item, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Status != nil {
		item.Status = models.InterventionStatus(*req.Status)
	}
	if req.Plan != nil {
		item.Plan = req.Plan
	}
	if req.Summary != nil {
		item.Summary = req.Summary
	}
	if req.FollowUpAt != nil {
		item.FollowUpAt = req.FollowUpAt
	}
	if req.AssignedToID != nil {
		if *req.AssignedToID == "" {
			item.AssignedTo = nil
		} else {
			assignee := *req.AssignedToID
			item.AssignedTo = &assignee
		}
	}
	if err := s.repo.Update(ctx, item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "intervention not found")
		}
		return nil, appErrors.Internal(err, "failed to update intervention")
	}
	s.record(ctx, actor, models.AuditActionUpdate, item.ID, "Intervention updated", req)
	return item, nil
}

func (s *InterventionService) record(ctx context.Context, actor models.Actor, action, id, summary string, payload interface{}) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, DashboardCacheKey(actor.SchoolID)); err != nil {
			s.logger.Warn("failed to invalidate dashboard cache", zap.String("school_id", actor.SchoolID), zap.Error(err))
		}
	}
	if s.audit == nil {
		return
	}
	raw, _ := json.Marshal(payload)
	school := actor.SchoolID
	target := "intervention:" + id
	if err := s.audit.CreateAuditLog(ctx, nil, &models.AuditLog{
		SchoolID: &school,
		Action:   action,
		ActorID:  actor.IDRef(),
		Target:   &target,
		Summary:  summary,
		Payload:  types.JSONText(raw),
	}); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("intervention_id", id), zap.Error(err))
	}
}

func validInterventionStatus(status string) bool {
	switch models.InterventionStatus(status) {
	case models.InterventionOpen, models.InterventionInProgress, models.InterventionCompleted, models.InterventionCancelled:
		return true
	}
	return false
}
