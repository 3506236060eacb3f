package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

type occurrenceStore interface {
	Create(ctx context.Context, occurrence *models.Occurrence) error
	FindByID(ctx context.Context, schoolID, id string) (*models.Occurrence, error)
	List(ctx context.Context, schoolID string, filter models.OccurrenceFilter) ([]models.Occurrence, error)
	Update(ctx context.Context, occurrence *models.Occurrence) error
	Delete(ctx context.Context, schoolID, id string) error
}

// OccurrenceService records behavioural and academic occurrences.
type OccurrenceService struct {
	repo      occurrenceStore
	students  studentFinder
	audit     auditLogger
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOccurrenceService constructs the service.
func NewOccurrenceService(repo occurrenceStore, students studentFinder, audit auditLogger, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *OccurrenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OccurrenceService{repo: repo, students: students, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns occurrences ordered by when they happened, newest first.
func (s *OccurrenceService) List(ctx context.Context, actor models.Actor, filter models.OccurrenceFilter) ([]models.Occurrence, error) {
	if filter.Status != "" {
		switch filter.Status {
		case models.OccurrenceOpen, models.OccurrenceInReview, models.OccurrenceClosed, models.OccurrenceArchived:
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
		}
	}
	items, err := s.repo.List(ctx, actor.SchoolID, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list occurrences")
	}
	return items, nil
}

// Get loads one occurrence.
func (s *OccurrenceService) Get(ctx context.Context, actor models.Actor, id string) (*models.Occurrence, error) {
	item, err := s.repo.FindByID(ctx, actor.SchoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "occurrence not found")
		}
		return nil, appErrors.Internal(err, "failed to load occurrence")
	}
	return item, nil
}

// Create records an occurrence for a student of the actor's school.
func (s *OccurrenceService) Create(ctx context.Context, actor models.Actor, req dto.CreateOccurrenceRequest) (*models.Occurrence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, "invalid occurrence payload")
	}
	student, err := s.students.FindByID(ctx, actor.SchoolID, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	classID := req.ClassID
	if classID == nil {
		classID = student.ClassID
	}
	item := &models.Occurrence{
		SchoolID:       actor.SchoolID,
		StudentID:      student.ID,
		ClassID:        classID,
		CreatedBy:      actor.UserID,
		Category:       models.OccurrenceCategory(req.Category),
		Subtype:        strings.TrimSpace(req.Subtype),
		Severity:       req.Severity,
		Description:    strings.TrimSpace(req.Description),
		ActionsTaken:   req.ActionsTaken,
		Status:         models.OccurrenceOpen,
		IsConfidential: req.IsConfidential,
		HappenedAt:     req.HappenedAt.UTC(),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Internal(err, "failed to create occurrence")
	}
	s.record(ctx, actor, models.AuditActionCreate, item.ID, fmt.Sprintf("Occurrence %s/%s", item.Category, item.Subtype), item)
	return item, nil
}

// Update patches severity, description, actions taken, status and confidentiality.
func (s *OccurrenceService) Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateOccurrenceRequest) (*models.Occurrence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, "invalid occurrence payload")
	}
	item, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Severity != nil {
		item.Severity = *req.Severity
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.ActionsTaken != nil {
		item.ActionsTaken = req.ActionsTaken
	}
	if req.Status != nil {
		item.Status = models.OccurrenceStatus(*req.Status)
	}
	if req.IsConfidential != nil {
		item.IsConfidential = *req.IsConfidential
	}
	if err := s.repo.Update(ctx, item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "occurrence not found")
		}
		return nil, appErrors.Internal(err, "failed to update occurrence")
	}
	s.record(ctx, actor, models.AuditActionUpdate, item.ID, "Occurrence updated", req)
	return item, nil
}

// Delete removes an occurrence.
func (s *OccurrenceService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if err := s.repo.Delete(ctx, actor.SchoolID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "occurrence not found")
		}
		return appErrors.Internal(err, "failed to delete occurrence")
	}
	s.record(ctx, actor, models.AuditActionDelete, id, "Occurrence removed", nil)
	return nil
}

func (s *OccurrenceService) record(ctx context.Context, actor models.Actor, action, id, summary string, payload interface{}) {
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
	target := "occurrence:" + id
	if err := s.audit.CreateAuditLog(ctx, nil, &models.AuditLog{
		SchoolID: &school,
		Action:   action,
		ActorID:  actor.IDRef(),
		Target:   &target,
		Summary:  summary,
		Payload:  types.JSONText(raw),
	}); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("occurrence_id", id), zap.Error(err))
	}
}
