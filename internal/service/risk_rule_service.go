package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

type riskRuleStore interface {
	Create(ctx context.Context, rule *models.RiskRuleConfig) error
	Update(ctx context.Context, rule *models.RiskRuleConfig) error
	SetActive(ctx context.Context, schoolID, id string, active bool) error
	FindByID(ctx context.Context, schoolID, id string) (*models.RiskRuleConfig, error)
	List(ctx context.Context, schoolID string) ([]models.RiskRuleConfig, error)
}

type riskAlertReader interface {
	List(ctx context.Context, schoolID string, filter models.RiskAlertFilter) ([]models.RiskAlert, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.RiskAlert, error)
	Acknowledge(ctx context.Context, schoolID, id string) error
}

// RiskRuleService manages rule configurations and the alerts they produce.
type RiskRuleService struct {
	rules     riskRuleStore
	alerts    riskAlertReader
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRiskRuleService constructs the service.
func NewRiskRuleService(rules riskRuleStore, alerts riskAlertReader, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *RiskRuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RiskRuleService{rules: rules, alerts: alerts, cache: cache, validator: validate, logger: logger}
}

// ListRules returns every rule of the actor's school.
func (s *RiskRuleService) ListRules(ctx context.Context, actor models.Actor) ([]models.RiskRuleConfig, error) {
	rules, err := s.rules.List(ctx, actor.SchoolID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list risk rules")
	}
	return rules, nil
}

// CreateRule validates and stores a new rule.
func (s *RiskRuleService) CreateRule(ctx context.Context, actor models.Actor, req dto.RiskRuleRequest) (*models.RiskRuleConfig, error) {
	raw, err := s.encodeDefinition(req)
	if err != nil {
		return nil, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	rule := &models.RiskRuleConfig{
		SchoolID:   actor.SchoolID,
		Name:       req.Name,
		Definition: raw,
		IsActive:   active,
		CreatedBy:  actor.IDRef(),
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, appErrors.Internal(err, "failed to create risk rule")
	}
	s.logger.Info("risk rule created", zap.String("school_id", actor.SchoolID), zap.String("rule_id", rule.ID))
	return rule, nil
}

// UpdateRule replaces the name and definition of a rule.
func (s *RiskRuleService) UpdateRule(ctx context.Context, actor models.Actor, id string, req dto.RiskRuleRequest) (*models.RiskRuleConfig, error) {
	raw, err := s.encodeDefinition(req)
	if err != nil {
		return nil, err
	}
	rule, err := s.rules.FindByID(ctx, actor.SchoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "risk rule not found")
		}
		return nil, appErrors.Internal(err, "failed to load risk rule")
	}
	rule.Name = req.Name
	rule.Definition = raw
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := s.rules.Update(ctx, rule); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "risk rule not found")
		}
		return nil, appErrors.Internal(err, "failed to update risk rule")
	}
	return rule, nil
}

// SetRuleActive toggles a rule.
func (s *RiskRuleService) SetRuleActive(ctx context.Context, actor models.Actor, id string, active bool) error {
	if err := s.rules.SetActive(ctx, actor.SchoolID, id, active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "risk rule not found")
		}
		return appErrors.Internal(err, "failed to update risk rule")
	}
	return nil
}

// ListAlerts returns alerts of the actor's school.
func (s *RiskRuleService) ListAlerts(ctx context.Context, actor models.Actor, filter models.RiskAlertFilter) ([]models.RiskAlert, error) {
	if filter.Status != "" {
		switch filter.Status {
		case models.RiskAlertOpen, models.RiskAlertAcknowledged, models.RiskAlertResolved:
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid alert status")
		}
	}
	alerts, err := s.alerts.List(ctx, actor.SchoolID, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list risk alerts")
	}
	return alerts, nil
}

// AcknowledgeAlert moves an OPEN alert to ACKNOWLEDGED. It stays the active alert of its pair.
func (s *RiskRuleService) AcknowledgeAlert(ctx context.Context, actor models.Actor, id string) (*models.RiskAlert, error) {
	alert, err := s.alerts.FindByID(ctx, actor.SchoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "risk alert not found")
		}
		return nil, appErrors.Internal(err, "failed to load risk alert")
	}
	if alert.Status != models.RiskAlertOpen {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only OPEN alerts can be acknowledged")
	}
	if err := s.alerts.Acknowledge(ctx, actor.SchoolID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only OPEN alerts can be acknowledged")
		}
		return nil, appErrors.Internal(err, "failed to acknowledge risk alert")
	}
	alert.Status = models.RiskAlertAcknowledged
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, DashboardCacheKey(actor.SchoolID))
	}
	return alert, nil
}

func (s *RiskRuleService) encodeDefinition(req dto.RiskRuleRequest) ([]byte, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, "invalid risk rule payload")
	}
	if _, err := req.Definition.Decode(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, err.Error())
	}
	raw, err := json.Marshal(req.Definition)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to encode risk rule")
	}
	return raw, nil
}
