package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

type riskRuleServiceMock struct {
	alerts     []models.RiskAlert
	lastFilter models.RiskAlertFilter
	toggled    *bool
}

func (m *riskRuleServiceMock) ListRules(ctx context.Context, actor models.Actor) ([]models.RiskRuleConfig, error) {
	return nil, nil
}

func (m *riskRuleServiceMock) CreateRule(ctx context.Context, actor models.Actor, req dto.RiskRuleRequest) (*models.RiskRuleConfig, error) {
	return &models.RiskRuleConfig{ID: "rule-1"}, nil
}

func (m *riskRuleServiceMock) UpdateRule(ctx context.Context, actor models.Actor, id string, req dto.RiskRuleRequest) (*models.RiskRuleConfig, error) {
	return &models.RiskRuleConfig{ID: id}, nil
}

func (m *riskRuleServiceMock) SetRuleActive(ctx context.Context, actor models.Actor, id string, active bool) error {
	m.toggled = &active
	return nil
}

func (m *riskRuleServiceMock) ListAlerts(ctx context.Context, actor models.Actor, filter models.RiskAlertFilter) ([]models.RiskAlert, error) {
	m.lastFilter = filter
	return m.alerts, nil
}

func (m *riskRuleServiceMock) AcknowledgeAlert(ctx context.Context, actor models.Actor, id string) (*models.RiskAlert, error) {
	return &models.RiskAlert{ID: id, Status: models.RiskAlertAcknowledged}, nil
}

type riskRunnerMock struct {
	schoolID string
	err      error
}

func (m *riskRunnerMock) Run(ctx context.Context, schoolID string, actor models.Actor) (models.RiskRunSummary, error) {
	m.schoolID = schoolID
	return models.RiskRunSummary{RulesEvaluated: 2, AlertsCreated: 1}, m.err
}

func TestRiskHandlerRunUsesActiveSchool(t *testing.T) {
	runner := &riskRunnerMock{}
	handler := NewRiskHandler(&riskRuleServiceMock{}, runner)

	c, w := newTestContext(http.MethodPost, "/risk-rules/run", nil)
	handler.Run(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "school-1", runner.schoolID)
	assert.Contains(t, w.Body.String(), `"alerts_created":1`)

	handler = NewRiskHandler(&riskRuleServiceMock{}, &riskRunnerMock{err: appErrors.Clone(appErrors.ErrLocked, "busy")})
	c, w = newTestContext(http.MethodPost, "/risk-rules/run", nil)
	handler.Run(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRiskHandlerToggleRequiresFlag(t *testing.T) {
	rules := &riskRuleServiceMock{}
	handler := NewRiskHandler(rules, &riskRunnerMock{})

	c, w := newTestContext(http.MethodPatch, "/risk-rules/rule-1", []byte(`{}`))
	handler.ToggleRule(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodPatch, "/risk-rules/rule-1", []byte(`{"isActive":false}`))
	handler.ToggleRule(c)
	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, rules.toggled)
	assert.False(t, *rules.toggled)
}

func TestRiskHandlerExportAlertsCSV(t *testing.T) {
	name := "Ana"
	rules := &riskRuleServiceMock{alerts: []models.RiskAlert{{
		StudentID:   "st-1",
		StudentName: &name,
		RuleID:      "rule-1",
		Status:      models.RiskAlertOpen,
		Severity:    4,
		Summary:     "Media abaixo de 6",
		CreatedAt:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}}}
	handler := NewRiskHandler(rules, &riskRunnerMock{})

	c, w := newTestContext(http.MethodGet, "/risk-alerts/export?status=open", nil)
	handler.ExportAlerts(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RiskAlertOpen, rules.lastFilter.Status)
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(w.Body.String(), "\ufeff")), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "aluno;regra;status;severidade;resumo;criado_em", lines[0])
	assert.Equal(t, "Ana;rule-1;OPEN;4;Media abaixo de 6;2024-03-01T12:00:00Z", lines[1])
}
