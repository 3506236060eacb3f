package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

type memRiskRules struct {
	items map[string]*models.RiskRuleConfig
}

func (m *memRiskRules) Create(ctx context.Context, rule *models.RiskRuleConfig) error {
	rule.ID = "rule-1"
	clone := *rule
	m.items[rule.ID] = &clone
	return nil
}

func (m *memRiskRules) Update(ctx context.Context, rule *models.RiskRuleConfig) error {
	if _, ok := m.items[rule.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *rule
	m.items[rule.ID] = &clone
	return nil
}

func (m *memRiskRules) SetActive(ctx context.Context, schoolID, id string, active bool) error {
	item, ok := m.items[id]
	if !ok || item.SchoolID != schoolID {
		return sql.ErrNoRows
	}
	item.IsActive = active
	return nil
}

func (m *memRiskRules) FindByID(ctx context.Context, schoolID, id string) (*models.RiskRuleConfig, error) {
	item, ok := m.items[id]
	if !ok || item.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (m *memRiskRules) List(ctx context.Context, schoolID string) ([]models.RiskRuleConfig, error) {
	out := []models.RiskRuleConfig{}
	for _, item := range m.items {
		if item.SchoolID == schoolID {
			out = append(out, *item)
		}
	}
	return out, nil
}

type memRiskAlerts struct {
	items  map[string]*models.RiskAlert
	filter models.RiskAlertFilter
}

func (m *memRiskAlerts) List(ctx context.Context, schoolID string, filter models.RiskAlertFilter) ([]models.RiskAlert, error) {
	m.filter = filter
	out := []models.RiskAlert{}
	for _, item := range m.items {
		out = append(out, *item)
	}
	return out, nil
}

func (m *memRiskAlerts) FindByID(ctx context.Context, schoolID, id string) (*models.RiskAlert, error) {
	item, ok := m.items[id]
	if !ok || item.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (m *memRiskAlerts) Acknowledge(ctx context.Context, schoolID, id string) error {
	item, ok := m.items[id]
	if !ok || item.Status != models.RiskAlertOpen {
		return sql.ErrNoRows
	}
	item.Status = models.RiskAlertAcknowledged
	return nil
}

func lowAverageRequest() dto.RiskRuleRequest {
	return dto.RiskRuleRequest{
		Name: "Low average",
		Definition: models.RiskDefinitionSpec{
			Conditions: []models.RiskConditionSpec{{
				Metric:     models.MetricAverage,
				Comparator: models.ComparatorLT,
				Threshold:  floatPtr(6),
			}},
		},
	}
}

func TestRiskRuleServiceCreateAndUpdate(t *testing.T) {
	rules := &memRiskRules{items: map[string]*models.RiskRuleConfig{}}
	svc := NewRiskRuleService(rules, &memRiskAlerts{}, nil, nil, nil)
	actor := interventionActor()

	created, err := svc.CreateRule(context.Background(), actor, lowAverageRequest())
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.Equal(t, testSchoolID, created.SchoolID)

	var stored models.RiskDefinitionSpec
	require.NoError(t, json.Unmarshal(created.Definition, &stored))
	assert.Equal(t, models.MetricAverage, stored.Conditions[0].Metric)

	inactive := false
	req := lowAverageRequest()
	req.Name = "Very low average"
	req.IsActive = &inactive
	updated, err := svc.UpdateRule(context.Background(), actor, created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Very low average", updated.Name)
	assert.False(t, rules.items[created.ID].IsActive)

	_, err = svc.UpdateRule(context.Background(), actor, "missing", lowAverageRequest())
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	require.NoError(t, svc.SetRuleActive(context.Background(), actor, created.ID, true))
	assert.True(t, rules.items[created.ID].IsActive)
	assert.ErrorIs(t, svc.SetRuleActive(context.Background(), actor, "missing", true), appErrors.ErrNotFound)

	list, err := svc.ListRules(context.Background(), actor)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRiskRuleServiceRejectsInvalidDefinitions(t *testing.T) {
	svc := NewRiskRuleService(&memRiskRules{items: map[string]*models.RiskRuleConfig{}}, &memRiskAlerts{}, nil, nil, nil)

	req := lowAverageRequest()
	req.Definition.Conditions = nil
	_, err := svc.CreateRule(context.Background(), interventionActor(), req)
	assert.ErrorIs(t, err, appErrors.ErrUnprocessable)

	req = lowAverageRequest()
	req.Definition.Conditions[0].Comparator = "~"
	_, err = svc.CreateRule(context.Background(), interventionActor(), req)
	assert.ErrorIs(t, err, appErrors.ErrUnprocessable)
}

func TestRiskRuleServiceAcknowledgeAlert(t *testing.T) {
	alerts := &memRiskAlerts{items: map[string]*models.RiskAlert{
		"alert-1": {ID: "alert-1", SchoolID: testSchoolID, Status: models.RiskAlertOpen},
		"alert-2": {ID: "alert-2", SchoolID: testSchoolID, Status: models.RiskAlertResolved},
	}}
	cache := &invalidatorStub{}
	svc := NewRiskRuleService(&memRiskRules{}, alerts, cache, nil, nil)
	actor := interventionActor()

	alert, err := svc.AcknowledgeAlert(context.Background(), actor, "alert-1")
	require.NoError(t, err)
	assert.Equal(t, models.RiskAlertAcknowledged, alert.Status)
	assert.Equal(t, []string{DashboardCacheKey(testSchoolID)}, cache.keys)

	_, err = svc.AcknowledgeAlert(context.Background(), actor, "alert-1")
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	_, err = svc.AcknowledgeAlert(context.Background(), actor, "alert-2")
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	_, err = svc.AcknowledgeAlert(context.Background(), actor, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestRiskRuleServiceListAlertsValidatesStatus(t *testing.T) {
	alerts := &memRiskAlerts{items: map[string]*models.RiskAlert{}}
	svc := NewRiskRuleService(&memRiskRules{}, alerts, nil, nil, nil)

	_, err := svc.ListAlerts(context.Background(), interventionActor(), models.RiskAlertFilter{Status: "DONE"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.ListAlerts(context.Background(), interventionActor(), models.RiskAlertFilter{Status: models.RiskAlertOpen})
	require.NoError(t, err)
	assert.Equal(t, models.RiskAlertOpen, alerts.filter.Status)
}
