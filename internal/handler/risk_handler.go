package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
	"github.com/noah-isme/sma-pedagogy-api/pkg/render"
	"github.com/noah-isme/sma-pedagogy-api/pkg/response"
)

type riskRuleService interface {
	ListRules(ctx context.Context, actor models.Actor) ([]models.RiskRuleConfig, error)
	CreateRule(ctx context.Context, actor models.Actor, req dto.RiskRuleRequest) (*models.RiskRuleConfig, error)
	UpdateRule(ctx context.Context, actor models.Actor, id string, req dto.RiskRuleRequest) (*models.RiskRuleConfig, error)
	SetRuleActive(ctx context.Context, actor models.Actor, id string, active bool) error
	ListAlerts(ctx context.Context, actor models.Actor, filter models.RiskAlertFilter) ([]models.RiskAlert, error)
	AcknowledgeAlert(ctx context.Context, actor models.Actor, id string) (*models.RiskAlert, error)
}

type riskRunner interface {
	Run(ctx context.Context, schoolID string, actor models.Actor) (models.RiskRunSummary, error)
}

// RiskHandler exposes rule management, manual evaluation and alert queries.
type RiskHandler struct {
	rules     riskRuleService
	evaluator riskRunner
}

// NewRiskHandler builds the handler.
func NewRiskHandler(rules riskRuleService, evaluator riskRunner) *RiskHandler {
	return &RiskHandler{rules: rules, evaluator: evaluator}
}

// ListRules godoc
// @Summary List risk rules
// @Tags Risk
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /risk-rules [get]
func (h *RiskHandler) ListRules(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	rules, err := h.rules.ListRules(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// CreateRule godoc
// @Summary Create a risk rule
// @Tags Risk
// @Accept json
// @Produce json
// @Param payload body dto.RiskRuleRequest true "Rule"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /risk-rules [post]
func (h *RiskHandler) CreateRule(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.RiskRuleRequest
	if !bindJSON(c, &req, "invalid risk rule payload") {
		return
	}
	rule, err := h.rules.CreateRule(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// UpdateRule godoc
// @Summary Replace a risk rule definition
// @Tags Risk
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param payload body dto.RiskRuleRequest true "Rule"
// @Success 200 {object} response.Envelope
// @Router /risk-rules/{id} [put]
func (h *RiskHandler) UpdateRule(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.RiskRuleRequest
	if !bindJSON(c, &req, "invalid risk rule payload") {
		return
	}
	rule, err := h.rules.UpdateRule(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// ToggleRule godoc
// @Summary Activate or deactivate a risk rule
// @Tags Risk
// @Accept json
// @Param id path string true "Rule ID"
// @Param payload body dto.RiskRuleToggleRequest true "Active flag"
// @Success 204
// @Router /risk-rules/{id} [patch]
func (h *RiskHandler) ToggleRule(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.RiskRuleToggleRequest
	if !bindJSON(c, &req, "invalid toggle payload") {
		return
	}
	if req.IsActive == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "isActive is required"))
		return
	}
	if err := h.rules.SetRuleActive(c.Request.Context(), actor, c.Param("id"), *req.IsActive); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Run godoc
// @Summary Evaluate the school's active rules now
// @Tags Risk
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /risk-rules/run [post]
func (h *RiskHandler) Run(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	summary, err := h.evaluator.Run(c.Request.Context(), actor.SchoolID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"result": summary}, nil)
}

// ListAlerts godoc
// @Summary List risk alerts
// @Tags Risk
// @Produce json
// @Param status query string false "OPEN, ACKNOWLEDGED or RESOLVED"
// @Param studentId query string false "Student filter"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /risk-alerts [get]
func (h *RiskHandler) ListAlerts(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter, err := alertFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	alerts, err := h.rules.ListAlerts(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alerts, nil)
}

// AcknowledgeAlert godoc
// @Summary Acknowledge an open alert
// @Tags Risk
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /risk-alerts/{id}/ack [post]
func (h *RiskHandler) AcknowledgeAlert(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	alert, err := h.rules.AcknowledgeAlert(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert, nil)
}

// ExportAlerts godoc
// @Summary Export risk alerts as CSV
// @Tags Risk
// @Produce text/csv
// @Param status query string false "OPEN, ACKNOWLEDGED or RESOLVED"
// @Success 200 {file} binary
// @Router /risk-alerts/export [get]
func (h *RiskHandler) ExportAlerts(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter, err := alertFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	alerts, err := h.rules.ListAlerts(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	data := render.Dataset{Headers: []string{"aluno", "regra", "status", "severidade", "resumo", "criado_em"}}
	for _, a := range alerts {
		data.Rows = append(data.Rows, []string{
			stringOr(a.StudentName, a.StudentID),
			stringOr(a.RuleName, a.RuleID),
			string(a.Status),
			strconv.Itoa(a.Severity),
			a.Summary,
			a.CreatedAt.Format(time.RFC3339),
		})
	}
	payload, err := render.CSV(data)
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to export alerts"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="risk-alerts.csv"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", payload)
}

func alertFilter(c *gin.Context) (models.RiskAlertFilter, error) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return models.RiskAlertFilter{}, err
	}
	return models.RiskAlertFilter{
		Status:    models.RiskAlertStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		StudentID: strings.TrimSpace(c.Query("studentId")),
		Limit:     limit,
	}, nil
}

func stringOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}
