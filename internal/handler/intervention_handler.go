package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	"github.com/noah-isme/sma-pedagogy-api/pkg/response"
)

type interventionService interface {
	List(ctx context.Context, actor models.Actor, filter models.InterventionFilter) ([]models.Intervention, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Intervention, error)
	Create(ctx context.Context, actor models.Actor, req dto.CreateInterventionRequest) (*models.Intervention, error)
	Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateInterventionRequest) (*models.Intervention, error)
}

// InterventionHandler exposes pedagogical interventions.
type InterventionHandler struct {
	service interventionService
}

// NewInterventionHandler builds the handler.
func NewInterventionHandler(service interventionService) *InterventionHandler {
	return &InterventionHandler{service: service}
}

// List godoc
// @Summary List interventions
// @Tags Interventions
// @Produce json
// @Param studentId query string false "Student filter"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /interventions [get]
func (h *InterventionHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter := models.InterventionFilter{
		StudentID: strings.TrimSpace(c.Query("studentId")),
		Status:    models.InterventionStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
	}
	items, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get an intervention
// @Tags Interventions
// @Produce json
// @Param id path string true "Intervention ID"
// @Success 200 {object} response.Envelope
// @Router /interventions/{id} [get]
func (h *InterventionHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Open an intervention
// @Tags Interventions
// @Accept json
// @Produce json
// @Param payload body dto.CreateInterventionRequest true "Intervention"
// @Success 201 {object} response.Envelope
// @Router /interventions [post]
func (h *InterventionHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateInterventionRequest
	if !bindJSON(c, &req, "invalid intervention payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update an intervention
// @Tags Interventions
// @Accept json
// @Produce json
// @Param id path string true "Intervention ID"
// @Param payload body dto.UpdateInterventionRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /interventions/{id} [patch]
func (h *InterventionHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateInterventionRequest
	if !bindJSON(c, &req, "invalid intervention payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
