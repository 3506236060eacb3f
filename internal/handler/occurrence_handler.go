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

type occurrenceService interface {
	List(ctx context.Context, actor models.Actor, filter models.OccurrenceFilter) ([]models.Occurrence, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Occurrence, error)
	Create(ctx context.Context, actor models.Actor, req dto.CreateOccurrenceRequest) (*models.Occurrence, error)
	Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateOccurrenceRequest) (*models.Occurrence, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
}

// OccurrenceHandler exposes disciplinary and pedagogical occurrences.
type OccurrenceHandler struct {
	service occurrenceService
}

// NewOccurrenceHandler builds the handler.
func NewOccurrenceHandler(service occurrenceService) *OccurrenceHandler {
	return &OccurrenceHandler{service: service}
}

// List godoc
// @Summary List occurrences
// @Tags Occurrences
// @Produce json
// @Param studentId query string false "Student filter"
// @Param status query string false "OPEN, IN_REVIEW, CLOSED or ARCHIVED"
// @Success 200 {object} response.Envelope
// @Router /occurrences [get]
func (h *OccurrenceHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter := models.OccurrenceFilter{
		StudentID: strings.TrimSpace(c.Query("studentId")),
		Status:    models.OccurrenceStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
	}
	items, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get an occurrence
// @Tags Occurrences
// @Produce json
// @Param id path string true "Occurrence ID"
// @Success 200 {object} response.Envelope
// @Router /occurrences/{id} [get]
func (h *OccurrenceHandler) Get(c *gin.Context) {
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
// @Summary Register an occurrence
// @Tags Occurrences
// @Accept json
// @Produce json
// @Param payload body dto.CreateOccurrenceRequest true "Occurrence"
// @Success 201 {object} response.Envelope
// @Router /occurrences [post]
func (h *OccurrenceHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateOccurrenceRequest
	if !bindJSON(c, &req, "invalid occurrence payload") {
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
// @Summary Update an occurrence
// @Tags Occurrences
// @Accept json
// @Produce json
// @Param id path string true "Occurrence ID"
// @Param payload body dto.UpdateOccurrenceRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /occurrences/{id} [patch]
func (h *OccurrenceHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateOccurrenceRequest
	if !bindJSON(c, &req, "invalid occurrence payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete an occurrence
// @Tags Occurrences
// @Param id path string true "Occurrence ID"
// @Success 204
// @Router /occurrences/{id} [delete]
func (h *OccurrenceHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
