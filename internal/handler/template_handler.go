package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	"github.com/noah-isme/sma-pedagogy-api/pkg/response"
)

type templateService interface {
	List(ctx context.Context, actor models.Actor) ([]models.Template, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Template, error)
	Create(ctx context.Context, actor models.Actor, req dto.CreateTemplateRequest) (*models.Template, error)
	Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateTemplateRequest) (*models.Template, error)
}

// TemplateHandler exposes document templates.
type TemplateHandler struct {
	service templateService
}

// NewTemplateHandler builds the handler.
func NewTemplateHandler(service templateService) *TemplateHandler {
	return &TemplateHandler{service: service}
}

// List godoc
// @Summary List templates
// @Description School templates first, then shared ones
// @Tags Templates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"templates": items, "placeholders": models.TemplatePlaceholders}, nil)
}

// Get godoc
// @Summary Get a template
// @Tags Templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /templates/{id} [get]
func (h *TemplateHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	tpl, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tpl, nil)
}

// Create godoc
// @Summary Create a template version
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body dto.CreateTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /templates [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateTemplateRequest
	if !bindJSON(c, &req, "invalid template payload") {
		return
	}
	tpl, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tpl)
}

// Update godoc
// @Summary Replace a template body
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body dto.UpdateTemplateRequest true "Template body"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /templates/{id} [patch]
func (h *TemplateHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateTemplateRequest
	if !bindJSON(c, &req, "invalid template payload") {
		return
	}
	tpl, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tpl, nil)
}
