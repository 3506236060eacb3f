package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	"github.com/noah-isme/sma-pedagogy-api/internal/service"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
	"github.com/noah-isme/sma-pedagogy-api/pkg/response"
)

type documentService interface {
	List(ctx context.Context, actor models.Actor, filter models.DocumentFilter) ([]models.Document, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Document, error)
	Create(ctx context.Context, actor models.Actor, req dto.CreateDocumentRequest) (*models.Document, error)
	UpdateContent(ctx context.Context, actor models.Actor, id string, req dto.UpdateDocumentRequest) (*models.Document, error)
	Transition(ctx context.Context, actor models.Actor, id, action string) (*models.Document, error)
	ListRevisions(ctx context.Context, actor models.Actor, id string) ([]models.DocumentRevision, error)
	Render(ctx context.Context, actor models.Actor, id, format string) (*service.RenderedDocument, error)
}

// DocumentHandler exposes the document lifecycle.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler builds the handler.
func NewDocumentHandler(service documentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// List godoc
// @Summary List documents
// @Tags Documents
// @Produce json
// @Param status query string false "DRAFT, REVIEW, APPROVED or ARCHIVED"
// @Param type query string false "Document type"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.DocumentFilter{
		Status: models.DocumentStatus(strings.TrimSpace(c.Query("status"))),
		Type:   strings.TrimSpace(c.Query("type")),
		Limit:  limit,
	}
	docs, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Create godoc
// @Summary Create a DRAFT document
// @Description Reserves a provisional number and records revision 1
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body dto.CreateDocumentRequest true "Document payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateDocumentRequest
	if !bindJSON(c, &req, "invalid document payload") {
		return
	}
	doc, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// Get godoc
// @Summary Get a document
// @Description Renews a lapsed provisional number of a DRAFT document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	doc, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Update godoc
// @Summary Replace document content
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.UpdateDocumentRequest true "Content payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /documents/{id} [put]
func (h *DocumentHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateDocumentRequest
	if !bindJSON(c, &req, "invalid document payload") {
		return
	}
	doc, err := h.service.UpdateContent(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Action godoc
// @Summary Move a document through its lifecycle
// @Description submit, approve, archive or reopen. Approval returns the permanent number.
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.DocumentActionRequest true "Action"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /documents/{id} [patch]
func (h *DocumentHandler) Action(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.DocumentActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, "invalid action"))
		return
	}
	doc, err := h.service.Transition(c.Request.Context(), actor, c.Param("id"), req.Action)
	if err != nil {
		response.Error(c, err)
		return
	}
	res := dto.DocumentActionResponse{Document: doc}
	if req.Action == service.DocumentActionApprove && doc.Number != nil {
		res.Number = *doc.Number
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Revisions godoc
// @Summary List document revisions
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/revisions [get]
func (h *DocumentHandler) Revisions(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	revisions, err := h.service.ListRevisions(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, revisions, nil)
}

// PDF godoc
// @Summary Render a document as PDF
// @Tags Documents
// @Produce application/pdf
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Router /documents/{id}/pdf [get]
func (h *DocumentHandler) PDF(c *gin.Context) {
	h.render(c, service.DocumentFormatPDF)
}

// DOCX godoc
// @Summary Render a document as DOCX
// @Tags Documents
// @Produce application/vnd.openxmlformats-officedocument.wordprocessingml.document
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Router /documents/{id}/docx [get]
func (h *DocumentHandler) DOCX(c *gin.Context) {
	h.render(c, service.DocumentFormatDOCX)
}

func (h *DocumentHandler) render(c *gin.Context, format string) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	out, err := h.service.Render(c.Request.Context(), actor, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Binary(c, out.ContentType, out.Filename, out.Data)
}
