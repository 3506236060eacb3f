package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/middleware"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	"github.com/noah-isme/sma-pedagogy-api/internal/service"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

type documentServiceMock struct {
	doc        *models.Document
	err        error
	lastAction string
	lastFilter models.DocumentFilter
	rendered   *service.RenderedDocument
}

func (m *documentServiceMock) List(ctx context.Context, actor models.Actor, filter models.DocumentFilter) ([]models.Document, error) {
	m.lastFilter = filter
	return []models.Document{}, m.err
}

func (m *documentServiceMock) Get(ctx context.Context, actor models.Actor, id string) (*models.Document, error) {
	return m.doc, m.err
}

func (m *documentServiceMock) Create(ctx context.Context, actor models.Actor, req dto.CreateDocumentRequest) (*models.Document, error) {
	return m.doc, m.err
}

func (m *documentServiceMock) UpdateContent(ctx context.Context, actor models.Actor, id string, req dto.UpdateDocumentRequest) (*models.Document, error) {
	return m.doc, m.err
}

func (m *documentServiceMock) Transition(ctx context.Context, actor models.Actor, id, action string) (*models.Document, error) {
	m.lastAction = action
	return m.doc, m.err
}

func (m *documentServiceMock) ListRevisions(ctx context.Context, actor models.Actor, id string) ([]models.DocumentRevision, error) {
	return nil, m.err
}

func (m *documentServiceMock) Render(ctx context.Context, actor models.Actor, id, format string) (*service.RenderedDocument, error) {
	return m.rendered, m.err
}

func testActor() models.Actor {
	return models.Actor{UserID: "user-1", Name: "Ana", Role: models.RoleGestor, SchoolID: "school-1"}
}

func newTestContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	middleware.SetActor(c, testActor())
	return c, w
}

func TestDocumentHandlerApproveReturnsNumber(t *testing.T) {
	number := "OF-ESC/2024-0001"
	mockSvc := &documentServiceMock{doc: &models.Document{ID: "doc-1", Status: models.DocumentApproved, Number: &number}}
	handler := NewDocumentHandler(mockSvc)

	c, w := newTestContext(http.MethodPatch, "/documents/doc-1", []byte(`{"action":"approve"}`))
	c.Params = gin.Params{{Key: "id", Value: "doc-1"}}
	handler.Action(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "approve", mockSvc.lastAction)
	assert.Contains(t, w.Body.String(), `"number":"OF-ESC/2024-0001"`)
}

func TestDocumentHandlerRejectsUnknownAction(t *testing.T) {
	handler := NewDocumentHandler(&documentServiceMock{})
	c, w := newTestContext(http.MethodPatch, "/documents/doc-1", []byte(`{"action":"publish"}`))
	handler.Action(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDocumentHandlerMapsServiceErrors(t *testing.T) {
	handler := NewDocumentHandler(&documentServiceMock{err: appErrors.Clone(appErrors.ErrInvalidTransition, "not in review")})
	c, w := newTestContext(http.MethodPatch, "/documents/doc-1", []byte(`{"action":"approve"}`))
	handler.Action(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TRANSITION")
}

func TestDocumentHandlerListFilters(t *testing.T) {
	mockSvc := &documentServiceMock{}
	handler := NewDocumentHandler(mockSvc)
	c, w := newTestContext(http.MethodGet, "/documents?status=REVIEW&type=OF&limit=5", nil)
	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DocumentFilter{Status: models.DocumentReview, Type: "OF", Limit: 5}, mockSvc.lastFilter)

	c, w = newTestContext(http.MethodGet, "/documents?limit=many", nil)
	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandlerRendersPDF(t *testing.T) {
	handler := NewDocumentHandler(&documentServiceMock{rendered: &service.RenderedDocument{
		Filename: "OF-ESC-2024-0001.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3"),
	}})
	c, w := newTestContext(http.MethodGet, "/documents/doc-1/pdf", nil)
	handler.PDF(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "OF-ESC-2024-0001.pdf")
}

func TestDocumentHandlerRequiresActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/documents", nil)
	NewDocumentHandler(&documentServiceMock{}).List(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
