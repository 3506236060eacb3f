package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
	"github.com/noah-isme/sma-pedagogy-api/pkg/response"
)

type importService interface {
	ImportGrades(ctx context.Context, actor models.Actor, fileName, period string, file io.Reader) (*dto.GradeImportResponse, error)
}

// ImportHandler receives grade spreadsheets.
type ImportHandler struct {
	service importService
}

// NewImportHandler builds the handler.
func NewImportHandler(service importService) *ImportHandler {
	return &ImportHandler{service: service}
}

// Grades godoc
// @Summary Import grade metrics from CSV
// @Description Semicolon separated, header row required. Rows with errors are reported and skipped.
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param period formData string false "Period label, defaults to ANO-{year}"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /imports/grades [post]
func (h *ImportHandler) Grades(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	file, err := openPart(fh)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	res, err := h.service.ImportGrades(c.Request.Context(), actor, fh.Filename, strings.TrimSpace(c.PostForm("period")), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
