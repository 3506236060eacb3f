package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	"github.com/noah-isme/sma-pedagogy-api/internal/service"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
	"github.com/noah-isme/sma-pedagogy-api/pkg/response"
)

// multipartOverhead leaves room for boundaries and form fields on top of the file payload.
const multipartOverhead = 1 << 20

type uploadService interface {
	Upload(ctx context.Context, actor models.Actor, scope string, refID *string, files []service.UploadFile) ([]dto.UploadedAttachment, error)
	Open(ctx context.Context, token string) (*models.Attachment, io.ReadCloser, error)
}

// UploadHandler receives attachments and serves them back through signed links.
type UploadHandler struct {
	service     uploadService
	maxFormSize int64
}

// NewUploadHandler builds the handler. maxFormSize bounds the whole request body.
func NewUploadHandler(service uploadService, maxFormSize int64) *UploadHandler {
	return &UploadHandler{service: service, maxFormSize: maxFormSize}
}

// Upload godoc
// @Summary Upload attachments
// @Description Multipart form with one or more "files", an optional scope and refId
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Files"
// @Param scope formData string false "document, occurrence or intervention"
// @Param refId formData string false "Owning record ID"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if h.maxFormSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFormSize+multipartOverhead)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.Clone(appErrors.ErrPayloadTooLarge, "total upload size exceeded"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart form"))
		return
	}

	headers := append(form.File["files"], form.File["file"]...)
	files := make([]service.UploadFile, 0, len(headers))
	defer func() {
		for _, f := range files {
			if closer, ok := f.Content.(io.Closer); ok {
				_ = closer.Close()
			}
		}
	}()
	for _, fh := range headers {
		file, err := openPart(fh)
		if err != nil {
			response.Error(c, err)
			return
		}
		files = append(files, service.UploadFile{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Content:     file,
		})
	}

	var refID *string
	if v := strings.TrimSpace(c.PostForm("refId")); v != "" {
		refID = &v
	}
	saved, err := h.service.Upload(c.Request.Context(), actor, c.PostForm("scope"), refID, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"files": saved})
}

// Download godoc
// @Summary Download an attachment through a signed link
// @Tags Uploads
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /uploads/{token} [get]
func (h *UploadHandler) Download(c *gin.Context) {
	attachment, content, err := h.service.Open(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer content.Close()
	c.DataFromReader(http.StatusOK, attachment.SizeBytes, attachment.MimeType, content, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", attachment.FileName),
		"Cache-Control":       "private, max-age=0",
	})
}

func openPart(fh *multipart.FileHeader) (multipart.File, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file part")
	}
	return file, nil
}
