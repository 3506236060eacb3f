package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
	"github.com/noah-isme/sma-pedagogy-api/pkg/storage"
)

type fileStore interface {
	SaveStream(name string, r io.Reader, limit int64) (int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

type attachmentStore interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	FindByID(ctx context.Context, id string) (*models.Attachment, error)
}

type urlSigner interface {
	Sign(attachmentID, path string) (string, time.Time, error)
	Verify(token string) (storage.Grant, error)
}

// UploadFile is one part of a multipart upload. Size is the size declared by the client.
type UploadFile struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadConfig limits accepted files.
type UploadConfig struct {
	MaxFileSize  int64
	MaxFormSize  int64
	AllowedMIMEs []string
	DownloadBase string
}

// UploadServiceParams groups constructor dependencies.
type UploadServiceParams struct {
	Files       fileStore
	Attachments attachmentStore
	Signer      urlSigner
	Audit       auditLogger
	Config      UploadConfig
	Logger      *zap.Logger
}

// UploadService stores attachments on disk and hands out signed download links.
type UploadService struct {
	files       fileStore
	attachments attachmentStore
	signer      urlSigner
	audit       auditLogger
	cfg         UploadConfig
	allowed     map[string]bool
	logger      *zap.Logger
	now         func() time.Time
}

// NewUploadService constructs the service.
func NewUploadService(params UploadServiceParams) *UploadService {
	cfg := params.Config
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if cfg.MaxFormSize <= 0 {
		cfg.MaxFormSize = 3 * cfg.MaxFileSize
	}
	allowed := make(map[string]bool, len(cfg.AllowedMIMEs))
	for _, m := range cfg.AllowedMIMEs {
		allowed[strings.ToLower(strings.TrimSpace(m))] = true
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{
		files:       params.Files,
		attachments: params.Attachments,
		signer:      params.Signer,
		audit:       params.Audit,
		cfg:         cfg,
		allowed:     allowed,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Upload validates every file first, then stores each one and records its attachment row.
func (s *UploadService) Upload(ctx context.Context, actor models.Actor, scope string, refID *string, files []UploadFile) ([]dto.UploadedAttachment, error) {
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one file is required")
	}
	scope = strings.ToLower(strings.TrimSpace(scope))
	if scope == "" {
		scope = models.AttachmentScopeDocument
	}
	switch scope {
	case models.AttachmentScopeDocument, models.AttachmentScopeOccurrence, models.AttachmentScopeIntervention:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid attachment scope")
	}
	if refID != nil && *refID != "" {
		if _, err := uuid.Parse(*refID); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "refId must be a uuid")
		}
	} else {
		refID = nil
	}

	var total int64
	mimes := make([]string, len(files))
	for i, f := range files {
		mediaType, err := s.mediaType(f.ContentType)
		if err != nil {
			return nil, err
		}
		mimes[i] = mediaType
		if f.Size > s.cfg.MaxFileSize {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %dMB", s.cfg.MaxFileSize/1024/1024))
		}
		total += f.Size
		if total > s.cfg.MaxFormSize {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, "total upload size exceeded")
		}
	}

	saved := make([]dto.UploadedAttachment, 0, len(files))
	for i, f := range files {
		now := s.now()
		name := fmt.Sprintf("%s/%s/%d-%s%s", actor.SchoolID, now.Format("2006/01"), now.UnixNano(), uuid.NewString(), strings.ToLower(filepath.Ext(f.FileName)))
		size, err := s.files.SaveStream(name, f.Content, s.cfg.MaxFileSize)
		if err != nil {
			if errors.Is(err, storage.ErrTooLarge) {
				return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %dMB", s.cfg.MaxFileSize/1024/1024))
			}
			return nil, appErrors.Internal(err, "failed to store file")
		}

		attachment := &models.Attachment{
			SchoolID:   actor.SchoolID,
			UploadedBy: actor.UserID,
			Scope:      scope,
			RefID:      refID,
			FileName:   filepath.Base(f.FileName),
			Path:       name,
			MimeType:   mimes[i],
			SizeBytes:  size,
		}
		if err := s.attachments.Create(ctx, attachment); err != nil {
			if delErr := s.files.Delete(name); delErr != nil {
				s.logger.Warn("failed to remove orphan upload", zap.String("path", name), zap.Error(delErr))
			}
			return nil, appErrors.Internal(err, "failed to record attachment")
		}
		token, expiresAt, err := s.signer.Sign(attachment.ID, attachment.Path)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to sign download url")
		}
		saved = append(saved, dto.UploadedAttachment{
			ID:          attachment.ID,
			FileName:    attachment.FileName,
			MimeType:    attachment.MimeType,
			SizeBytes:   attachment.SizeBytes,
			Scope:       attachment.Scope,
			RefID:       attachment.RefID,
			DownloadURL: strings.TrimRight(s.cfg.DownloadBase, "/") + "/" + token,
			ExpiresAt:   expiresAt,
		})
	}

	s.record(ctx, actor, scope, saved)
	return saved, nil
}

// Open resolves a signed token to its attachment and an open file handle. The caller closes it.
func (s *UploadService) Open(ctx context.Context, token string) (*models.Attachment, io.ReadCloser, error) {
	grant, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
	}
	attachment, err := s.attachments.FindByID(ctx, grant.AttachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, nil, appErrors.Internal(err, "failed to load attachment")
	}
	if attachment.Path != grant.Path {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
	}
	file, err := s.files.Open(attachment.Path)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to open attachment")
	}
	return attachment, file, nil
}

func (s *UploadService) mediaType(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !s.allowed[strings.ToLower(mediaType)] {
		return "", appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("unsupported file type: %s", contentType))
	}
	return strings.ToLower(mediaType), nil
}

func (s *UploadService) record(ctx context.Context, actor models.Actor, scope string, saved []dto.UploadedAttachment) {
	if s.audit == nil {
		return
	}
	ids := make([]string, 0, len(saved))
	for _, a := range saved {
		ids = append(ids, a.ID)
	}
	payload, _ := json.Marshal(map[string]interface{}{"scope": scope, "attachments": ids})
	school := actor.SchoolID
	target := "attachments:" + scope
	if err := s.audit.CreateAuditLog(ctx, nil, &models.AuditLog{
		SchoolID: &school,
		Action:   models.AuditActionUpload,
		ActorID:  actor.IDRef(),
		Target:   &target,
		Summary:  fmt.Sprintf("%d file(s) uploaded", len(saved)),
		Payload:  types.JSONText(payload),
	}); err != nil {
		s.logger.Warn("failed to write audit log", zap.Error(err))
	}
}
