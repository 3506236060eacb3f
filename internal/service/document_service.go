package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	"github.com/noah-isme/sma-pedagogy-api/pkg/database"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
	"github.com/noah-isme/sma-pedagogy-api/pkg/render"
)

// Document actions accepted by Transition.
const (
	DocumentActionSubmit  = "submit"
	DocumentActionApprove = "approve"
	DocumentActionArchive = "archive"
	DocumentActionReopen  = "reopen"
)

// Render formats.
const (
	DocumentFormatPDF  = "pdf"
	DocumentFormatDOCX = "docx"
)

type documentStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, doc *models.Document) error
	FindByID(ctx context.Context, schoolID, id string) (*models.Document, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, schoolID, id string) (*models.Document, error)
	List(ctx context.Context, schoolID string, filter models.DocumentFilter) ([]models.Document, error)
	UpdateContent(ctx context.Context, exec sqlx.ExtContext, doc *models.Document) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.DocumentStatus, at time.Time) error
	Archive(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) error
	Reopen(ctx context.Context, exec sqlx.ExtContext, id string, version int, at time.Time) error
	ListRevisions(ctx context.Context, documentID string) ([]models.DocumentRevision, error)
}

type documentNumberer interface {
	Reserve(ctx context.Context, exec sqlx.ExtContext, doc *models.Document, force bool) (string, error)
	Finalize(ctx context.Context, exec sqlx.ExtContext, doc *models.Document, approverID *string) (string, error)
	RecordRevision(ctx context.Context, exec sqlx.ExtContext, params RevisionParams) (*models.DocumentRevision, error)
}

type templateReader interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.Template, error)
}

type schoolReader interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type documentRenderer interface {
	Render(src render.Source) ([]byte, error)
}

// DocumentServiceParams groups constructor dependencies.
type DocumentServiceParams struct {
	Documents documentStore
	Numbering documentNumberer
	Templates templateReader
	Schools   schoolReader
	Users     userReader
	Audit     auditLogger
	Tx        transactor
	Cache     cacheInvalidator
	PDF       documentRenderer
	DOCX      documentRenderer
	Validator *validator.Validate
	Location  *time.Location
	Logger    *zap.Logger
}

// RenderedDocument is a generated file ready for download.
type RenderedDocument struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DocumentService drives the document lifecycle. Each mutation locks the document row and runs
// with its numbering and revision writes in a single transaction.
type DocumentService struct {
	documents documentStore
	numbering documentNumberer
	templates templateReader
	schools   schoolReader
	users     userReader
	audit     auditLogger
	tx        transactor
	cache     cacheInvalidator
	pdf       documentRenderer
	docx      documentRenderer
	validator *validator.Validate
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewDocumentService constructs the service.
func NewDocumentService(params DocumentServiceParams) *DocumentService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	pdf := params.PDF
	if pdf == nil {
		pdf = render.NewPDFRenderer()
	}
	docx := params.DOCX
	if docx == nil {
		docx = render.NewDOCXRenderer()
	}
	return &DocumentService{
		documents: params.Documents,
		numbering: params.Numbering,
		templates: params.Templates,
		schools:   params.Schools,
		users:     params.Users,
		audit:     params.Audit,
		tx:        params.Tx,
		cache:     params.Cache,
		pdf:       pdf,
		docx:      docx,
		validator: validate,
		location:  loc,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a DRAFT document, reserves its provisional number and records revision 1.
func (s *DocumentService) Create(ctx context.Context, actor models.Actor, req dto.CreateDocumentRequest) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, "invalid document payload")
	}
	metadata, err := normaliseMetadata(req.Metadata)
	if err != nil {
		return nil, err
	}

	content := req.Content
	if req.TemplateID != nil {
		tpl, err := s.templates.FindByID(ctx, actor.SchoolID, *req.TemplateID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
			}
			return nil, appErrors.Internal(err, "failed to load template")
		}
		if strings.TrimSpace(content) == "" {
			values, err := s.templateValues(ctx, actor, req.Title)
			if err != nil {
				return nil, err
			}
			for key, value := range req.Values {
				values[key] = value
			}
			content = RenderTemplate(tpl.HTML, values)
		}
	}

	doc := &models.Document{
		SchoolID:   actor.SchoolID,
		TemplateID: req.TemplateID,
		CreatedBy:  actor.UserID,
		Status:     models.DocumentDraft,
		Type:       strings.ToUpper(req.Type),
		Title:      strings.TrimSpace(req.Title),
		Content:    content,
		Metadata:   metadata,
		Version:    1,
	}
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.documents.Create(ctx, exec, doc); err != nil {
			return err
		}
		if _, err := s.numbering.Reserve(ctx, exec, doc, false); err != nil {
			return err
		}
		_, err := s.numbering.RecordRevision(ctx, exec, RevisionParams{
			DocumentID: doc.ID,
			Version:    doc.Version,
			Status:     doc.Status,
			Content:    doc.Content,
			Changelog:  "Initial version",
			AuthorID:   actor.UserID,
		})
		return err
	})
	if err != nil {
		return nil, s.mapError(err, "failed to create document")
	}

	s.record(ctx, actor, models.AuditActionCreate, doc, fmt.Sprintf("Document %q created", doc.Title))
	return doc, nil
}

// UpdateContent replaces the content of a DRAFT or REVIEW document, bumps its version and records
// a revision. Drafts keep a live number reservation.
func (s *DocumentService) UpdateContent(ctx context.Context, actor models.Actor, id string, req dto.UpdateDocumentRequest) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, "invalid document payload")
	}
	var metadata types.JSONText
	if len(req.Metadata) > 0 {
		normalised, err := normaliseMetadata(req.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = normalised
	}
	changelog := strings.TrimSpace(req.Changelog)
	if changelog == "" {
		changelog = "Update"
	}

	var doc *models.Document
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		locked, err := s.documents.LockByID(ctx, exec, actor.SchoolID, id)
		if err != nil {
			return err
		}
		if locked.Status == models.DocumentApproved || locked.Status == models.DocumentArchived {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "approved or archived documents must be reopened before editing")
		}
		if locked.Status == models.DocumentDraft {
			if _, err := s.numbering.Reserve(ctx, exec, locked, false); err != nil {
				return err
			}
		}
		if req.Title != nil {
			locked.Title = strings.TrimSpace(*req.Title)
		}
		locked.Content = req.Content
		if metadata != nil {
			locked.Metadata = metadata
		}
		locked.Version++
		if err := s.documents.UpdateContent(ctx, exec, locked); err != nil {
			return err
		}
		if _, err := s.numbering.RecordRevision(ctx, exec, RevisionParams{
			DocumentID: locked.ID,
			Version:    locked.Version,
			Status:     locked.Status,
			Content:    locked.Content,
			Changelog:  changelog,
			AuthorID:   actor.UserID,
		}); err != nil {
			return err
		}
		doc = locked
		return nil
	})
	if err != nil {
		return nil, s.mapError(err, "failed to update document")
	}

	s.record(ctx, actor, models.AuditActionUpdate, doc, fmt.Sprintf("Document %q updated to version %d", doc.Title, doc.Version))
	return doc, nil
}

// Transition applies a lifecycle action by name.
func (s *DocumentService) Transition(ctx context.Context, actor models.Actor, id, action string) (*models.Document, error) {
	switch action {
	case DocumentActionSubmit:
		return s.Submit(ctx, actor, id)
	case DocumentActionApprove:
		return s.Approve(ctx, actor, id)
	case DocumentActionArchive:
		return s.Archive(ctx, actor, id)
	case DocumentActionReopen:
		return s.Reopen(ctx, actor, id)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown document action")
	}
}

// Submit moves a DRAFT document to REVIEW.
func (s *DocumentService) Submit(ctx context.Context, actor models.Actor, id string) (*models.Document, error) {
	return s.transition(ctx, actor, id, "submit", func(exec sqlx.ExtContext, doc *models.Document, now time.Time) error {
		if doc.Status != models.DocumentDraft {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "only drafts can be submitted for review")
		}
		if err := s.documents.UpdateStatus(ctx, exec, doc.ID, models.DocumentReview, now); err != nil {
			return err
		}
		doc.Status = models.DocumentReview
		doc.UpdatedAt = now
		return nil
	})
}

// Approve moves a REVIEW document to APPROVED and gives it a permanent number.
func (s *DocumentService) Approve(ctx context.Context, actor models.Actor, id string) (*models.Document, error) {
	return s.transition(ctx, actor, id, "approve", func(exec sqlx.ExtContext, doc *models.Document, _ time.Time) error {
		if doc.Status != models.DocumentReview {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "only documents in review can be approved")
		}
		_, err := s.numbering.Finalize(ctx, exec, doc, actor.IDRef())
		return err
	})
}

// Archive moves a document in any state to ARCHIVED.
func (s *DocumentService) Archive(ctx context.Context, actor models.Actor, id string) (*models.Document, error) {
	return s.transition(ctx, actor, id, "archive", func(exec sqlx.ExtContext, doc *models.Document, now time.Time) error {
		if err := s.documents.Archive(ctx, exec, doc.ID, now); err != nil {
			return err
		}
		doc.Status = models.DocumentArchived
		doc.ArchivedAt = &now
		doc.UpdatedAt = now
		return nil
	})
}

// Reopen returns an APPROVED document to DRAFT under a new version. The permanent number is kept.
func (s *DocumentService) Reopen(ctx context.Context, actor models.Actor, id string) (*models.Document, error) {
	return s.transition(ctx, actor, id, "reopen", func(exec sqlx.ExtContext, doc *models.Document, now time.Time) error {
		if doc.Status != models.DocumentApproved {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "only approved documents can be reopened")
		}
		version := doc.Version + 1
		if err := s.documents.Reopen(ctx, exec, doc.ID, version, now); err != nil {
			return err
		}
		doc.Status = models.DocumentDraft
		doc.Version = version
		doc.ProvisionalNumber = nil
		doc.ReservedUntil = nil
		doc.UpdatedAt = now
		return nil
	})
}

func (s *DocumentService) transition(ctx context.Context, actor models.Actor, id, action string, apply func(exec sqlx.ExtContext, doc *models.Document, now time.Time) error) (*models.Document, error) {
	var doc *models.Document
	var from models.DocumentStatus
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		locked, err := s.documents.LockByID(ctx, exec, actor.SchoolID, id)
		if err != nil {
			return err
		}
		from = locked.Status
		if err := apply(exec, locked, s.now()); err != nil {
			return err
		}
		doc = locked
		return nil
	})
	if err != nil {
		return nil, s.mapError(err, "failed to "+action+" document")
	}

	auditAction := models.AuditActionStatusChange
	if action == DocumentActionApprove {
		auditAction = models.AuditActionApprove
	}
	s.record(ctx, actor, auditAction, doc, fmt.Sprintf("Document %q moved from %s to %s", doc.Title, from, doc.Status))
	s.logger.Info("document transitioned",
		zap.String("document_id", doc.ID),
		zap.String("school_id", doc.SchoolID),
		zap.String("action", action),
		zap.String("status", string(doc.Status)),
	)
	return doc, nil
}

// Get loads a document. An unnumbered draft whose reservation lapsed gets a fresh one.
func (s *DocumentService) Get(ctx context.Context, actor models.Actor, id string) (*models.Document, error) {
	doc, err := s.documents.FindByID(ctx, actor.SchoolID, id)
	if err != nil {
		return nil, s.mapError(err, "failed to load document")
	}
	if doc.Status != models.DocumentDraft || doc.Number != nil || doc.LiveReservation(s.now()) {
		return doc, nil
	}

	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		locked, err := s.documents.LockByID(ctx, exec, actor.SchoolID, id)
		if err != nil {
			return err
		}
		if locked.Status == models.DocumentDraft {
			if _, err := s.numbering.Reserve(ctx, exec, locked, false); err != nil {
				return err
			}
		}
		doc = locked
		return nil
	})
	if err != nil {
		return nil, s.mapError(err, "failed to reserve document number")
	}
	return doc, nil
}

// List returns the school's documents, newest first.
func (s *DocumentService) List(ctx context.Context, actor models.Actor, filter models.DocumentFilter) ([]models.Document, error) {
	if filter.Status != "" {
		switch models.DocumentStatus(strings.ToUpper(string(filter.Status))) {
		case models.DocumentDraft, models.DocumentReview, models.DocumentApproved, models.DocumentArchived:
			filter.Status = models.DocumentStatus(strings.ToUpper(string(filter.Status)))
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
		}
	}
	docs, err := s.documents.List(ctx, actor.SchoolID, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list documents")
	}
	return docs, nil
}

// ListRevisions returns the revision history of a document, newest version first.
func (s *DocumentService) ListRevisions(ctx context.Context, actor models.Actor, id string) ([]models.DocumentRevision, error) {
	if _, err := s.documents.FindByID(ctx, actor.SchoolID, id); err != nil {
		return nil, s.mapError(err, "failed to load document")
	}
	revisions, err := s.documents.ListRevisions(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list revisions")
	}
	return revisions, nil
}

// Render produces a PDF or DOCX file of the document.
func (s *DocumentService) Render(ctx context.Context, actor models.Actor, id, format string) (*RenderedDocument, error) {
	var (
		renderer    documentRenderer
		contentType string
	)
	switch format {
	case DocumentFormatPDF:
		renderer, contentType = s.pdf, "application/pdf"
	case DocumentFormatDOCX:
		renderer, contentType = s.docx, "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported format")
	}

	doc, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	school, err := s.schools.FindByID(ctx, doc.SchoolID)
	if err != nil {
		return nil, s.mapError(err, "failed to load school")
	}
	src := render.Source{
		Title:       doc.Title,
		SchoolName:  school.Name,
		SchoolCode:  school.Code,
		Content:     doc.Content,
		GeneratedAt: s.now().In(s.location),
	}
	switch {
	case doc.Number != nil:
		src.Number = *doc.Number
	case doc.ProvisionalNumber != nil:
		src.Number = *doc.ProvisionalNumber
		src.Provisional = true
	}
	if doc.CreatedBy != "" {
		author, err := s.users.FindByID(ctx, doc.CreatedBy)
		switch {
		case err == nil:
			src.Author = author.FullName
		case errors.Is(err, sql.ErrNoRows):
		default:
			return nil, appErrors.Internal(err, "failed to load author")
		}
	}

	data, err := renderer.Render(src)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render document")
	}
	return &RenderedDocument{
		Filename:    documentFilename(doc, format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (s *DocumentService) templateValues(ctx context.Context, actor models.Actor, title string) (map[string]string, error) {
	now := s.now().In(s.location)
	values := map[string]string{
		"doc.titulo":   title,
		"data":         now.Format("02/01/2006"),
		"hora":         now.Format("15:04"),
		"usuario.nome": actor.Name,
	}
	school, err := s.schools.FindByID(ctx, actor.SchoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Internal(err, "failed to load school")
	}
	values["escola.nome"] = school.Name
	values["escola.sigla"] = school.Code
	if school.Address != nil {
		values["escola.endereco"] = *school.Address
	}
	return values, nil
}

func (s *DocumentService) record(ctx context.Context, actor models.Actor, action string, doc *models.Document, summary string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, DashboardCacheKey(doc.SchoolID)); err != nil {
			s.logger.Warn("failed to invalidate dashboard cache", zap.String("school_id", doc.SchoolID), zap.Error(err))
		}
	}
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"status":  doc.Status,
		"version": doc.Version,
		"number":  doc.Number,
	})
	school := doc.SchoolID
	target := "document:" + doc.ID
	if err := s.audit.CreateAuditLog(ctx, nil, &models.AuditLog{
		SchoolID: &school,
		Action:   action,
		ActorID:  actor.IDRef(),
		Target:   &target,
		Summary:  summary,
		Payload:  types.JSONText(payload),
	}); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("document_id", doc.ID), zap.Error(err))
	}
}

func (s *DocumentService) mapError(err error, message string) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "document not found")
	case database.IsUniqueViolation(err), database.IsRetryable(err):
		return appErrors.Wrap(err, appErrors.ErrNumberConflict.Code, appErrors.ErrNumberConflict.Status, appErrors.ErrNumberConflict.Message)
	default:
		return appErrors.Internal(err, message)
	}
}

func normaliseMetadata(raw json.RawMessage) (types.JSONText, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return types.JSONText("{}"), nil
	}
	var probe map[string]interface{}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, "metadata must be a JSON object")
	}
	return types.JSONText(raw), nil
}

func documentFilename(doc *models.Document, format string) string {
	base := doc.ID
	switch {
	case doc.Number != nil:
		base = *doc.Number
	case doc.ProvisionalNumber != nil:
		base = *doc.ProvisionalNumber
	}
	base = strings.NewReplacer("/", "-", " ", "_").Replace(base)
	return base + "." + format
}
