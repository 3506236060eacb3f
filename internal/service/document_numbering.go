package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
)

// Number kinds used as metric labels.
const (
	NumberKindProvisional = "provisional"
	NumberKindFinal       = "final"
)

// DefaultReservationTTL is how long a provisional number is held.
const DefaultReservationTTL = 7 * 24 * time.Hour

type documentNumberStore interface {
	MaxSequence(ctx context.Context, exec sqlx.ExtContext, schoolID, prefix string) (int, error)
	SetProvisional(ctx context.Context, exec sqlx.ExtContext, id, number string, reservedUntil time.Time) error
	Approve(ctx context.Context, exec sqlx.ExtContext, id, number string, approvedBy *string, at time.Time) error
	ExpireReservations(ctx context.Context, schoolID string, now time.Time) (int64, error)
	CreateRevision(ctx context.Context, exec sqlx.ExtContext, rev *models.DocumentRevision) error
}

type sequenceAllocator interface {
	Next(ctx context.Context, exec sqlx.ExtContext, schoolID, docType string, year, seed int) (int, error)
}

type schoolCodeReader interface {
	CodeOf(ctx context.Context, exec sqlx.ExtContext, id string) (string, error)
}

// RevisionParams describes one revision row.
type RevisionParams struct {
	DocumentID string
	Version    int
	Status     models.DocumentStatus
	Content    string
	Changelog  string
	AuthorID   string
}

// DocumentNumbering issues provisional and permanent document numbers and records revisions.
// Every method taking exec must run inside the transaction that mutates the document, with the
// document row already locked.
type DocumentNumbering struct {
	documents      documentNumberStore
	sequences      sequenceAllocator
	schools        schoolCodeReader
	metrics        *MetricsService
	reservationTTL time.Duration
	location       *time.Location
	logger         *zap.Logger
	now            func() time.Time
}

// NewDocumentNumbering constructs the numbering component. loc decides the calendar year used in
// numbers and defaults to UTC.
func NewDocumentNumbering(documents documentNumberStore, sequences sequenceAllocator, schools schoolCodeReader, metrics *MetricsService, reservationTTL time.Duration, loc *time.Location, logger *zap.Logger) *DocumentNumbering {
	if reservationTTL <= 0 {
		reservationTTL = DefaultReservationTTL
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentNumbering{
		documents:      documents,
		sequences:      sequences,
		schools:        schools,
		metrics:        metrics,
		reservationTTL: reservationTTL,
		location:       loc,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Reserve makes sure doc holds a number. A permanent number or a live reservation is returned
// unchanged unless force is set; otherwise a fresh provisional number is stored. doc is updated
// in place.
func (n *DocumentNumbering) Reserve(ctx context.Context, exec sqlx.ExtContext, doc *models.Document, force bool) (string, error) {
	if doc.Number != nil {
		return *doc.Number, nil
	}
	now := n.now()
	if !force && doc.LiveReservation(now) {
		return *doc.ProvisionalNumber, nil
	}

	number, err := n.allocate(ctx, exec, doc.SchoolID, doc.Type, now)
	if err != nil {
		return "", err
	}
	until := now.Add(n.reservationTTL)
	if err := n.documents.SetProvisional(ctx, exec, doc.ID, number, until); err != nil {
		return "", err
	}
	doc.ProvisionalNumber = &number
	doc.ReservedUntil = &until
	n.metrics.RecordDocumentNumber(NumberKindProvisional)
	n.logger.Debug("document number reserved", zap.String("document_id", doc.ID), zap.String("number", number))
	return number, nil
}

// Finalize gives doc its permanent number and marks it APPROVED. An already approved document
// is returned as is without writes. A live provisional number is promoted verbatim; a missing or
// lapsed one is replaced by a fresh sequence value.
func (n *DocumentNumbering) Finalize(ctx context.Context, exec sqlx.ExtContext, doc *models.Document, approverID *string) (string, error) {
	if doc.Number != nil && doc.Status == models.DocumentApproved {
		return *doc.Number, nil
	}
	now := n.now()

	var number string
	switch {
	case doc.Number != nil:
		number = *doc.Number
	case doc.LiveReservation(now):
		number = *doc.ProvisionalNumber
	default:
		allocated, err := n.allocate(ctx, exec, doc.SchoolID, doc.Type, now)
		if err != nil {
			return "", err
		}
		number = allocated
	}

	if err := n.documents.Approve(ctx, exec, doc.ID, number, approverID, now); err != nil {
		return "", err
	}
	if doc.Number == nil {
		n.metrics.RecordDocumentNumber(NumberKindFinal)
	}
	doc.Number = &number
	doc.ProvisionalNumber = nil
	doc.ReservedUntil = nil
	doc.Status = models.DocumentApproved
	doc.ApprovedBy = approverID
	doc.ApprovedAt = &now
	doc.UpdatedAt = now
	return number, nil
}

// RecordRevision appends an immutable revision row.
func (n *DocumentNumbering) RecordRevision(ctx context.Context, exec sqlx.ExtContext, params RevisionParams) (*models.DocumentRevision, error) {
	rev := &models.DocumentRevision{
		DocumentID: params.DocumentID,
		Version:    params.Version,
		Status:     params.Status,
		Content:    params.Content,
		CreatedBy:  params.AuthorID,
		CreatedAt:  n.now(),
	}
	if params.Changelog != "" {
		changelog := params.Changelog
		rev.Changelog = &changelog
	}
	if err := n.documents.CreateRevision(ctx, exec, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

// ExpireReservations clears lapsed reservations of unnumbered drafts. An empty schoolID covers
// every school.
func (n *DocumentNumbering) ExpireReservations(ctx context.Context, schoolID string) (int64, error) {
	return n.documents.ExpireReservations(ctx, schoolID, n.now())
}

func (n *DocumentNumbering) allocate(ctx context.Context, exec sqlx.ExtContext, schoolID, docType string, now time.Time) (string, error) {
	code, err := n.schools.CodeOf(ctx, exec, schoolID)
	if err != nil {
		return "", err
	}
	year := now.In(n.location).Year()
	prefix := models.DocumentNumberPrefix(docType, code, year)
	max, err := n.documents.MaxSequence(ctx, exec, schoolID, prefix)
	if err != nil {
		return "", err
	}
	seq, err := n.sequences.Next(ctx, exec, schoolID, docType, year, max+1)
	if err != nil {
		return "", err
	}
	return models.FormatDocumentNumber(docType, code, year, seq), nil
}
