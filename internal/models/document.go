package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// DocumentStatus is a state of the document lifecycle.
type DocumentStatus string

const (
	DocumentDraft    DocumentStatus = "DRAFT"
	DocumentReview   DocumentStatus = "REVIEW"
	DocumentApproved DocumentStatus = "APPROVED"
	DocumentArchived DocumentStatus = "ARCHIVED"
)

// Document is an official school document moving through draft, review and approval.
type Document struct {
	ID                string         `db:"id" json:"id"`
	SchoolID          string         `db:"school_id" json:"school_id"`
	TemplateID        *string        `db:"template_id" json:"template_id,omitempty"`
	CreatedBy         string         `db:"created_by" json:"created_by"`
	ApprovedBy        *string        `db:"approved_by" json:"approved_by,omitempty"`
	Status            DocumentStatus `db:"status" json:"status"`
	Type              string         `db:"type" json:"type"`
	Title             string         `db:"title" json:"title"`
	Content           string         `db:"content" json:"content"`
	Metadata          types.JSONText `db:"metadata" json:"metadata,omitempty"`
	Number            *string        `db:"number" json:"number,omitempty"`
	ProvisionalNumber *string        `db:"provisional_number" json:"provisional_number,omitempty"`
	ReservedUntil     *time.Time     `db:"reserved_until" json:"reserved_until,omitempty"`
	Version           int            `db:"version" json:"version"`
	ApprovedAt        *time.Time     `db:"approved_at" json:"approved_at,omitempty"`
	ArchivedAt        *time.Time     `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// LiveReservation reports whether the provisional number is still held at now.
func (d *Document) LiveReservation(now time.Time) bool {
	return d.ProvisionalNumber != nil && d.ReservedUntil != nil && d.ReservedUntil.After(now)
}

// DocumentRevision is an append-only snapshot of document content.
type DocumentRevision struct {
	ID         string         `db:"id" json:"id"`
	DocumentID string         `db:"document_id" json:"document_id"`
	Version    int            `db:"version" json:"version"`
	Status     DocumentStatus `db:"status" json:"status"`
	Content    string         `db:"content" json:"content"`
	Changelog  *string        `db:"changelog" json:"changelog,omitempty"`
	CreatedBy  string         `db:"created_by" json:"created_by"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	Status DocumentStatus
	Type   string
	Limit  int
}

// DocumentNumberPrefix is the shared prefix of every number issued for (type, school, year).
func DocumentNumberPrefix(docType, schoolCode string, year int) string {
	return fmt.Sprintf("%s-%s/%d-", docType, schoolCode, year)
}

// FormatDocumentNumber renders {TYPE}-{SCHOOL}/{YEAR}-{SEQ:04}.
func FormatDocumentNumber(docType, schoolCode string, year, seq int) string {
	return fmt.Sprintf("%s%04d", DocumentNumberPrefix(docType, schoolCode, year), seq)
}

// DocumentNumberSequence extracts the trailing sequence of a number, or 0 when malformed.
func DocumentNumberSequence(number string) int {
	idx := strings.LastIndex(number, "-")
	if idx < 0 || idx == len(number)-1 {
		return 0
	}
	seq, err := strconv.Atoi(number[idx+1:])
	if err != nil || seq < 0 {
		return 0
	}
	return seq
}
