package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AuditAction constants represent actions to be logged.
const (
	AuditActionCreate       = "CREATE"
	AuditActionUpdate       = "UPDATE"
	AuditActionDelete       = "DELETE"
	AuditActionApprove      = "APPROVE"
	AuditActionStatusChange = "STATUS_CHANGE"
	AuditActionLogin        = "LOGIN"
	AuditActionRunRiskRules = "RUN_RISK_RULES"
	AuditActionImport       = "IMPORT"
	AuditActionUpload       = "UPLOAD"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID        string         `db:"id" json:"id"`
	SchoolID  *string        `db:"school_id" json:"school_id,omitempty"`
	Action    string         `db:"action" json:"action"`
	ActorID   *string        `db:"actor_id" json:"actor_id,omitempty"`
	Target    *string        `db:"target" json:"target,omitempty"`
	Summary   string         `db:"summary" json:"summary"`
	Payload   types.JSONText `db:"payload" json:"payload,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// AuditLogFilter narrows audit listings.
type AuditLogFilter struct {
	Action   string
	ActorID  string
	Target   string
	Page     int
	PageSize int
}
