package service

import (
	"context"
	"strings"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

type auditLogReader interface {
	List(ctx context.Context, schoolID string, filter models.AuditLogFilter) ([]models.AuditLog, int, error)
}

// AuditService exposes the audit trail of a school.
type AuditService struct {
	repo auditLogReader
}

// NewAuditService constructs the service.
func NewAuditService(repo auditLogReader) *AuditService {
	return &AuditService{repo: repo}
}

// List returns a page of audit entries, newest first.
func (s *AuditService) List(ctx context.Context, actor models.Actor, filter models.AuditLogFilter) ([]models.AuditLog, *models.Pagination, error) {
	filter.Action = strings.ToUpper(strings.TrimSpace(filter.Action))
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	logs, total, err := s.repo.List(ctx, actor.SchoolID, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list audit logs")
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}
