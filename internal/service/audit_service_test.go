package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
)

type auditReaderStub struct {
	filter   models.AuditLogFilter
	schoolID string
}

func (a *auditReaderStub) List(ctx context.Context, schoolID string, filter models.AuditLogFilter) ([]models.AuditLog, int, error) {
	a.schoolID = schoolID
	a.filter = filter
	return nil, 42, nil
}

func TestAuditServiceListNormalisesPaging(t *testing.T) {
	repo := &auditReaderStub{}
	svc := NewAuditService(repo)

	logs, page, err := svc.List(context.Background(), interventionActor(), models.AuditLogFilter{Action: " approve ", PageSize: 500})
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Equal(t, testSchoolID, repo.schoolID)
	assert.Equal(t, "APPROVE", repo.filter.Action)
	assert.Equal(t, &models.Pagination{Page: 1, PageSize: 100, TotalCount: 42}, page)
}
