package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
)

func TestAuditRepositoryCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.AuditLog{Action: models.AuditActionRunRiskRules, Summary: "rule matched"}
	require.NoError(t, repo.CreateAuditLog(context.Background(), nil, entry))
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "null", string(entry.Payload))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryListPaginates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs WHERE school_id = $1 AND action = $2 ORDER BY created_at DESC LIMIT 10 OFFSET 10")).
		WithArgs("school-1", models.AuditActionApprove).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_logs WHERE school_id = $1 AND action = $2")).
		WithArgs("school-1", models.AuditActionApprove).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	_, total, err := repo.List(context.Background(), "school-1", models.AuditLogFilter{Action: models.AuditActionApprove, Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
}
