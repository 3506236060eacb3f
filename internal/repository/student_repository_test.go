package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
)

func TestStudentRepositoryListRiskSnapshots(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "name", "class_id", "period", "average", "attendance"}).
		AddRow("st-1", "Ana", "c-1", "ANO-2024", 5.5, 80.0).
		AddRow("st-2", "Bruno", nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN LATERAL")).
		WithArgs("school-1", models.StudentStatusActive).
		WillReturnRows(rows)

	snapshots, err := repo.ListRiskSnapshots(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	require.NotNil(t, snapshots[0].Average)
	assert.Equal(t, 5.5, *snapshots[0].Average)
	assert.Nil(t, snapshots[1].Average)
	assert.Nil(t, snapshots[1].Attendance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpsertMetric(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	avg := 7.5
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (student_id, period) DO UPDATE")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	metric := &models.StudentMetric{SchoolID: "school-1", StudentID: "st-1", Period: "ANO-2024", Average: &avg}
	require.NoError(t, repo.UpsertMetric(context.Background(), nil, metric))
	assert.NotEmpty(t, metric.ID)
	assert.False(t, metric.LastComputedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByRegistrationMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE school_id = $1 AND registration = $2")).
		WithArgs("school-1", "999").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByRegistration(context.Background(), nil, "school-1", "999")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStudentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("s.class_id = $2 AND (lower(s.name) LIKE $3 OR s.registration LIKE $3)")).
		WithArgs("school-1", "c-1", "%ana%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "class_id", "class_name", "registration", "name", "status", "created_at"}))

	_, err := repo.List(context.Background(), "school-1", models.StudentFilter{ClassID: "c-1", Search: "Ana"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
