package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

const (
	testSchoolID  = "0b4c5a6e-1f2d-4e3c-9a8b-7c6d5e4f3a2b"
	testStudentID = "9d8c7b6a-5f4e-4d3c-8b2a-1f0e9d8c7b6a"
)

type studentFinderStub struct{ students map[string]*models.Student }

func (s *studentFinderStub) FindByID(ctx context.Context, schoolID, id string) (*models.Student, error) {
	student, ok := s.students[id]
	if !ok || student.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

func newStudentFinder() *studentFinderStub {
	classID := "class-1"
	return &studentFinderStub{students: map[string]*models.Student{
		testStudentID: {ID: testStudentID, SchoolID: testSchoolID, ClassID: &classID, Name: "Joao"},
	}}
}

type memInterventions struct {
	items map[string]*models.Intervention
}

func (m *memInterventions) Create(ctx context.Context, exec sqlx.ExtContext, item *models.Intervention) error {
	item.ID = "iv-1"
	clone := *item
	m.items[item.ID] = &clone
	return nil
}

func (m *memInterventions) FindByID(ctx context.Context, schoolID, id string) (*models.Intervention, error) {
	item, ok := m.items[id]
	if !ok || item.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (m *memInterventions) List(ctx context.Context, schoolID string, filter models.InterventionFilter) ([]models.Intervention, error) {
	var out []models.Intervention
	for _, item := range m.items {
		if item.SchoolID == schoolID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (m *memInterventions) Update(ctx context.Context, item *models.Intervention) error {
	if _, ok := m.items[item.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *item
	m.items[item.ID] = &clone
	return nil
}

func interventionActor() models.Actor {
	return models.Actor{UserID: "user-1", Role: models.RolePedagogo, SchoolID: testSchoolID}
}

func TestInterventionServiceCreateDefaults(t *testing.T) {
	repo := &memInterventions{items: map[string]*models.Intervention{}}
	audit := &auditStub{}
	cache := &invalidatorStub{}
	svc := NewInterventionService(repo, newStudentFinder(), audit, cache, nil, nil)

	item, err := svc.Create(context.Background(), interventionActor(), dto.CreateInterventionRequest{
		StudentID: testStudentID,
		Title:     "Acompanhamento de frequencia",
	})
	require.NoError(t, err)
	assert.Equal(t, models.InterventionOpen, item.Status)
	require.NotNil(t, item.ClassID)
	assert.Equal(t, "class-1", *item.ClassID)
	require.NotNil(t, item.CreatedBy)
	assert.Equal(t, "user-1", *item.CreatedBy)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "intervention:iv-1", *audit.entries[0].Target)
	assert.Equal(t, []string{DashboardCacheKey(testSchoolID)}, cache.keys)
}

func TestInterventionServiceCreateRejects(t *testing.T) {
	svc := NewInterventionService(&memInterventions{items: map[string]*models.Intervention{}}, newStudentFinder(), nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), interventionActor(), dto.CreateInterventionRequest{StudentID: testStudentID, Title: "Oi"})
	assert.ErrorIs(t, err, appErrors.ErrUnprocessable)

	_, err = svc.Create(context.Background(), interventionActor(), dto.CreateInterventionRequest{
		StudentID: "11111111-2222-4333-8444-555555555555",
		Title:     "Acompanhamento",
	})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestInterventionServiceUpdatePatchesFields(t *testing.T) {
	repo := &memInterventions{items: map[string]*models.Intervention{}}
	svc := NewInterventionService(repo, newStudentFinder(), &auditStub{}, nil, nil, nil)
	ctx := context.Background()
	item, err := svc.Create(ctx, interventionActor(), dto.CreateInterventionRequest{StudentID: testStudentID, Title: "Acompanhamento"})
	require.NoError(t, err)

	status := "IN_PROGRESS"
	plan := "Reuniao com responsaveis"
	assignee := "7a6b5c4d-3e2f-4a1b-9c8d-7e6f5a4b3c2d"
	follow := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	updated, err := svc.Update(ctx, interventionActor(), item.ID, dto.UpdateInterventionRequest{
		Status: &status, Plan: &plan, AssignedToID: &assignee, FollowUpAt: &follow,
	})
	require.NoError(t, err)
	assert.Equal(t, models.InterventionInProgress, updated.Status)
	assert.Equal(t, plan, *updated.Plan)
	assert.Equal(t, assignee, *updated.AssignedTo)
	assert.Equal(t, "Acompanhamento", updated.Title)

	clear := ""
	updated, err = svc.Update(ctx, interventionActor(), item.ID, dto.UpdateInterventionRequest{AssignedToID: &clear})
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedTo)

	bad := "DONE"
	_, err = svc.Update(ctx, interventionActor(), item.ID, dto.UpdateInterventionRequest{Status: &bad})
	assert.ErrorIs(t, err, appErrors.ErrUnprocessable)

	other := interventionActor()
	other.SchoolID = "other"
	_, err = svc.Update(ctx, other, item.ID, dto.UpdateInterventionRequest{Plan: &plan})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestInterventionServiceListRejectsUnknownStatus(t *testing.T) {
	svc := NewInterventionService(&memInterventions{items: map[string]*models.Intervention{}}, newStudentFinder(), nil, nil, nil, nil)

	_, err := svc.List(context.Background(), interventionActor(), models.InterventionFilter{Status: "LATE"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
