package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

type memOccurrences struct{ items map[string]*models.Occurrence }

func (m *memOccurrences) Create(ctx context.Context, item *models.Occurrence) error {
	item.ID = "occ-1"
	clone := *item
	m.items[item.ID] = &clone
	return nil
}

func (m *memOccurrences) FindByID(ctx context.Context, schoolID, id string) (*models.Occurrence, error) {
	item, ok := m.items[id]
	if !ok || item.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (m *memOccurrences) List(ctx context.Context, schoolID string, filter models.OccurrenceFilter) ([]models.Occurrence, error) {
	var out []models.Occurrence
	for _, item := range m.items {
		if item.SchoolID == schoolID && (filter.StudentID == "" || item.StudentID == filter.StudentID) {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (m *memOccurrences) Update(ctx context.Context, item *models.Occurrence) error {
	clone := *item
	m.items[item.ID] = &clone
	return nil
}

func (m *memOccurrences) Delete(ctx context.Context, schoolID, id string) error {
	item, ok := m.items[id]
	if !ok || item.SchoolID != schoolID {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func validOccurrenceRequest() dto.CreateOccurrenceRequest {
	return dto.CreateOccurrenceRequest{
		StudentID:   testStudentID,
		Category:    "CONFLITO",
		Subtype:     "briga",
		Severity:    4,
		Description: "Discussao no intervalo",
		HappenedAt:  time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestOccurrenceServiceCreateAndUpdate(t *testing.T) {
	repo := &memOccurrences{items: map[string]*models.Occurrence{}}
	audit := &auditStub{}
	svc := NewOccurrenceService(repo, newStudentFinder(), audit, &invalidatorStub{}, nil, nil)
	ctx := context.Background()

	item, err := svc.Create(ctx, interventionActor(), validOccurrenceRequest())
	require.NoError(t, err)
	assert.Equal(t, models.OccurrenceOpen, item.Status)
	assert.Equal(t, models.OccurrenceConflict, item.Category)
	assert.Equal(t, "class-1", *item.ClassID)
	assert.Equal(t, "Occurrence CONFLITO/briga", audit.entries[0].Summary)

	status := "CLOSED"
	severity := 2
	updated, err := svc.Update(ctx, interventionActor(), item.ID, dto.UpdateOccurrenceRequest{Status: &status, Severity: &severity})
	require.NoError(t, err)
	assert.Equal(t, models.OccurrenceClosed, updated.Status)
	assert.Equal(t, 2, updated.Severity)
	assert.Equal(t, "Discussao no intervalo", updated.Description)

	list, err := svc.List(ctx, interventionActor(), models.OccurrenceFilter{StudentID: testStudentID})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, interventionActor(), item.ID))
	assert.ErrorIs(t, svc.Delete(ctx, interventionActor(), item.ID), appErrors.ErrNotFound)
	assert.Equal(t, models.AuditActionDelete, audit.entries[len(audit.entries)-1].Action)
}

func TestOccurrenceServiceValidation(t *testing.T) {
	svc := NewOccurrenceService(&memOccurrences{items: map[string]*models.Occurrence{}}, newStudentFinder(), nil, nil, nil, nil)
	ctx := context.Background()

	req := validOccurrenceRequest()
	req.Severity = 6
	_, err := svc.Create(ctx, interventionActor(), req)
	assert.ErrorIs(t, err, appErrors.ErrUnprocessable)

	req = validOccurrenceRequest()
	req.Category = "OUTRO"
	_, err = svc.Create(ctx, interventionActor(), req)
	assert.ErrorIs(t, err, appErrors.ErrUnprocessable)

	_, err = svc.List(ctx, interventionActor(), models.OccurrenceFilter{Status: "DONE"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Get(ctx, interventionActor(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
