package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

type memTemplates struct {
	items []*models.Template
}

func (m *memTemplates) visible(schoolID string, tpl *models.Template) bool {
	return tpl.SchoolID == nil || *tpl.SchoolID == schoolID
}

func (m *memTemplates) List(ctx context.Context, schoolID string) ([]models.Template, error) {
	out := []models.Template{}
	for _, tpl := range m.items {
		if m.visible(schoolID, tpl) {
			out = append(out, *tpl)
		}
	}
	return out, nil
}

func (m *memTemplates) FindByID(ctx context.Context, schoolID, id string) (*models.Template, error) {
	for _, tpl := range m.items {
		if tpl.ID == id && m.visible(schoolID, tpl) {
			clone := *tpl
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memTemplates) CountByCode(ctx context.Context, schoolID, code string) (int, error) {
	count := 0
	for _, tpl := range m.items {
		if tpl.Code == code && tpl.SchoolID != nil && *tpl.SchoolID == schoolID {
			count++
		}
	}
	return count, nil
}

func (m *memTemplates) Create(ctx context.Context, tpl *models.Template) error {
	tpl.ID = fmt.Sprintf("tpl-%d", len(m.items)+1)
	clone := *tpl
	m.items = append(m.items, &clone)
	return nil
}

func (m *memTemplates) UpdateHTML(ctx context.Context, tpl *models.Template) error {
	for i, item := range m.items {
		if item.ID == tpl.ID {
			clone := *tpl
			m.items[i] = &clone
			return nil
		}
	}
	return sql.ErrNoRows
}

func validTemplateRequest() dto.CreateTemplateRequest {
	return dto.CreateTemplateRequest{
		Code:  "OF",
		Title: "Oficio padrao",
		Type:  "of",
		HTML:  "<p>{{doc.titulo}} - {{escola.nome}}</p>",
	}
}

func TestTemplateServiceVersionsByCode(t *testing.T) {
	repo := &memTemplates{}
	svc := NewTemplateService(repo, nil, nil)
	actor := interventionActor()

	first, err := svc.Create(context.Background(), actor, validTemplateRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, "Version 1", *first.Changelog)
	assert.Equal(t, "OF", first.Type)
	assert.Contains(t, string(first.Placeholders), "escola.nome")

	req := validTemplateRequest()
	req.Changelog = "New letterhead"
	second, err := svc.Create(context.Background(), actor, req)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, "New letterhead", *second.Changelog)

	updated, err := svc.Update(context.Background(), actor, second.ID, dto.UpdateTemplateRequest{HTML: "<p>{{doc.titulo}}</p>"})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Version)
	assert.Equal(t, "Update", *updated.Changelog)
}

func TestTemplateServiceSharedTemplatesAreReadOnly(t *testing.T) {
	repo := &memTemplates{items: []*models.Template{{ID: "shared", Code: "ATA", Title: "Ata", Type: "ATA", HTML: "<p>shared</p>", Version: 1}}}
	svc := NewTemplateService(repo, nil, nil)

	list, err := svc.List(context.Background(), interventionActor())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.Update(context.Background(), interventionActor(), "shared", dto.UpdateTemplateRequest{HTML: "<p>changed body</p>"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Get(context.Background(), interventionActor(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTemplateServiceValidation(t *testing.T) {
	svc := NewTemplateService(&memTemplates{}, nil, nil)
	req := validTemplateRequest()
	req.HTML = "short"
	_, err := svc.Create(context.Background(), interventionActor(), req)
	assert.ErrorIs(t, err, appErrors.ErrUnprocessable)
}

func TestRenderTemplate(t *testing.T) {
	body := "<h1>{{ doc.titulo }}</h1><p>{{usuario.nome}}</p><p>{{desconhecido}}</p>"
	out := RenderTemplate(body, map[string]string{
		"doc.titulo":   "Convite <reuniao>",
		"usuario.nome": "Ana & Bia",
	})
	assert.Equal(t, "<h1>Convite &lt;reuniao&gt;</h1><p>Ana &amp; Bia</p><p>{{desconhecido}}</p>", out)
}
