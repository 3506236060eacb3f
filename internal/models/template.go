package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TemplatePlaceholders lists the substitution keys offered to template authors.
var TemplatePlaceholders = []string{
	"{{escola.nome}}",
	"{{escola.sigla}}",
	"{{escola.endereco}}",
	"{{aluno.nome}}",
	"{{aluno.matricula}}",
	"{{turma.nome}}",
	"{{disciplina.sigla}}",
	"{{data}}",
	"{{hora}}",
	"{{responsavel.nome}}",
	"{{responsavel.relacao}}",
	"{{assinatura}}",
	"{{doc.numero}}",
	"{{doc.titulo}}",
	"{{usuario.nome}}",
	"{{url}}",
}

// Template is a versioned HTML body used to create documents. Global templates have no school.
type Template struct {
	ID           string         `db:"id" json:"id"`
	SchoolID     *string        `db:"school_id" json:"school_id,omitempty"`
	Code         string         `db:"code" json:"code"`
	Title        string         `db:"title" json:"title"`
	Type         string         `db:"type" json:"type"`
	HTML         string         `db:"html" json:"html"`
	Version      int            `db:"version" json:"version"`
	Changelog    *string        `db:"changelog" json:"changelog,omitempty"`
	Placeholders types.JSONText `db:"placeholders" json:"placeholders,omitempty"`
	CreatedBy    *string        `db:"created_by" json:"created_by,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}
