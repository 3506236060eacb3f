// Package csvimport parses the grade and attendance spreadsheets exported by school systems.
package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// GradeRow is one validated spreadsheet line.
type GradeRow struct {
	Line            int     `json:"line"`
	Registration    string  `json:"matricula" validate:"required"`
	StudentName     string  `json:"aluno" validate:"required"`
	ClassName       string  `json:"turma" validate:"required"`
	Subject         string  `json:"disciplina" validate:"required"`
	Average         float64 `json:"media" validate:"gte=0,lte=10"`
	Attendance      float64 `json:"frequencia" validate:"gte=0,lte=100"`
	Period          string  `json:"periodo" validate:"required"`
	SevereIncidents int     `json:"ocorrenciasGraves" validate:"gte=0"`
}

// RowError reports why a line was rejected. Line 1 is the header.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Result carries the accepted rows and per-line rejections.
type Result struct {
	Rows   []GradeRow `json:"rows"`
	Errors []RowError `json:"errors"`
}

// ErrMissingColumns is returned when the header lacks a required column.
var ErrMissingColumns = errors.New("missing required columns")

var requiredColumns = []string{"matricula", "aluno", "turma", "disciplina", "media", "frequencia", "periodo"}

// GradeParser reads semicolon separated grade files.
type GradeParser struct {
	validate *validator.Validate
}

// NewGradeParser constructs a parser.
func NewGradeParser(v *validator.Validate) *GradeParser {
	if v == nil {
		v = validator.New()
	}
	return &GradeParser{validate: v}
}

// Parse reads the full file. Structural failures return an error; bad lines are collected in Result.Errors.
func (p *GradeParser) Parse(r io.Reader) (Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read csv: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Result{}, fmt.Errorf("%w: empty file", ErrMissingColumns)
		}
		return Result{}, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	result := Result{Rows: make([]GradeRow, 0), Errors: make([]RowError, 0)}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}
		if blank(record) {
			line--
			continue
		}
		row, rowErr := p.row(index, record)
		if rowErr != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Message: rowErr.Error()})
			continue
		}
		row.Line = line
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

func (p *GradeParser) row(index map[string]int, record []string) (GradeRow, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := GradeRow{
		Registration: field("matricula"),
		StudentName:  field("aluno"),
		ClassName:    field("turma"),
		Subject:      field("disciplina"),
		Period:       field("periodo"),
	}
	var err error
	if row.Average, err = decimal(field("media")); err != nil {
		return row, fmt.Errorf("media: %w", err)
	}
	if row.Attendance, err = decimal(field("frequencia")); err != nil {
		return row, fmt.Errorf("frequencia: %w", err)
	}
	if raw := field("ocorrenciasGraves"); raw != "" {
		if row.SevereIncidents, err = strconv.Atoi(raw); err != nil {
			return row, fmt.Errorf("ocorrenciasGraves: invalid integer %q", raw)
		}
	}

	if err := p.validate.Struct(row); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", columnName(fe.StructField()), fe.Tag()))
			}
			return row, errors.New(strings.Join(msgs, "; "))
		}
		return row, err
	}
	return row, nil
}

func decimal(raw string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("value required")
	}
	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return v, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func columnName(field string) string {
	switch field {
	case "Registration":
		return "matricula"
	case "StudentName":
		return "aluno"
	case "ClassName":
		return "turma"
	case "Subject":
		return "disciplina"
	case "Average":
		return "media"
	case "Attendance":
		return "frequencia"
	case "Period":
		return "periodo"
	case "SevereIncidents":
		return "ocorrenciasGraves"
	default:
		return field
	}
}
