package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-pedagogy-api/internal/dto"
	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	"github.com/noah-isme/sma-pedagogy-api/pkg/csvimport"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

type metricWriter interface {
	FindByRegistration(ctx context.Context, exec sqlx.ExtContext, schoolID, registration string) (*models.Student, error)
	UpsertMetric(ctx context.Context, exec sqlx.ExtContext, metric *models.StudentMetric) error
}

type importLogWriter interface {
	Create(ctx context.Context, exec sqlx.ExtContext, entry *models.CSVImportLog) error
}

type gradeParser interface {
	Parse(r io.Reader) (csvimport.Result, error)
}

// ImportService loads grade spreadsheets into student metrics.
type ImportService struct {
	students metricWriter
	logs     importLogWriter
	parser   gradeParser
	audit    auditLogger
	tx       transactor
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewImportService constructs the service. loc decides the default period year.
func NewImportService(students metricWriter, logs importLogWriter, parser gradeParser, audit auditLogger, tx transactor, loc *time.Location, logger *zap.Logger) *ImportService {
	if parser == nil {
		parser = csvimport.NewGradeParser(nil)
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		students: students,
		logs:     logs,
		parser:   parser,
		audit:    audit,
		tx:       tx,
		location: loc,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// DefaultPeriod is the metric period used when an import names none.
func (s *ImportService) DefaultPeriod() string {
	return fmt.Sprintf("ANO-%d", s.now().In(s.location).Year())
}

// ImportGrades parses the file and upserts one metric per known student under period. Rows with
// unknown registrations are skipped; invalid rows are reported by line. The metrics and the
// import log are written in one transaction.
func (s *ImportService) ImportGrades(ctx context.Context, actor models.Actor, fileName, period string, file io.Reader) (*dto.GradeImportResponse, error) {
	period = strings.TrimSpace(period)
	if period == "" {
		period = s.DefaultPeriod()
	}
	parsed, err := s.parser.Parse(file)
	if err != nil {
		if errors.Is(err, csvimport.ErrMissingColumns) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, err.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable csv file")
	}

	resp := &dto.GradeImportResponse{Skipped: []string{}, Errors: parsed.Errors}
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		processed := 0
		skipped := make([]string, 0)
		now := s.now()
		for _, row := range parsed.Rows {
			student, err := s.students.FindByRegistration(ctx, exec, actor.SchoolID, row.Registration)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					skipped = append(skipped, row.Registration)
					continue
				}
				return err
			}
			average := row.Average
			attendance := row.Attendance
			if err := s.students.UpsertMetric(ctx, exec, &models.StudentMetric{
				SchoolID:        actor.SchoolID,
				StudentID:       student.ID,
				Period:          period,
				Average:         &average,
				Attendance:      &attendance,
				SevereOccurs30d: row.SevereIncidents,
				LastComputedAt:  now,
			}); err != nil {
				return err
			}
			processed++
		}

		rawErrors, err := json.Marshal(parsed.Errors)
		if err != nil {
			return err
		}
		entry := &models.CSVImportLog{
			SchoolID:       actor.SchoolID,
			UserID:         actor.UserID,
			Type:           models.ImportTypeGrades,
			FileName:       fileName,
			RowCount:       len(parsed.Rows),
			ProcessedCount: processed,
			ErrorCount:     len(parsed.Errors),
			Log:            types.JSONText(rawErrors),
		}
		if err := s.logs.Create(ctx, exec, entry); err != nil {
			return err
		}
		resp.Processed = processed
		resp.Skipped = skipped
		resp.LogID = entry.ID
		return nil
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to import grades")
	}

	if s.audit != nil {
		school := actor.SchoolID
		target := "import:" + resp.LogID
		payload, _ := json.Marshal(map[string]interface{}{"period": period, "processed": resp.Processed, "errors": len(resp.Errors)})
		if err := s.audit.CreateAuditLog(ctx, nil, &models.AuditLog{
			SchoolID: &school,
			Action:   models.AuditActionImport,
			ActorID:  actor.IDRef(),
			Target:   &target,
			Summary:  fmt.Sprintf("Grade import %s", fileName),
			Payload:  types.JSONText(payload),
		}); err != nil {
			s.logger.Warn("failed to write audit log", zap.String("import_id", resp.LogID), zap.Error(err))
		}
	}
	s.logger.Info("grade import finished",
		zap.String("school_id", actor.SchoolID),
		zap.String("period", period),
		zap.Int("processed", resp.Processed),
		zap.Int("skipped", len(resp.Skipped)),
		zap.Int("errors", len(resp.Errors)),
	)
	return resp, nil
}
