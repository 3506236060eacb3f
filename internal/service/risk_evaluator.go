package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	"github.com/noah-isme/sma-pedagogy-api/pkg/cache"
	"github.com/noah-isme/sma-pedagogy-api/pkg/database"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

const (
	riskTriggerManual    = "manual"
	riskTriggerScheduled = "scheduled"
	riskInterventionPlan = "Define an initial action plan with the pedagogical team."
)

type transactor interface {
	WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error
}

type activeRuleLister interface {
	ListActive(ctx context.Context, schoolID string) ([]models.RiskRuleConfig, error)
}

type riskSnapshotReader interface {
	ListRiskSnapshots(ctx context.Context, schoolID string) ([]models.StudentRiskSnapshot, error)
}

type occurrenceSignalReader interface {
	ListSignalsSince(ctx context.Context, schoolID string, since time.Time) ([]models.OccurrenceSignal, error)
}

type riskAlertWriter interface {
	FindActive(ctx context.Context, exec sqlx.ExtContext, schoolID, studentID, ruleID string) (*models.RiskAlert, error)
	Create(ctx context.Context, exec sqlx.ExtContext, alert *models.RiskAlert) error
	Refresh(ctx context.Context, exec sqlx.ExtContext, id string, severity int, at time.Time) error
	Resolve(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) error
}

type interventionCreator interface {
	Create(ctx context.Context, exec sqlx.ExtContext, intervention *models.Intervention) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, exec sqlx.ExtContext, entry *models.AuditLog) error
}

type runLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (*cache.Lease, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// RiskEvaluatorParams groups constructor dependencies.
type RiskEvaluatorParams struct {
	Rules         activeRuleLister
	Students      riskSnapshotReader
	Occurrences   occurrenceSignalReader
	Alerts        riskAlertWriter
	Interventions interventionCreator
	Audit         auditLogger
	Tx            transactor
	Locker        runLocker
	Cache         cacheInvalidator
	Metrics       *MetricsService
	LockTTL       time.Duration
	Logger        *zap.Logger
}

// RiskEvaluator matches a school's active risk rules against its students and keeps the
// resulting alerts and interventions in step.
type RiskEvaluator struct {
	rules         activeRuleLister
	students      riskSnapshotReader
	occurrences   occurrenceSignalReader
	alerts        riskAlertWriter
	interventions interventionCreator
	audit         auditLogger
	tx            transactor
	locker        runLocker
	cache         cacheInvalidator
	metrics       *MetricsService
	lockTTL       time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewRiskEvaluator constructs the evaluator.
func NewRiskEvaluator(params RiskEvaluatorParams) *RiskEvaluator {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	lockTTL := params.LockTTL
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &RiskEvaluator{
		rules:         params.Rules,
		students:      params.Students,
		occurrences:   params.Occurrences,
		alerts:        params.Alerts,
		interventions: params.Interventions,
		audit:         params.Audit,
		tx:            params.Tx,
		locker:        params.Locker,
		cache:         params.Cache,
		metrics:       params.Metrics,
		lockTTL:       lockTTL,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// RiskLockKey is the redis key serialising evaluator runs of a school.
func RiskLockKey(schoolID string) string {
	return "risk:lock:" + schoolID
}

type compiledRule struct {
	config     models.RiskRuleConfig
	definition models.RiskDefinition
}

// Run evaluates every active rule of the school against every active student.
func (e *RiskEvaluator) Run(ctx context.Context, schoolID string, actor models.Actor) (models.RiskRunSummary, error) {
	trigger := riskTriggerManual
	if actor.UserID == "" {
		trigger = riskTriggerScheduled
	}
	logger := e.logger.With(zap.String("school_id", schoolID), zap.String("trigger", trigger))

	if e.locker != nil {
		lease, err := e.locker.Acquire(ctx, RiskLockKey(schoolID), e.lockTTL)
		switch {
		case errors.Is(err, cache.ErrLockHeld):
			e.metrics.RecordRiskRun(trigger, RiskRunLocked, models.RiskRunSummary{})
			return models.RiskRunSummary{}, appErrors.Clone(appErrors.ErrLocked, "risk evaluation already running for this school")
		case err != nil:
			logger.Warn("risk lock unavailable, continuing without it", zap.Error(err))
		default:
			defer func() {
				if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
					logger.Warn("release risk lock", zap.Error(err))
				}
			}()
		}
	}

	summary, err := e.run(ctx, schoolID, actor, logger)
	if err != nil {
		e.metrics.RecordRiskRun(trigger, RiskRunError, summary)
		return summary, err
	}
	e.metrics.RecordRiskRun(trigger, RiskRunOK, summary)

	if e.cache != nil && (summary.AlertsCreated > 0 || summary.AlertsResolved > 0) {
		_ = e.cache.Invalidate(ctx, DashboardCacheKey(schoolID))
	}
	logger.Info("risk rules evaluated",
		zap.Int("rules", summary.RulesEvaluated),
		zap.Int("students", summary.ProcessedStudents),
		zap.Int("alerts_created", summary.AlertsCreated),
		zap.Int("alerts_resolved", summary.AlertsResolved),
		zap.Int("invalid_rules", len(summary.InvalidRules)),
	)
	return summary, nil
}

func (e *RiskEvaluator) run(ctx context.Context, schoolID string, actor models.Actor, logger *zap.Logger) (models.RiskRunSummary, error) {
	var summary models.RiskRunSummary

	configs, err := e.rules.ListActive(ctx, schoolID)
	if err != nil {
		return summary, appErrors.Internal(err, "failed to load risk rules")
	}
	if len(configs) == 0 {
		return summary, nil
	}

	rules := make([]compiledRule, 0, len(configs))
	window := models.MinOccurrenceWindowDays
	for _, cfg := range configs {
		def, parseErr := models.ParseRiskDefinition(cfg.Definition)
		if parseErr == nil && len(def.Conditions) == 0 {
			parseErr = errors.New("definition has no conditions")
		}
		if parseErr != nil {
			logger.Warn("risk rule definition ignored", zap.String("rule_id", cfg.ID), zap.Error(parseErr))
			summary.InvalidRules = append(summary.InvalidRules, models.InvalidRule{RuleID: cfg.ID, Name: cfg.Name, Reason: parseErr.Error()})
			def = models.RiskDefinition{MatchMode: models.MatchAny}
		}
		if w := def.MaxWindowDays(); w > window {
			window = w
		}
		rules = append(rules, compiledRule{config: cfg, definition: def})
	}
	summary.RulesEvaluated = len(rules)

	students, err := e.students.ListRiskSnapshots(ctx, schoolID)
	if err != nil {
		return summary, appErrors.Internal(err, "failed to load students")
	}
	summary.ProcessedStudents = len(students)

	now := e.now()
	signals, err := e.occurrences.ListSignalsSince(ctx, schoolID, now.AddDate(0, 0, -window))
	if err != nil {
		return summary, appErrors.Internal(err, "failed to load occurrences")
	}
	byStudent := make(map[string][]models.OccurrenceSignal)
	for _, signal := range signals {
		byStudent[signal.StudentID] = append(byStudent[signal.StudentID], signal)
	}

	for _, rule := range rules {
		for _, student := range students {
			outcome := evaluateRule(rule.definition, student, byStudent[student.StudentID], now)
			created, resolved, err := e.apply(ctx, schoolID, actor, rule, student, outcome)
			if err != nil {
				logger.Error("risk unit failed",
					zap.String("rule_id", rule.config.ID),
					zap.String("student_id", student.StudentID),
					zap.Error(err))
				return summary, appErrors.Internal(err, "failed to apply risk rule")
			}
			if created {
				summary.AlertsCreated++
			}
			if resolved {
				summary.AlertsResolved++
			}
		}
	}
	return summary, nil
}

// ruleOutcome is the result of evaluating one rule for one student.
type ruleOutcome struct {
	matched   bool
	severity  int
	summaries []string
}

func evaluateRule(def models.RiskDefinition, student models.StudentRiskSnapshot, signals []models.OccurrenceSignal, now time.Time) ruleOutcome {
	if len(def.Conditions) == 0 {
		return ruleOutcome{}
	}
	var (
		out      ruleOutcome
		hits     int
		severity = models.DefaultConditionSeverity
	)
	for _, cond := range def.Conditions {
		if !evaluateCondition(cond, student, signals, now) {
			continue
		}
		hits++
		meta := cond.Meta()
		s := models.DefaultConditionSeverity
		if meta.Severity != nil {
			s = *meta.Severity
		}
		if s > severity {
			severity = s
		}
		if text := strings.TrimSpace(meta.Summary); text != "" {
			out.summaries = append(out.summaries, text)
		}
	}
	switch def.MatchMode {
	case models.MatchAll:
		out.matched = hits == len(def.Conditions)
	default:
		out.matched = hits > 0
	}
	out.severity = severity
	return out
}

func evaluateCondition(cond models.Condition, student models.StudentRiskSnapshot, signals []models.OccurrenceSignal, now time.Time) bool {
	meta := cond.Meta()
	switch c := cond.(type) {
	case models.AverageCondition:
		if student.Average == nil {
			return false
		}
		return meta.Comparator.Compare(*student.Average, meta.Threshold)
	case models.AttendanceCondition:
		if student.Attendance == nil {
			return false
		}
		return meta.Comparator.Compare(*student.Attendance, meta.Threshold)
	case models.OccurrenceCondition:
		from := now.AddDate(0, 0, -c.WindowDays)
		count := 0
		for _, signal := range signals {
			if signal.Severity >= models.SevereOccurrenceFloor && !signal.HappenedAt.Before(from) {
				count++
			}
		}
		return meta.Comparator.Compare(float64(count), meta.Threshold)
	default:
		return false
	}
}

// apply reconciles the stored alert of (rule, student) with outcome inside one transaction.
func (e *RiskEvaluator) apply(ctx context.Context, schoolID string, actor models.Actor, rule compiledRule, student models.StudentRiskSnapshot, outcome ruleOutcome) (created, resolved bool, err error) {
	err = e.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		created, resolved = false, false
		now := e.now()

		existing, err := e.alerts.FindActive(ctx, exec, schoolID, student.StudentID, rule.config.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		if !outcome.matched {
			if existing == nil {
				return nil
			}
			if err := e.alerts.Resolve(ctx, exec, existing.ID, now); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil
				}
				return err
			}
			resolved = true
			return nil
		}

		if existing != nil {
			return e.alerts.Refresh(ctx, exec, existing.ID, outcome.severity, now)
		}

		summary := strings.Join(outcome.summaries, "; ")
		if summary == "" {
			summary = fmt.Sprintf("Alert generated by %s", rule.config.Name)
		}
		plan := riskInterventionPlan
		intervention := &models.Intervention{
			SchoolID:  schoolID,
			StudentID: student.StudentID,
			ClassID:   student.ClassID,
			CreatedBy: actor.IDRef(),
			Status:    models.InterventionOpen,
			Title:     fmt.Sprintf("Pedagogical alert - %s", student.Name),
			Summary:   &summary,
			Plan:      &plan,
		}
		if err := e.interventions.Create(ctx, exec, intervention); err != nil {
			return err
		}

		interventionID := intervention.ID
		alert := &models.RiskAlert{
			SchoolID:       schoolID,
			StudentID:      student.StudentID,
			RuleID:         rule.config.ID,
			InterventionID: &interventionID,
			Status:         models.RiskAlertOpen,
			Severity:       outcome.severity,
			Summary:        summary,
			Details:        ruleDetails(rule.config.Definition),
		}
		if err := e.alerts.Create(ctx, exec, alert); err != nil {
			if database.IsUniqueViolation(err) {
				// a concurrent run opened the alert first
				return errAlertExists
			}
			return err
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"rule_id":         rule.config.ID,
			"intervention_id": interventionID,
			"severity":        outcome.severity,
		})
		target := student.StudentID
		school := schoolID
		if err := e.audit.CreateAuditLog(ctx, exec, &models.AuditLog{
			SchoolID: &school,
			Action:   models.AuditActionRunRiskRules,
			ActorID:  actor.IDRef(),
			Target:   &target,
			Summary:  fmt.Sprintf("Risk rule %q opened an intervention", rule.config.Name),
			Payload:  types.JSONText(payload),
		}); err != nil {
			return err
		}
		created = true
		return nil
	})
	if errors.Is(err, errAlertExists) {
		return false, false, nil
	}
	return created, resolved, err
}

var errAlertExists = errors.New("active alert already exists")

func ruleDetails(raw types.JSONText) types.JSONText {
	if len(raw) == 0 || !json.Valid(raw) {
		return types.JSONText(`{}`)
	}
	return raw
}
