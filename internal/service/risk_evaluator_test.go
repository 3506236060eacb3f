package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	"github.com/noah-isme/sma-pedagogy-api/pkg/cache"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
)

type txStub struct{ calls int }

func (t *txStub) WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	t.calls++
	return fn(nil)
}

type activeRulesStub struct{ rules []models.RiskRuleConfig }

func (s *activeRulesStub) ListActive(ctx context.Context, schoolID string) ([]models.RiskRuleConfig, error) {
	return s.rules, nil
}

type snapshotStub struct{ students []models.StudentRiskSnapshot }

func (s *snapshotStub) ListRiskSnapshots(ctx context.Context, schoolID string) ([]models.StudentRiskSnapshot, error) {
	return s.students, nil
}

type signalStub struct {
	signals []models.OccurrenceSignal
	since   time.Time
}

func (s *signalStub) ListSignalsSince(ctx context.Context, schoolID string, since time.Time) ([]models.OccurrenceSignal, error) {
	s.since = since
	return s.signals, nil
}

type alertStoreStub struct {
	alerts    []*models.RiskAlert
	refreshes int
	createErr error
}

func (s *alertStoreStub) FindActive(ctx context.Context, exec sqlx.ExtContext, schoolID, studentID, ruleID string) (*models.RiskAlert, error) {
	for _, a := range s.alerts {
		if a.SchoolID == schoolID && a.StudentID == studentID && a.RuleID == ruleID && a.Status.Active() {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *alertStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, alert *models.RiskAlert) error {
	if s.createErr != nil {
		return s.createErr
	}
	alert.ID = "alert-" + alert.StudentID + "-" + alert.RuleID
	s.alerts = append(s.alerts, alert)
	return nil
}

func (s *alertStoreStub) Refresh(ctx context.Context, exec sqlx.ExtContext, id string, severity int, at time.Time) error {
	for _, a := range s.alerts {
		if a.ID == id {
			a.Severity = severity
			a.UpdatedAt = at
			s.refreshes++
		}
	}
	return nil
}

func (s *alertStoreStub) Resolve(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) error {
	for _, a := range s.alerts {
		if a.ID == id && a.Status.Active() {
			a.Status = models.RiskAlertResolved
			a.ResolvedAt = &at
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *alertStoreStub) countActive() int {
	n := 0
	for _, a := range s.alerts {
		if a.Status.Active() {
			n++
		}
	}
	return n
}

type interventionStub struct{ created []*models.Intervention }

func (s *interventionStub) Create(ctx context.Context, exec sqlx.ExtContext, intervention *models.Intervention) error {
	intervention.ID = "iv-" + intervention.StudentID
	s.created = append(s.created, intervention)
	return nil
}

type auditStub struct {
	entries []*models.AuditLog
	err     error
}

func (s *auditStub) CreateAuditLog(ctx context.Context, exec sqlx.ExtContext, entry *models.AuditLog) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

type lockerStub struct {
	err      error
	acquired []string
}

func (s *lockerStub) Acquire(ctx context.Context, key string, ttl time.Duration) (*cache.Lease, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.acquired = append(s.acquired, key)
	return nil, nil
}

type invalidatorStub struct{ keys []string }

func (s *invalidatorStub) Invalidate(ctx context.Context, keys ...string) error {
	s.keys = append(s.keys, keys...)
	return nil
}

type riskFixture struct {
	rules         *activeRulesStub
	students      *snapshotStub
	signals       *signalStub
	alerts        *alertStoreStub
	interventions *interventionStub
	audit         *auditStub
	locker        *lockerStub
	cache         *invalidatorStub
	evaluator     *RiskEvaluator
	now           time.Time
}

func newRiskFixture(rules ...models.RiskRuleConfig) *riskFixture {
	f := &riskFixture{
		rules:         &activeRulesStub{rules: rules},
		students:      &snapshotStub{},
		signals:       &signalStub{},
		alerts:        &alertStoreStub{},
		interventions: &interventionStub{},
		audit:         &auditStub{},
		locker:        &lockerStub{},
		cache:         &invalidatorStub{},
		now:           time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
	}
	f.evaluator = NewRiskEvaluator(RiskEvaluatorParams{
		Rules:         f.rules,
		Students:      f.students,
		Occurrences:   f.signals,
		Alerts:        f.alerts,
		Interventions: f.interventions,
		Audit:         f.audit,
		Tx:            &txStub{},
		Locker:        f.locker,
		Cache:         f.cache,
	})
	f.evaluator.now = func() time.Time { return f.now }
	return f
}

func rule(id, definition string) models.RiskRuleConfig {
	return models.RiskRuleConfig{ID: id, SchoolID: "school-1", Name: "Rule " + id, Definition: []byte(definition), IsActive: true}
}

func floatPtr(v float64) *float64 { return &v }

var manualActor = models.Actor{UserID: "user-1", Role: models.RolePedagogo, SchoolID: "school-1"}

func TestRiskEvaluatorLowAverageLifecycle(t *testing.T) {
	f := newRiskFixture(rule("r1", `{"matchMode":"ANY","conditions":[{"metric":"average","comparator":"<","threshold":6,"severity":3}]}`))
	f.students.students = []models.StudentRiskSnapshot{{StudentID: "st-1", Name: "Ana", Average: floatPtr(5.5)}}
	ctx := context.Background()

	first, err := f.evaluator.Run(ctx, "school-1", manualActor)
	require.NoError(t, err)
	assert.Equal(t, 1, first.RulesEvaluated)
	assert.Equal(t, 1, first.ProcessedStudents)
	assert.Equal(t, 1, first.AlertsCreated)
	assert.Equal(t, 0, first.AlertsResolved)
	require.Len(t, f.interventions.created, 1)
	assert.Equal(t, "Pedagogical alert - Ana", f.interventions.created[0].Title)
	assert.Equal(t, models.InterventionOpen, f.interventions.created[0].Status)
	require.Len(t, f.alerts.alerts, 1)
	assert.Equal(t, 3, f.alerts.alerts[0].Severity)
	assert.Equal(t, models.RiskAlertOpen, f.alerts.alerts[0].Status)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionRunRiskRules, f.audit.entries[0].Action)
	assert.Equal(t, []string{DashboardCacheKey("school-1")}, f.cache.keys)

	second, err := f.evaluator.Run(ctx, "school-1", manualActor)
	require.NoError(t, err)
	assert.Equal(t, 0, second.AlertsCreated)
	assert.Equal(t, 0, second.AlertsResolved)
	assert.Len(t, f.interventions.created, 1)
	assert.Equal(t, 1, f.alerts.refreshes)
	assert.Equal(t, 1, f.alerts.countActive())

	f.students.students[0].Average = floatPtr(7.0)
	third, err := f.evaluator.Run(ctx, "school-1", manualActor)
	require.NoError(t, err)
	assert.Equal(t, 1, third.AlertsResolved)
	assert.Equal(t, models.RiskAlertResolved, f.alerts.alerts[0].Status)
	require.NotNil(t, f.alerts.alerts[0].ResolvedAt)

	fourth, err := f.evaluator.Run(ctx, "school-1", manualActor)
	require.NoError(t, err)
	assert.Equal(t, 0, fourth.AlertsResolved)
	assert.Equal(t, 0, fourth.AlertsCreated)
}

func TestRiskEvaluatorMissingMetricNeverMatches(t *testing.T) {
	f := newRiskFixture(rule("r1", `{"matchMode":"ANY","conditions":[{"metric":"average","comparator":"<","threshold":6},{"metric":"attendance","comparator":"<","threshold":75}]}`))
	f.students.students = []models.StudentRiskSnapshot{{StudentID: "st-1", Name: "Ana"}, {StudentID: "st-2", Name: "Bia"}}

	summary, err := f.evaluator.Run(context.Background(), "school-1", manualActor)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ProcessedStudents)
	assert.Equal(t, 0, summary.AlertsCreated)
	assert.Empty(t, f.interventions.created)
}

func TestRiskEvaluatorOccurrenceWindowAndFloor(t *testing.T) {
	f := newRiskFixture(rule("r1", `{"conditions":[{"metric":"occurrences","comparator":">=","threshold":2,"windowDays":60,"severity":5,"summary":"repeated severe occurrences"}]}`))
	f.students.students = []models.StudentRiskSnapshot{{StudentID: "st-1", Name: "Ana"}, {StudentID: "st-2", Name: "Bia"}}
	f.signals.signals = []models.OccurrenceSignal{
		{StudentID: "st-1", Severity: 4, HappenedAt: f.now.AddDate(0, 0, -5)},
		{StudentID: "st-1", Severity: 5, HappenedAt: f.now.AddDate(0, 0, -50)},
		{StudentID: "st-2", Severity: 4, HappenedAt: f.now.AddDate(0, 0, -5)},
		{StudentID: "st-2", Severity: 3, HappenedAt: f.now.AddDate(0, 0, -6)},
		{StudentID: "st-2", Severity: 5, HappenedAt: f.now.AddDate(0, 0, -61)},
	}

	summary, err := f.evaluator.Run(context.Background(), "school-1", manualActor)
	require.NoError(t, err)
	assert.Equal(t, f.now.AddDate(0, 0, -60), f.signals.since)
	assert.Equal(t, 1, summary.AlertsCreated)
	require.Len(t, f.alerts.alerts, 1)
	assert.Equal(t, "st-1", f.alerts.alerts[0].StudentID)
	assert.Equal(t, 5, f.alerts.alerts[0].Severity)
	assert.Equal(t, "repeated severe occurrences", f.alerts.alerts[0].Summary)
}

func TestRiskEvaluatorLookbackHasThirtyDayFloor(t *testing.T) {
	f := newRiskFixture(rule("r1", `{"conditions":[{"metric":"occurrences","comparator":">","threshold":0,"windowDays":7}]}`))
	f.students.students = []models.StudentRiskSnapshot{{StudentID: "st-1", Name: "Ana"}}

	_, err := f.evaluator.Run(context.Background(), "school-1", manualActor)
	require.NoError(t, err)
	assert.Equal(t, f.now.AddDate(0, 0, -30), f.signals.since)
}

func TestRiskEvaluatorMatchAllRequiresEveryCondition(t *testing.T) {
	f := newRiskFixture(rule("r1", `{"matchMode":"ALL","conditions":[{"metric":"average","comparator":"<","threshold":6,"severity":2,"summary":"low average"},{"metric":"attendance","comparator":"<","threshold":75,"severity":4,"summary":"low attendance"}]}`))
	f.students.students = []models.StudentRiskSnapshot{
		{StudentID: "st-1", Name: "Ana", Average: floatPtr(5), Attendance: floatPtr(90)},
		{StudentID: "st-2", Name: "Bia", Average: floatPtr(5), Attendance: floatPtr(70)},
	}

	summary, err := f.evaluator.Run(context.Background(), "school-1", manualActor)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.AlertsCreated)
	require.Len(t, f.alerts.alerts, 1)
	assert.Equal(t, "st-2", f.alerts.alerts[0].StudentID)
	assert.Equal(t, 4, f.alerts.alerts[0].Severity)
	assert.Equal(t, "low average; low attendance", f.alerts.alerts[0].Summary)
}

func TestRiskEvaluatorFallbackSummary(t *testing.T) {
	f := newRiskFixture(rule("r1", `{"conditions":[{"metric":"attendance","comparator":"<=","threshold":75}]}`))
	f.students.students = []models.StudentRiskSnapshot{{StudentID: "st-1", Name: "Ana", Attendance: floatPtr(75)}}

	_, err := f.evaluator.Run(context.Background(), "school-1", manualActor)
	require.NoError(t, err)
	require.Len(t, f.alerts.alerts, 1)
	assert.Equal(t, "Alert generated by Rule r1", f.alerts.alerts[0].Summary)
	assert.Equal(t, models.DefaultConditionSeverity, f.alerts.alerts[0].Severity)
}

func TestRiskEvaluatorSeverityNeverBelowDefault(t *testing.T) {
	f := newRiskFixture(rule("r1", `{"conditions":[{"metric":"average","comparator":"<","threshold":6,"severity":1}]}`))
	f.students.students = []models.StudentRiskSnapshot{{StudentID: "st-1", Name: "Ana", Average: floatPtr(5)}}

	_, err := f.evaluator.Run(context.Background(), "school-1", manualActor)
	require.NoError(t, err)
	require.Len(t, f.alerts.alerts, 1)
	assert.Equal(t, models.DefaultConditionSeverity, f.alerts.alerts[0].Severity)
}

func TestRiskEvaluatorConcurrentAlertConflictIsNotCounted(t *testing.T) {
	f := newRiskFixture(rule("r1", `{"conditions":[{"metric":"average","comparator":"<","threshold":6}]}`))
	f.students.students = []models.StudentRiskSnapshot{{StudentID: "st-1", Name: "Ana", Average: floatPtr(5)}}
	f.alerts.createErr = fmt.Errorf("create risk alert: %w", &pq.Error{Code: "23505"})

	summary, err := f.evaluator.Run(context.Background(), "school-1", manualActor)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ProcessedStudents)
	assert.Equal(t, 0, summary.AlertsCreated)
	assert.Empty(t, f.audit.entries)
}

func TestRiskEvaluatorReportsInvalidRules(t *testing.T) {
	f := newRiskFixture(
		rule("broken", `{"conditions":[{"metric":"mood","comparator":"<","threshold":1}]}`),
		rule("empty", `{"matchMode":"ANY","conditions":[]}`),
		rule("garbage", `not json`),
		rule("ok", `{"conditions":[{"metric":"average","comparator":"<","threshold":6}]}`),
	)
	f.students.students = []models.StudentRiskSnapshot{{StudentID: "st-1", Name: "Ana", Average: floatPtr(4)}}

	summary, err := f.evaluator.Run(context.Background(), "school-1", manualActor)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.RulesEvaluated)
	assert.Equal(t, 1, summary.AlertsCreated)
	require.Len(t, summary.InvalidRules, 3)
	assert.Equal(t, "broken", summary.InvalidRules[0].RuleID)
	assert.Equal(t, "empty", summary.InvalidRules[1].RuleID)
	assert.Equal(t, "garbage", summary.InvalidRules[2].RuleID)
}

func TestRiskEvaluatorInvalidRuleResolvesStaleAlert(t *testing.T) {
	f := newRiskFixture(rule("r1", `{"conditions":[]}`))
	f.students.students = []models.StudentRiskSnapshot{{StudentID: "st-1", Name: "Ana", Average: floatPtr(4)}}
	f.alerts.alerts = []*models.RiskAlert{{ID: "a1", SchoolID: "school-1", StudentID: "st-1", RuleID: "r1", Status: models.RiskAlertAcknowledged}}

	summary, err := f.evaluator.Run(context.Background(), "school-1", manualActor)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.AlertsResolved)
}

func TestRiskEvaluatorNoRules(t *testing.T) {
	f := newRiskFixture()
	f.students.students = []models.StudentRiskSnapshot{{StudentID: "st-1", Name: "Ana"}}

	summary, err := f.evaluator.Run(context.Background(), "school-1", manualActor)
	require.NoError(t, err)
	assert.Equal(t, models.RiskRunSummary{}, summary)
}

func TestRiskEvaluatorLockHeld(t *testing.T) {
	f := newRiskFixture(rule("r1", `{"conditions":[{"metric":"average","comparator":"<","threshold":6}]}`))
	f.locker.err = cache.ErrLockHeld

	_, err := f.evaluator.Run(context.Background(), "school-1", manualActor)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrLocked))
}

func TestRiskEvaluatorLockKeyAndScheduledActor(t *testing.T) {
	f := newRiskFixture(rule("r1", `{"conditions":[{"metric":"average","comparator":"<","threshold":6}]}`))
	f.students.students = []models.StudentRiskSnapshot{{StudentID: "st-1", Name: "Ana", Average: floatPtr(4)}}

	_, err := f.evaluator.Run(context.Background(), "school-1", models.SystemActor("school-1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"risk:lock:school-1"}, f.locker.acquired)
	require.Len(t, f.interventions.created, 1)
	assert.Nil(t, f.interventions.created[0].CreatedBy)
	assert.Nil(t, f.audit.entries[0].ActorID)
}

func TestRiskEvaluatorAuditFailureAbortsRun(t *testing.T) {
	f := newRiskFixture(rule("r1", `{"conditions":[{"metric":"average","comparator":"<","threshold":6}]}`))
	f.students.students = []models.StudentRiskSnapshot{{StudentID: "st-1", Name: "Ana", Average: floatPtr(4)}}
	f.audit.err = errors.New("insert failed")

	_, err := f.evaluator.Run(context.Background(), "school-1", manualActor)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}
