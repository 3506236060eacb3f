package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// MatchMode combines condition outcomes.
type MatchMode string

const (
	MatchAll MatchMode = "ALL"
	MatchAny MatchMode = "ANY"
)

// Comparator relates a measured value to a threshold.
type Comparator string

const (
	ComparatorLT  Comparator = "<"
	ComparatorLTE Comparator = "<="
	ComparatorGT  Comparator = ">"
	ComparatorGTE Comparator = ">="
	ComparatorEQ  Comparator = "="
)

// Compare applies the comparator. Unknown comparators never hold.
func (c Comparator) Compare(value, threshold float64) bool {
	switch c {
	case ComparatorLT:
		return value < threshold
	case ComparatorLTE:
		return value <= threshold
	case ComparatorGT:
		return value > threshold
	case ComparatorGTE:
		return value >= threshold
	case ComparatorEQ:
		return value == threshold
	}
	return false
}

func (c Comparator) valid() bool {
	switch c {
	case ComparatorLT, ComparatorLTE, ComparatorGT, ComparatorGTE, ComparatorEQ:
		return true
	}
	return false
}

// Metric names the indicator a condition inspects.
type Metric string

const (
	MetricAverage     Metric = "average"
	MetricAttendance  Metric = "attendance"
	MetricOccurrences Metric = "occurrences"
)

const (
	// DefaultConditionSeverity applies when a matched condition declares none.
	DefaultConditionSeverity = 3
	// MinOccurrenceWindowDays bounds the occurrence lookback of a run from below.
	MinOccurrenceWindowDays = 30
)

// ConditionMeta is shared by every condition kind.
type ConditionMeta struct {
	Comparator Comparator
	Threshold  float64
	Severity   *int
	Summary    string
}

// Condition is one of AverageCondition, AttendanceCondition or OccurrenceCondition.
type Condition interface {
	Meta() ConditionMeta
	condition()
}

// AverageCondition tests the latest grade average.
type AverageCondition struct{ ConditionMeta }

// AttendanceCondition tests the latest attendance percentage.
type AttendanceCondition struct{ ConditionMeta }

// OccurrenceCondition counts severe occurrences inside a trailing window.
type OccurrenceCondition struct {
	ConditionMeta
	WindowDays int
}

func (c AverageCondition) Meta() ConditionMeta    { return c.ConditionMeta }
func (c AttendanceCondition) Meta() ConditionMeta { return c.ConditionMeta }
func (c OccurrenceCondition) Meta() ConditionMeta { return c.ConditionMeta }

func (AverageCondition) condition()    {}
func (AttendanceCondition) condition() {}
func (OccurrenceCondition) condition() {}

// RiskDefinition is the decoded form of a rule.
type RiskDefinition struct {
	MatchMode  MatchMode
	Conditions []Condition
}

// MaxWindowDays returns the widest occurrence window referenced by the definition.
func (d RiskDefinition) MaxWindowDays() int {
	max := 0
	for _, c := range d.Conditions {
		if oc, ok := c.(OccurrenceCondition); ok && oc.WindowDays > max {
			max = oc.WindowDays
		}
	}
	return max
}

// RiskConditionSpec is the stored JSON shape of a condition.
type RiskConditionSpec struct {
	Metric     Metric     `json:"metric" validate:"required"`
	Comparator Comparator `json:"comparator" validate:"required"`
	Threshold  *float64   `json:"threshold" validate:"required"`
	WindowDays *int       `json:"windowDays,omitempty" validate:"omitempty,min=1,max=3650"`
	Severity   *int       `json:"severity,omitempty" validate:"omitempty,min=1,max=5"`
	Summary    string     `json:"summary,omitempty" validate:"max=500"`
}

// RiskDefinitionSpec is the stored JSON shape of a rule definition.
type RiskDefinitionSpec struct {
	MatchMode  MatchMode           `json:"matchMode,omitempty"`
	Conditions []RiskConditionSpec `json:"conditions" validate:"required,min=1,dive"`
}

// Decode converts the wire form into the typed definition.
func (s RiskDefinitionSpec) Decode() (RiskDefinition, error) {
	def := RiskDefinition{MatchMode: s.MatchMode}
	switch def.MatchMode {
	case "":
		def.MatchMode = MatchAny
	case MatchAll, MatchAny:
	default:
		return RiskDefinition{}, fmt.Errorf("unknown match mode %q", s.MatchMode)
	}

	def.Conditions = make([]Condition, 0, len(s.Conditions))
	for i, spec := range s.Conditions {
		if !spec.Comparator.valid() {
			return RiskDefinition{}, fmt.Errorf("condition %d: unknown comparator %q", i, spec.Comparator)
		}
		if spec.Threshold == nil {
			return RiskDefinition{}, fmt.Errorf("condition %d: threshold required", i)
		}
		meta := ConditionMeta{Comparator: spec.Comparator, Threshold: *spec.Threshold, Severity: spec.Severity, Summary: spec.Summary}
		switch spec.Metric {
		case MetricAverage:
			def.Conditions = append(def.Conditions, AverageCondition{meta})
		case MetricAttendance:
			def.Conditions = append(def.Conditions, AttendanceCondition{meta})
		case MetricOccurrences:
			window := MinOccurrenceWindowDays
			if spec.WindowDays != nil && *spec.WindowDays > 0 {
				window = *spec.WindowDays
			}
			def.Conditions = append(def.Conditions, OccurrenceCondition{ConditionMeta: meta, WindowDays: window})
		default:
			return RiskDefinition{}, fmt.Errorf("condition %d: unknown metric %q", i, spec.Metric)
		}
	}
	return def, nil
}

// ParseRiskDefinition decodes a stored definition blob.
func ParseRiskDefinition(raw []byte) (RiskDefinition, error) {
	if len(raw) == 0 {
		return RiskDefinition{}, fmt.Errorf("empty definition")
	}
	var spec RiskDefinitionSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return RiskDefinition{}, fmt.Errorf("decode definition: %w", err)
	}
	return spec.Decode()
}

// RiskRuleConfig is a school's configured risk rule.
type RiskRuleConfig struct {
	ID         string         `db:"id" json:"id"`
	SchoolID   string         `db:"school_id" json:"school_id"`
	Name       string         `db:"name" json:"name"`
	Definition types.JSONText `db:"definition" json:"definition"`
	IsActive   bool           `db:"is_active" json:"is_active"`
	CreatedBy  *string        `db:"created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// RiskAlertStatus tracks an alert lifecycle.
type RiskAlertStatus string

const (
	RiskAlertOpen         RiskAlertStatus = "OPEN"
	RiskAlertAcknowledged RiskAlertStatus = "ACKNOWLEDGED"
	RiskAlertResolved     RiskAlertStatus = "RESOLVED"
)

// Active reports whether the alert still counts as the open alert of its (student, rule) pair.
func (s RiskAlertStatus) Active() bool {
	return s == RiskAlertOpen || s == RiskAlertAcknowledged
}

// RiskAlert flags a student matched by a rule.
type RiskAlert struct {
	ID             string          `db:"id" json:"id"`
	SchoolID       string          `db:"school_id" json:"school_id"`
	StudentID      string          `db:"student_id" json:"student_id"`
	StudentName    *string         `db:"student_name" json:"student_name,omitempty"`
	RuleID         string          `db:"rule_id" json:"rule_id"`
	RuleName       *string         `db:"rule_name" json:"rule_name,omitempty"`
	InterventionID *string         `db:"intervention_id" json:"intervention_id,omitempty"`
	Status         RiskAlertStatus `db:"status" json:"status"`
	Severity       int             `db:"severity" json:"severity"`
	Summary        string          `db:"summary" json:"summary"`
	Details        types.JSONText  `db:"details" json:"details,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
	ResolvedAt     *time.Time      `db:"resolved_at" json:"resolved_at,omitempty"`
}

// InvalidRule reports a rule whose definition could not be decoded during a run.
type InvalidRule struct {
	RuleID string `json:"rule_id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// RiskRunSummary is the outcome of one evaluation pass over a school.
type RiskRunSummary struct {
	RulesEvaluated    int           `json:"rules_evaluated"`
	ProcessedStudents int           `json:"processed_students"`
	AlertsCreated     int           `json:"alerts_created"`
	AlertsResolved    int           `json:"alerts_resolved"`
	InvalidRules      []InvalidRule `json:"invalid_rules,omitempty"`
}

// RiskAlertFilter narrows alert listings.
type RiskAlertFilter struct {
	Status    RiskAlertStatus
	StudentID string
	Limit     int
}
