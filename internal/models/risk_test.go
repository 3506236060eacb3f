package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRiskDefinitionBuildsSumType(t *testing.T) {
	def, err := ParseRiskDefinition([]byte(`{
		"matchMode": "ALL",
		"conditions": [
			{"metric": "average", "comparator": "<", "threshold": 6, "severity": 4, "summary": "media baixa"},
			{"metric": "attendance", "comparator": "<=", "threshold": 75},
			{"metric": "occurrences", "comparator": ">=", "threshold": 2, "windowDays": 60}
		]
	}`))
	require.NoError(t, err)
	assert.Equal(t, MatchAll, def.MatchMode)
	require.Len(t, def.Conditions, 3)

	avg, ok := def.Conditions[0].(AverageCondition)
	require.True(t, ok)
	assert.Equal(t, ComparatorLT, avg.Comparator)
	require.NotNil(t, avg.Severity)
	assert.Equal(t, 4, *avg.Severity)

	_, ok = def.Conditions[1].(AttendanceCondition)
	assert.True(t, ok)

	occ, ok := def.Conditions[2].(OccurrenceCondition)
	require.True(t, ok)
	assert.Equal(t, 60, occ.WindowDays)
	assert.Equal(t, 60, def.MaxWindowDays())
}

func TestParseRiskDefinitionDefaults(t *testing.T) {
	def, err := ParseRiskDefinition([]byte(`{"conditions":[{"metric":"occurrences","comparator":">","threshold":0}]}`))
	require.NoError(t, err)
	assert.Equal(t, MatchAny, def.MatchMode)
	assert.Equal(t, MinOccurrenceWindowDays, def.Conditions[0].(OccurrenceCondition).WindowDays)

	def, err = ParseRiskDefinition([]byte(`{"conditions":[]}`))
	require.NoError(t, err)
	assert.Empty(t, def.Conditions)
}

func TestParseRiskDefinitionRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":          `{`,
		"unknown metric":    `{"conditions":[{"metric":"height","comparator":"<","threshold":1}]}`,
		"unknown operator":  `{"conditions":[{"metric":"average","comparator":"!=","threshold":1}]}`,
		"missing threshold": `{"conditions":[{"metric":"average","comparator":"<"}]}`,
		"bad match mode":    `{"matchMode":"SOME","conditions":[]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRiskDefinition([]byte(raw))
			assert.Error(t, err)
		})
	}
	_, err := ParseRiskDefinition(nil)
	assert.Error(t, err)
}

func TestComparatorCompare(t *testing.T) {
	assert.True(t, ComparatorLT.Compare(5.5, 6))
	assert.False(t, ComparatorLT.Compare(6, 6))
	assert.True(t, ComparatorLTE.Compare(6, 6))
	assert.True(t, ComparatorGT.Compare(3, 2))
	assert.True(t, ComparatorGTE.Compare(2, 2))
	assert.True(t, ComparatorEQ.Compare(2, 2))
	assert.False(t, Comparator("!=").Compare(1, 2))
}
