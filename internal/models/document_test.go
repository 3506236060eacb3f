package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocumentNumberFormatting(t *testing.T) {
	assert.Equal(t, "OF-EEM01/2024-", DocumentNumberPrefix("OF", "EEM01", 2024))
	assert.Equal(t, "OF-EEM01/2024-0007", FormatDocumentNumber("OF", "EEM01", 2024, 7))
	assert.Equal(t, "OF-EEM01/2024-12345", FormatDocumentNumber("OF", "EEM01", 2024, 12345))

	assert.Equal(t, 7, DocumentNumberSequence("OF-EEM01/2024-0007"))
	assert.Equal(t, 0, DocumentNumberSequence("OF-EEM01/2024-"))
	assert.Equal(t, 0, DocumentNumberSequence("garbage"))
}

func TestDocumentLiveReservation(t *testing.T) {
	now := time.Now()
	number := "OF-EEM01/2024-0001"
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.True(t, (&Document{ProvisionalNumber: &number, ReservedUntil: &future}).LiveReservation(now))
	assert.False(t, (&Document{ProvisionalNumber: &number, ReservedUntil: &past}).LiveReservation(now))
	assert.False(t, (&Document{ReservedUntil: &future}).LiveReservation(now))
}
