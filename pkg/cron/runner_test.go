package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerValidatesSpecAndTimezone(t *testing.T) {
	_, err := New(context.Background(), "Not/AZone", nil)
	require.Error(t, err)

	r, err := New(context.Background(), "America/Manaus", nil)
	require.NoError(t, err)

	_, err = r.Add("broken", "every day", func(context.Context) error { return nil })
	require.Error(t, err)

	id, err := r.Add("maintenance", "0 0 2 * * *", func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.NotZero(t, id)

	r.Start()
	entry := r.cron.Entry(id)
	assert.Equal(t, 2, entry.Next.Hour())
	assert.Equal(t, "America/Manaus", entry.Next.Location().String())
	r.Stop()
}
