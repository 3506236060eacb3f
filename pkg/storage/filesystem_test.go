package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	n, err := store.SaveStream("s1/a.txt", strings.NewReader("hello"), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	f, err := store.Open("s1/a.txt")
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "hello", string(body))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"s1/a.txt"}, names)

	require.NoError(t, store.Delete("s1/a.txt"))
	names, err = store.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStorageLimitsAndTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveStream("big.bin", strings.NewReader("0123456789"), 4)
	require.ErrorIs(t, err, ErrTooLarge)
	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = store.SaveStream("../escape.txt", strings.NewReader("x"), 0)
	require.ErrorIs(t, err, ErrOutsideRoot)
	_, err = store.Open("/etc/passwd")
	require.ErrorIs(t, err, ErrOutsideRoot)
}
