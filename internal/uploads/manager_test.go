package uploads

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAndDiscard(t *testing.T) {
	m, err := NewManager(t.TempDir(), 0)
	require.NoError(t, err)

	name, err := m.Store(context.Background(), strings.NewReader("ticket"), "flight.PDF")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.True(t, m.Exists(name))

	data, err := os.ReadFile(filepath.Join(m.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, "ticket", string(data))

	require.NoError(t, m.Discard(name))
	assert.False(t, m.Exists(name))
	assert.Error(t, m.Discard(name))
}

func TestStore_NamesAreUnique(t *testing.T) {
	m, err := NewManager(t.TempDir(), 0)
	require.NoError(t, err)
	fixed := time.Unix(1700000000, 0)
	m.now = func() time.Time { return fixed }

	a, err := m.Store(context.Background(), strings.NewReader("a"), "a.jpg")
	require.NoError(t, err)
	b, err := m.Store(context.Background(), strings.NewReader("b"), "a.jpg")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "1700000000000-"))
}

func TestStore_SanitizesOriginalName(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, 0)
	require.NoError(t, err)

	for _, original := range []string{"../../etc/passwd", `..\..\evil.exe`, "noext", "weird.p$f", ".hidden"} {
		name, err := m.Store(context.Background(), strings.NewReader("x"), original)
		require.NoError(t, err)
		assert.Equal(t, name, filepath.Base(name))
		assert.NotContains(t, name, "..")
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestStore_TooLarge(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, 4)
	require.NoError(t, err)

	_, err = m.Store(context.Background(), strings.NewReader("12345"), "big.png")
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err = m.Store(ctx, strings.NewReader("late"), "late.png")
	assert.ErrorIs(t, err, ErrTimeout)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPath_RejectsTraversal(t *testing.T) {
	m, err := NewManager(t.TempDir(), 0)
	require.NoError(t, err)

	for _, bad := range []string{"", "../x", "a/b", ".", ".."} {
		_, err := m.Path(bad)
		assert.ErrorIs(t, err, ErrInvalidName, bad)
	}
}

func TestProbe(t *testing.T) {
	m, err := NewManager(t.TempDir(), 0)
	require.NoError(t, err)
	assert.NoError(t, m.Probe())
}
