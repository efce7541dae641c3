package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestRecent_Wraps(t *testing.T) {
	r := NewRecent(3)
	logger := zap.New(r.Core(zapcore.DebugLevel))

	logger.Info("one")
	logger.Info("two")
	assert.Len(t, r.Last(10), 2)

	logger.Info("three")
	logger.Info("four", zap.Int("n", 4))

	lines := r.Last(10)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "two")
	assert.Contains(t, lines[2], "four")
	assert.Contains(t, lines[2], "n=4")

	last := r.Last(1)
	require.Len(t, last, 1)
	assert.Contains(t, last[0], "four")
}

func TestRecent_WithFields(t *testing.T) {
	r := NewRecent(10)
	logger := zap.New(r.Core(zapcore.InfoLevel)).With(zap.String("component", "uploads"))

	logger.Debug("hidden")
	logger.Warn("disk slow")

	lines := r.Last(0)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "WARN disk slow")
	assert.Contains(t, lines[0], "component=uploads")
}

func TestNew(t *testing.T) {
	r := NewRecent(5)
	logger, err := New("info", "json", r)
	require.NoError(t, err)
	logger.Info("hello")
	assert.Len(t, r.Last(5), 1)

	_, err = New("loud", "json", nil)
	assert.Error(t, err)
}
