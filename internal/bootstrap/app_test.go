package bootstrap

import (
	"bytes"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	for level, want := range map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"":      zerolog.InfoLevel,
		"loud":  zerolog.InfoLevel,
	} {
		logger := NewLogger(&bytes.Buffer{}, level)
		assert.Equal(t, want, logger.GetLevel(), level)
	}
}

func TestNewLogger_WritesConsoleLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	logger.Debug().Msg("hidden")
	logger.Info().Int64("booking_id", 4).Msg("booking created")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "booking created")
	assert.Contains(t, out, "booking_id=4")
	assert.NotContains(t, out, "\x1b[")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, isTerminal(f))
}
