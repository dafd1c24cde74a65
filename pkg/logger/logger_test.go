package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorHandler(t *testing.T) {
	t.Run("writes message and attributes", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(NewColorHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		log.Info("round finished", "round", 2, "epsilon", 0.25)

		line := buf.String()
		assert.Contains(t, line, "INFO")
		assert.Contains(t, line, "round finished")
		assert.Contains(t, line, "round=2")
		assert.Contains(t, line, "epsilon=0.25")
		assert.NotContains(t, line, "\033[", "buffers are not terminals")
	})

	t.Run("filters below level", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(NewColorHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

		log.Info("hidden")
		log.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("groups and attrs", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(NewColorHandler(&buf, nil)).With("query_id", "q1").WithGroup("eval")

		log.Info("sampling", "trials", 10)

		line := buf.String()
		assert.Contains(t, line, "query_id=q1")
		assert.Contains(t, line, "eval.trials=10")
	})
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "json")
	log.Debug("hello", "k", "v")

	out := strings.TrimSpace(buf.String())
	require.NotEmpty(t, out)
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"k":"v"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
