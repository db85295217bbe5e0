package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	l.With("component", "consensus").Info("decided",
		String("recommendation", "BUY"),
		Float64("strength", 0.75),
		Int("signals", 3),
		Bool("fallback", false),
		Strings("sources", []string{"a", "b"}),
	)
	l.Error("publish failed", Error(errors.New("broker down")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "consensus", first["component"])
	assert.Equal(t, "BUY", first["recommendation"])
	assert.Equal(t, 0.75, first["strength"])
	assert.Equal(t, float64(3), first["signals"])
	assert.Equal(t, "a, b", first["sources"])

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "broker down", second["error"])
}

func TestInvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}

func TestNopDiscards(t *testing.T) {
	l := NewNop()
	l.Info("ignored", Float64("x", 1))
	l.Warn("ignored")
}
