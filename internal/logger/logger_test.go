package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TextLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{})

	l.Debug("hidden")
	l.Info("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "k=v")
}

func TestNew_DebugEnables(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{Debug: true})

	l.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{JSON: true})

	l.Info("event", "epoch", 3)

	line := strings.TrimSpace(buf.String())
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, "event", rec["msg"])
	assert.EqualValues(t, 3, rec["epoch"])
}
