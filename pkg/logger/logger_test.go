package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(level Level) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(Options{Output: buf, Level: level}), buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestInfoWritesJSONLine(t *testing.T) {
	log, buf := capture(LevelInfo)

	log.Info("request handled", String("path", "/healthz"), Int("status", 200))

	entry := decodeLine(t, buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "request handled", entry["message"])
	assert.NotEmpty(t, entry["timestamp"])

	fields := entry["fields"].(map[string]any)
	assert.Equal(t, "/healthz", fields["path"])
	assert.Equal(t, float64(200), fields["status"])
}

func TestLevelFiltering(t *testing.T) {
	log, buf := capture(LevelWarn)

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "shown")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestWithCarriesBaseFields(t *testing.T) {
	log, buf := capture(LevelInfo)
	child := log.With(Component("http"))

	child.Info("listening", String("address", ":8080"))

	fields := decodeLine(t, buf)["fields"].(map[string]any)
	assert.Equal(t, "http", fields["component"])
	assert.Equal(t, ":8080", fields["address"])

	// The parent stays unchanged.
	buf.Reset()
	log.Info("plain")
	entry := decodeLine(t, buf)
	assert.Nil(t, entry["fields"])
}

func TestCallFieldsOverrideBaseFields(t *testing.T) {
	log, buf := capture(LevelInfo)
	child := log.With(String("operation", "base"))

	child.Info("overridden", Operation("trigger-job"))

	fields := decodeLine(t, buf)["fields"].(map[string]any)
	assert.Equal(t, "trigger-job", fields["operation"])
}

func TestErrField(t *testing.T) {
	assert.Equal(t, "error", Err(errors.New("boom")).Key)
	assert.Equal(t, "boom", Err(errors.New("boom")).Value)
	assert.Nil(t, Err(nil).Value)
}

func TestCallerIncludedWhenEnabled(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{Output: buf, Level: LevelInfo, AddCaller: true})

	log.Info("with caller")

	entry := decodeLine(t, buf)
	caller, ok := entry["caller"].(string)
	require.True(t, ok)
	assert.Contains(t, caller, "logger_test.go:")
}
