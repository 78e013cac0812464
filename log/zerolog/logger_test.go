package zerolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loglib "github.com/Konsultn-Engineering/sqlfrag/log"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	buf.Reset()
	return entry
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(New(Config{Level: "debug", Out: &buf})).
		WithFields(loglib.Fields{loglib.ModuleField: "engine"})

	logger.Debug("compiled", loglib.Fields{"cache_key": "k", "cached": true, "args": 2})
	entry := decode(t, &buf)
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "compiled", entry["message"])
	assert.Equal(t, "engine", entry["module"])
	assert.Equal(t, "k", entry["cache_key"])
	assert.Equal(t, true, entry["cached"])
	assert.Equal(t, float64(2), entry["args"])

	logger.Warn(errors.New("boom"), "store failed")
	entry = decode(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "boom", entry["error"])

	logger.Trace("filtered")
	assert.Zero(t, buf.Len())
}

func TestNewDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(New(Config{Level: "nonsense", Out: &buf}))

	logger.Debug("hidden")
	assert.Zero(t, buf.Len())

	logger.Info("shown")
	assert.Equal(t, "info", decode(t, &buf)["level"])
}
