package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLogger(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, err := InitLogger("test", Options{LogsDir: dir, Console: &console})
	require.NoError(t, err)

	logger.Debug("debug step", zap.Int("shifts", 4))
	logger.Info("roster solved", zap.String("status", "OPTIMAL"))
	_ = logger.Sync()

	// Debug only reaches the file
	assert.NotContains(t, console.String(), "debug step")
	assert.Contains(t, console.String(), "roster solved")

	files, err := filepath.Glob(filepath.Join(dir, "test_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "roster solved", entry["msg"])
	assert.Equal(t, "OPTIMAL", entry["status"])
	assert.Equal(t, "test", entry["env"])
	assert.Contains(t, entry, "timestamp")
}

func TestInitLogger_Verbose(t *testing.T) {
	var console bytes.Buffer

	logger, err := InitLogger("test", Options{LogsDir: t.TempDir(), Console: &console, Verbose: true})
	require.NoError(t, err)

	logger.Debug("debug step")
	_ = logger.Sync()

	assert.Contains(t, console.String(), "debug step")
}
