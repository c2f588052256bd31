package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesLogFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(LogOption{Format: "json", LogDir: dir, Level: "warn"}))

	// 文件记录全部级别，与控制台级别无关
	Debugf("debug line %d", 1)
	Errorf("error line %d", 2)
	Sync()

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug line 1")
	assert.Contains(t, string(data), "error line 2")
}

func TestInit_InvalidLevel(t *testing.T) {
	err := Init(LogOption{Level: "loud"})
	assert.Error(t, err)
}
