package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", HumanBytes(512))
	assert.Equal(t, "1.5 KB", HumanBytes(1536))
	assert.Equal(t, "2.0 MB", HumanBytes(2*1024*1024))
}

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "travel.db")
	require.NoError(t, os.WriteFile(dbPath, make([]byte, 2048), 0o644))
	require.NoError(t, os.WriteFile(dbPath+"-wal", make([]byte, 1024), 0o644))
	// Unrelated files in the same directory are not counted.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.db"), make([]byte, 4096), 0o644))

	health := GetSysHealth(dbPath)
	assert.Equal(t, "3.0 KB", health.DatabaseSize)
	assert.Positive(t, health.Goroutines)

	assert.Equal(t, "0 B", GetSysHealth(filepath.Join(dir, "missing.db")).DatabaseSize)
}
