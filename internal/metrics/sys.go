package metrics

import (
	"fmt"
	"os"
	"runtime"
)

// SysHealth is a snapshot of the process and its database files.
type SysHealth struct {
	AllocMB      uint64
	SysMB        uint64
	NumGC        uint32
	Goroutines   int
	DatabaseSize string
}

// sqliteSuffixes are the files SQLite keeps next to the database.
var sqliteSuffixes = []string{"", "-wal", "-shm", "-journal"}

// GetSysHealth reports memory, goroutines and the on-disk size of the
// database at dbPath, including its WAL and shared-memory files.
func GetSysHealth(dbPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SysHealth{
		AllocMB:      m.Alloc / 1024 / 1024,
		SysMB:        m.Sys / 1024 / 1024,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		DatabaseSize: HumanBytes(databaseSize(dbPath)),
	}
}

func databaseSize(dbPath string) int64 {
	var size int64
	for _, suffix := range sqliteSuffixes {
		if info, err := os.Stat(dbPath + suffix); err == nil && !info.IsDir() {
			size += info.Size()
		}
	}
	return size
}

// HumanBytes formats a byte count with binary units.
func HumanBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
