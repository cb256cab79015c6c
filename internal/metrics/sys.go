package metrics

import (
	"io/fs"
	"path/filepath"
	"runtime"

	"github.com/dustin/go-humanize"
)

// SysHealth is a point-in-time view of the process and its data directory.
// Sizes are human readable (IEC units).
type SysHealth struct {
	HeapAlloc  string
	Sys        string
	NumGC      uint32
	Goroutines int
	DataSize   string
	DataFiles  int
}

// GetSysHealth reads runtime memory stats and walks dataDir, the directory
// holding the sqlite database and the LLM response cache. A missing
// directory reports zero bytes.
func GetSysHealth(dataDir string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	size, files := usage(dataDir)
	return SysHealth{
		HeapAlloc:  humanize.IBytes(m.HeapAlloc),
		Sys:        humanize.IBytes(m.Sys),
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
		DataSize:   humanize.IBytes(size),
		DataFiles:  files,
	}
}

func usage(root string) (uint64, int) {
	var size uint64
	var files int
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		size += uint64(info.Size())
		files++
		return nil
	})
	return size, files
}
