package engine

import (
	"path/filepath"

	"github.com/puzpuzpuz/xsync/v3"
)

// registry tracks the data files opened by this process, keyed by
// canonical path, so two Engine values can never share one file through
// independent handles. The file lock guards against other processes; the
// registry guards against this one.
var registry = xsync.NewMapOf[string, struct{}]()

// canonicalPath resolves dir so two spellings of the same location map to
// the same registry key. The directory exists by the time this runs, so
// EvalSymlinks only fails on exotic filesystems; the cleaned absolute
// path is a usable fallback.
func canonicalPath(dir, file string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Join(filepath.Clean(dir), file)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return filepath.Join(abs, file)
}
