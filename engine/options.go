package engine

import (
	"os"

	"github.com/hupe1980/kvgo/internal/fs"
)

// Options configures an Engine.
type Options struct {
	// SyncWrites forces every append to durable storage before the write
	// is acknowledged. Turning it off trades durability of the most
	// recent writes for throughput; Sync becomes the explicit durability
	// point. Default: true.
	SyncWrites bool

	// FileMode is the permission mode for the data file.
	// Default: 0600.
	FileMode os.FileMode

	// ReplayBufferSize is the size in bytes of the read buffer used while
	// rebuilding the index at open. Default: 256 KiB.
	ReplayBufferSize int

	// CompactionRateLimit caps compaction writes in bytes per second.
	// Zero means unlimited. Default: 0.
	CompactionRateLimit int

	// FS is the filesystem implementation to use. Default: the local
	// filesystem.
	FS fs.FileSystem
}

// DefaultOptions returns default engine options.
var DefaultOptions = Options{
	SyncWrites:       true,
	FileMode:         0600,
	ReplayBufferSize: 256 * 1024,
	FS:               fs.Default,
}
