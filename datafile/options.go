package datafile

import (
	"os"

	"github.com/hupe1980/kvgo/internal/fs"
)

// Options contains configuration for a data file.
type Options struct {
	// SyncWrites forces the record to durable storage before every
	// append returns. Disabling it trades crash safety for throughput;
	// durability then depends on explicit Sync calls.
	// Default: true.
	SyncWrites bool

	// FileMode is the permission mode used when the file is created.
	// Default: 0600.
	FileMode os.FileMode

	// ReplayBufferSize is the read buffer size used while scanning the
	// log during recovery. Larger buffers speed up replay of big files
	// at the cost of memory.
	// Default: 256 KiB.
	ReplayBufferSize int

	// FS is the file system implementation backing all file operations.
	// Tests swap in a fault-injecting implementation.
	// Default: fs.Default.
	FS fs.FileSystem
}

// DefaultOptions returns default data file options.
var DefaultOptions = Options{
	SyncWrites:       true,
	FileMode:         0600,
	ReplayBufferSize: 256 * 1024,
	FS:               fs.Default,
}
