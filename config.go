package kvgo

// Config identifies a store on disk. Open validates it and fails with
// ErrInvalidDir or ErrInvalidName when it cannot name a usable location.
type Config struct {
	// DataDir is the directory holding the store's files. It is created
	// at open if absent.
	DataDir string

	// Name identifies the logical store within DataDir. It must consist
	// of letters, digits, '.', '_' and '-', must not start with a dot,
	// and becomes the data file name stem: Name + ".bsk".
	Name string
}

// Stats describes the current size of a store.
type Stats struct {
	// Keys is the number of live keys.
	Keys int

	// DiskSize is the data file size in bytes.
	DiskSize int64

	// ReclaimableBytes counts the bytes held by overwritten and deleted
	// records. Compact rewrites the file without them.
	ReclaimableBytes int64
}
