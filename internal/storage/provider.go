package storage

// Provider abstracts the workspace file system. Consumers should depend on
// this interface rather than the concrete *FS type to facilitate testing.
type Provider interface {
	// Read returns the raw bytes of a workspace file.
	Read(path string) ([]byte, error)
	// Write atomically replaces a workspace file (tmp, fsync, rename).
	Write(path string, content []byte) error
	// Append appends one line-record to an append-only log file.
	Append(path string, line []byte) error
	// ReadLines returns every non-empty line of a log file, oldest first.
	// A missing file yields no lines and no error.
	ReadLines(path string) ([][]byte, error)
	// Exists reports whether a workspace file is present.
	Exists(path string) bool
	// Root returns the absolute workspace root.
	Root() string
}
