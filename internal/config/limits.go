package config

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 to fit common filesystem and VARCHAR limits.
	MaxFolderNameLength = 255

	// MaxFileNameLength is the maximum length for a file's original name.
	// Same as folder names for consistency.
	MaxFileNameLength = 255

	// DefaultMaxUploadBytes caps a single upload (100 MiB).
	DefaultMaxUploadBytes int64 = 100 << 20

	// MultipartMemoryBytes is how much of a multipart body is held in memory
	// before spilling to temp files.
	MultipartMemoryBytes int64 = 32 << 20
)
