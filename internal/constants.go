package internal

// ToolName is used in generated script headers and as the cache directory name.
const ToolName = "commaslash"

const (
	// LockTimeoutSeconds bounds how long a generated script waits for the advisory install lock.
	LockTimeoutSeconds = 120

	// LockFD is the file descriptor the generated script opens the lock file on.
	LockFD = 9

	// DownloadRetries is passed to curl --retry.
	DownloadRetries = 3
)

const (
	ManifestVersion = 1

	ConfigFileName = ".commaslash"
)
