// Package constants provides shared constants used across the codebase.
package constants

// Pagination constants
const (
	// DefaultPersonsPageSize is the default number of persons to fetch per request
	DefaultPersonsPageSize = 100

	// MaxPersonsPageSize is the largest page the console asks the backend for
	MaxPersonsPageSize = 1000
)

// Processing constants
const (
	// CountConcurrency is the default number of parallel photo list requests
	// when counting photos of many persons
	CountConcurrency = 5

	// MultipartMemoryBytes is how much of a multipart upload is kept in
	// memory; the rest is spooled to temporary files
	MultipartMemoryBytes = 32 << 20
)

// Server constants
const (
	// ShutdownTimeoutSeconds bounds graceful shutdown of the console
	ShutdownTimeoutSeconds = 30

	// RequestTimeoutMinutes bounds a single console request, batch uploads included
	RequestTimeoutMinutes = 5
)
