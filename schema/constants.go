// Package schema holds the data shapes shared by the storefront packages.
package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// StorageBackend represents the durable storage backend for the cart.
	StorageBackend string

	// QueryStatus represents the lifecycle state of a cached query.
	QueryStatus string
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	CSVOut     OutputMode = "csv"
	ParquetOut OutputMode = "parquet"
)

// All storage backends supported.
const (
	SQLiteBackend     StorageBackend = "sqlite" // default
	MySQLBackend      StorageBackend = "mysql"
	PostgreSQLBackend StorageBackend = "postgresql"
	RedisBackend      StorageBackend = "redis"
	NoneBackend       StorageBackend = "none"
)

// All query states supported.
const (
	StatusIdle    QueryStatus = "idle" // never requested or disabled
	StatusPending QueryStatus = "pending"
	StatusSuccess QueryStatus = "success"
	StatusError   QueryStatus = "error"
)

// AllCategories is the category value that disables category filtering.
const AllCategories = "all"

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	JSONOut:    {},
	CSVOut:     {},
	ParquetOut: {},
}

// ValidStorageBackends lists all valid storage backends.
var ValidStorageBackends = map[StorageBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}
