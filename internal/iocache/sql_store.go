package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// SQLStore handles durable storage operations using the database/sql backends.
type SQLStore struct {
	db         *sql.DB
	tableName  string
	backend    schema.StorageBackend
	driverName string
	connStr    string
}

var _ contract.KVStore = &SQLStore{} // Compile-time check

// NewSQLStore initializes and returns a new SQL-backed store.
// The none backend returns a store that keeps nothing.
func NewSQLStore(tableName string, backend schema.StorageBackend, connStr string) (*SQLStore, error) {
	// Validate table name to prevent SQL injection
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	var db *sql.DB
	var err error
	var driverName string

	switch backend {
	case schema.SQLiteBackend:
		driverName = "sqlite"
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetStorageDBFilePath()
		}
		db, err = sql.Open(driverName, dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage at %q: %w. Ensure the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		// connStr should be:
		// user:password@tcp(host:port)/dbname
		driverName = "mysql"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL storage: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		// connStr should be:
		// host=localhost port=5432 user=postgres password=mysecretpassword dbname=postgres
		driverName = "pgx"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL storage: %w. Check connection format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	case schema.NoneBackend:
		return &SQLStore{
			tableName: tableName,
			backend:   backend,
			connStr:   connStr,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported SQL backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}

	// Ping to verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}

	// Create the table schema
	query := getCreateTableQuery(tableName, backend)
	if _, err := db.Exec(query); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	return &SQLStore{
		db:         db,
		tableName:  tableName,
		backend:    backend,
		driverName: driverName,
		connStr:    connStr,
	}, nil
}

// getCreateTableQuery returns the CREATE TABLE query for the given backend.
// It matches the first embedded migration so either path yields the same schema.
func getCreateTableQuery(tableName string, backend schema.StorageBackend) string {
	quotedTableName := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				store_key VARCHAR(255) PRIMARY KEY,
				store_value BLOB NOT NULL,
				store_version INT NOT NULL,
				store_timestamp BIGINT NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				store_key TEXT PRIMARY KEY,
				store_value BYTEA NOT NULL,
				store_version INTEGER NOT NULL,
				store_timestamp BIGINT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				store_key TEXT PRIMARY KEY,
				store_value BLOB NOT NULL,
				store_version INTEGER NOT NULL,
				store_timestamp INTEGER NOT NULL
			);
		`, quotedTableName)
	}
}

// Get retrieves a value by key from the store.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, int, int64, error) {
	if s.db == nil {
		return nil, 0, 0, contract.ErrKeyNotFound
	}

	var value []byte
	var version int
	var ts int64

	quotedTableName := quoteTableName(s.tableName, s.backend)
	query := fmt.Sprintf(`SELECT store_value, store_version, store_timestamp FROM %s WHERE store_key = %s`, quotedTableName, s.getPlaceholder(1))
	row := s.db.QueryRowContext(ctx, query, key)

	if err := row.Scan(&value, &version, &ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, 0, contract.ErrKeyNotFound
		}
		return nil, 0, 0, err
	}
	return value, version, ts, nil
}

// Set inserts or replaces a key/value pair in the store.
func (s *SQLStore) Set(ctx context.Context, key string, value []byte, version int, timestamp int64) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, s.getUpsertQuery(), key, value, version, timestamp)
	return err
}

// Delete removes a key from the store.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if s.db == nil {
		return nil
	}
	quotedTableName := quoteTableName(s.tableName, s.backend)
	query := fmt.Sprintf(`DELETE FROM %s WHERE store_key = %s`, quotedTableName, s.getPlaceholder(1))
	_, err := s.db.ExecContext(ctx, query, key)
	return err
}

// getPlaceholder returns the n-th parameter placeholder for the backend.
func (s *SQLStore) getPlaceholder(n int) string {
	switch s.backend {
	case schema.PostgreSQLBackend:
		return fmt.Sprintf("$%d", n)
	default: // SQLite and MySQL
		return "?"
	}
}

// getUpsertQuery returns the UPSERT query for the backend.
func (s *SQLStore) getUpsertQuery() string {
	quotedTableName := quoteTableName(s.tableName, s.backend)
	switch s.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (store_key, store_value, store_version, store_timestamp) VALUES (?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE store_value = new.store_value, store_version = new.store_version, store_timestamp = new.store_timestamp`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (store_key, store_value, store_version, store_timestamp) VALUES ($1, $2, $3, $4)
			ON CONFLICT (store_key) DO UPDATE SET store_value = EXCLUDED.store_value, store_version = EXCLUDED.store_version, store_timestamp = EXCLUDED.store_timestamp`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (store_key, store_value, store_version, store_timestamp) VALUES (?, ?, ?, ?)`, quotedTableName)
	}
}

// Close closes the underlying DB connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetStatus returns status information about the store.
func (s *SQLStore) GetStatus(ctx context.Context) (schema.StorageStatus, error) {
	status := schema.StorageStatus{
		Backend:   string(s.backend),
		Connected: s.db != nil,
	}

	if s.db == nil {
		return status, nil
	}

	quotedTableName := quoteTableName(s.tableName, s.backend)

	// Get total entries
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTableName)
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&status.TotalEntries); err != nil {
		return status, fmt.Errorf("failed to get total entries: %w", err)
	}

	if status.TotalEntries == 0 {
		return status, nil
	}

	// Get newest and oldest write times
	var lastTs, oldestTs int64
	rangeQuery := fmt.Sprintf("SELECT MAX(store_timestamp), MIN(store_timestamp) FROM %s", quotedTableName)
	if err := s.db.QueryRowContext(ctx, rangeQuery).Scan(&lastTs, &oldestTs); err != nil {
		return status, fmt.Errorf("failed to get entry time range: %w", err)
	}
	status.LastEntryTime = time.Unix(lastTs, 0)
	status.OldestEntryTime = time.Unix(oldestTs, 0)

	status.TableSizeBytes = s.estimateTableSize(ctx, status.TotalEntries)
	return status, nil
}

// estimateTableSize asks the backend for the table size, with a rough
// per-row estimate when the backend cannot tell.
func (s *SQLStore) estimateTableSize(ctx context.Context, totalEntries int) int64 {
	fallback := int64(totalEntries) * 1000
	var size int64

	switch s.backend {
	case schema.SQLiteBackend:
		sizeQuery := "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()"
		if err := s.db.QueryRowContext(ctx, sizeQuery).Scan(&size); err != nil {
			return 0
		}
		return size

	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(s.connStr)
		if err != nil || cfg.DBName == "" {
			return fallback
		}
		sizeQuery := "SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?"
		if err := s.db.QueryRowContext(ctx, sizeQuery, cfg.DBName, s.tableName).Scan(&size); err != nil {
			return fallback
		}
		return size

	case schema.PostgreSQLBackend:
		if err := s.db.QueryRowContext(ctx, "SELECT pg_total_relation_size($1)", s.tableName).Scan(&size); err != nil {
			return fallback
		}
		return size

	default:
		return fallback
	}
}
