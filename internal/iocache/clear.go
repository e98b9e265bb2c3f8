package iocache

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/huangsam/storefront/schema"
)

// ClearStorage wipes durable client state for the specified backend.
// For SQLite, it deletes the database file.
// For MySQL and PostgreSQL, it drops the key/value table.
// For Redis, it deletes every namespaced key.
// For NoneBackend, it does nothing.
func ClearStorage(ctx context.Context, backend schema.StorageBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		driverName, err := driverFor(backend)
		if err != nil {
			return err
		}
		return clearSQLTable(ctx, driverName, backend, connStr, kvTable)

	case schema.RedisBackend:
		store, err := NewRedisStore(connStr)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		return store.Clear(ctx)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported storage backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(ctx context.Context, driverName string, backend schema.StorageBackend, connStr, tableName string) error {
	if err := validateTableName(tableName); err != nil {
		return err
	}
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(tableName, backend))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}
	return nil
}
