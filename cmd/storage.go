package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/internal/iocache"
	"github.com/huangsam/storefront/internal/outwriter"
	"github.com/huangsam/storefront/schema"
	"github.com/spf13/cobra"
)

// storageSetupWrapper loads only the configuration, so storage commands work
// without touching the catalog.
//
// Note: clear and migrate open their own connections. Opening the store here
// would hold the SQLite file while clear tries to remove it.
func storageSetupWrapper(_ *cobra.Command, _ []string) error {
	return loadConfig()
}

// storageCmd focused on durable storage management.
var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Manage durable cart storage",
	Long: `Inspect and maintain the storage backend that keeps the cart between runs.

Supported backends: SQLite (default), MySQL, PostgreSQL, Redis, or None (nothing kept)

Subcommands:
  status  - Show entry counts and connection info
  clear   - Remove all stored data
  migrate - Apply or roll back schema migrations (SQL backends)`,
}

// storageStatusCmd shows storage status.
var storageStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show storage statistics and connection info",
	PreRunE: storageSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		stores, err := iocache.NewStoreManager(cfg.StorageBackend, cfg.StorageDBConnect)
		if err != nil {
			return err
		}
		defer func() { _ = stores.Close() }()

		status, err := stores.GetKVStore().GetStatus(rootCtx)
		if err != nil {
			return fmt.Errorf("failed to get storage status: %w", err)
		}
		return outwriter.NewOutWriter().WriteStorageStatus(status, cfg)
	},
}

// storageClearCmd clears the storage.
var storageClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored data, including the cart",
	Long: `Delete all stored data from the configured backend.

For SQLite the database file is removed. For MySQL and PostgreSQL the table is
dropped and recreated on next use. For Redis every storefront key is deleted.`,
	PreRunE: storageSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dbFilePath := cfg.StorageDBConnect
		if cfg.StorageBackend == schema.SQLiteBackend && dbFilePath == "" {
			dbFilePath = contract.GetStorageDBFilePath()
		}
		if err := iocache.ClearStorage(rootCtx, cfg.StorageBackend, dbFilePath, cfg.StorageDBConnect); err != nil {
			return fmt.Errorf("failed to clear storage: %w", err)
		}
		cmd.Printf("Cleared %s storage\n", cfg.StorageBackend)
		return nil
	},
}

// storageMigrateCmd runs schema migrations.
var storageMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back storage schema migrations",
	Long: `Run the embedded schema migrations against the SQL backend.

Examples:
  # Migrate to the latest version
  storefront storage migrate

  # Roll back to version 1
  storefront storage migrate --target-version 1`,
	PreRunE: storageSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		target, _ := cmd.Flags().GetInt("target-version")
		return iocache.MigrateStorage(os.Stdout, cfg.StorageBackend, cfg.StorageDBConnect, target)
	},
}
