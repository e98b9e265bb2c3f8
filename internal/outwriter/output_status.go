package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/internal/iocache"
	"github.com/huangsam/storefront/schema"
)

// WriteStatusResults prints durable storage status.
// CSV falls back to JSON since the report is a single record.
func WriteStatusResults(status schema.StorageStatus, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.TextOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			iocache.PrintStorageStatus(w, status)
			return nil
		}, "Wrote status")
	case schema.ParquetOut:
		return fmt.Errorf("status output does not support %s", cfg.Output)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, status)
		}, "Wrote JSON")
	}
}
