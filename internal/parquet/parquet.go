// Package parquet exports catalog and cart data to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/storefront/schema"
	"github.com/parquet-go/parquet-go"
)

// ProductRow is one catalog entry flattened for columnar storage.
type ProductRow struct {
	// ProductID is the catalog identity
	ProductID int64 `parquet:"product_id,snappy"`

	Title       string  `parquet:"title,snappy"`
	Price       float64 `parquet:"price,snappy"`
	Description string  `parquet:"description,snappy"`
	Category    string  `parquet:"category,dict,snappy"`

	// Image is the product image URL (nullable)
	Image *string `parquet:"image,optional,snappy"`

	RatingRate  float64 `parquet:"rating_rate,snappy"`
	RatingCount int32   `parquet:"rating_count,snappy"`

	// ExportedAt is when the snapshot was written (stored as TIMESTAMP with nanosecond precision)
	ExportedAt time.Time `parquet:"exported_at,snappy"`
}

// CartLineRow is one cart line with its computed total.
type CartLineRow struct {
	// Position is the first-added order of the line, starting at 1
	Position  int32   `parquet:"position,snappy"`
	ProductID int64   `parquet:"product_id,snappy"`
	Name      string  `parquet:"name,snappy"`
	Price     float64 `parquet:"price,snappy"`
	Quantity  int32   `parquet:"quantity,snappy"`

	// LineTotal is the decimal string of price times quantity, kept exact
	LineTotal  string    `parquet:"line_total,snappy"`
	ExportedAt time.Time `parquet:"exported_at,snappy"`
}

// ProductRows converts catalog entries.
func ProductRows(entries []schema.CatalogEntry, exportedAt time.Time) []ProductRow {
	rows := make([]ProductRow, len(entries))
	for i, e := range entries {
		var image *string
		if e.Image != "" {
			img := e.Image
			image = &img
		}
		rows[i] = ProductRow{
			ProductID:   int64(e.ID),
			Title:       e.Title,
			Price:       e.Price,
			Description: e.Description,
			Category:    e.Category,
			Image:       image,
			RatingRate:  e.Rating.Rate,
			RatingCount: int32(e.Rating.Count),
			ExportedAt:  exportedAt,
		}
	}
	return rows
}

// CartLineRows converts cart lines. lineTotal formats the exact total of one line.
func CartLineRows(items []schema.CartLineItem, lineTotal func(schema.CartLineItem) string, exportedAt time.Time) []CartLineRow {
	rows := make([]CartLineRow, len(items))
	for i, it := range items {
		rows[i] = CartLineRow{
			Position:   int32(i + 1),
			ProductID:  int64(it.ID),
			Name:       it.Name,
			Price:      it.Price,
			Quantity:   int32(it.Quantity),
			LineTotal:  lineTotal(it),
			ExportedAt: exportedAt,
		}
	}
	return rows
}

// WriteProductsParquet writes product rows to a Parquet file.
func WriteProductsParquet(data []ProductRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteCartParquet writes cart rows to a Parquet file.
func WriteCartParquet(data []CartLineRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet infers the schema from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
