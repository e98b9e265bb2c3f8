package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/internal/parquet"
	"github.com/huangsam/storefront/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// productFixedWidth is the room taken by every product column except the title.
const productFixedWidth = 55

// WriteProductResults outputs a product list, dispatching on the configured format.
func WriteProductResults(products []schema.CatalogEntry, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeProductsJSON(w, products)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeProductsCSV(w, products, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if err := parquet.WriteProductsParquet(parquet.ProductRows(products, time.Now()), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeProductsTable(w, products, cfg, fmtFloat)
		}, "Wrote table")
	}
}

// writeProductsTable generates and writes the human-readable table.
func writeProductsTable(w io.Writer, products []schema.CatalogEntry, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Title", "Category", "Price", "Rating", "Label"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	titleWidth := getMaxTableTitleWidth(cfg, productFixedWidth)
	data := make([][]string, 0, len(products))
	for _, p := range products {
		data = append(data, []string{
			strconv.Itoa(p.ID),
			contract.TruncateText(p.Title, titleWidth),
			p.Category,
			fmtFloat(p.Price),
			fmt.Sprintf("%s (%d)", fmtFloat(p.Rating.Rate), p.Rating.Count),
			label(p.Rating.Rate, cfg.UseColors),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d products\n", len(products))
	return err
}

// writeProductsCSV writes the products in CSV format.
func writeProductsCSV(w io.Writer, products []schema.CatalogEntry, fmtFloat func(float64) string) error {
	header := []string{"id", "title", "category", "price", "rating_rate", "rating_count", "label", "image"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range products {
			rec := []string{
				strconv.Itoa(p.ID),
				p.Title,
				p.Category,
				fmtFloat(p.Price),
				fmtFloat(p.Rating.Rate),
				strconv.Itoa(p.Rating.Count),
				contract.GetPlainLabel(p.Rating.Rate),
				p.Image,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeProductsJSON writes the products with their rating label.
func writeProductsJSON(w io.Writer, products []schema.CatalogEntry) error {
	type jsonProduct struct {
		schema.CatalogEntry
		Label string `json:"label"`
	}
	out := make([]jsonProduct, len(products))
	for i, p := range products {
		out[i] = jsonProduct{CatalogEntry: p, Label: contract.GetPlainLabel(p.Rating.Rate)}
	}
	return writeJSON(w, out)
}

// WriteProductDetail prints one product. Table output renders a detail card.
func WriteProductDetail(p schema.CatalogEntry, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeProductsJSON(w, []schema.CatalogEntry{p})
		}, "Wrote JSON")
	case schema.CSVOut, schema.ParquetOut:
		return WriteProductResults([]schema.CatalogEntry{p}, cfg)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeProductCard(w, p, cfg.UseColors, fmtFloat)
		}, "Wrote product")
	}
}

func writeProductCard(w io.Writer, p schema.CatalogEntry, colors bool, fmtFloat func(float64) string) error {
	_, err := fmt.Fprintf(w, "#%d %s\nCategory: %s\nPrice:    %s\nRating:   %s %s (%d reviews) %s\n\n%s\n",
		p.ID, p.Title,
		p.Category,
		fmtFloat(p.Price),
		p.Rating.Stars(), fmtFloat(p.Rating.Rate), p.Rating.Count, label(p.Rating.Rate, colors),
		p.Description,
	)
	return err
}

func label(rate float64, colors bool) string {
	if colors {
		return contract.GetColorLabel(rate)
	}
	return contract.GetPlainLabel(rate)
}
