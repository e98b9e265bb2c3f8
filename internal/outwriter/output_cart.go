package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/storefront/internal/cartstore"
	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/internal/parquet"
	"github.com/huangsam/storefront/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/shopspring/decimal"
)

// cartFixedWidth is the room taken by every cart column except the name.
const cartFixedWidth = 40

// WriteCartResults outputs the cart lines and total in the configured format.
func WriteCartResults(items []schema.CartLineItem, total decimal.Decimal, cfg *contract.Config) error {
	fmtFloat, fmtMoney := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCartJSON(w, items, total, fmtMoney)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCartCSV(w, items, fmtFloat, fmtMoney)
		}, "Wrote CSV")
	case schema.ParquetOut:
		lineTotal := func(it schema.CartLineItem) string { return fmtMoney(cartstore.LineTotal(it)) }
		if err := parquet.WriteCartParquet(parquet.CartLineRows(items, lineTotal, time.Now()), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCartTable(w, items, total, cfg, fmtFloat, fmtMoney)
		}, "Wrote table")
	}
}

func writeCartTable(w io.Writer, items []schema.CartLineItem, total decimal.Decimal, cfg *contract.Config,
	fmtFloat func(float64) string, fmtMoney func(decimal.Decimal) string,
) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "Cart is empty")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Name", "Price", "Qty", "Line Total"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := getMaxTableTitleWidth(cfg, cartFixedWidth)
	data := make([][]string, 0, len(items))
	count := 0
	for _, it := range items {
		count += it.Quantity
		data = append(data, []string{
			strconv.Itoa(it.ID),
			contract.TruncateText(it.Name, nameWidth),
			fmtFloat(it.Price),
			strconv.Itoa(it.Quantity),
			fmtMoney(cartstore.LineTotal(it)),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	table.Footer([]string{"", "", "", strconv.Itoa(count), fmtMoney(total)})
	return table.Render()
}

func writeCartCSV(w io.Writer, items []schema.CartLineItem, fmtFloat func(float64) string, fmtMoney func(decimal.Decimal) string) error {
	header := []string{"id", "name", "price", "quantity", "line_total"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, it := range items {
			rec := []string{
				strconv.Itoa(it.ID),
				it.Name,
				fmtFloat(it.Price),
				strconv.Itoa(it.Quantity),
				fmtMoney(cartstore.LineTotal(it)),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// jsonCart is the JSON shape of a cart listing. Money fields are strings to keep exact decimals.
type jsonCart struct {
	Items []jsonCartLine `json:"items"`
	Count int            `json:"count"`
	Total string         `json:"total"`
}

type jsonCartLine struct {
	schema.CartLineItem
	LineTotal string `json:"line_total"`
}

func writeCartJSON(w io.Writer, items []schema.CartLineItem, total decimal.Decimal, fmtMoney func(decimal.Decimal) string) error {
	out := jsonCart{Items: make([]jsonCartLine, 0, len(items)), Total: fmtMoney(total)}
	for _, it := range items {
		out.Count += it.Quantity
		out.Items = append(out.Items, jsonCartLine{CartLineItem: it, LineTotal: fmtMoney(cartstore.LineTotal(it))})
	}
	return writeJSON(w, out)
}
