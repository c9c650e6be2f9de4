package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteDashboard outputs one refresh of the dashboard, dispatching based on the output format configured.
func WriteDashboard(d schema.Dashboard, cfg *contract.Config) error {
	f := createFormatters(cfg.Precision, cfg.Currency)
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, d)
		}, "Wrote JSON dashboard")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVResultsForDashboard(w, d, f)
		}, "Wrote CSV dashboard")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only available for history")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDashboardText(w, d, cfg, f)
		}, "Wrote dashboard")
	}
}

// writeCSVResultsForDashboard flattens the cards and charts into section/label/value rows.
func writeCSVResultsForDashboard(w io.Writer, d schema.Dashboard, f formatters) error {
	header := []string{"section", "label", "value"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		rows := [][]string{
			{"catalog", "outcome", string(d.Catalog.Outcome)},
			{"catalog", "total_products", strconv.Itoa(d.Catalog.TotalProducts)},
			{"catalog", "in_stock", strconv.Itoa(d.Catalog.InStock)},
			{"catalog", "priced", strconv.Itoa(d.Catalog.Priced)},
		}
		if d.Catalog.AveragePrice.Valid {
			rows = append(rows, []string{"catalog", "average_price", f.plain(d.Catalog.AveragePrice.Decimal)})
		}
		rows = append(rows,
			[]string{"session", "status", string(d.Session.Status)},
			[]string{"session", "duration", d.Session.Duration},
			[]string{"session", "products_scraped", strconv.Itoa(d.Session.ProductsScraped)},
			[]string{"history", "points", strconv.Itoa(len(d.History.Points))},
		)
		for _, b := range d.Charts.Categories.Buckets {
			rows = append(rows, []string{"category", b.Label, strconv.Itoa(b.Count)})
		}
		for _, b := range d.Charts.StockStatus.Buckets {
			rows = append(rows, []string{"stock_status", b.Label, strconv.Itoa(b.Count)})
		}
		for _, b := range d.Charts.Variants.Buckets {
			rows = append(rows, []string{"variants", b.Label, strconv.Itoa(b.Count)})
		}
		for _, b := range d.Charts.Prices.Bins {
			rows = append(rows, []string{"price_bin", f.plain(b.Lower) + "-" + f.plain(b.Upper), strconv.Itoa(b.Count)})
		}
		for _, p := range d.Charts.TopProducts {
			rows = append(rows, []string{"top_product", p.Title, f.plain(p.Price)})
		}
		return cw.WriteAll(rows)
	})
}

func writeDashboardText(w io.Writer, d schema.Dashboard, cfg *contract.Config, f formatters) error {
	steps := []func() error{
		func() error { return writeCatalogCard(w, d.Catalog, f) },
		func() error {
			if err := writeSectionTitle(w, "Scraping Status"); err != nil {
				return err
			}
			return writeSessionCard(w, d.Session, cfg)
		},
		func() error { return writeHistorySummary(w, d.History) },
		func() error { return writeDistribution(w, "Categories", d.Charts.Categories) },
		func() error { return writeDistribution(w, "Stock Status", d.Charts.StockStatus) },
		func() error { return writeDistribution(w, "Variants", d.Charts.Variants) },
		func() error { return writePriceHistogram(w, d.Charts.Prices, f) },
		func() error { return writeTopProducts(w, d.Charts, cfg, f) },
		func() error { return writeChangesSummary(w, d.Changes) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Refreshed at %s in %v\n", formatTime(d.RefreshedAt), d.Duration.Round(time.Millisecond))
	return err
}

func writeSectionTitle(w io.Writer, title string) error {
	_, err := fmt.Fprintf(w, "== %s ==\n", title)
	return err
}

func writeCatalogCard(w io.Writer, c schema.CatalogSummary, f formatters) error {
	if err := writeSectionTitle(w, "Database"); err != nil {
		return err
	}
	connected := "Connected"
	if !c.Connected {
		connected = "Disconnected"
	}
	if _, err := fmt.Fprintln(w, connected); err != nil {
		return err
	}
	if stop, err := writeOutcomeLine(w, c.Outcome, c.Diagnostic); stop || err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Products: %d, in stock: %d, average price: %s (%d priced)\n",
		c.TotalProducts, c.InStock, f.formatNullPrice(c.AveragePrice), c.Priced)
	return err
}

func writeHistorySummary(w io.Writer, h schema.HistoryResult) error {
	if err := writeSectionTitle(w, "Stock History"); err != nil {
		return err
	}
	if stop, err := writeOutcomeLine(w, h.Outcome, h.Diagnostic); stop || err != nil {
		return err
	}
	if len(h.Points) == 0 {
		_, err := fmt.Fprintln(w, NoDataAvailable)
		return err
	}
	last := h.Points[len(h.Points)-1]
	_, err := fmt.Fprintf(w, "%d %s buckets, latest %s with %d in stock across %d categories\n",
		len(h.Points), h.Strategy, formatTime(last.BucketTime), last.TotalInStock, len(last.CategoryCounts))
	return err
}

func writeDistribution(w io.Writer, title string, dist schema.Distribution) error {
	if err := writeSectionTitle(w, title); err != nil {
		return err
	}
	if stop, err := writeOutcomeLine(w, dist.Outcome, ""); stop || err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Label", "Count"})
	var data [][]string
	for _, b := range dist.Buckets {
		data = append(data, []string{b.Label, strconv.Itoa(b.Count)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writePriceHistogram(w io.Writer, h schema.PriceHistogram, f formatters) error {
	if err := writeSectionTitle(w, "Price Distribution"); err != nil {
		return err
	}
	if stop, err := writeOutcomeLine(w, h.Outcome, ""); stop || err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"From", "To", "Count"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, b := range h.Bins {
		data = append(data, []string{f.price(b.Lower), f.price(b.Upper), strconv.Itoa(b.Count)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeTopProducts(w io.Writer, charts schema.Charts, cfg *contract.Config, f formatters) error {
	if err := writeSectionTitle(w, "Top Products by Price"); err != nil {
		return err
	}
	if stop, err := writeOutcomeLine(w, charts.TopProductsOut, ""); stop || err != nil {
		return err
	}
	titleWidth := getMaxTableTitleWidth(cfg, 60)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Title", "Price", "Category", "Stock", "Variants", "Images"})
	var data [][]string
	for i, p := range charts.TopProducts {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncateText(p.Title, titleWidth),
			f.price(p.Price),
			p.Category,
			p.StockStatus,
			strconv.Itoa(p.Variants),
			strconv.Itoa(p.Images),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeChangesSummary(w io.Writer, c schema.ChangesResult) error {
	if err := writeSectionTitle(w, "Stock Changes"); err != nil {
		return err
	}
	if stop, err := writeOutcomeLine(w, c.Outcome, c.Diagnostic); stop || err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Restocked: %d, sold out: %d, added: %d, removed: %d\n",
		len(c.Restocked), len(c.SoldOut), len(c.Added), len(c.Removed))
	return err
}
