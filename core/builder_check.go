package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
)

// CheckResultBuilder builds the store check result using a builder pattern.
// A failed connection step stops the later steps from running.
type CheckResultBuilder struct {
	ctx     context.Context
	cfg     *contract.Config
	store   contract.ObservationStore
	start   time.Time
	steps   []schema.CheckStep
	stopped bool
	result  *schema.CheckResult
}

// NewCheckResultBuilder creates a new builder for check results.
func NewCheckResultBuilder(ctx context.Context, cfg *contract.Config, store contract.ObservationStore) *CheckResultBuilder {
	return &CheckResultBuilder{
		ctx:   ctx,
		cfg:   cfg,
		store: store,
		start: time.Now(),
	}
}

func (b *CheckResultBuilder) add(name string, level schema.CheckLevel, detail string) {
	b.steps = append(b.steps, schema.CheckStep{Name: name, Level: level, Detail: detail})
	if level == schema.CheckFail {
		b.stopped = true
	}
}

// CheckConnection queries the server, the schema and the scraper tables.
func (b *CheckResultBuilder) CheckConnection() *CheckResultBuilder {
	status, err := b.store.Status(b.ctx)
	if !status.Connected {
		detail := status.Error
		if err != nil {
			detail = err.Error()
		}
		b.add("connection", schema.CheckFail, detail)
		return b
	}
	b.add("connection", schema.CheckPass, serverVersion(status.ServerVersion))

	if err != nil {
		b.add("schema", schema.CheckFail, err.Error())
		return b
	}
	if status.Schema != "" {
		if !status.SchemaExists {
			b.add("schema", schema.CheckFail, fmt.Sprintf("schema %q not found", status.Schema))
			return b
		}
		b.add("schema", schema.CheckPass, fmt.Sprintf("schema %q found", status.Schema))
	}

	tables := make([]string, 0, len(status.TableSizes))
	for name := range status.TableSizes {
		tables = append(tables, name)
	}
	slices.Sort(tables)
	for _, name := range tables {
		n := status.TableSizes[name]
		if n < 0 {
			b.add("table "+name, schema.CheckFail, "cannot be queried; make sure it exists and the scraper has run")
			continue
		}
		b.add("table "+name, schema.CheckPass, fmt.Sprintf("%d rows", n))
	}
	return b
}

// CheckDataOperations runs the reads one refresh performs, on a snapshot of its own.
func (b *CheckResultBuilder) CheckDataOperations() *CheckResultBuilder {
	if b.stopped {
		return b
	}
	ok, diag := withSnapshot(b.ctx, b.store, func(snap contract.Snapshot) {
		products := LoadCurrentProducts(b.ctx, snap, ResolveLatestWindow(b.ctx, snap))
		b.outcome("latest products", products.Outcome, products.Diagnostic,
			fmt.Sprintf("%d records in the latest completed session", len(products.Observations)))

		history := BuildStockHistory(b.ctx, snap, b.cfg.Strategy, b.cfg.Pushdown)
		b.outcome("stock history", history.Outcome, history.Diagnostic,
			fmt.Sprintf("%d %s buckets", len(history.Points), history.Strategy))

		catalog := SummarizeCatalog(products)
		if catalog.Outcome == schema.OutcomeOK && catalog.Priced == 0 {
			b.add("price statistics", schema.CheckInfo, "no priced products in the latest session")
			return
		}
		b.outcome("price statistics", catalog.Outcome, catalog.Diagnostic,
			fmt.Sprintf("%d priced, average %s", catalog.Priced, catalog.AveragePrice.Decimal.StringFixed(2)))
	})
	if !ok {
		b.add("snapshot", schema.CheckFail, diag)
	}
	return b
}

// outcome maps a section outcome onto a check step.
func (b *CheckResultBuilder) outcome(name string, outcome schema.Outcome, diagnostic, okDetail string) {
	switch outcome {
	case schema.OutcomeOK:
		b.add(name, schema.CheckPass, okDetail)
	case schema.OutcomeEmpty:
		b.add(name, schema.CheckInfo, diagnostic)
	default:
		b.add(name, schema.CheckFail, diagnostic)
	}
}

// BuildResult assembles the final result.
func (b *CheckResultBuilder) BuildResult() *CheckResultBuilder {
	b.result = &schema.CheckResult{
		Backend:  string(b.cfg.Backend),
		Target:   contract.RedactConnectionString(b.cfg.Backend, b.cfg.DBConnect),
		Schema:   b.cfg.DBSchema,
		Steps:    b.steps,
		Duration: time.Since(b.start),
	}
	b.result.Passed = len(b.result.Failed()) == 0
	return b
}

// GetResult returns the built result, or nil before BuildResult.
func (b *CheckResultBuilder) GetResult() *schema.CheckResult {
	return b.result
}

// serverVersion keeps the leading part of a verbose version string.
func serverVersion(v string) string {
	if i := strings.Index(v, ","); i > 0 {
		return v[:i]
	}
	return v
}
