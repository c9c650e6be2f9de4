package core

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/huangsam/stockpulse/schema"
	"github.com/shopspring/decimal"
)

// Unknown labels attributes that were null in the source row.
const Unknown = "Unknown"

// ChartOptions sizes the point-in-time charts.
type ChartOptions struct {
	TopProducts int
	PriceBins   int
	Currency    string
}

// BuildCharts derives the distribution charts and the top products table from the latest session.
func BuildCharts(products schema.ProductsResult, opts ChartOptions) schema.Charts {
	if products.Outcome != schema.OutcomeOK || len(products.Observations) == 0 {
		outcome := products.Outcome
		if outcome == schema.OutcomeOK {
			outcome = schema.OutcomeEmpty
		}
		return schema.Charts{
			Categories:     schema.Distribution{Outcome: outcome, Buckets: []schema.Bucket{}},
			StockStatus:    schema.Distribution{Outcome: outcome, Buckets: []schema.Bucket{}},
			Variants:       schema.Distribution{Outcome: outcome, Buckets: []schema.Bucket{}},
			Prices:         schema.PriceHistogram{Outcome: outcome, Currency: opts.Currency, Bins: []schema.PriceBin{}},
			TopProducts:    []schema.TopProduct{},
			TopProductsOut: outcome,
		}
	}

	obs := products.Observations
	top := TopProducts(obs, opts.TopProducts)
	topOutcome := schema.OutcomeOK
	if len(top) == 0 {
		topOutcome = schema.OutcomeEmpty
	}
	return schema.Charts{
		Categories: distribution(obs, func(o schema.Observation) (string, bool) {
			return strings.TrimSpace(o.Category), o.HasCategory()
		}),
		StockStatus: distribution(obs, func(o schema.Observation) (string, bool) {
			s := strings.TrimSpace(o.StockStatus)
			return s, s != ""
		}),
		Variants: distribution(obs, func(o schema.Observation) (string, bool) {
			if o.VariantCount == nil {
				return "", false
			}
			return fmt.Sprintf("%d variants", *o.VariantCount), true
		}),
		Prices:         PriceHistogram(obs, opts.PriceBins, opts.Currency),
		TopProducts:    top,
		TopProductsOut: topOutcome,
	}
}

// distribution counts labels, most frequent first with ties by label.
// Rows for which key reports false are left out.
func distribution(obs []schema.Observation, key func(schema.Observation) (string, bool)) schema.Distribution {
	counts := make(map[string]int)
	for _, o := range obs {
		if label, ok := key(o); ok {
			counts[label]++
		}
	}
	buckets := make([]schema.Bucket, 0, len(counts))
	for label, n := range counts {
		buckets = append(buckets, schema.Bucket{Label: label, Count: n})
	}
	slices.SortFunc(buckets, func(a, b schema.Bucket) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	outcome := schema.OutcomeOK
	if len(buckets) == 0 {
		outcome = schema.OutcomeEmpty
	}
	return schema.Distribution{Outcome: outcome, Buckets: buckets}
}

// PriceHistogram splits the priced rows into equal-width bins between the lowest
// and highest price. Bins are lower-inclusive; the last bin also holds the maximum.
func PriceHistogram(obs []schema.Observation, bins int, currency string) schema.PriceHistogram {
	hist := schema.PriceHistogram{Outcome: schema.OutcomeEmpty, Currency: currency, Bins: []schema.PriceBin{}}

	var prices []decimal.Decimal
	for _, o := range obs {
		if o.Price.Valid {
			prices = append(prices, o.Price.Decimal)
		}
	}
	if len(prices) == 0 || bins <= 0 {
		return hist
	}

	lo, hi := decimal.Min(prices[0], prices[1:]...), decimal.Max(prices[0], prices[1:]...)
	if lo.Equal(hi) {
		hist.Outcome = schema.OutcomeOK
		hist.Bins = []schema.PriceBin{{Lower: lo, Upper: hi, Count: len(prices)}}
		return hist
	}

	width := hi.Sub(lo).Div(decimal.NewFromInt(int64(bins)))
	hist.Bins = make([]schema.PriceBin, bins)
	for i := range hist.Bins {
		hist.Bins[i].Lower = lo.Add(width.Mul(decimal.NewFromInt(int64(i))))
		hist.Bins[i].Upper = lo.Add(width.Mul(decimal.NewFromInt(int64(i + 1))))
	}
	hist.Bins[bins-1].Upper = hi

	for _, p := range prices {
		idx := int(p.Sub(lo).Div(width).Floor().IntPart())
		idx = min(max(idx, 0), bins-1)
		hist.Bins[idx].Count++
	}
	hist.Outcome = schema.OutcomeOK
	return hist
}

// TopProducts returns the n most expensive priced products. Ties keep source order.
func TopProducts(obs []schema.Observation, n int) []schema.TopProduct {
	priced := make([]schema.Observation, 0, len(obs))
	for _, o := range obs {
		if o.Price.Valid {
			priced = append(priced, o)
		}
	}
	slices.SortStableFunc(priced, func(a, b schema.Observation) int {
		return b.Price.Decimal.Cmp(a.Price.Decimal)
	})
	if n >= 0 && len(priced) > n {
		priced = priced[:n]
	}

	out := make([]schema.TopProduct, 0, len(priced))
	for _, o := range priced {
		p := schema.TopProduct{
			ProductID:   o.ProductID,
			Title:       o.Title,
			URL:         o.URL,
			Price:       o.Price.Decimal,
			Category:    cmp.Or(strings.TrimSpace(o.Category), Unknown),
			StockStatus: cmp.Or(strings.TrimSpace(o.StockStatus), Unknown),
		}
		if o.VariantCount != nil {
			p.Variants = *o.VariantCount
		}
		if o.ImageCount != nil {
			p.Images = *o.ImageCount
		}
		out = append(out, p)
	}
	return out
}
