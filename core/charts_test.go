package core

import (
	"testing"

	"github.com/huangsam/stockpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func TestBuildCharts(t *testing.T) {
	rows := []schema.Observation{
		observation("Bag", "https://s/bag", "Bags", "In Stock", "40", t0),
		observation("Boot", "https://s/boot", "Shoes", "In Stock", "120", t0),
		observation("Belt", "https://s/belt", "Bags", "Out of Stock", "20", t0),
		observation("Cap", "", "", "In Stock", "", t0),
	}
	rows[0].VariantCount = intp(2)
	rows[1].VariantCount = intp(2)
	rows[2].VariantCount = intp(1)
	rows[1].ImageCount = intp(5)

	charts := BuildCharts(schema.ProductsResult{Outcome: schema.OutcomeOK, Observations: rows},
		ChartOptions{TopProducts: 2, PriceBins: 5, Currency: "₪"})

	assert.Equal(t, []schema.Bucket{{Label: "Bags", Count: 2}, {Label: "Shoes", Count: 1}}, charts.Categories.Buckets)
	assert.Equal(t, []schema.Bucket{{Label: "In Stock", Count: 3}, {Label: "Out of Stock", Count: 1}}, charts.StockStatus.Buckets)
	assert.Equal(t, []schema.Bucket{{Label: "2 variants", Count: 2}, {Label: "1 variants", Count: 1}}, charts.Variants.Buckets)

	require.Equal(t, schema.OutcomeOK, charts.TopProductsOut)
	require.Len(t, charts.TopProducts, 2)
	assert.Equal(t, "Boot", charts.TopProducts[0].Title)
	assert.Equal(t, 5, charts.TopProducts[0].Images)
	assert.Equal(t, "Bag", charts.TopProducts[1].Title)
	assert.Equal(t, 0, charts.TopProducts[1].Images)

	assert.Equal(t, "₪", charts.Prices.Currency)
	assert.Len(t, charts.Prices.Bins, 5)
}

func TestBuildCharts_Empty(t *testing.T) {
	charts := BuildCharts(schema.ProductsResult{Outcome: schema.OutcomeEmpty}, ChartOptions{TopProducts: 10, PriceBins: 20})
	assert.Equal(t, schema.OutcomeEmpty, charts.Categories.Outcome)
	assert.Equal(t, schema.OutcomeEmpty, charts.Prices.Outcome)
	assert.Equal(t, schema.OutcomeEmpty, charts.TopProductsOut)
	assert.NotNil(t, charts.TopProducts)

	charts = BuildCharts(schema.ProductsResult{Outcome: schema.OutcomeError}, ChartOptions{})
	assert.Equal(t, schema.OutcomeError, charts.StockStatus.Outcome)
}

func TestPriceHistogram(t *testing.T) {
	rows := []schema.Observation{
		observation("a", "", "", "In Stock", "0", t0),
		observation("b", "", "", "In Stock", "9.99", t0),
		observation("c", "", "", "In Stock", "10", t0),
		observation("d", "", "", "In Stock", "100", t0),
		observation("e", "", "", "In Stock", "", t0),
	}
	hist := PriceHistogram(rows, 10, "₪")
	require.Equal(t, schema.OutcomeOK, hist.Outcome)
	require.Len(t, hist.Bins, 10)
	assert.Equal(t, 2, hist.Bins[0].Count)
	assert.Equal(t, 1, hist.Bins[1].Count, "lower bound is inclusive")
	assert.Equal(t, 1, hist.Bins[9].Count, "maximum lands in the last bin")
	assert.Equal(t, "100", hist.Bins[9].Upper.String())

	total := 0
	for _, b := range hist.Bins {
		total += b.Count
	}
	assert.Equal(t, 4, total)
}

func TestPriceHistogram_SinglePrice(t *testing.T) {
	rows := []schema.Observation{
		observation("a", "", "", "In Stock", "25", t0),
		observation("b", "", "", "In Stock", "25", t0),
	}
	hist := PriceHistogram(rows, 20, "₪")
	require.Len(t, hist.Bins, 1)
	assert.Equal(t, 2, hist.Bins[0].Count)

	assert.Equal(t, schema.OutcomeEmpty, PriceHistogram(nil, 20, "₪").Outcome)
}

func TestTopProducts(t *testing.T) {
	rows := []schema.Observation{
		observation("first", "", "", "", "10", t0),
		observation("second", "", "", "", "10", t0),
		observation("unpriced", "", "", "", "", t0),
	}
	top := TopProducts(rows, 10)
	require.Len(t, top, 2)
	assert.Equal(t, "first", top[0].Title, "ties keep source order")
	assert.Equal(t, Unknown, top[0].Category)
	assert.Equal(t, Unknown, top[0].StockStatus)
}
