// Package parquet provides data structures and functions for exporting stock
// history series to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/stockpulse/schema"
	"github.com/parquet-go/parquet-go"
)

// File suffixes appended to the export prefix.
const (
	HistorySuffix        = ".history.parquet"
	CategoryCountsSuffix = ".category_counts.parquet"
)

// HistoryPoint is one bucket of the stock history series.
type HistoryPoint struct {
	// BucketTime is the session start or the floored hour (TIMESTAMP, nanosecond precision)
	BucketTime time.Time `parquet:"bucket_time,snappy"`

	// Strategy names how the bucket was formed (session or hourly)
	Strategy string `parquet:"strategy,snappy"`

	// SessionID is the source session (nullable, session strategy only)
	SessionID *int64 `parquet:"session_id,optional,snappy"`

	TotalInStock         int32 `parquet:"total_in_stock,snappy"`
	UncategorizedInStock int32 `parquet:"uncategorized_in_stock,snappy"`
}

// CategoryCount is one category of one bucket, in long format.
type CategoryCount struct {
	BucketTime time.Time `parquet:"bucket_time,snappy"`
	Category   string    `parquet:"category,snappy"`
	InStock    int32     `parquet:"in_stock,snappy"`
}

// writeParquet writes a slice of rows to a Parquet file whose schema is
// derived from the row struct tags.
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

// WriteHistoryPointsParquet writes the history buckets to a Parquet file.
func WriteHistoryPointsParquet(data []HistoryPoint, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteCategoryCountsParquet writes the per-category counts to a Parquet file.
func WriteCategoryCountsParquet(data []CategoryCount, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertHistory flattens a history result into bucket rows and category rows.
// Category rows follow bucket order and sorted category order inside a bucket.
func ConvertHistory(res schema.HistoryResult) ([]HistoryPoint, []CategoryCount) {
	points := make([]HistoryPoint, 0, len(res.Points))
	counts := make([]CategoryCount, 0)
	for _, p := range res.Points {
		row := HistoryPoint{
			BucketTime:           p.BucketTime,
			Strategy:             string(res.Strategy),
			TotalInStock:         int32(p.TotalInStock),
			UncategorizedInStock: int32(p.UncategorizedInStock),
		}
		if res.Strategy == schema.SessionStrategy && p.SessionID != 0 {
			id := p.SessionID
			row.SessionID = &id
		}
		points = append(points, row)

		for _, category := range p.CategoryCounts.Keys() {
			counts = append(counts, CategoryCount{
				BucketTime: p.BucketTime,
				Category:   category,
				InStock:    int32(p.CategoryCounts.Get(category)),
			})
		}
	}
	return points, counts
}

// ExportHistory writes both history files next to each other and returns their paths.
func ExportHistory(res schema.HistoryResult, prefix string) (historyPath, countsPath string, err error) {
	if prefix == "" {
		return "", "", fmt.Errorf("an output prefix is required for parquet export")
	}
	points, counts := ConvertHistory(res)

	historyPath = prefix + HistorySuffix
	if err := WriteHistoryPointsParquet(points, historyPath); err != nil {
		return "", "", fmt.Errorf("error writing history points: %w", err)
	}
	countsPath = prefix + CategoryCountsSuffix
	if err := WriteCategoryCountsParquet(counts, countsPath); err != nil {
		return "", "", fmt.Errorf("error writing category counts: %w", err)
	}
	return historyPath, countsPath, nil
}
