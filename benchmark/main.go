// Package main times the stockpulse CLI against a live store.
// Every command runs several times; the first successful run counts as cold
// and the rest are averaged as warm. Results go to a CSV file for comparison
// across backends and between in-process and pushdown aggregation.
//
// Prerequisites:
// - stockpulse binary installed and available in PATH
// - A populated scraper database, configured through STOCKPULSE_* or DB_* variables
//
// Usage: go run benchmark/main.go [runs]
//
//	runs: Number of runs per command (default 5)
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// BenchmarkResult holds the cold time and the average warm time of one command.
type BenchmarkResult struct {
	Name     string
	ColdTime string
	WarmTime string
	Failures int
}

// BenchmarkCase is one command line to time.
type BenchmarkCase struct {
	Name string
	Args []string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Timeout time.Duration
	Runs    int
	Cases   []BenchmarkCase
}

func main() {
	runs := 5
	if len(os.Args) == 2 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n < 2 {
			fmt.Printf("Usage: %s [runs >= 2]\n", os.Args[0])
			os.Exit(1)
		}
		runs = n
	}

	config := BenchmarkConfig{
		Timeout: 2 * time.Minute,
		Runs:    runs,
		Cases: []BenchmarkCase{
			{"history session", []string{"history", "--strategy", "session", "--output", "json"}},
			{"history hourly", []string{"history", "--strategy", "hourly", "--output", "json"}},
			{"history session pushdown", []string{"history", "--strategy", "session", "--output", "json", "--pushdown"}},
			{"history hourly pushdown", []string{"history", "--strategy", "hourly", "--output", "json", "--pushdown"}},
			{"dashboard", []string{"dashboard", "--output", "json"}},
			{"changes", []string{"changes", "--output", "json"}},
		},
	}

	if _, err := exec.LookPath("stockpulse"); err != nil {
		fmt.Printf("Prerequisites check failed: stockpulse binary not found in PATH\n")
		os.Exit(1)
	}
	if err := checkStore(config.Timeout); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkStore runs the store check once so a broken connection fails fast.
func checkStore(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if output, err := exec.CommandContext(ctx, "stockpulse", "check").CombinedOutput(); err != nil {
		return fmt.Errorf("store check failed: %w\n%s", err, output)
	}
	return nil
}

// runBenchmarks times every configured case.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	fmt.Printf("Starting benchmark: %d commands, %d runs each, %v timeout\n",
		len(config.Cases), config.Runs, config.Timeout)

	results := make([]BenchmarkResult, 0, len(config.Cases))
	for _, c := range config.Cases {
		fmt.Printf("Running %s\n", c.Name)
		cold, warm, failures := runBenchmark(config, c.Args)

		result := BenchmarkResult{Name: c.Name, ColdTime: "FAILED", WarmTime: "FAILED", Failures: failures}
		if cold > 0 {
			result.ColdTime = fmt.Sprintf("%.3fs", cold)
		}
		if len(warm) > 0 {
			var sum float64
			for _, t := range warm {
				sum += t
			}
			result.WarmTime = fmt.Sprintf("%.3fs", sum/float64(len(warm)))
		}
		fmt.Printf("  Cold: %s, Warm average: %s, Failures: %d\n", result.ColdTime, result.WarmTime, failures)
		results = append(results, result)
	}
	return results
}

// runBenchmark executes one command config.Runs times and returns cold time and warm times.
// Runs that fail or time out are counted, not timed.
func runBenchmark(config BenchmarkConfig, args []string) (coldTime float64, warmTimes []float64, failures int) {
	var times []float64
	for range config.Runs {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		err := exec.CommandContext(ctx, "stockpulse", args...).Run()
		elapsed := time.Since(start).Seconds()
		timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded)
		cancel()

		if err != nil || timedOut {
			failures++
			continue
		}
		times = append(times, elapsed)
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return coldTime, warmTimes, failures
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s/stockpulse_benchmark_%s.csv", os.TempDir(), timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"cmd", "cold_time", "warm_avg", "failures"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Name, result.ColdTime, result.WarmTime, strconv.Itoa(result.Failures)}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-26s: Cold: %s, Warm: %s\n", result.Name, result.ColdTime, result.WarmTime)
	}
}
