// Package main provides a performance benchmarking tool for the storefront CLI.
// It measures execution times per command across storage backends,
// running each test multiple times, treating the first successful run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - storefront binary installed and available in PATH
// - A catalog API reachable at the given URL (e.g. `storefront fakestore`)
//
// Usage: go run benchmark/main.go [api-base-url]
//
//	api-base-url: Base URL of the catalog API to benchmark against
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (cold run and average of warm runs).
type BenchmarkResult struct {
	Backend  string
	Command  string
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	APIBaseURL string
	Timeout    time.Duration
	Runs       int
	Backends   []string
	Commands   [][]string
	WorkDir    string
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [api-base-url]\n", os.Args[0])
		os.Exit(1)
	}

	workDir, err := os.MkdirTemp("", "storefront-benchmark-*")
	if err != nil {
		fmt.Printf("Failed to create work dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	config := BenchmarkConfig{
		APIBaseURL: os.Args[1],
		Timeout:    time.Minute,
		Runs:       5,
		Backends:   []string{"none", "sqlite"},
		Commands: [][]string{
			{"products", "list"},
			{"products", "get", "1"},
			{"cart", "add", "1"},
			{"cart", "show"},
		},
		WorkDir: workDir,
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the storefront binary exists
func checkPrerequisites() error {
	if _, err := exec.LookPath("storefront"); err != nil {
		return fmt.Errorf("storefront binary not found in PATH")
	}
	return nil
}

// runBenchmarks executes every command against every configured backend
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d backends, %d commands, %v timeout, %d runs\n",
		len(config.Backends), len(config.Commands), config.Timeout, config.Runs)

	for _, backend := range config.Backends {
		fmt.Printf("Benchmarking %s backend\n", backend)
		for _, args := range config.Commands {
			results = append(results, runBenchmarkSuite(config, backend, args))
		}
	}
	return results
}

// runBenchmarkSuite runs one command repeatedly and summarizes the timings
func runBenchmarkSuite(config BenchmarkConfig, backend string, args []string) BenchmarkResult {
	command := strings.Join(args, " ")
	fmt.Printf("  %s (%d runs)\n", command, config.Runs)

	cold, times := runBenchmark(config, backend, args)

	coldStr := "TIMEOUT"
	if cold > 0 {
		coldStr = fmt.Sprintf("%.3fs", cold)
	}
	warmStr := "TIMEOUT"
	if len(times) > 0 {
		var sum float64
		for _, t := range times {
			sum += t
		}
		warmStr = fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	fmt.Printf("    Cold time: %s, Warm average: %s\n", coldStr, warmStr)
	return BenchmarkResult{
		Backend:  backend,
		Command:  command,
		ColdTime: coldStr,
		WarmTime: warmStr,
	}
}

// runBenchmark executes a storefront command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, backend string, args []string) (coldTime float64, warmTimes []float64) {
	args = append(slices.Clone(args),
		"--api-base-url", config.APIBaseURL,
		"--storage-backend", backend,
		"--output", "json",
	)
	if backend == "sqlite" {
		args = append(args, "--storage-db-connect", filepath.Join(config.WorkDir, "bench.db"))
	}

	var times []float64
	for run := 1; run <= config.Runs; run++ {
		start := time.Now()

		cmd := exec.Command("storefront", args...)
		cmd.Dir = config.WorkDir

		done := make(chan error, 1)
		go func() {
			done <- cmd.Run()
		}()

		select {
		case err := <-done:
			if err == nil {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/storefront_benchmark_%s.csv", timestamp)

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

	// Write header
	if err := writer.Write([]string{"backend", "cmd", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Backend, result.Command, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary grouped by backend
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, backend := range config.Backends {
		fmt.Printf("%s backend:\n", backend)
		for _, result := range results {
			if result.Backend == backend {
				fmt.Printf("  %-16s: Cold: %s, Warm: %s\n", result.Command, result.ColdTime, result.WarmTime)
			}
		}
	}
}
