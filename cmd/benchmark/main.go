package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"conhash/pkg/rpc"
)

type BenchmarkResult struct {
	TotalOps      int
	SuccessfulOps int
	FailedOps     int
	Duration      time.Duration
	OpsPerSec     float64
	AvgLatency    time.Duration
	MinLatency    time.Duration
	MaxLatency    time.Duration
	Owners        map[string]int
}

func main() {
	baseURL := "http://localhost:8080"
	if len(os.Args) > 1 {
		baseURL = os.Args[1]
	}
	totalOps := 1000
	if len(os.Args) > 2 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			totalOps = n
		}
	}

	fmt.Println("=== conhash lookup benchmark ===")
	fmt.Printf("Target: %s\n", baseURL)
	fmt.Println()

	client := rpc.NewRingClient(baseURL)
	ctx := context.Background()

	// Проверка доступности
	if err := client.Health(ctx); err != nil {
		fmt.Printf("ERROR: %s is not available: %v\n", baseURL, err)
		return
	}
	if n, err := client.Count(ctx); err != nil || n == 0 {
		fmt.Println("ERROR: ring is empty, add nodes first (POST /api/nodes)")
		return
	}

	fmt.Printf("Test 1: Sequential Lookups (%d operations)\n", totalOps)
	printResult(benchmarkLookups(ctx, client, totalOps, 1))

	fmt.Printf("\nTest 2: Concurrent Lookups (%d operations, 10 goroutines)\n", totalOps)
	printResult(benchmarkLookups(ctx, client, totalOps, 10))

	fmt.Println("\n=== Benchmark Complete ===")
}

func benchmarkLookups(ctx context.Context, client *rpc.RingClient, totalOps, concurrency int) BenchmarkResult {
	start := time.Now()
	var wg sync.WaitGroup
	var mu sync.Mutex

	successful := 0
	failed := 0
	latencies := make([]time.Duration, 0, totalOps)
	owners := make(map[string]int)

	opsPerGoroutine := totalOps / concurrency
	remainder := totalOps % concurrency

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(goroutineID int) {
			defer wg.Done()

			ops := opsPerGoroutine
			if goroutineID < remainder {
				ops++
			}

			for j := 0; j < ops; j++ {
				key := fmt.Sprintf("bench_key_%d_%d", goroutineID, j)

				opStart := time.Now()
				loc, ok, err := client.Lookup(ctx, key)
				latency := time.Since(opStart)

				mu.Lock()
				if err == nil && ok {
					successful++
					owners[loc.Node]++
				} else {
					failed++
				}
				latencies = append(latencies, latency)
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()
	duration := time.Since(start)

	// Вычисление статистики латентности
	var min, max, sum time.Duration
	if len(latencies) > 0 {
		min = latencies[0]
		max = latencies[0]
		for _, lat := range latencies {
			if lat < min {
				min = lat
			}
			if lat > max {
				max = lat
			}
			sum += lat
		}
	}
	var avgLatency time.Duration
	if len(latencies) > 0 {
		avgLatency = sum / time.Duration(len(latencies))
	}

	return BenchmarkResult{
		TotalOps:      totalOps,
		SuccessfulOps: successful,
		FailedOps:     failed,
		Duration:      duration,
		OpsPerSec:     float64(successful) / duration.Seconds(),
		AvgLatency:    avgLatency,
		MinLatency:    min,
		MaxLatency:    max,
		Owners:        owners,
	}
}

func printResult(result BenchmarkResult) {
	fmt.Printf("  Total Operations: %d\n", result.TotalOps)
	fmt.Printf("  Successful: %d\n", result.SuccessfulOps)
	fmt.Printf("  Failed: %d\n", result.FailedOps)
	fmt.Printf("  Duration: %v\n", result.Duration)
	fmt.Printf("  Operations/sec: %.2f\n", result.OpsPerSec)
	fmt.Printf("  Avg Latency: %v\n", result.AvgLatency)
	fmt.Printf("  Min Latency: %v\n", result.MinLatency)
	fmt.Printf("  Max Latency: %v\n", result.MaxLatency)
	for node, n := range result.Owners {
		fmt.Printf("  %s: %d keys (%.1f%%)\n", node, n, 100*float64(n)/float64(result.TotalOps))
	}
}
