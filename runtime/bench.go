package runtime

import (
	"context"
	"math"
	"sort"

	"github.com/justapithecus/stax/types"
)

// BenchConfig controls a benchmark invocation.
type BenchConfig struct {
	// Warmup runs are executed and discarded before measurement.
	Warmup int
	// Measured runs contribute to the statistics.
	Measured int
}

// RunBench benchmarks one script: warmup runs first, then measured
// runs. A failing measured run marks the benchmark unsuccessful, but
// every measured run still contributes to the statistics so a flaky
// script's timing profile stays visible.
func RunBench(ctx context.Context, runner ScriptRunner, script string, config BenchConfig) (types.BenchReport, error) {
	if config.Measured < 1 {
		config.Measured = 1
	}

	bench := types.BenchReport{
		Script:       script,
		MeasuredRuns: config.Measured,
		WarmupRuns:   config.Warmup,
		Success:      true,
	}

	for i := 0; i < config.Warmup; i++ {
		if _, err := runner.Run(ctx, script); err != nil {
			return bench, err
		}
	}

	durations := make([]float64, 0, config.Measured)
	for i := 0; i < config.Measured; i++ {
		report, err := runner.Run(ctx, script)
		if err != nil {
			return bench, err
		}
		if !report.Success {
			bench.Success = false
		}
		durations = append(durations, report.DurationSecs)
	}

	bench.MeanSecs, bench.MedianSecs, bench.MinSecs, bench.MaxSecs, bench.StddevSecs = summarize(durations)
	return bench, nil
}

// summarize computes population statistics over durations.
func summarize(durations []float64) (mean, median, min, max, stddev float64) {
	n := len(durations)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	sorted := make([]float64, n)
	copy(sorted, durations)
	sort.Float64s(sorted)

	min = sorted[0]
	max = sorted[n-1]
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	var sum float64
	for _, d := range sorted {
		sum += d
	}
	mean = sum / float64(n)

	var sq float64
	for _, d := range sorted {
		diff := d - mean
		sq += diff * diff
	}
	stddev = math.Sqrt(sq / float64(n))
	return mean, median, min, max, stddev
}
