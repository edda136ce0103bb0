package runtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/justapithecus/stax/stata"
	"github.com/justapithecus/stax/types"
)

// RunParallel executes scripts through a bounded worker pool.
//
// Unlike the sequential mode it always completes every script: a
// failure marks the batch unsuccessful but never cancels siblings.
// Reports come back in input order regardless of completion order.
func RunParallel(ctx context.Context, runner ScriptRunner, scripts []string, workers int) (types.BatchReport, error) {
	if workers < 1 {
		workers = 1
	}

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		failed    atomic.Int64
		resultsMu sync.Mutex
	)
	sem := make(chan struct{}, workers)
	results := make(map[string]types.RunReport, len(scripts))

	start := time.Now()
	for _, script := range scripts {
		sem <- struct{}{}
		wg.Add(1)

		go func(script string) {
			defer wg.Done()
			defer func() { <-sem }()

			report, err := runner.Run(ctx, script)
			if err != nil || !report.Success {
				failed.Add(1)
			} else {
				succeeded.Add(1)
			}

			resultsMu.Lock()
			results[script] = report
			resultsMu.Unlock()
		}(script)
	}
	wg.Wait()

	batch := types.BatchReport{
		Success:      failed.Load() == 0,
		SuccessCount: int(succeeded.Load()),
		FailedCount:  int(failed.Load()),
		DurationSecs: time.Since(start).Seconds(),
	}
	for _, script := range scripts {
		report := results[script]
		batch.Reports = append(batch.Reports, report)
		if batch.ExitCode == stata.ExitSuccess && !report.Success {
			batch.ExitCode = report.ExitCode
		}
	}
	return batch, nil
}
