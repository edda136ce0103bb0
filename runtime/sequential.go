package runtime

import (
	"context"
	"time"

	"github.com/justapithecus/stax/stata"
	"github.com/justapithecus/stax/types"
)

// RunSequential executes scripts in order, stopping at the first
// failure. Partial results up to and including the failing script are
// returned.
func RunSequential(ctx context.Context, runner ScriptRunner, scripts []string) (types.BatchReport, error) {
	batch := types.BatchReport{Success: true}
	start := time.Now()

	for _, script := range scripts {
		report, err := runner.Run(ctx, script)
		batch.Reports = append(batch.Reports, report)

		if err != nil {
			batch.Success = false
			batch.FailedCount++
			batch.ExitCode = report.ExitCode
			batch.DurationSecs = time.Since(start).Seconds()
			return batch, err
		}
		if !report.Success {
			batch.Success = false
			batch.FailedCount++
			batch.ExitCode = report.ExitCode
			break
		}
		batch.SuccessCount++
	}

	if batch.Success {
		batch.ExitCode = stata.ExitSuccess
	}
	batch.DurationSecs = time.Since(start).Seconds()
	return batch, nil
}
