package runtime

import (
	"context"
	"io"
	"os"
	"time"
)

// followPollInterval is how often the follower checks for new log
// content. Stata flushes the batch log in bursts, so finer polling
// buys nothing.
const followPollInterval = 200 * time.Millisecond

// followLog tails the file at path to w until ctx is cancelled,
// draining whatever remains before returning. The file may not exist
// yet when the follower starts; it keeps polling until Stata creates
// it.
func followLog(ctx context.Context, path string, w io.Writer) {
	var offset int64

	ticker := time.NewTicker(followPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainLog(path, offset, w)
			return
		case <-ticker.C:
			offset = drainLog(path, offset, w)
		}
	}
}

// drainLog copies bytes past offset to w and returns the new offset.
func drainLog(path string, offset int64, w io.Writer) int64 {
	f, err := os.Open(path)
	if err != nil {
		return offset
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset
	}
	n, _ := io.Copy(w, f)
	return offset + n
}
