package iox

import (
	"io"
	"os"
)

// ReadTail reads at most the last maxBytes bytes of the file at path.
// Files no larger than maxBytes are returned whole. The read never
// allocates more than maxBytes regardless of file size.
func ReadTail(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer DiscardClose(f)

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := info.Size()
	if size > maxBytes {
		if _, err := f.Seek(size-maxBytes, io.SeekStart); err != nil {
			return nil, err
		}
	}

	return io.ReadAll(io.LimitReader(f, maxBytes))
}
