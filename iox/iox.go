// Package iox provides small I/O helpers: cleanup without error
// ceremony, and bounded reads over large run logs.
package iox

import "io"

// DiscardClose closes c, dropping the error. For deferred closes of
// read-only handles where a close failure changes nothing:
//
//	defer iox.DiscardClose(f)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc wraps c's Close for cleanup registration:
//
//	t.Cleanup(iox.CloseFunc(client))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr runs fn and drops its error. For deferred flush-style
// calls whose failure is unactionable:
//
//	defer iox.DiscardErr(w.Flush)
func DiscardErr(fn func() error) { _ = fn() }
