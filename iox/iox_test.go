package iox

import (
	"errors"
	"testing"
)

// failingCloser always errors on Close so the helpers' discard
// behavior is what's under test.
type failingCloser struct{ closed bool }

func (f *failingCloser) Close() error { f.closed = true; return errors.New("close failed") }

func TestDiscardCloseInvokesClose(t *testing.T) {
	fc := &failingCloser{}
	DiscardClose(fc)
	if !fc.closed {
		t.Fatal("Close was not invoked")
	}
}

func TestCloseFuncDefersClose(t *testing.T) {
	fc := &failingCloser{}
	cleanup := CloseFunc(fc)
	if fc.closed {
		t.Fatal("Close ran before the cleanup func")
	}
	cleanup()
	if !fc.closed {
		t.Fatal("cleanup func did not close")
	}
}

func TestDiscardErrInvokesFn(t *testing.T) {
	ran := false
	DiscardErr(func() error {
		ran = true
		return errors.New("flush failed")
	})
	if !ran {
		t.Fatal("fn was not invoked")
	}
}
