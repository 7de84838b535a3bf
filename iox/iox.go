// Package iox holds small cleanup helpers for readers, closers and writers
// whose errors nobody can act on: image files opened for hashing, adapter
// clients at the end of a build, response bodies, buffered output.
package iox

import "io"

// DiscardClose closes c, ignoring the error.
//
//	defer iox.DiscardClose(f)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc defers closing c to a cleanup hook.
//
//	t.Cleanup(iox.CloseFunc(adapter))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr runs fn and drops its error, e.g. defer iox.DiscardErr(w.Flush).
func DiscardErr(fn func() error) { _ = fn() }

// Drain reads r to EOF and returns how many bytes were thrown away.
// HTTP clients only reuse a connection whose body was read to the end.
func Drain(r io.Reader) int64 {
	n, _ := io.Copy(io.Discard, r)
	return n
}

// Head returns at most limit bytes from the front of r. A read error
// ends the prefix early; whatever was read so far is returned.
func Head(r io.Reader, limit int64) []byte {
	b, _ := io.ReadAll(io.LimitReader(r, limit))
	return b
}
