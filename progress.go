package csftp

import "io"

// ProgressWriter wraps an io.Writer, counts the bytes written and reports
// the running total via a callback. It remembers the first write error so
// a copy can tell local failures from failures of its source.
type ProgressWriter struct {
	// Writer is the underlying writer
	Writer io.Writer

	// Callback is called after each Write with the total bytes transferred
	Callback func(bytesTransferred int64)

	total int64
	err   error
}

// Write implements io.Writer.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.total += int64(n)
	if err != nil && pw.err == nil {
		pw.err = err
	}
	if pw.Callback != nil && n > 0 {
		pw.Callback(pw.total)
	}
	return n, err
}

// Total returns the number of bytes written so far.
func (pw *ProgressWriter) Total() int64 {
	return pw.total
}

// Err returns the first error returned by the underlying writer.
func (pw *ProgressWriter) Err() error {
	return pw.err
}
