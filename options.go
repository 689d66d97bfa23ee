package csftp

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/afero"
)

// Option is a functional option for configuring a Session.
type Option func(*Session) error

// WithTimeout sets the read window used on both the control and the data
// connection. A read that sees nothing for this long ends the current
// response (or listing). Defaults to DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Session) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", timeout)
		}
		s.timeout = timeout
		return nil
	}
}

// WithDialTimeout bounds connection establishment and control writes.
// It is ignored when a custom Dialer is supplied with WithDialer.
func WithDialTimeout(timeout time.Duration) Option {
	return func(s *Session) error {
		s.dialTimeout = timeout
		return nil
	}
}

// WithDialer sets the Dialer used for the control connection and for every
// data connection.
func WithDialer(dialer Dialer) Option {
	return func(s *Session) error {
		s.dialer = dialer
		return nil
	}
}

// WithLogger enables logging using the provided logger.
// Requests and responses are logged at debug level, aborted operations at
// warn level and truncated retrievals at error level.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	}))
//	s, _ := csftp.Dial("ftp.example.com:21", csftp.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) error {
		s.logger = logger
		return nil
	}
}

// WithOutput sets where requests and responses are echoed.
// Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Session) error {
		s.out = w
		return nil
	}
}

// WithFs sets the filesystem retrieved files are written to.
// Defaults to the operating system filesystem.
func WithFs(fs afero.Fs) Option {
	return func(s *Session) error {
		s.fs = fs
		return nil
	}
}

// WithBandwidthLimit caps the retrieval speed in bytes per second.
// Zero or a negative value disables the limit.
func WithBandwidthLimit(bytesPerSecond int64) Option {
	return func(s *Session) error {
		s.bandwidthLimit = bytesPerSecond
		return nil
	}
}

// WithProgress registers a callback receiving the running byte count of
// each retrieval.
func WithProgress(callback func(bytesTransferred int64)) Option {
	return func(s *Session) error {
		s.progress = callback
		return nil
	}
}
