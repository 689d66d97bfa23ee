package csftp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/spf13/afero"
)

const (
	// DefaultTimeout is how long a read waits before the peer is considered
	// to have finished its response.
	DefaultTimeout = 500 * time.Millisecond

	// DefaultDialTimeout bounds connection establishment and writes.
	DefaultDialTimeout = 30 * time.Second

	// RequestPrefix marks echoed outbound requests.
	RequestPrefix = "--> "

	// ResponsePrefix marks echoed inbound lines.
	ResponsePrefix = "<-- "
)

// Dialer opens network connections. *net.Dialer satisfies it.
type Dialer interface {
	Dial(network, address string) (net.Conn, error)
}

// Session is one control connection to a server. Every request and every
// response line is echoed to the session output.
//
// A Session is not safe for concurrent use: commands run one at a time and
// each completes, data connection included, before the next starts.
type Session struct {
	// conn is the deadline-wrapped control connection
	conn net.Conn

	// lines reads response lines from conn
	lines *lineReader

	// host and port of the control connection
	host string
	port string

	// timeout is the read window that ends a response
	timeout time.Duration

	// dialTimeout bounds dialing and writes
	dialTimeout time.Duration

	dialer Dialer
	out    io.Writer
	logger *slog.Logger

	// fs is where retrieved files are written
	fs afero.Fs

	// bandwidthLimit caps retrieval speed in bytes per second (0 = unlimited)
	bandwidthLimit int64

	// progress is called with the running byte count during retrievals
	progress func(bytesTransferred int64)
}

// Dial connects to the server at addr ("host:port"), echoes its greeting and
// returns the ready session.
//
// Example:
//
//	s, err := csftp.Dial("ftp.example.com:21")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	if err := s.Send("USER", "anonymous"); err != nil {
//	    log.Fatal(err)
//	}
func Dial(addr string, options ...Option) (*Session, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	s := &Session{
		host:        host,
		port:        port,
		timeout:     DefaultTimeout,
		dialTimeout: DefaultDialTimeout,
		out:         os.Stdout,
		logger:      slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})), // No-op logger by default
		fs:          afero.NewOsFs(),
	}

	for _, opt := range options {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if s.dialer == nil {
		s.dialer = &net.Dialer{Timeout: s.dialTimeout}
	}

	if err := s.connect(); err != nil {
		return nil, err
	}

	return s, nil
}

// connect opens the control connection and drains the greeting.
func (s *Session) connect() error {
	addr := net.JoinHostPort(s.host, s.port)
	s.logger.Debug("connecting to ftp server", "addr", addr, "timeout", s.timeout)

	conn, err := s.dialer.Dial("tcp", addr)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return fatal(CodeControlOpenFailed, err, "Control connection to %s on port %s failed to open.", s.host, s.port)
		}
		return fatal(CodeControlIOError, err, "Control connection I/O error, closing control connection.")
	}

	s.conn = &deadlineConn{Conn: conn, readTimeout: s.timeout, writeTimeout: s.dialTimeout}
	s.lines = newLineReader(s.conn)

	if err := s.Drain(); err != nil {
		_ = s.Close()
		return err
	}

	return nil
}

// Quit sends QUIT, echoes the farewell and closes the control connection.
// The connection is closed even if QUIT could not be sent.
func (s *Session) Quit() error {
	sendErr := s.Send("QUIT")
	closeErr := s.Close()
	if sendErr != nil {
		return sendErr
	}
	return closeErr
}

// Close closes the control connection without sending QUIT.
// Calling Close more than once is a no-op.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.lines = nil
	if err != nil {
		return fatal(CodeProcessingError, err, "Processing error. Cannot close the socket, terminating.")
	}
	return nil
}
