package csftp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
)

// DataConn is a short-lived data connection. It belongs to the single
// listing or retrieval that opened it and is closed before that call
// returns.
type DataConn struct {
	conn  net.Conn
	r     *bufio.Reader
	lines *lineReader
}

// openData connects to the announced data address using the same read
// window as the control connection. Failing to connect is fatal: the
// server has already committed to that address.
func (s *Session) openData(addr DataAddr) (*DataConn, error) {
	s.logger.Debug("opening data connection", "addr", addr.String())

	conn, err := s.dialer.Dial("tcp", addr.String())
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return nil, fatal(CodeDataOpenFailed, err, "Data transfer connection to %s on port %d failed to open.", addr.Host, addr.Port)
		}
		return nil, fatal(CodeDataIOError, err, "Data transfer connection I/O error, closing data connection.")
	}

	dc := &DataConn{conn: &deadlineConn{Conn: conn, readTimeout: s.timeout, writeTimeout: s.timeout}}
	dc.r = bufio.NewReader(dc.conn)
	dc.lines = newLineReader(dc.r)
	return dc, nil
}

// Reader returns the raw byte stream of the connection. Each Read waits at
// most one read window. It must not be used after Close.
func (dc *DataConn) Reader() io.Reader {
	return dc.r
}

// Drain echoes every line of the connection to out until the server closes
// it or stays quiet for one read window.
func (dc *DataConn) Drain(out io.Writer) error {
	if dc.lines == nil {
		return nil
	}
	for {
		line, err := dc.lines.next()
		switch {
		case err == nil:
			fmt.Fprintln(out, ResponsePrefix+line)
		case errors.Is(err, ErrQuiet), errors.Is(err, io.EOF):
			return nil
		default:
			return fatal(CodeProcessingError, err, "Processing error. Reading response IO error, terminating.")
		}
	}
}

// Close releases the socket and forgets its readers. Closing a closed or
// nil DataConn is a no-op.
func (dc *DataConn) Close() error {
	if dc == nil || dc.conn == nil {
		return nil
	}
	err := dc.conn.Close()
	dc.conn = nil
	dc.r = nil
	dc.lines = nil
	return err
}

// closeData closes dc and folds a close failure into *errp unless an error
// is already being returned.
func (s *Session) closeData(dc *DataConn, errp *error) {
	err := dc.Close()
	s.logger.Debug("data connection closed")
	if err != nil && *errp == nil {
		*errp = fatal(CodeProcessingError, err, "Processing error. Cannot close the socket, terminating.")
	}
}
