package csftp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// lineReader yields lines from a stream whose reads are bounded by a
// deadline. It is the one place where a quiet connection is turned into
// "response complete".
type lineReader struct {
	r *bufio.Reader

	// partial holds a line cut short by a deadline
	partial string
}

func newLineReader(r io.Reader) *lineReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &lineReader{r: br}
}

// next returns the next line without its terminator.
//
// Deadline expiry is reported as ErrQuiet. Bytes of a line interrupted by
// the deadline are kept and prefixed to the next line. At end of stream an
// unterminated final line is returned first, then io.EOF.
func (lr *lineReader) next() (string, error) {
	line, err := lr.r.ReadString('\n')
	if err != nil {
		if isTimeout(err) {
			lr.partial += line
			return "", ErrQuiet
		}
		if errors.Is(err, io.EOF) {
			if rest := lr.partial + line; rest != "" {
				lr.partial = ""
				return strings.TrimRight(rest, "\r\n"), nil
			}
			return "", io.EOF
		}
		return "", err
	}

	line = lr.partial + line
	lr.partial = ""
	return strings.TrimRight(line, "\r\n"), nil
}

// Send writes one request line, echoes it and drains the response.
//
// Example:
//
//	err := s.Send("CWD", "/pub")
func (s *Session) Send(verb string, args ...string) error {
	if err := s.request(verb, args...); err != nil {
		return err
	}
	return s.Drain()
}

// request echoes and writes a request line without reading anything.
func (s *Session) request(verb string, args ...string) error {
	line := verb
	if len(args) > 0 {
		line = verb + " " + strings.Join(args, " ")
	}

	fmt.Fprintln(s.out, RequestPrefix+line)

	if verb == "PASS" {
		s.logger.Debug("ftp command", "cmd", "PASS ****")
	} else {
		s.logger.Debug("ftp command", "cmd", line)
	}

	if s.conn == nil {
		return fatal(CodeControlIOError, net.ErrClosed, "Control connection I/O error, closing control connection.")
	}
	if _, err := fmt.Fprintf(s.conn, "%s\r\n", line); err != nil {
		return fatal(CodeControlIOError, err, "Control connection I/O error, closing control connection.")
	}
	return nil
}

// Drain echoes response lines until the server stays quiet for one read
// window or closes the connection. Only a real I/O failure is an error, and
// it is fatal.
func (s *Session) Drain() error {
	for {
		_, ok, err := s.ReadLine()
		if err != nil || !ok {
			return err
		}
	}
}

// ReadLine reads and echoes exactly one response line. ok is false when
// nothing arrived within the read window or the server closed the
// connection.
func (s *Session) ReadLine() (line string, ok bool, err error) {
	if s.lines == nil {
		return "", false, fatal(CodeProcessingError, net.ErrClosed, "Processing error. Reading response IO error, terminating.")
	}

	line, err = s.lines.next()
	switch {
	case err == nil:
		fmt.Fprintln(s.out, ResponsePrefix+line)
		s.logger.Debug("ftp response", "line", line)
		return line, true, nil
	case errors.Is(err, ErrQuiet):
		return "", false, nil
	case errors.Is(err, io.EOF):
		s.logger.Debug("control connection closed by server")
		return "", false, nil
	default:
		return "", false, fatal(CodeProcessingError, err, "Processing error. Reading response IO error, terminating.")
	}
}

// statusToken returns the three-character status code leading a response
// line, or "" if the line is too short.
func statusToken(line string) string {
	if len(line) < 3 {
		return ""
	}
	return line[:3]
}
