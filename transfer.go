package csftp

import (
	"fmt"
	"io"

	"github.com/gonzalop/csftp/internal/ratelimit"
)

// notFoundStatus is the reply to RETR for a file the server cannot open.
const notFoundStatus = "550"

// negotiate sends PASV and parses the single reply line. When no usable
// address comes back the rest of the response is drained and
// ErrPassiveUnavailable is returned; nothing is dialed.
func (s *Session) negotiate() (DataAddr, error) {
	if err := s.request("PASV"); err != nil {
		return DataAddr{}, err
	}

	line, ok, err := s.ReadLine()
	if err != nil {
		return DataAddr{}, err
	}
	if !ok {
		s.logger.Warn("no reply to PASV within read window")
		if err := s.Drain(); err != nil {
			return DataAddr{}, err
		}
		return DataAddr{}, ErrPassiveUnavailable
	}

	addr, ok, err := ParsePassive(line)
	if err != nil || !ok {
		s.logger.Warn("passive mode reply not usable", "response", line, "error", err)
		if drainErr := s.Drain(); drainErr != nil {
			return DataAddr{}, drainErr
		}
		if err != nil {
			return DataAddr{}, fmt.Errorf("%w: %w", ErrPassiveUnavailable, err)
		}
		return DataAddr{}, fmt.Errorf("%w: %q", ErrPassiveUnavailable, line)
	}

	return resolveDataAddr(addr, s.host), nil
}

// List sends LIST over a fresh passive data connection and echoes the
// control responses followed by every listing line.
func (s *Session) List() (err error) {
	addr, err := s.negotiate()
	if err != nil {
		return err
	}

	dc, err := s.openData(addr)
	if err != nil {
		return err
	}
	defer s.closeData(dc, &err)

	if err := s.Send("LIST"); err != nil {
		return err
	}

	return dc.Drain(s.out)
}

// Retrieve downloads the remote file name into a local file of the same
// name in the session filesystem.
//
// A 550 reply returns a *ProtocolError and leaves the local filesystem
// untouched. Failing to create or write the local file is reported as a
// recoverable *Diagnostic. A data connection that stalls before end of
// stream yields a fatal *Diagnostic wrapping ErrTruncated. The local file
// is always closed before the data connection.
func (s *Session) Retrieve(name string) (err error) {
	addr, err := s.negotiate()
	if err != nil {
		return err
	}

	dc, err := s.openData(addr)
	if err != nil {
		return err
	}
	defer s.closeData(dc, &err)

	if err := s.request("RETR", name); err != nil {
		return err
	}

	line, ok, err := s.ReadLine()
	if err != nil {
		return err
	}
	if ok && statusToken(line) == notFoundStatus {
		if err := s.Drain(); err != nil {
			return err
		}
		return &ProtocolError{Command: "RETR " + name, Response: line, Code: 550}
	}

	if err := s.Drain(); err != nil {
		return err
	}

	if saveErr := s.saveTo(name, dc.Reader()); saveErr != nil {
		if IsFatal(saveErr) {
			return saveErr
		}
		s.logger.Warn("retrieval aborted", "file", name, "error", saveErr)
		if err := s.Drain(); err != nil {
			return err
		}
		return saveErr
	}

	return s.Drain()
}

// saveTo copies r into a newly created local file until end of stream.
// The file is closed before saveTo returns.
func (s *Session) saveTo(name string, r io.Reader) (err error) {
	f, err := s.fs.Create(name)
	if err != nil {
		return recoverable(CodeLocalFileDenied, err, "Access to local file %s denied.", name)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && !IsFatal(err) {
			err = fatal(CodeProcessingError, closeErr, "Processing error. Cannot close the file output stream, terminating.")
		}
	}()

	dst := &ProgressWriter{Writer: f, Callback: s.progress}
	src := ratelimit.NewReader(r, ratelimit.New(s.bandwidthLimit))

	_, copyErr := io.Copy(dst, src)
	switch {
	case copyErr == nil:
		s.logger.Debug("retrieval complete", "file", name, "bytes", dst.Total())
		return nil
	case dst.Err() != nil:
		return recoverable(CodeLocalFileDenied, dst.Err(), "Access to local file %s denied.", name)
	default:
		s.logger.Error("retrieval truncated, local file may be incomplete",
			"file", name, "bytes", dst.Total(), "error", copyErr)
		return fatal(CodeProcessingError, fmt.Errorf("%w after %d bytes: %w", ErrTruncated, dst.Total(), copyErr),
			"Processing error. File may not be completely retrieved, terminating.")
	}
}
