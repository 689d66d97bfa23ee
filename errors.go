package csftp

import (
	"errors"
	"fmt"
)

// Diagnostic codes printed in front of every diagnostic message.
const (
	CodeInvalidCommand    = 0x001
	CodeIncorrectArgCount = 0x002
	CodeLocalFileDenied   = 0x38E
	CodeDataOpenFailed    = 0x3A2
	CodeDataIOError       = 0x3A7
	CodeControlOpenFailed = 0xFFFC
	CodeControlIOError    = 0xFFFD
	CodeInputError        = 0xFFFE
	CodeProcessingError   = 0xFFFF
)

var (
	// ErrQuiet reports that a read deadline expired with nothing left to
	// read. Callers treat it as "the peer has finished for now".
	ErrQuiet = errors.New("no data within read timeout")

	// ErrTruncated reports that a retrieval stopped before the data
	// connection signalled end of stream.
	ErrTruncated = errors.New("transfer truncated")

	// ErrPassiveUnavailable reports that the PASV exchange did not yield a
	// usable data address. The session stays usable.
	ErrPassiveUnavailable = errors.New("passive mode address unavailable")

	// ErrMalformedPassive reports a PASV response whose parenthesised part
	// is not six integers.
	ErrMalformedPassive = errors.New("malformed passive mode address")
)

// Diagnostic is an error reported to the user with a numeric code, e.g.
// "0x002 Incorrect number of arguments". Fatal diagnostics end the process;
// the rest only abort the current command.
type Diagnostic struct {
	// Code is the numeric diagnostic code (e.g., CodeProcessingError)
	Code int

	// Message is the text printed after the code
	Message string

	// Fatal marks diagnostics after which the session cannot continue
	Fatal bool

	// Err is the underlying cause, if any
	Err error
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("0x%03X %s", d.Code, d.Message)
}

// Unwrap returns the underlying cause.
func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// ToStderr reports whether the diagnostic belongs on the error stream.
// Connection-setup and input failures go to stderr, the rest to stdout.
func (d *Diagnostic) ToStderr() bool {
	switch d.Code {
	case CodeControlOpenFailed, CodeControlIOError, CodeInputError, CodeDataIOError:
		return true
	}
	return false
}

func fatal(code int, err error, format string, args ...any) *Diagnostic {
	return &Diagnostic{Code: code, Message: fmt.Sprintf(format, args...), Fatal: true, Err: err}
}

func recoverable(code int, err error, format string, args ...any) *Diagnostic {
	return &Diagnostic{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsFatal reports whether err ends the session.
func IsFatal(err error) bool {
	var d *Diagnostic
	return errors.As(err, &d) && d.Fatal
}

// ProtocolError is a negative server reply that aborted an operation.
// The reply line has already been echoed to the user.
type ProtocolError struct {
	// Command is the request that was sent (e.g., "RETR file.txt")
	Command string

	// Response is the raw response line (e.g., "550 No such file")
	Response string

	// Code is the numeric response code (e.g., 550)
	Code int
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("ftp: %s failed: %s (code %d)", e.Command, e.Response, e.Code)
}

// IsPermanent returns true if the error is a permanent failure (5xx).
func (e *ProtocolError) IsPermanent() bool {
	return e.Code >= 500 && e.Code < 600
}
