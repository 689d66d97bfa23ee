// Command csftp is an interactive FTP client that prints every request and
// response exchanged with the server.
//
//	csftp [flags] ServerAddress [ServerPort]
//
// Commands: user NAME, pw PASSWORD, cd DIR, dir, get FILE, features, quit.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/gonzalop/csftp"
)

const prompt = "csftp> "

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is the single place that turns errors into output and exit codes.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := newFlagSet()
	fs.SetOutput(stderr)

	cfg, err := loadConfig(fs, args)
	switch {
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		_, _ = fmt.Fprintln(stdout, usage)
		return 0
	case err != nil:
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.logLevel}))

	s, err := csftp.Dial(net.JoinHostPort(cfg.host, cfg.port),
		csftp.WithTimeout(cfg.timeout),
		csftp.WithDialTimeout(cfg.dialTimeout),
		csftp.WithBandwidthLimit(cfg.bandwidthLimit),
		csftp.WithLogger(logger),
		csftp.WithOutput(stdout),
	)
	if err != nil {
		report(err, stdout, stderr)
		return 1
	}
	defer func() { _ = s.Close() }()

	return loop(s, stdin, stdout, stderr, logger, isTerminal(stdin))
}

// loop reads commands until quit, end of input or a fatal error.
func loop(s *csftp.Session, stdin io.Reader, stdout, stderr io.Writer, logger *slog.Logger, interactive bool) int {
	scanner := bufio.NewScanner(stdin)
	for {
		if interactive {
			_, _ = fmt.Fprint(stdout, prompt)
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				_ = s.Close()
				report(&csftp.Diagnostic{
					Code:    csftp.CodeInputError,
					Message: "Input error while reading commands, terminating.",
					Fatal:   true,
					Err:     err,
				}, stdout, stderr)
				return 1
			}
			return 0
		}

		quit, err := s.Execute(scanner.Text())
		if err != nil {
			if csftp.IsFatal(err) {
				_ = s.Close()
				report(err, stdout, stderr)
				return 1
			}
			reportRecoverable(err, stdout, stderr, logger)
		}
		if quit {
			return 0
		}
	}
}

// report prints a diagnostic on the stream its code belongs to.
func report(err error, stdout, stderr io.Writer) {
	var d *csftp.Diagnostic
	if !errors.As(err, &d) {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return
	}
	w := stdout
	if d.ToStderr() {
		w = stderr
	}
	_, _ = fmt.Fprintln(w, d.Error())
}

func reportRecoverable(err error, stdout, stderr io.Writer, logger *slog.Logger) {
	var (
		d  *csftp.Diagnostic
		pe *csftp.ProtocolError
	)
	switch {
	case errors.As(err, &d):
		report(d, stdout, stderr)
	case errors.As(err, &pe):
		// The server's reply has already been echoed.
		logger.Info("command refused by server", "command", pe.Command, "code", pe.Code)
	default:
		logger.Warn("command aborted", "error", err)
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
