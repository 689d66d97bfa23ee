package csftp

import "strings"

// command describes one interactive command: how many arguments it takes
// and what it sends.
type command struct {
	args int
	run  func(s *Session, args []string) error
}

var commands = map[string]command{
	"quit":     {0, func(s *Session, _ []string) error { return s.Quit() }},
	"user":     {1, func(s *Session, a []string) error { return s.Send("USER", a[0]) }},
	"pw":       {1, func(s *Session, a []string) error { return s.Send("PASS", a[0]) }},
	"cd":       {1, func(s *Session, a []string) error { return s.Send("CWD", a[0]) }},
	"dir":      {0, func(s *Session, _ []string) error { return s.List() }},
	"get":      {1, func(s *Session, a []string) error { return s.Retrieve(a[0]) }},
	"features": {0, func(s *Session, _ []string) error { return s.Send("FEAT") }},
}

// Execute runs one line of user input. Blank lines and lines starting with
// "#" are ignored. quit is true once the session has been ended by "quit".
//
// An unknown command or a wrong argument count yields a recoverable
// *Diagnostic and nothing is sent.
func (s *Session) Execute(line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false, nil
	}

	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	cmd, ok := commands[name]
	if !ok {
		return false, recoverable(CodeInvalidCommand, nil, "Invalid command.")
	}
	if len(args) != cmd.args {
		return false, recoverable(CodeIncorrectArgCount, nil, "Incorrect number of arguments")
	}

	return name == "quit", cmd.run(s, args)
}
