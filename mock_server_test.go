package csftp

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// testTimeout is the read window used by sessions under test.
const testTimeout = 150 * time.Millisecond

// mockServer scripts an FTP server on the loopback interface.
// It serves one control connection.
type mockServer struct {
	listener net.Listener
	addr     string
	// handlers map a verb (e.g. "RETR") to its scripted behavior
	handlers map[string]func(c *textproto.Conn, args string)
	// dataListener accepts passive data connections
	dataListener net.Listener

	mu       sync.Mutex
	conn     net.Conn
	received []string
	done     chan struct{}
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return &mockServer{
		listener: l,
		addr:     l.Addr().String(),
		handlers: make(map[string]func(*textproto.Conn, string)),
		done:     make(chan struct{}),
	}
}

// listenData opens the passive data listener and returns the PASV reply
// announcing it.
func (s *mockServer) listenData(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s.dataListener = l

	port := l.Addr().(*net.TCPAddr).Port
	return fmt.Sprintf("227 Entering Passive Mode (127,0,0,1,%d,%d).", port/256, port%256)
}

// acceptData accepts the pending data connection.
func (s *mockServer) acceptData(t *testing.T) net.Conn {
	dconn, err := s.dataListener.Accept()
	if err != nil {
		t.Errorf("mock server failed to accept data conn: %v", err)
		return nil
	}
	return dconn
}

func (s *mockServer) start(t *testing.T) {
	t.Cleanup(s.stop)
	go func() {
		defer close(s.done)
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		defer conn.Close()

		fmt.Fprintf(conn, "220 Service ready\r\n")

		textConn := textproto.NewConn(conn)
		defer textConn.Close()

		for {
			line, err := textConn.ReadLine()
			if err != nil {
				return
			}

			parts := strings.SplitN(line, " ", 2)
			cmd := strings.ToUpper(parts[0])
			args := ""
			if len(parts) > 1 {
				args = parts[1]
			}

			s.mu.Lock()
			s.received = append(s.received, line)
			s.mu.Unlock()

			if handler, ok := s.handlers[cmd]; ok {
				handler(textConn, args)
				continue
			}

			switch cmd {
			case "USER":
				_ = textConn.PrintfLine("331 User name okay, need password.")
			case "PASS":
				_ = textConn.PrintfLine("230 User logged in, proceed.")
			case "CWD":
				_ = textConn.PrintfLine("250 Directory successfully changed.")
			case "FEAT":
				_ = textConn.PrintfLine("211-Features:")
				_ = textConn.PrintfLine(" PASV")
				_ = textConn.PrintfLine(" SIZE")
				_ = textConn.PrintfLine("211 End")
			case "QUIT":
				_ = textConn.PrintfLine("221 Goodbye.")
				return
			default:
				_ = textConn.PrintfLine("502 Command not implemented.")
			}
		}
	}()
}

func (s *mockServer) stop() {
	s.listener.Close()
	if s.dataListener != nil {
		s.dataListener.Close()
	}
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()
	<-s.done
}

// commands returns every request line received so far.
func (s *mockServer) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

// eventLog records resource events in the order they happen.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// matching returns the events starting with any of the prefixes.
func (l *eventLog) matching(prefixes ...string) []string {
	var out []string
	for _, e := range l.all() {
		for _, p := range prefixes {
			if strings.HasPrefix(e, p) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func (l *eventLog) index(event string) int {
	for i, e := range l.all() {
		if e == event {
			return i
		}
	}
	return -1
}

// traceDialer labels the first connection "control" and later ones "data".
type traceDialer struct {
	d     net.Dialer
	log   *eventLog
	count int
}

func (d *traceDialer) Dial(network, addr string) (net.Conn, error) {
	conn, err := d.d.Dial(network, addr)
	if err != nil {
		return nil, err
	}
	d.count++
	name := "control"
	if d.count > 1 {
		name = "data"
	}
	d.log.add(name + " dial")
	return &traceConn{Conn: conn, name: name, log: d.log}, nil
}

type traceConn struct {
	net.Conn
	name string
	log  *eventLog
}

func (c *traceConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if n > 0 {
		c.log.add(c.name + " read")
	}
	return n, err
}

func (c *traceConn) Close() error {
	c.log.add(c.name + " close")
	return c.Conn.Close()
}

// traceFs records when files created through it are closed.
type traceFs struct {
	afero.Fs
	log *eventLog
}

func (f *traceFs) Create(name string) (afero.File, error) {
	file, err := f.Fs.Create(name)
	if err != nil {
		return nil, err
	}
	f.log.add("file create")
	return &traceFile{File: file, log: f.log}, nil
}

type traceFile struct {
	afero.File
	log *eventLog
}

func (f *traceFile) Close() error {
	f.log.add("file close")
	return f.File.Close()
}

// faultFs hands out files that fail on Write or on Close.
type faultFs struct {
	afero.Fs
	failWrite bool
	failClose bool
}

func (f *faultFs) Create(name string) (afero.File, error) {
	file, err := f.Fs.Create(name)
	if err != nil {
		return nil, err
	}
	return &faultFile{File: file, fs: f}, nil
}

type faultFile struct {
	afero.File
	fs *faultFs
}

func (f *faultFile) Write(p []byte) (int, error) {
	if f.fs.failWrite {
		return 0, errors.New("no space left on device")
	}
	return f.File.Write(p)
}

func (f *faultFile) Close() error {
	err := f.File.Close()
	if f.fs.failClose {
		return errors.New("input/output error")
	}
	return err
}

// dialMock connects a session to ms with a short read window and captures
// its echo output.
func dialMock(t *testing.T, ms *mockServer, opts ...Option) (*Session, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	opts = append([]Option{WithTimeout(testTimeout), WithOutput(out)}, opts...)
	s, err := Dial(ms.addr, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, out
}
