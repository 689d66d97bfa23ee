// Package csftp implements a minimal interactive FTP client session that
// echoes every request and every response line.
//
// # Overview
//
// A Session owns one control connection. Requests are echoed with the
// "--> " prefix, response lines with "<-- ". A response is considered
// complete when the server stays quiet for one read window (500ms by
// default, see WithTimeout); the protocol's own end-of-reply markers are
// not interpreted.
//
// Directory listing and file retrieval negotiate a passive-mode data
// connection (PASV), open it, issue LIST or RETR and consume both
// connections. The data connection is owned by that single call and is
// always closed before it returns.
//
// # Basic Usage
//
//	s, err := csftp.Dial("ftp.example.com:21")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	for _, line := range []string{"user anonymous", "pw guest", "dir", "get README"} {
//	    if _, err := s.Execute(line); err != nil {
//	        if csftp.IsFatal(err) {
//	            log.Fatal(err)
//	        }
//	        fmt.Println(err)
//	    }
//	}
//
// # Errors
//
// Failures reported to the user carry a numeric code, e.g.
// "0x002 Incorrect number of arguments", as a *Diagnostic. IsFatal tells
// the ones after which the session must be abandoned (control connection
// failures, stalled retrievals) from those that only abort one command
// (unknown command, local file not writable, unusable PASV reply).
//
// A retrieval whose data connection goes quiet before end of stream is
// never reported as success: it fails with a fatal Diagnostic wrapping
// ErrTruncated.
package csftp
