package csftp

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DataAddr is the address a server announced for the next data connection.
type DataAddr struct {
	Host string
	Port int
}

// String returns the address in "host:port" form.
func (a DataAddr) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// ParsePassive extracts the data address from a PASV response line.
// Example: "227 Entering Passive Mode (192,168,1,1,195,149)."
// Returns: 192.168.1.1, port 50069 (195*256 + 149).
//
// ok is false when the line has no "(...)" group at all. A group that is not
// six 32-bit integers is reported as ErrMalformedPassive. Values are not
// otherwise range checked.
func ParsePassive(line string) (addr DataAddr, ok bool, err error) {
	open := strings.IndexByte(line, '(')
	if open < 0 {
		return DataAddr{}, false, nil
	}
	closing := strings.IndexByte(line[open+1:], ')')
	if closing < 0 {
		return DataAddr{}, false, nil
	}

	parts := strings.Split(line[open+1:open+1+closing], ",")
	if len(parts) != 6 {
		return DataAddr{}, false, fmt.Errorf("%w: %q", ErrMalformedPassive, line)
	}

	var n [6]int
	for i, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 32)
		if err != nil {
			return DataAddr{}, false, fmt.Errorf("%w: %q: %w", ErrMalformedPassive, p, err)
		}
		parts[i] = p
		n[i] = int(v)
	}

	return DataAddr{
		Host: strings.Join(parts[:4], "."),
		Port: n[4]*256 + n[5],
	}, true, nil
}

// resolveDataAddr substitutes the control connection host when the server
// announces 0.0.0.0.
func resolveDataAddr(addr DataAddr, controlHost string) DataAddr {
	if addr.Host == "0.0.0.0" {
		addr.Host = controlHost
	}
	return addr
}
