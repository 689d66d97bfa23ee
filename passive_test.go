package csftp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePassive(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		input     string
		wantAddr  DataAddr
		wantOK    bool
		wantError bool
	}{
		{
			name:     "standard reply",
			input:    "227 Entering Passive Mode (127,0,0,1,19,136).",
			wantAddr: DataAddr{Host: "127.0.0.1", Port: 5000},
			wantOK:   true,
		},
		{
			name:     "high port",
			input:    "227 Entering Passive Mode (192,168,1,1,195,149)",
			wantAddr: DataAddr{Host: "192.168.1.1", Port: 50069},
			wantOK:   true,
		},
		{
			name:     "spaces inside group",
			input:    "227 Entering Passive Mode (10, 0, 0, 5, 78, 52)",
			wantAddr: DataAddr{Host: "10.0.0.5", Port: 20020},
			wantOK:   true,
		},
		{
			name:     "values are not range checked",
			input:    "227 (300,1,1,1,1,1)",
			wantAddr: DataAddr{Host: "300.1.1.1", Port: 257},
			wantOK:   true,
		},
		{
			name:   "no parentheses",
			input:  "227 Entering Passive Mode",
			wantOK: false,
		},
		{
			name:   "no closing parenthesis",
			input:  "227 Entering Passive Mode (127,0,0,1,19,136",
			wantOK: false,
		},
		{
			name:   "closing before opening",
			input:  "227 ) Entering Passive Mode (127,0,0,1,19,136",
			wantOK: false,
		},
		{
			name:      "too few fields",
			input:     "227 Entering Passive Mode (127,0,0,1,19)",
			wantError: true,
		},
		{
			name:      "non numeric field",
			input:     "227 Entering Passive Mode (127,0,0,x,19,136)",
			wantError: true,
		},
		{
			name:      "overflowing field",
			input:     "227 Entering Passive Mode (127,0,0,1,99999999999999999,1)",
			wantError: true,
		},
		{
			name:      "empty group",
			input:     "227 Entering Passive Mode ()",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, ok, err := ParsePassive(tt.input)
			if tt.wantError {
				require.ErrorIs(t, err, ErrMalformedPassive)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantAddr, addr)
		})
	}
}

func TestDataAddr_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "127.0.0.1:5000", DataAddr{Host: "127.0.0.1", Port: 5000}.String())
}

func TestResolveDataAddr(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		addr        DataAddr
		controlHost string
		want        DataAddr
	}{
		{
			name:        "normal address",
			addr:        DataAddr{Host: "192.168.1.5", Port: 12345},
			controlHost: "10.0.0.1",
			want:        DataAddr{Host: "192.168.1.5", Port: 12345},
		},
		{
			name:        "zero address",
			addr:        DataAddr{Host: "0.0.0.0", Port: 12345},
			controlHost: "10.0.0.1",
			want:        DataAddr{Host: "10.0.0.1", Port: 12345},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveDataAddr(tt.addr, tt.controlHost))
		})
	}
}
