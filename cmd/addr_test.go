package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAddr(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"port only", ":8080", false},
		{"localhost", "localhost:8080", false},
		{"ipv4", "127.0.0.1:8080", false},
		{"all interfaces", "0.0.0.0:8080", false},
		{"auto port", ":0", false},
		{"missing port", "localhost", true},
		{"bad port", ":notaport", true},
		{"port out of range", ":70000", true},
		{"whitespace host", "bad host:8080", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAddr(tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = args
	t.Cleanup(func() { os.Args = old })
}

func TestParseServeAddrDefault(t *testing.T) {
	withArgs(t, "faqbot", "serve")

	addr, err := parseServeAddr()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", addr)
}

func TestParseServeAddrPositional(t *testing.T) {
	withArgs(t, "faqbot", "serve", ":9090")

	addr, err := parseServeAddr()
	require.NoError(t, err)
	assert.Equal(t, ":9090", addr)
}

func TestParseServeAddrFlag(t *testing.T) {
	withArgs(t, "faqbot", "serve", "--addr", "localhost:9191")

	addr, err := parseServeAddr()
	require.NoError(t, err)
	assert.Equal(t, "localhost:9191", addr)
}

func TestParseServeAddrInvalid(t *testing.T) {
	withArgs(t, "faqbot", "serve", "not-an-addr")

	_, err := parseServeAddr()
	assert.Error(t, err)
}
