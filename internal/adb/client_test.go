package adb

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeADB writes a shell script standing in for the adb binary and returns a
// client pointing at it.
func fakeADB(t *testing.T, script string) *Client {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake adb script requires sh")
	}

	path := filepath.Join(t.TempDir(), "adb")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))

	c, err := NewClient(path, "")
	require.NoError(t, err)
	return c
}

func TestRunReturnsStdoutOnly(t *testing.T) {
	c := fakeADB(t, `echo "shell output"
echo "adb server warning" >&2
`)

	out, err := c.run(context.Background(), "shell", "echo")
	require.NoError(t, err)
	assert.Equal(t, "shell output\n", out)
	assert.NotContains(t, out, "warning")
}

func TestRunFoldsStderrIntoError(t *testing.T) {
	c := fakeADB(t, `echo "partial"
echo "error: device 'NOPE' not found" >&2
exit 1
`)

	out, err := c.run(context.Background(), "-s", "NOPE", "get-state")
	require.Error(t, err)
	assert.Equal(t, "partial\n", out)
	assert.Contains(t, err.Error(), "device 'NOPE' not found")
}

func TestOpenUSBNotFound(t *testing.T) {
	c := fakeADB(t, `case "$1" in
start-server) exit 0 ;;
esac
echo "error: device 'NOPE' not found" >&2
exit 1
`)

	_, err := c.OpenUSB(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `device "NOPE" not found`)
}

func TestOpenUSBUnauthorized(t *testing.T) {
	c := fakeADB(t, `case "$1" in
start-server) exit 0 ;;
esac
echo "unauthorized"
`)

	_, err := c.OpenUSB(context.Background(), "ABC123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}
