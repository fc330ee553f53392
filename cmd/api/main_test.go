package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, port int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf(`app:
  env: test
  http:
    host: 127.0.0.1
    port: %d
log:
  level: error
  json: true
db:
  driver: memory
jwt:
  secret: 0123456789abcdef0123456789abcdef
`, port)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRun_PortInUseExitsNonZero(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	assert.Equal(t, 1, run(context.Background(), writeConfig(t, port)))
}

func TestRun_BadConfigExitsNonZero(t *testing.T) {
	assert.Equal(t, 1, run(context.Background(), filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestRun_CleanShutdownExitsZero(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.Equal(t, 0, run(ctx, writeConfig(t, port)))
}
