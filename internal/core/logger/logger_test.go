package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuild_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := Build(Options{Level: "warn", JSON: true, Out: &buf})
	l.Info("dropped")
	l.Warn("kept", zap.String("k", "v"))
	cleanup()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var m map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &m))
	assert.Equal(t, "kept", m["msg"])
	assert.Equal(t, "v", m["k"])
	assert.Contains(t, m, "ts")
}

func TestBuild_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := Build(Options{Level: "loud", JSON: true, Out: &buf})
	l.Debug("no")
	l.Info("yes")
	cleanup()
	assert.NotContains(t, buf.String(), `"no"`)
	assert.Contains(t, buf.String(), `"yes"`)
}

func TestBuild_Rotate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	var buf bytes.Buffer
	l, cleanup := Build(Options{Level: "info", JSON: true, Out: &buf, Rotate: FileRotate{Enable: true, Filename: file, MaxSizeMB: 1}})
	l.Info("to both")
	cleanup()

	assert.Contains(t, buf.String(), "to both")
	assert.FileExists(t, file)
}

func TestToStdLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	std := ToStdLogger(zap.New(core), zapcore.WarnLevel)
	std.Print("http: TLS handshake error\n")

	require.Equal(t, 1, logs.Len())
	e := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, e.Level)
	assert.Equal(t, "http: TLS handshake error", e.Message)
}

func TestBuild_ServiceField(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := Build(Options{Level: "info", JSON: true, Service: "user-auth-api", Out: &buf})
	l.Info("hello")
	cleanup()

	var m map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m))
	assert.Equal(t, "user-auth-api", m["service"])
}
