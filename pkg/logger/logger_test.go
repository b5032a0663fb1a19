package logger

import (
	"bytes"
	"context"
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestGetReturnsSameInstance(t *testing.T) {
	first := Get(InfoLevel)
	require.NotNil(t, first)
	assert.Same(t, first, Get(DebugLevel))
	assert.Same(t, first, GetGlobalLogger())
}

func TestGetReturnsNoopWhenGlobalMissing(t *testing.T) {
	Get(InfoLevel)
	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()

	assert.Same(t, &defaultNoopLogger, Get(InfoLevel))
	assert.Same(t, &defaultNoopLogger, GetGlobalLogger())
	assert.Same(t, &defaultNoopLogger, FromContext(context.Background()))
}

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, InfoLevel)

	log.Info("filter pass", "query", "concept", "matched", 3)
	out := buf.String()
	assert.Contains(t, out, `"message":"filter pass"`)
	assert.Contains(t, out, `"query":"concept"`)
	assert.Contains(t, out, `"timestamp":`)
	assert.Contains(t, out, `"`+VersionKey+`":`)
}

func TestNewHonorsLevel(t *testing.T) {
	var info bytes.Buffer
	New(&info, InfoLevel).V(1).Info("hidden")
	assert.Empty(t, info.String())

	var debug bytes.Buffer
	New(&debug, DebugLevel).V(1).Info("shown")
	assert.Contains(t, debug.String(), "shown")
	assert.Equal(t, int8(zapcore.DebugLevel), DebugLevel)
}

func TestWithLogger(t *testing.T) {
	ctx := context.Background()
	log := Get(InfoLevel)

	withLog := WithLogger(ctx, log)
	assert.Same(t, log, FromContext(withLog))
	assert.Equal(t, withLog, WithLogger(withLog, log), "same logger keeps the context")

	other := logr.Discard()
	replaced := WithLogger(withLog, &other)
	assert.Same(t, &other, FromContext(replaced))
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	assert.Same(t, Get(InfoLevel), FromContext(context.Background()))
}

func TestWithValues(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, InfoLevel)
	WithValues(&base, "file", "tree.json").Info("loaded")
	assert.Contains(t, buf.String(), `"file":"tree.json"`)
}

func TestIsIgnorableSyncError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "enotty", err: syscall.ENOTTY, want: true},
		{name: "wrapped einval", err: &os.PathError{Op: "sync", Path: "/dev/stderr", Err: syscall.EINVAL}, want: true},
		{name: "windows handle", err: errors.New("sync /dev/stderr: The handle is invalid."), want: true},
		{name: "other", err: errors.New("disk full"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isIgnorableSyncError(tt.err))
		})
	}
}
