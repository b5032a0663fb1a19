package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/lingo/pkg/schedule"
)

func tempFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schemes": []}`), 0o600))
	return path
}

func TestHandleDebouncesBursts(t *testing.T) {
	clock := schedule.NewManual()
	changes := 0
	w, err := New("/data/tree.json",
		WithScheduler(clock),
		WithDebounce(50*time.Millisecond),
		WithOnChange(func() { changes++ }))
	require.NoError(t, err)

	w.handle(fsnotify.Event{Name: "/data/tree.json", Op: fsnotify.Write})
	clock.Advance(30 * time.Millisecond)
	w.handle(fsnotify.Event{Name: "/data/tree.json", Op: fsnotify.Rename})
	w.handle(fsnotify.Event{Name: "/data/tree.json", Op: fsnotify.Create})
	clock.Advance(30 * time.Millisecond)
	assert.Zero(t, changes, "each event restarts the quiet period")

	clock.Advance(20 * time.Millisecond)
	assert.Equal(t, 1, changes)
	assert.Zero(t, clock.Pending())
}

func TestHandleIgnoresOtherFiles(t *testing.T) {
	clock := schedule.NewManual()
	w, err := New("/data/tree.json", WithScheduler(clock))
	require.NoError(t, err)

	w.handle(fsnotify.Event{Name: "/data/tree.json.swp", Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: "/data/other.json", Op: fsnotify.Create})
	w.handle(fsnotify.Event{Name: "/data/tree.json", Op: fsnotify.Chmod})
	assert.Zero(t, clock.Pending())
}

func TestHandleReportsRemoval(t *testing.T) {
	var got error
	w, err := New("/data/tree.json", WithScheduler(schedule.NewManual()), WithOnError(func(err error) { got = err }))
	require.NoError(t, err)

	w.handle(fsnotify.Event{Name: "/data/tree.json", Op: fsnotify.Remove})
	assert.ErrorIs(t, got, ErrFileRemoved)
}

func TestCloseCancelsPending(t *testing.T) {
	clock := schedule.NewManual()
	changes := 0
	w, err := New("/data/tree.json", WithScheduler(clock), WithOnChange(func() { changes++ }))
	require.NoError(t, err)

	w.handle(fsnotify.Event{Name: "/data/tree.json", Op: fsnotify.Write})
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	clock.Advance(time.Second)
	assert.Zero(t, changes)

	w.handle(fsnotify.Event{Name: "/data/tree.json", Op: fsnotify.Write})
	assert.Zero(t, clock.Pending())
	assert.ErrorIs(t, w.Start(context.Background()), ErrClosed)
}

func TestStartMissingFile(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	err = w.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatchesRealWrites(t *testing.T) {
	path := tempFile(t)
	var changes atomic.Int32
	w, err := New(path, WithDebounce(20*time.Millisecond), WithOnChange(func() { changes.Add(1) }))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Close()

	assert.ErrorIs(t, w.Start(context.Background()), ErrAlreadyStarted)

	require.NoError(t, os.WriteFile(path, []byte(`{"schemes": [{"id": "s1"}]}`), 0o600))
	assert.Eventually(t, func() bool { return changes.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestWatchesRenameSaves(t *testing.T) {
	path := tempFile(t)
	var changes atomic.Int32
	w, err := New(path, WithDebounce(20*time.Millisecond), WithOnChange(func() { changes.Add(1) }))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Close()

	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(`{"schemes": []}`), 0o600))
	require.NoError(t, os.Rename(tmp, path))
	assert.Eventually(t, func() bool { return changes.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestContextCancelStopsWatching(t *testing.T) {
	path := tempFile(t)
	ctx, cancel := context.WithCancel(context.Background())
	w, err := New(path)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	cancel()
	require.NoError(t, w.Close())
}
