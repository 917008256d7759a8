package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/ports"
)

func newWatcher(t *testing.T) *FSNotifyWatcher {
	t.Helper()
	w, err := NewFSNotifyWatcher(50*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })
	return w
}

func TestFSNotifyWatcher_DefaultDebounce(t *testing.T) {
	w, err := NewFSNotifyWatcher(0, nil)
	require.NoError(t, err)
	defer w.Stop()

	assert.Equal(t, DefaultDebounce, w.debounce)
}

func TestFSNotifyWatcher_CreateEmitsEvent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "articles.json")
	w := newWatcher(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := w.Watch(ctx, target)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(target, []byte("[]"), 0644))

	select {
	case event := <-events:
		assert.Equal(t, target, event.Path)
		assert.Contains(t, []ports.FileOperation{ports.FileCreated, ports.FileModified}, event.Operation)
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}
}

func TestFSNotifyWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "articles.json")
	require.NoError(t, os.WriteFile(target, []byte("[]"), 0644))
	w := newWatcher(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := w.Watch(ctx, target)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(target, []byte("[ ]"), 0644))
	}

	select {
	case <-events:
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}

	select {
	case <-events:
		t.Error("burst should collapse into one event")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFSNotifyWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w := newWatcher(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	events, err := w.Watch(ctx, filepath.Join(dir, "articles.json"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "url_list.json"), []byte("{}"), 0644))

	select {
	case <-events:
		t.Error("should not receive event for another file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFSNotifyWatcher_ClosesOnCancel(t *testing.T) {
	w := newWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())

	events, err := w.Watch(ctx, filepath.Join(t.TempDir(), "articles.json"))
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestFSNotifyWatcher_MissingDirectory(t *testing.T) {
	w := newWatcher(t)

	_, err := w.Watch(context.Background(), "/nonexistent/dir/articles.json")

	assert.Error(t, err)
}

func TestOperation(t *testing.T) {
	op, ok := operation(fsnotify.Write)
	assert.True(t, ok)
	assert.Equal(t, ports.FileModified, op)

	op, ok = operation(fsnotify.Rename)
	assert.True(t, ok)
	assert.Equal(t, ports.FileDeleted, op)

	_, ok = operation(fsnotify.Chmod)
	assert.False(t, ok)
}

func TestFSNotifyWatcher_Stop(t *testing.T) {
	w, err := NewFSNotifyWatcher(0, nil)
	require.NoError(t, err)

	assert.NoError(t, w.Stop())
}
