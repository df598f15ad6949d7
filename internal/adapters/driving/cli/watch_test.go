package cli

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
)

func TestDocumentWatcher_HandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "schedule-maker-config.json")
	w := newDocumentWatcher(doc)

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{name: "create", event: fsnotify.Event{Name: doc, Op: fsnotify.Create}, want: true},
		{name: "write", event: fsnotify.Event{Name: doc, Op: fsnotify.Write}, want: true},
		{name: "remove", event: fsnotify.Event{Name: doc, Op: fsnotify.Remove}, want: true},
		{name: "rename", event: fsnotify.Event{Name: doc, Op: fsnotify.Rename}, want: true},
		{name: "write and chmod", event: fsnotify.Event{Name: doc, Op: fsnotify.Write | fsnotify.Chmod}, want: true},
		{name: "chmod only", event: fsnotify.Event{Name: doc, Op: fsnotify.Chmod}, want: false},
		{name: "other file", event: fsnotify.Event{Name: filepath.Join(dir, "other.json"), Op: fsnotify.Write}, want: false},
		{name: "temp file", event: fsnotify.Event{Name: doc + ".tmp", Op: fsnotify.Create}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.handleFsEvent(tt.event))
		})
	}
}

func TestDocumentWatcher_Run(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.json")
	w := newDocumentWatcher(doc)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	var changes atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func() { changes.Add(1) })
	}()

	// Keep writing until the watcher is registered and reports a change.
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(doc, []byte(`{"state":{}}`), 0600)
		return changes.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	before := changes.Load()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.json"), []byte("{}"), 0600))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, changes.Load(), "other files are ignored")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
