package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherFiresWhenSentinelAppears(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "STOP")
	var calls atomic.Int32
	fired := make(chan struct{})

	w := Start(context.Background(), Config{Path: path, Interval: 20 * time.Millisecond}, func() {
		calls.Add(1)
		close(fired)
	})
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, w.Triggered())

	require.NoError(t, os.WriteFile(path, nil, 0o600))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not fire within the deadline")
	}
	w.Stop()
	assert.True(t, w.Triggered())
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcherFiresImmediatelyForExistingSentinel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "STOP")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	fired := make(chan struct{})
	w := Start(context.Background(), Config{Path: path, Interval: time.Hour}, func() { close(fired) })
	defer w.Stop()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher ignored pre-existing sentinel")
	}
}

func TestWatcherStopWithoutSentinel(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	w := Start(context.Background(), Config{
		Path:     filepath.Join(t.TempDir(), "STOP"),
		Interval: 10 * time.Millisecond,
	}, func() { calls.Add(1) })

	time.Sleep(30 * time.Millisecond)
	w.Stop()
	w.Stop()
	assert.False(t, w.Triggered())
	assert.Zero(t, calls.Load())
}

func TestWatcherExitsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	w := Start(ctx, Config{Path: filepath.Join(t.TempDir(), "STOP")}, nil)
	cancel()

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not exit after context cancellation")
	}
}

func TestWatcherMissingDirectoryFallsBackToPolling(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	dir := filepath.Join(base, "later")
	path := filepath.Join(dir, "STOP")
	fired := make(chan struct{})

	w := Start(context.Background(), Config{Path: path, Interval: 20 * time.Millisecond}, func() { close(fired) })
	defer w.Stop()

	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("polling fallback did not detect the sentinel")
	}
}
