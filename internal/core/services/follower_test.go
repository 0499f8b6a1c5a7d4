package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a goroutine-safe sink
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func appendTo(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func startFollower(t *testing.T, path string) *syncBuffer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sink := &syncBuffer{}
	require.NoError(t, NewFollower(path, sink).Start(ctx))
	return sink
}

func TestFollower_ForwardsOnlyNewLines(t *testing.T) {
	path := writeLog(t, "existing line\n")
	sink := startFollower(t, path)

	appendTo(t, path, "fresh one\nfresh two\n")

	assert.Eventually(t, func() bool {
		return sink.String() == "fresh one\nfresh two\n"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFollower_HoldsPartialLine(t *testing.T) {
	path := writeLog(t, "")
	sink := startFollower(t, path)

	appendTo(t, path, "half")
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, sink.String())

	appendTo(t, path, " done\n")
	assert.Eventually(t, func() bool {
		return sink.String() == "half done\n"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFollower_FileCreatedLater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.log")
	sink := startFollower(t, path)

	appendTo(t, path, "hello\n")

	assert.Eventually(t, func() bool {
		return sink.String() == "hello\n"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFollower_Truncation(t *testing.T) {
	path := writeLog(t, "a rather long old line\n")
	sink := startFollower(t, path)

	require.NoError(t, os.Truncate(path, 0))
	time.Sleep(100 * time.Millisecond)
	appendTo(t, path, "new\n")

	assert.Eventually(t, func() bool {
		return sink.String() == "new\n"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFollower_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "server.log")

	err := NewFollower(path, &syncBuffer{}).Start(context.Background())
	assert.Error(t, err)
}

func TestFollower_OversizedAppendStartsAtLineBoundary(t *testing.T) {
	path := writeLog(t, "")
	sink := startFollower(t, path)

	appendTo(t, path, "cut-off prefix "+strings.Repeat("x", maxFollowRead)+"\n"+"tail one\ntail two\n")

	assert.Eventually(t, func() bool {
		return sink.String() == "tail one\ntail two\n"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestFollower_DrainDropsCutLine(t *testing.T) {
	path := writeLog(t, "")
	sink := &syncBuffer{}
	follower := NewFollower(path, sink)

	// The window starts three bytes before the end of the "a" line
	whole := strings.Repeat("b", maxFollowRead-10) + "\nkept\n"
	appendTo(t, path, strings.Repeat("a", 100)+"\n"+whole)
	follower.drain()

	assert.Equal(t, whole, sink.String())
	assert.False(t, follower.resync)
}

func TestFollower_DrainSkipOnLineBoundaryKeepsLine(t *testing.T) {
	path := writeLog(t, "")
	sink := &syncBuffer{}
	follower := NewFollower(path, sink)

	last := strings.Repeat("c", maxFollowRead-1) + "\n"
	appendTo(t, path, "dropped\n"+last)
	follower.drain()

	assert.Equal(t, last, sink.String())
}

func TestFollower_ResyncSpansEvents(t *testing.T) {
	sink := &syncBuffer{}
	follower := NewFollower(filepath.Join(t.TempDir(), "x.log"), sink)
	follower.resync = true

	follower.emit([]byte("still the cut line"))
	assert.Empty(t, sink.String())
	assert.True(t, follower.resync)

	follower.emit([]byte(" end\nnext\n"))
	assert.Equal(t, "next\n", sink.String())
	assert.False(t, follower.resync)
}
