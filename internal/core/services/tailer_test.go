package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helper Functions
// ============================================================================

// writeLog creates a log file in a temp dir and returns its path
func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// numberedLines builds "1\n2\n...count\n"
func numberedLines(from, to int) string {
	var sb strings.Builder
	for i := from; i <= to; i++ {
		fmt.Fprintf(&sb, "%d\n", i)
	}
	return sb.String()
}

// ============================================================================
// Tail Tests
// ============================================================================

func TestTail_ReturnsLastHundredOfHundredFifty(t *testing.T) {
	path := writeLog(t, numberedLines(1, 150))

	tail, err := NewFileTailer(path).Tail(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, numberedLines(51, 150), string(tail.Content))
	assert.Equal(t, 100, tail.Lines)
	assert.True(t, tail.Truncated)
	assert.Equal(t, int64(len(numberedLines(1, 150))), tail.Size)
	assert.Equal(t, path, tail.Path)
}

func TestTail_ShortFileReturnedWhole(t *testing.T) {
	content := numberedLines(1, 42)
	path := writeLog(t, content)

	tail, err := NewFileTailer(path).Tail(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, content, string(tail.Content))
	assert.Equal(t, 42, tail.Lines)
	assert.False(t, tail.Truncated)
}

func TestTail_ExactlyLimit(t *testing.T) {
	content := numberedLines(1, 100)
	path := writeLog(t, content)

	tail, err := NewFileTailer(path).Tail(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, content, string(tail.Content))
	assert.False(t, tail.Truncated)
}

func TestTail_EdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		n        int
		expected string
		lines    int
	}{
		{"empty file", "", 100, "", 0},
		{"single line without newline", "only", 100, "only", 1},
		{"unterminated last line", "a\nb\nc", 2, "b\nc", 2},
		{"blank lines count", "a\n\n\nb\n", 3, "\n\nb\n", 3},
		{"crlf preserved", "one\r\ntwo\r\nthree\r\n", 2, "two\r\nthree\r\n", 2},
		{"one line requested", "x\ny\nz\n", 1, "z\n", 1},
		{"only newlines", "\n\n\n\n", 2, "\n\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeLog(t, tt.content)

			tail, err := NewFileTailer(path).Tail(context.Background(), tt.n)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, string(tail.Content))
			assert.Equal(t, tt.lines, tail.Lines)
		})
	}
}

func TestTail_LinesSpanningBlocks(t *testing.T) {
	long := strings.Repeat("x", tailBlockSize*2+17)
	content := "first\n" + long + "\n" + "short\n" + long + "\n"
	path := writeLog(t, content)

	tail, err := NewFileTailer(path).Tail(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, long+"\nshort\n"+long+"\n", string(tail.Content))
	assert.True(t, tail.Truncated)
}

func TestTail_ManyBlocks(t *testing.T) {
	content := numberedLines(1, 5000)
	path := writeLog(t, content)

	tail, err := NewFileTailer(path).Tail(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, numberedLines(4901, 5000), string(tail.Content))
}

func TestTail_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.log")

	tail, err := NewFileTailer(path).Tail(context.Background(), 100)

	assert.Nil(t, tail)
	assert.ErrorIs(t, err, ErrLogNotFound)
}

func TestTail_DirectoryIsAnError(t *testing.T) {
	dir := t.TempDir()

	_, err := NewFileTailer(dir).Tail(context.Background(), 100)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLogNotFound)
}

func TestTail_InvalidCount(t *testing.T) {
	path := writeLog(t, "a\n")

	_, err := NewFileTailer(path).Tail(context.Background(), 0)
	assert.Error(t, err)
}

func TestTail_CancelledContext(t *testing.T) {
	path := writeLog(t, numberedLines(1, 10))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileTailer(path).Tail(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTail_SplitLines(t *testing.T) {
	path := writeLog(t, "alpha\r\nbeta\ngamma")

	tail, err := NewFileTailer(path).Tail(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, tail.SplitLines())
}
