// Package services contains the core log reading logic
// Following Hexagonal Architecture: Core layer is independent of HTTP
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"log-monitor/internal/core/domain"
	"log-monitor/internal/core/ports"
)

// ErrLogNotFound is returned when the log file does not exist.
// Callers treat it as a normal outcome, not a failure.
var ErrLogNotFound = errors.New("log file not found")

// tailBlockSize is how many bytes are read per step when scanning backwards
const tailBlockSize = 4096

// Ensure FileTailer implements LogSource
var _ ports.LogSource = (*FileTailer)(nil)

// FileTailer reads the last lines of a file on disk.
// The file is opened and closed on every call; nothing is cached.
type FileTailer struct {
	path string
}

// NewFileTailer creates a tailer for the file at path
func NewFileTailer(path string) *FileTailer {
	return &FileTailer{path: path}
}

// Path returns the tailed file path
func (t *FileTailer) Path() string {
	return t.path
}

// Tail returns at most the last n lines of the file, byte-for-byte.
// Only the bytes present when the file was opened are considered,
// so a writer appending concurrently cannot tear the result.
func (t *FileTailer) Tail(ctx context.Context, n int) (*domain.LogTail, error) {
	if n < 1 {
		return nil, fmt.Errorf("tail: line count must be positive, got %d", n)
	}

	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("log file %s is not a regular file", t.path)
	}

	size := info.Size()
	start, err := findTailStart(ctx, f, size, n)
	if err != nil {
		return nil, fmt.Errorf("scan log file: %w", err)
	}

	content := make([]byte, size-start)
	if err := readFullAt(f, content, start); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	return &domain.LogTail{
		Path:      t.path,
		Content:   content,
		Lines:     countLines(content),
		Truncated: start > 0,
		Size:      size,
		ModTime:   info.ModTime(),
	}, nil
}

// findTailStart returns the offset where the last n lines begin.
// A newline in the final byte terminates the last line and is not counted.
func findTailStart(ctx context.Context, r io.ReaderAt, size int64, n int) (int64, error) {
	buf := make([]byte, tailBlockSize)
	seen := 0
	pos := size

	for pos > 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		chunk := int64(len(buf))
		if pos < chunk {
			chunk = pos
		}
		pos -= chunk

		block := buf[:chunk]
		if err := readFullAt(r, block, pos); err != nil {
			return 0, err
		}

		for i := len(block) - 1; i >= 0; i-- {
			if block[i] != '\n' || pos+int64(i) == size-1 {
				continue
			}
			seen++
			if seen == n {
				return pos + int64(i) + 1, nil
			}
		}
	}

	return 0, nil
}

// readFullAt fills p from offset off or fails.
// io.ReaderAt may report io.EOF alongside a complete read at end of file.
func readFullAt(r io.ReaderAt, p []byte, off int64) error {
	got, err := r.ReadAt(p, off)
	if got == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// countLines counts newline-terminated lines plus a trailing partial line
func countLines(content []byte) int {
	lines := 0
	for _, b := range content {
		if b == '\n' {
			lines++
		}
	}
	if len(content) > 0 && content[len(content)-1] != '\n' {
		lines++
	}
	return lines
}
