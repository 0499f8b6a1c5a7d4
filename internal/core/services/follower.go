package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
)

// maxFollowRead caps how much is read after a single change event.
// Anything older than that is skipped rather than flooding subscribers.
const maxFollowRead = 1 << 20

// Follower forwards lines appended to the log file into a sink.
// It is the live counterpart of FileTailer and owns its offset exclusively.
type Follower struct {
	path    string
	sink    io.Writer
	offset  int64
	pending []byte // trailing bytes without a newline yet
	resync  bool   // offset sits inside a line; drop up to the next newline
}

// NewFollower creates a follower that writes complete lines to sink
func NewFollower(path string, sink io.Writer) *Follower {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &Follower{
		path: path,
		sink: sink,
	}
}

// Start begins watching the log file's directory and returns once the watch
// is in place. Only data written after Start is forwarded.
// The background goroutine stops when ctx is cancelled.
func (f *Follower) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	if info, err := os.Stat(f.path); err == nil {
		f.offset = info.Size()
	}

	go f.loop(ctx, watcher)

	slog.Info("Log follower started", "path", f.path, "offset", f.offset)
	return nil
}

func (f *Follower) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}

			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				f.reset()
			case event.Has(fsnotify.Create):
				f.reset()
				f.drain()
			case event.Has(fsnotify.Write):
				f.drain()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Log follower watch error", "error", err, "path", f.path)
		}
	}
}

func (f *Follower) reset() {
	f.offset = 0
	f.pending = f.pending[:0]
	f.resync = false
}

// drain reads everything between the offset and the current end of file
func (f *Follower) drain() {
	file, err := os.Open(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Log follower cannot open file", "error", err, "path", f.path)
		}
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		slog.Warn("Log follower cannot stat file", "error", err, "path", f.path)
		return
	}

	size := info.Size()
	if size < f.offset {
		slog.Debug("Log file truncated, restarting from the beginning", "path", f.path)
		f.reset()
	}
	if size == f.offset {
		return
	}
	if size-f.offset > maxFollowRead {
		skipTo := size - maxFollowRead
		slog.Warn("Log follower fell behind, skipping",
			"path", f.path,
			"skipped", humanize.IBytes(uint64(skipTo-f.offset)),
		)
		f.offset = skipTo
		f.pending = f.pending[:0]
		f.resync = !atLineStart(file, skipTo)
	}

	buf := make([]byte, size-f.offset)
	got, err := file.ReadAt(buf, f.offset)
	if err != nil && !errors.Is(err, io.EOF) {
		slog.Warn("Log follower read failed", "error", err, "path", f.path)
		return
	}
	f.offset += int64(got)
	f.emit(buf[:got])
}

// emit writes all complete lines and keeps the remainder for the next event
func (f *Follower) emit(data []byte) {
	if f.resync {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			return
		}
		data = data[idx+1:]
		f.resync = false
	}

	f.pending = append(f.pending, data...)

	idx := bytes.LastIndexByte(f.pending, '\n')
	if idx < 0 {
		return
	}

	if _, err := f.sink.Write(f.pending[:idx+1]); err != nil {
		slog.Warn("Log follower sink write failed", "error", err)
	}
	f.pending = append(f.pending[:0], f.pending[idx+1:]...)
}

// atLineStart reports whether offset begins a line, i.e. the byte before it
// is a newline. Read errors count as mid-line so the partial line is dropped.
func atLineStart(r io.ReaderAt, offset int64) bool {
	if offset == 0 {
		return true
	}
	var prev [1]byte
	if _, err := r.ReadAt(prev[:], offset-1); err != nil {
		return false
	}
	return prev[0] == '\n'
}
