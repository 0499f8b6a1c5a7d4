// Package domain contains the value types passed between services and adapters
// Nothing here outlives a single request
package domain

import "time"

// LogTail is the trailing window of a log file
type LogTail struct {
	Path      string
	Content   []byte    // Raw bytes of the returned lines, terminators included
	Lines     int       // Number of lines in Content
	Truncated bool      // True when earlier lines were left out
	Size      int64     // File size observed when the file was opened
	ModTime   time.Time // Modification time observed when the file was opened
}

// SplitLines returns the lines of the tail without their terminators
func (t *LogTail) SplitLines() []string {
	lines := make([]string, 0, t.Lines)
	start := 0
	for i, b := range t.Content {
		if b == '\n' {
			lines = append(lines, trimCR(string(t.Content[start:i])))
			start = i + 1
		}
	}
	if start < len(t.Content) {
		lines = append(lines, trimCR(string(t.Content[start:])))
	}
	return lines
}

func trimCR(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\r' {
		return s[:n-1]
	}
	return s
}

// SystemMetrics is a snapshot of host resource usage
type SystemMetrics struct {
	CPUPercent  float64
	RAMUsed     uint64
	RAMTotal    uint64
	RAMPercent  float64
	DiskUsed    uint64
	DiskTotal   uint64
	DiskPercent float64
}
