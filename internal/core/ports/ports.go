// Package ports defines interfaces for dependency inversion
// Following Hexagonal Architecture: Core defines contracts, Adapters implement them
package ports

import (
	"context"

	"log-monitor/internal/core/domain"
)

// LogSource reads the trailing lines of the monitored log file
type LogSource interface {
	// Tail returns at most the last n lines in original order.
	// Returns services.ErrLogNotFound when the file does not exist.
	Tail(ctx context.Context, n int) (*domain.LogTail, error)

	// Path reports the file being read
	Path() string
}

// SystemProbe samples host resource usage
type SystemProbe interface {
	// Sample collects CPU, memory and disk usage for the filesystem holding path
	Sample(ctx context.Context, path string) (*domain.SystemMetrics, error)
}
