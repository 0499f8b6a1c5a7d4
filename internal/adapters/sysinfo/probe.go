// Package sysinfo samples host resource usage with gopsutil
package sysinfo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"log-monitor/internal/core/domain"
	"log-monitor/internal/core/ports"
)

// Ensure Probe implements SystemProbe
var _ ports.SystemProbe = (*Probe)(nil)

// Probe implements ports.SystemProbe
type Probe struct {
	cpuWindow time.Duration // How long CPU usage is averaged over
}

// NewProbe creates a probe averaging CPU usage over cpuWindow
func NewProbe(cpuWindow time.Duration) *Probe {
	return &Probe{cpuWindow: cpuWindow}
}

// Sample collects what it can. Fields whose source failed stay zero and the
// failures are returned joined alongside the partial result.
func (p *Probe) Sample(ctx context.Context, path string) (*domain.SystemMetrics, error) {
	metrics := &domain.SystemMetrics{}
	var errs []error

	cpuPercents, err := cpu.PercentWithContext(ctx, p.cpuWindow, false)
	if err != nil {
		errs = append(errs, fmt.Errorf("cpu: %w", err))
	} else if len(cpuPercents) > 0 {
		metrics.CPUPercent = cpuPercents[0]
	}

	memStat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("memory: %w", err))
	} else {
		metrics.RAMUsed = memStat.Used
		metrics.RAMTotal = memStat.Total
		metrics.RAMPercent = memStat.UsedPercent
	}

	diskStat, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		errs = append(errs, fmt.Errorf("disk %s: %w", path, err))
	} else {
		metrics.DiskUsed = diskStat.Used
		metrics.DiskTotal = diskStat.Total
		metrics.DiskPercent = diskStat.UsedPercent
	}

	return metrics, errors.Join(errs...)
}
