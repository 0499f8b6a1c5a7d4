package handler

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"log-monitor/internal/core/ports"
)

// ClientCounter reports connected live stream clients
type ClientCounter interface {
	ClientCount() int
}

// DashboardHandler serves the monitor page's status widgets
type DashboardHandler struct {
	probe     ports.SystemProbe
	source    ports.LogSource
	clients   ClientCounter // nil when live streaming is disabled
	diskPath  string
	startedAt time.Time
}

// NewDashboardHandler creates a new dashboard handler instance.
// Disk usage is reported for the filesystem holding diskPath.
func NewDashboardHandler(probe ports.SystemProbe, source ports.LogSource, clients ClientCounter, diskPath string) *DashboardHandler {
	return &DashboardHandler{
		probe:     probe,
		source:    source,
		clients:   clients,
		diskPath:  diskPath,
		startedAt: time.Now(),
	}
}

// ============================================================================
// System Health & Metrics
// ============================================================================

// SystemMetricsResponse represents host health data
type SystemMetricsResponse struct {
	CPUPercent       float64 `json:"cpu_percent"`
	RAMUsedGB        float64 `json:"ram_used_gb"`
	RAMTotalGB       float64 `json:"ram_total_gb"`
	RAMPercent       float64 `json:"ram_percent"`
	RAMHuman         string  `json:"ram_human"`
	DiskUsedGB       float64 `json:"disk_used_gb"`
	DiskTotalGB      float64 `json:"disk_total_gb"`
	DiskPercent      float64 `json:"disk_percent"`
	DiskHuman        string  `json:"disk_human"`
	DiskWarningLevel string  `json:"disk_warning_level"` // "safe" | "warning" | "critical"
	GoroutinesCount  int     `json:"goroutines_count"`
}

// GetSystemMetrics returns current host health metrics
// GET /api/system/metrics
func (h *DashboardHandler) GetSystemMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.probe.Sample(r.Context(), h.diskPath)
	if metrics == nil {
		slog.Error("Failed to sample system metrics", "error", err)
		writeJSON(w, http.StatusInternalServerError, InternalErrorResponse("Failed to sample system metrics"))
		return
	}
	if err != nil {
		slog.Warn("System metrics partially unavailable", "error", err)
	}

	response := SystemMetricsResponse{
		CPUPercent:       roundTo2Decimals(metrics.CPUPercent),
		RAMUsedGB:        roundTo2Decimals(toGB(metrics.RAMUsed)),
		RAMTotalGB:       roundTo2Decimals(toGB(metrics.RAMTotal)),
		RAMPercent:       roundTo2Decimals(metrics.RAMPercent),
		RAMHuman:         usageString(metrics.RAMUsed, metrics.RAMTotal),
		DiskUsedGB:       roundTo2Decimals(toGB(metrics.DiskUsed)),
		DiskTotalGB:      roundTo2Decimals(toGB(metrics.DiskTotal)),
		DiskPercent:      roundTo2Decimals(metrics.DiskPercent),
		DiskHuman:        usageString(metrics.DiskUsed, metrics.DiskTotal),
		DiskWarningLevel: diskWarningLevel(metrics.DiskPercent),
		GoroutinesCount:  runtime.NumGoroutine(),
	}

	slog.Debug("System metrics retrieved",
		"cpu", metrics.CPUPercent,
		"disk_percent", metrics.DiskPercent,
	)

	writeJSON(w, http.StatusOK, NewSuccessResponse(response))
}

// ============================================================================
// Server Status
// ============================================================================

// StatusResponse represents overall server status
type StatusResponse struct {
	Online         bool   `json:"online"`
	Uptime         string `json:"uptime"`
	LogFile        string `json:"log_file"`
	LogFilePresent bool   `json:"log_file_present"`
	LogFileSize    string `json:"log_file_size,omitempty"`
	StreamClients  int    `json:"stream_clients"`
}

// GetStatus returns server status
// GET /api/status
func (h *DashboardHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		Online:  true,
		Uptime:  formatDuration(time.Since(h.startedAt)),
		LogFile: h.source.Path(),
	}

	info, err := os.Stat(h.source.Path())
	switch {
	case err == nil:
		response.LogFilePresent = true
		response.LogFileSize = humanize.IBytes(uint64(info.Size()))
	case !errors.Is(err, fs.ErrNotExist):
		slog.Warn("Cannot stat log file", "error", err, "path", h.source.Path())
	}

	if h.clients != nil {
		response.StreamClients = h.clients.ClientCount()
	}

	writeJSON(w, http.StatusOK, NewSuccessResponse(response))
}

func toGB(bytes uint64) float64 {
	return float64(bytes) / 1024 / 1024 / 1024
}

func usageString(used, total uint64) string {
	return fmt.Sprintf("%s / %s", humanize.IBytes(used), humanize.IBytes(total))
}

func diskWarningLevel(percent float64) string {
	switch {
	case percent < 70:
		return "safe"
	case percent < 80:
		return "warning"
	default:
		return "critical"
	}
}

func roundTo2Decimals(val float64) float64 {
	return float64(int(val*100)) / 100
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 24 {
		days := hours / 24
		hours = hours % 24
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}

	return fmt.Sprintf("%dh %dm", hours, minutes)
}
