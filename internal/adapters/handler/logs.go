package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"log-monitor/internal/core/ports"
	"log-monitor/internal/core/services"
)

// LogNotFoundMessage is the body returned while the log file is absent.
// The monitor page polls on it, so the status stays 200.
const LogNotFoundMessage = "Log file not found"

// LogsHandler serves the tail of the monitored log file
type LogsHandler struct {
	source ports.LogSource
	lines  int
}

// NewLogsHandler creates a handler returning at most lines lines
func NewLogsHandler(source ports.LogSource, lines int) *LogsHandler {
	return &LogsHandler{
		source: source,
		lines:  lines,
	}
}

// LogTailResponse is the JSON form of the tail
type LogTailResponse struct {
	Path        string    `json:"path"`
	Lines       []string  `json:"lines"`
	LineCount   int       `json:"line_count"`
	Truncated   bool      `json:"truncated"`
	SizeBytes   int64     `json:"size_bytes"`
	SizeHuman   string    `json:"size_human"`
	ModifiedAt  time.Time `json:"modified_at"`
	ModifiedAgo string    `json:"modified_ago"`
}

// ServeTail returns the last lines of the log file
// GET /api/logs            -> text/plain
// GET /api/logs?format=json -> APIResponse envelope
func (h *LogsHandler) ServeTail(w http.ResponseWriter, r *http.Request) {
	asJSON := r.URL.Query().Get("format") == "json"

	tail, err := h.source.Tail(r.Context(), h.lines)
	switch {
	case errors.Is(err, services.ErrLogNotFound):
		slog.Debug("Log file not present", "path", h.source.Path())
		if asJSON {
			writeJSON(w, http.StatusOK, NotFoundResponse(LogNotFoundMessage))
			return
		}
		writeText(w, http.StatusOK, []byte(LogNotFoundMessage))

	case err != nil:
		slog.Error("Failed to read log file",
			"error", err,
			"path", h.source.Path(),
		)
		if asJSON {
			writeJSON(w, http.StatusInternalServerError, InternalErrorResponse("Failed to read log file"))
			return
		}
		writeText(w, http.StatusInternalServerError, []byte("Failed to read log file"))

	case asJSON:
		writeJSON(w, http.StatusOK, NewSuccessResponse(LogTailResponse{
			Path:        tail.Path,
			Lines:       tail.SplitLines(),
			LineCount:   tail.Lines,
			Truncated:   tail.Truncated,
			SizeBytes:   tail.Size,
			SizeHuman:   humanize.IBytes(uint64(tail.Size)),
			ModifiedAt:  tail.ModTime,
			ModifiedAgo: humanize.Time(tail.ModTime),
		}))

	default:
		writeText(w, http.StatusOK, tail.Content)
	}
}
