package handler

import (
	"net/http"
)

// Routes collects the handlers mounted by NewRouter
type Routes struct {
	LogRoute  string // Exact path of the tail endpoint, e.g. /api/logs
	Logs      *LogsHandler
	Static    http.Handler
	Dashboard *DashboardHandler // optional
	Stream    http.Handler      // optional, mounted at LogRoute + "/stream"
}

// NewRouter dispatches GET requests: the log route by exact match, the
// dashboard and stream APIs, and everything else to the static handler.
// Other methods are answered with 405 by the mux.
func NewRouter(rt Routes) http.Handler {
	mux := http.NewServeMux()

	// Method patterns also match HEAD
	mux.Handle("GET "+rt.LogRoute, withCORS(http.HandlerFunc(rt.Logs.ServeTail)))

	if rt.Stream != nil {
		mux.Handle("GET "+rt.LogRoute+"/stream", rt.Stream)
	}

	if rt.Dashboard != nil {
		mux.HandleFunc("GET /api/system/metrics", rt.Dashboard.GetSystemMetrics)
		mux.HandleFunc("GET /api/status", rt.Dashboard.GetStatus)
	}

	mux.Handle("GET /", rt.Static)

	return withRecover(withRequestLog(mux))
}
