// Package main - log monitor server entry point
// Serves the monitor page and the tail of the compilation server's log
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"log-monitor/internal/adapters/handler"
	"log-monitor/internal/adapters/sysinfo"
	"log-monitor/internal/adapters/websocket"
	"log-monitor/internal/config"
	"log-monitor/internal/core/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd binds flags onto cfg; environment values act as flag defaults
func newRootCmd(cfg *config.Config) *cobra.Command {
	logLevel := cfg.LogLevel.String()

	cmd := &cobra.Command{
		Use:           "log-monitor",
		Short:         "Serve the monitor page and the tail of a log file",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := config.ParseLevel(logLevel)
			if err != nil {
				return reportError(err)
			}
			cfg.LogLevel = level

			if err := cfg.Validate(); err != nil {
				return reportError(err)
			}
			return reportError(run(cfg))
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&cfg.Server.Port, "port", "p", cfg.Server.Port, "TCP port to listen on (all interfaces)")
	flags.StringVar(&cfg.Server.StaticRoot, "root", cfg.Server.StaticRoot, "directory served as static files")
	flags.StringVar(&cfg.Server.MonitorPage, "page", cfg.Server.MonitorPage, "page announced at startup")
	flags.StringVarP(&cfg.Log.Path, "log-file", "f", cfg.Log.Path, "log file to tail")
	flags.StringVar(&cfg.Log.Route, "route", cfg.Log.Route, "exact path of the tail endpoint")
	flags.IntVarP(&cfg.Log.TailLines, "lines", "n", cfg.Log.TailLines, "maximum number of lines returned")
	flags.StringVar(&logLevel, "log-level", logLevel, "process log level (debug, info, warn, error)")

	return cmd
}

func reportError(err error) error {
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
	}
	return err
}

// run wires the server and blocks until the listener fails
func run(cfg *config.Config) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	// No shutdown signal handling: the process runs until killed
	ctx := context.Background()

	tailer := services.NewFileTailer(cfg.Log.Path)

	hub := websocket.NewLogHub()
	go hub.Run(ctx)

	follower := services.NewFollower(cfg.Log.Path, hub)
	if err := follower.Start(ctx); err != nil {
		slog.Warn("Live log stream will stay idle", "error", err, "path", cfg.Log.Path)
	}

	router := handler.NewRouter(handler.Routes{
		LogRoute:  cfg.Log.Route,
		Logs:      handler.NewLogsHandler(tailer, cfg.Log.TailLines),
		Static:    handler.NewStaticHandler(cfg.Server.StaticRoot),
		Dashboard: handler.NewDashboardHandler(sysinfo.NewProbe(time.Second), tailer, hub, cfg.Server.StaticRoot),
		Stream:    http.HandlerFunc(hub.ServeWS),
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Debug("Server configured",
		"addr", server.Addr,
		"static_root", cfg.Server.StaticRoot,
		"log_file", cfg.Log.Path,
		"log_route", cfg.Log.Route,
		"tail_lines", cfg.Log.TailLines,
	)

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", server.Addr, err)
	}

	color.New(color.FgGreen).Printf("Monitor server running at %s\n", cfg.Server.MonitorURL())

	if err := server.Serve(ln); err != nil {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}
