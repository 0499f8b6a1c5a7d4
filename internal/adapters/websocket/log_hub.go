// Package websocket provides WebSocket-based log broadcasting for the monitor page
// Following Clean Architecture: This is an Adapter layer component
package websocket

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// LogHub fans appended log lines out to every connected monitor client.
// Implements io.Writer so the log follower can write into it directly.
type LogHub struct {
	// Registered clients map (client -> struct{})
	clients map[*Client]struct{}

	// Buffered channel for log messages (non-blocking, drop-if-full)
	broadcast chan []byte

	register   chan *Client
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Guards clients for ClientCount readers outside Run
	mu sync.RWMutex

	upgrader websocket.Upgrader
}

// Client represents a connected WebSocket client
type Client struct {
	hub  *LogHub
	conn *websocket.Conn
	send chan []byte
}

const (
	broadcastBufferSize = 256
	clientBufferSize    = 64

	// WebSocket timeouts
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	// Upper bound of log lines packed into one frame
	maxBatchLines = 128
)

var newline = []byte{'\n'}

// NewLogHub creates a new LogHub instance
func NewLogHub() *LogHub {
	return &LogHub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, broadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same permissiveness as the tail endpoint's CORS header
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Run is the hub's event loop (call as goroutine).
// On return every client's send channel is closed.
func (h *LogHub) Run(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			slog.Info("Log stream client connected", "total", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			slog.Info("Log stream client disconnected", "total", total)

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				// Slow clients miss messages instead of stalling the hub
				select {
				case client.send <- message:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *LogHub) closeAll() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// Write implements io.Writer.
// It never blocks: when the broadcast buffer is full the chunk is dropped.
func (h *LogHub) Write(p []byte) (n int, err error) {
	msg := bytes.TrimRight(p, "\n\r")
	if len(msg) == 0 {
		return len(p), nil
	}

	// p belongs to the caller
	msg = bytes.Clone(msg)

	select {
	case h.broadcast <- msg:
	default:
	}

	return len(p), nil
}

// ServeWS upgrades the request and registers the connection
// Route: GET /api/logs/stream
func (h *LogHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response
		slog.Warn("WebSocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, clientBufferSize),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// ClientCount returns the current number of connected clients
func (h *LogHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump keeps the connection's read side alive.
// Monitor pages never send data, but reading is what makes gorilla/websocket
// process pong and close frames. Returning from here is the only way a
// client leaves the hub, so it owns unregistration.
func (c *Client) readPump() {
	defer func() {
		c.leave()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		// Each pong buys another pongWait; a silent peer times out the read below
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			// Tab closed or network gone: expected, not worth a log line
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("Log stream read error", "error", err)
			}
			return
		}
	}
}

// leave hands the client back to the hub.
// After Run has returned nobody receives on unregister, and closeAll has
// already closed send, so there is nothing left to do.
func (c *Client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// writePump is the only goroutine writing to the connection.
// It forwards hub messages and pings the peer every pingPeriod.
// A closed send channel means the hub dropped the client (or shut down).
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "log stream closed"))
				return
			}
			if err := c.writeBatch(message); err != nil {
				slog.Debug("Log stream write failed", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeBatch sends first plus whatever is already queued as one text frame,
// lines joined by "\n". At most maxBatchLines are taken so a busy log cannot
// keep a single frame open indefinitely; the rest go out in the next frame.
func (c *Client) writeBatch(first []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	if _, err := w.Write(first); err != nil {
		return err
	}

	for queued := min(len(c.send), maxBatchLines-1); queued > 0; queued-- {
		line, ok := <-c.send
		if !ok {
			// Closed mid-batch: flush what we have, the next receive sees the close
			break
		}
		if _, err := w.Write(newline); err != nil {
			return err
		}
		if _, err := w.Write(line); err != nil {
			return err
		}
	}

	return w.Close()
}
