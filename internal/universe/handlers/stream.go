package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"prospero-server/internal/universe"
)

const (
	feedSendBuffer = 8
	feedWriteWait  = 10 * time.Second
)

type feedMessage struct {
	Type    string           `json:"type"`
	Summary universe.Summary `json:"summary"`
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Feed pushes a summary of every newly current world to websocket
// subscribers. New subscribers receive the latest summary immediately.
// Slow subscribers whose buffer fills up are disconnected.
type Feed struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*feedClient]struct{}
	latest  []byte
}

func NewFeed(allowedOrigin string, logger *slog.Logger) *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "" || origin == allowedOrigin
			},
		},
		logger:  logger.With("component", "world_feed"),
		clients: make(map[*feedClient]struct{}),
	}
}

// Broadcast implements universe.Notifier.
func (f *Feed) Broadcast(summary universe.Summary) {
	data, err := json.Marshal(feedMessage{Type: "world", Summary: summary})
	if err != nil {
		f.logger.Error("Failed to encode feed message", "error", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.latest = data
	for client := range f.clients {
		select {
		case client.send <- data:
		default:
			f.logger.Warn("Dropping slow feed subscriber", "remote_addr", client.conn.RemoteAddr().String())
			f.removeLocked(client)
		}
	}
}

// Subscribers returns the number of connected clients.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *Feed) removeLocked(client *feedClient) {
	if _, ok := f.clients[client]; ok {
		delete(f.clients, client)
		close(client.send)
	}
}

func (f *Feed) remove(client *feedClient) {
	f.mu.Lock()
	f.removeLocked(client)
	f.mu.Unlock()
}

// ServeHTTP handles GET /api/world/stream
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := f.logger.With("handler", "world_stream", "remote_addr", r.RemoteAddr)

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", "error", err)
		return
	}

	client := &feedClient{conn: conn, send: make(chan []byte, feedSendBuffer)}

	f.mu.Lock()
	f.clients[client] = struct{}{}
	if f.latest != nil {
		client.send <- f.latest
	}
	f.mu.Unlock()

	logger.Debug("Feed subscriber connected")

	go f.writeLoop(client)

	// The feed is one-way; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	f.remove(client)
	logger.Debug("Feed subscriber disconnected")
}

func (f *Feed) writeLoop(client *feedClient) {
	defer client.conn.Close()

	for data := range client.send {
		_ = client.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
		if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			f.remove(client)
			return
		}
	}

	_ = client.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
	_ = client.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
