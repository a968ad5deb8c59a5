// Package feed streams controller snapshots and events to websocket viewers.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Versifine/ledge/internal/event"
	"github.com/gorilla/websocket"
)

const (
	defaultQueueSize = 64
	writeWait        = 2 * time.Second
	shutdownWait     = 2 * time.Second
)

const (
	TypeState = "state"
	TypeEvent = "event"
)

// Message is one frame on the wire.
type Message struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	Tick uint64 `json:"tick,omitempty"`
	Data any    `json:"data,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans messages out to every connected viewer. Viewers are read-only;
// anything they send is discarded.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*client]struct{}
	closed    bool
	queueSize int
	upgrader  websocket.Upgrader
	dropped   atomic.Uint64
	sent      atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*client]struct{}),
		queueSize: defaultQueueSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "feed closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Feed upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, h.queueSize)}
	if !h.add(c) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"))
		_ = conn.Close()
		return
	}
	slog.Info("Feed viewer connected", "remote", r.RemoteAddr)

	go h.writeLoop(c)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	slog.Info("Feed viewer disconnected", "remote", r.RemoteAddr)
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
		h.sent.Add(1)
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Broadcast encodes msg once and queues it for every viewer. A viewer whose
// queue is full misses the frame.
func (h *Hub) Broadcast(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msg.Type, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// Attach forwards every controller event published on bus.
func (h *Hub) Attach(bus *event.Bus) {
	bus.SubscribeMany(event.ControllerEvents, func(name string, evt any) {
		msg := Message{Type: TypeEvent, Name: name, Data: evt}
		if st, ok := evt.(event.StateEvent); ok {
			msg = Message{Type: TypeState, Name: st.Source, Tick: st.Tick, Data: st.State}
		}
		if err := h.Broadcast(msg); err != nil {
			slog.Warn("Feed broadcast failed", "event", name, "error", err)
		}
	})
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped counts frames skipped because a viewer fell behind.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

func (h *Hub) Sent() uint64 { return h.sent.Load() }

// Close disconnects every viewer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// Serve listens on addr and serves the hub at /ws until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("feed listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	slog.Info("Feed listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()
		h.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
		<-errCh
		slog.Info("Feed stopped")
		return nil
	case err := <-errCh:
		h.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("feed serve: %w", err)
	}
}
