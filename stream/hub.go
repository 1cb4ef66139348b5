// Package stream broadcasts simulation frames to websocket clients.
package stream

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	queueSize  = 16
	enqueueMax = 100 * time.Millisecond
)

// ErrQueueFull is returned by Publish when the broadcast queue stays full.
var ErrQueueFull = errors.New("stream: frame queue full")

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("stream: hub closed")

// Hub fans frames out to every connected websocket client. Registration,
// unregistration and broadcast are serialized on a single goroutine.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool

	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// NewHub creates a hub and starts its broadcast goroutine.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	h := &Hub{
		log:        log,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, queueSize),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		// A nil CheckOrigin rejects cross-origin browser requests.
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
		},
	}

	h.wg.Add(1)
	go h.run()
	return h
}

// ServeHTTP upgrades the request to a websocket and registers the client.
// The client is unregistered when its connection fails or it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	// Drain client messages; a read error means the client is gone.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				select {
				case h.unregister <- conn:
				case <-h.done:
				}
				return
			}
		}
	}()
}

// Publish encodes f and queues it for broadcast. It waits briefly for queue
// space and then drops the frame with ErrQueueFull.
func (h *Hub) Publish(ctx context.Context, f Frame) error {
	select {
	case <-h.done:
		return ErrClosed
	default:
	}

	data, err := f.JSON()
	if err != nil {
		return err
	}

	timer := time.NewTimer(enqueueMax)
	defer timer.Stop()
	select {
	case h.broadcast <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrClosed
	case <-timer.C:
		return ErrQueueFull
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Info("stream client connected", "remote", conn.RemoteAddr().String(), "clients", n)

		case conn := <-h.unregister:
			h.drop(conn)

		case data := <-h.broadcast:
			h.mu.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				conns = append(conns, conn)
			}
			h.mu.RUnlock()

			for _, conn := range conns {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					h.log.Debug("stream write failed", "remote", conn.RemoteAddr().String(), "error", err)
					h.drop(conn)
				}
			}
		}
	}
}

// drop closes and forgets conn if it is still registered.
func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.log.Info("stream client disconnected", "remote", conn.RemoteAddr().String(), "clients", n)
	}
}

// Close disconnects every client and stops the broadcast goroutine. It is
// safe to call more than once.
func (h *Hub) Close() error {
	h.closeOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		h.mu.Lock()
		for conn := range h.clients {
			conn.Close()
			delete(h.clients, conn)
		}
		h.mu.Unlock()
	})
	return nil
}
