package ws

import (
	"context"
	"sync"

	"go-trading-post/internal/events"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Client is the part of a websocket connection the hub needs.
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Hub struct {
	Clients    map[Client]bool
	Broadcast  chan []byte
	register   chan Client
	unregister chan Client
	done       chan struct{}
	mutex      sync.Mutex
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		Clients:    make(map[Client]bool),
		Broadcast:  make(chan []byte, 64),
		register:   make(chan Client),
		unregister: make(chan Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves the register, unregister and broadcast channels until ctx is done.
// Once it returns, Register and Unregister stop blocking.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.Clients {
				conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.register:
			h.mutex.Lock()
			h.Clients[conn] = true
			count := len(h.Clients)
			h.mutex.Unlock()
			h.logger.Debug("ws client connected", zap.Int("clients", count))

		case conn := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register adds a client. A hub that has stopped closes the client instead.
func (h *Hub) Register(conn Client) {
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
	}
}

// Unregister removes and closes a client. It returns at once if the hub has stopped.
func (h *Hub) Unregister(conn Client) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Done is closed when Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Publish queues the event for every connected client. It never blocks the
// caller: a full queue drops the event.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	msg, err := event.Marshal()
	if err != nil {
		return err
	}
	select {
	case h.Broadcast <- msg:
	case <-ctx.Done():
		return ctx.Err()
	default:
		h.logger.Warn("ws broadcast queue full, dropping event", zap.String("action", event.Action))
	}
	return nil
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}
