package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Handler consumes what clients send. Disconnect is called exactly once per
// registered client.
type Handler interface {
	Dispatch(ctx context.Context, conn string, env Envelope)
	Disconnect(conn string)
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	handler    Handler
	upgrader   websocket.Upgrader
	log        *slog.Logger
	done       chan struct{}
}

type Client struct {
	hub    *Hub
	id     string
	socket *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub builds a hub. allowedOrigin "*" or "" accepts any origin.
func NewHub(allowedOrigin string, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

// Attach sets the handler for inbound traffic. Call before Run.
func (h *Hub) Attach(handler Handler) { h.handler = handler }

// Run owns client registration until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.send)
				client.cancel()
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.id] = client
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("client registered", "conn", client.id, "clients", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			_, ok := h.clients[client.id]
			if ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			if !ok {
				continue
			}
			client.cancel()
			h.log.Debug("client unregistered", "conn", client.id, "clients", total)
			if h.handler != nil {
				h.handler.Disconnect(client.id)
			}
		}
	}
}

// Send queues msg for conn. A client whose buffer is full is dropped.
func (h *Hub) Send(conn string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("error marshaling message", "type", msg.Type, "error", err)
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	client, ok := h.clients[conn]
	if !ok {
		return
	}
	select {
	case client.send <- data:
	default:
		h.log.Warn("client send buffer full, closing connection", "conn", conn)
		go h.drop(client)
	}
}

// Len reports the number of registered clients.
func (h *Hub) Len() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ServeWS upgrades the request and starts the client's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	h.RegisterClient(conn)
}

func (h *Hub) RegisterClient(conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		hub:    h,
		id:     uuid.NewString(),
		socket: conn,
		send:   make(chan []byte, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}

	select {
	case h.register <- client:
	case <-h.done:
		cancel()
		conn.Close()
		return client
	}

	go client.writePump()
	go client.readPump()
	return client
}

func (c *Client) ID() string { return c.id }

func (c *Client) readPump() {
	defer func() {
		c.hub.drop(c)
		c.socket.Close()
	}()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read error", "conn", c.id, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.hub.log.Debug("error unmarshaling message", "conn", c.id, "error", err)
			c.hub.Send(c.id, Message{Type: EventError, Payload: ErrorPayload{Message: "Invalid message"}})
			continue
		}
		if c.hub.handler != nil {
			c.hub.handler.Dispatch(c.ctx, c.id, env)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.socket.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
