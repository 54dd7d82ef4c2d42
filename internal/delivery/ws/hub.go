package ws

import (
	"context"
	"log"
	"sync"
)

// Hub owns the set of live clients and delivers routed events to their
// send queues. It is the production Dispatcher; the Router decides who
// gets what, the Hub only moves bytes.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	router  *Router
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// SetRouter wires the router after construction; the router needs the
// hub as its dispatcher, so the two are tied together in two steps
func (h *Hub) SetRouter(r *Router) {
	h.router = r
}

// Register adds a freshly upgraded connection. The connection starts
// unjoined; identity and room come later from its join-room event.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	h.router.Connect(c.ID)
	log.Printf("Client %s connected", c.ID)
}

// Unregister tears a connection down: session cleanup first so
// user-left notices still find the remaining members, then the send
// channel is closed to stop the write pump.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	// Prevent double unregister
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	h.mu.Unlock()

	h.router.Disconnect(context.Background(), c.ID)
	close(c.send)
	log.Printf("Client %s disconnected", c.ID)
}

// Deliver fans routed events out to their target connections. Sends
// are non-blocking; a client whose buffer is full misses the event
// rather than stalling the whole room.
func (h *Hub) Deliver(outs []Outbound) {
	if len(outs) == 0 {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, out := range outs {
		for _, id := range out.Targets {
			c, ok := h.clients[id]
			if !ok {
				continue
			}
			select {
			case c.send <- out.Data:
			default:
				log.Printf("Client %s send buffer full, dropping event", id)
			}
		}
	}
}

// ClientCount returns the number of live connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
