// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package websocket

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/metrics"
)

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Client-initiated message types. Server-pushed messages use the event
// topic as their type.
const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

// Message is the frame written to clients.
type Message struct {
	Type     string      `json:"type"`
	TenantID string      `json:"-"`
	Data     interface{} `json:"data"`
}

// Hub tracks connected clients and fans tenant-scoped messages out to them.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]bool
	broadcast chan Message
}

// NewHub creates a hub. Serve must run for broadcasts to be delivered.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]bool),
		broadcast: make(chan Message, 256),
	}
}

// Serve delivers broadcasts until ctx is cancelled, then disconnects every
// client.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case msg := <-h.broadcast:
			h.broadcastToClients(msg)
		}
	}
}

func (h *Hub) String() string { return "websocket-hub" }

// Upgrade switches the request to a websocket bound to tenantID and starts
// the client's pumps.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request, upgrader *websocket.Upgrader, tenantID, username string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		metrics.WSErrors.WithLabelValues("upgrade").Inc()
		return err
	}
	client := NewClient(h, conn, tenantID, username)
	h.register(client)
	client.Start()
	return nil
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Str("tenant_id", c.tenantID).Str("username", c.username).
		Int("total_clients", total).Msg("websocket client connected")
}

// unregister removes c and closes its send channel. Safe to call twice.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.WSConnections.Set(float64(total))
		logging.Info().Str("tenant_id", c.tenantID).Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// Broadcast queues a message for every client of tenantID. Messages are
// dropped when the queue is full.
func (h *Hub) Broadcast(tenantID, messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, TenantID: tenantID, Data: data}:
	default:
		metrics.WSErrors.WithLabelValues("dropped").Inc()
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// broadcastToClients sends msg to the tenant's clients in connection
// order. Clients whose buffers are full are disconnected.
func (h *Hub) broadcastToClients(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if c.tenantID == msg.TenantID {
			clients = append(clients, c)
		}
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	for _, c := range clients {
		select {
		case c.send <- msg:
			metrics.WSMessagesSent.WithLabelValues(msg.Type).Inc()
		default:
			metrics.WSErrors.WithLabelValues("slow_client").Inc()
			close(c.send)
			delete(h.clients, c)
		}
	}
	metrics.WSConnections.Set(float64(len(h.clients)))
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	count := h.ClientCount()
	h.closeAllClients()

	reason := ShutdownReasonContextCanceled
	if ctx.Err() == context.DeadlineExceeded {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.WSConnections.Set(0)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
