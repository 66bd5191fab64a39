package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/notification"
	"github.com/ikkim/configurator-backend/pkg/logger"
)

// ClientMessage is a control message sent by a dashboard session.
// "filter" limits the statuses the session receives; an empty list means all.
// A list with no known status is ignored.
type ClientMessage struct {
	Type     string            `json:"type"`
	Statuses []model.RFQStatus `json:"statuses,omitempty"`
}

// Client is one connected staff dashboard session.
type Client struct {
	Hub           *Hub
	Conn          *Conn
	StaffID       uint
	Send          chan []byte
	statuses      map[model.RFQStatus]bool
	mu            sync.RWMutex
	MessageCount  int
	LastResetTime time.Time
	RateMu        sync.Mutex
}

func NewClient(hub *Hub, conn *Conn, staffID uint) *Client {
	return &Client{
		Hub:     hub,
		Conn:    conn,
		StaffID: staffID,
		Send:    make(chan []byte, 256),
	}
}

func (c *Client) wants(status model.RFQStatus) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.statuses) == 0 || c.statuses[status]
}

// RFQEventMessage is the JSON pushed to dashboards for each RFQ event.
type RFQEventMessage struct {
	Type         string          `json:"type"`
	RFQID        uint            `json:"rfq_id"`
	ProductName  string          `json:"product_name"`
	CustomerName string          `json:"customer_name"`
	OldStatus    model.RFQStatus `json:"old_status,omitempty"`
	Status       model.RFQStatus `json:"status"`
	GrandTotal   string          `json:"grand_total"`
	Version      int             `json:"version"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

type broadcastMessage struct {
	status  model.RFQStatus
	payload []byte
}

// Hub tracks staff dashboard sessions and pushes RFQ events to them.
type Hub struct {
	// StaffID -> sessions (one staff member may have several tabs open)
	clients map[uint][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMessage

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan broadcastMessage, 1024),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.StaffID] = append(h.clients[client.StaffID], client)
			sessions := len(h.clients[client.StaffID])
			h.mu.Unlock()
			logger.Info("Dashboard client registered", map[string]interface{}{
				"staff_id":       client.StaffID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var stuck []*Client
			for _, sessions := range h.clients {
				for _, client := range sessions {
					if !client.wants(msg.status) {
						continue
					}
					select {
					case client.Send <- msg.payload:
					default:
						stuck = append(stuck, client)
					}
				}
			}
			h.mu.RUnlock()

			for _, client := range stuck {
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"staff_id": client.StaffID,
				})
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.clients[client.StaffID]
	if !ok {
		return
	}
	remaining := make([]*Client, 0, len(sessions))
	found := false
	for _, c := range sessions {
		if c == client {
			found = true
			continue
		}
		remaining = append(remaining, c)
	}
	if !found {
		return
	}
	if len(remaining) == 0 {
		delete(h.clients, client.StaffID)
	} else {
		h.clients[client.StaffID] = remaining
	}
	close(client.Send)

	logger.Info("Dashboard client unregistered", map[string]interface{}{
		"staff_id":           client.StaffID,
		"remaining_sessions": len(remaining),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sessions := range h.clients {
		for _, c := range sessions {
			close(c.Send)
		}
		delete(h.clients, id)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SessionCount returns the number of connected dashboard sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, sessions := range h.clients {
		n += len(sessions)
	}
	return n
}

// Notify queues an RFQ event for every interested session. A full queue
// drops the event rather than blocking the caller.
func (h *Hub) Notify(ctx context.Context, event notification.Event) error {
	data, err := json.Marshal(RFQEventMessage{
		Type:         "rfq." + string(event.Type),
		RFQID:        event.RFQ.ID,
		ProductName:  event.RFQ.ProductName,
		CustomerName: event.RFQ.Customer.Name,
		OldStatus:    event.OldStatus,
		Status:       event.NewStatus,
		GrandTotal:   event.RFQ.Pricing.GrandTotal.StringFixed(2),
		Version:      event.RFQ.Version,
		OccurredAt:   event.OccurredAt,
	})
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- broadcastMessage{status: event.NewStatus, payload: data}:
	default:
		logger.Warn("Broadcast channel full, dashboard event dropped", map[string]interface{}{
			"rfq_id": event.RFQ.ID,
		})
	}
	return nil
}

// HandleClientMessage applies a control message from a session.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"staff_id": client.StaffID,
			"count":    count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"staff_id": client.StaffID,
			"error":    err.Error(),
		})
		return
	}

	if msg.Type != "filter" {
		return
	}

	filter := make(map[model.RFQStatus]bool, len(msg.Statuses))
	for _, s := range msg.Statuses {
		if s.Valid() {
			filter[s] = true
		}
	}
	if len(msg.Statuses) > 0 && len(filter) == 0 {
		logger.Warn("Filter names no known status, keeping previous filter", map[string]interface{}{
			"staff_id": client.StaffID,
			"statuses": msg.Statuses,
		})
		return
	}
	client.mu.Lock()
	client.statuses = filter
	client.mu.Unlock()
}
