package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"evgrid/internal/models"
)

// Hub fans events out to subscribed clients by topic. Publishing is
// fire-and-forget: a slow or gone client never blocks the publisher.
type Hub struct {
	mu           sync.RWMutex
	topics       map[string]map[*Client]struct{}
	logger       *zap.Logger
	pingInterval time.Duration
}

// NewHub builds the relay hub.
func NewHub(pingInterval time.Duration, logger *zap.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		topics:       make(map[string]map[*Client]struct{}),
		logger:       logger,
		pingInterval: pingInterval,
	}
}

// Subscribe registers a client for the given topics.
func (h *Hub) Subscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range topics {
		subscribers, ok := h.topics[topic]
		if !ok {
			subscribers = make(map[*Client]struct{})
			h.topics[topic] = subscribers
		}
		subscribers[client] = struct{}{}
	}
}

// Unsubscribe removes a client from every topic.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, subscribers := range h.topics {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Publish sends a payload to every subscriber of the topic. Clients whose send
// buffer is full miss the event; at-most-once is acceptable here.
func (h *Hub) Publish(topic string, payload interface{}) {
	envelope := struct {
		Topic string      `json:"topic"`
		Data  interface{} `json:"data"`
	}{Topic: topic, Data: payload}

	data, err := json.Marshal(envelope)
	if err != nil {
		h.logger.Warn("failed to encode ws event", zap.String("topic", topic), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.topics[topic] {
		client.TrySend(data)
	}
}

// Run keeps connections alive with periodic pings until the context ends.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.pingAll()
		}
	}
}

func (h *Hub) pingAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[*Client]struct{})
	for _, subscribers := range h.topics {
		for client := range subscribers {
			if _, ok := seen[client]; ok {
				continue
			}
			seen[client] = struct{}{}
			_ = client.Ping()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, subscribers := range h.topics {
		for client := range subscribers {
			client.Close()
		}
	}
	h.topics = make(map[string]map[*Client]struct{})
}

// SlotTopic is the per-station slot update channel.
func SlotTopic(stationID int64) string {
	return fmt.Sprintf("station/%d/slots", stationID)
}

// BookingTopic is the per-user booking update channel.
func BookingTopic(userID int64) string {
	return fmt.Sprintf("user/%d/bookings", userID)
}

// NotifySlotStatusChange implements the service notifier contract.
func (h *Hub) NotifySlotStatusChange(stationID int64, slot *models.ChargerSlot) {
	h.Publish(SlotTopic(stationID), slot)
}

// NotifyUserBookingUpdate implements the service notifier contract.
func (h *Hub) NotifyUserBookingUpdate(userID int64, booking *models.Booking) {
	h.Publish(BookingTopic(userID), booking)
}
