package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"evgrid/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHandler upgrades HTTP connections and attaches them to the event hub.
type WSHandler struct {
	hub    *ws.Hub
	logger *zap.Logger
}

// NewWSHandler builds handler.
func NewWSHandler(hub *ws.Hub, logger *zap.Logger) *WSHandler {
	return &WSHandler{hub: hub, logger: logger}
}

// HandleConnect handles GET /ws?topics=station/1/slots,user/2/bookings.
func (h *WSHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("topics")
	topics := make([]string, 0, 4)
	for _, topic := range strings.Split(raw, ",") {
		topic = strings.TrimSpace(topic)
		if topic != "" {
			topics = append(topics, topic)
		}
	}
	if len(topics) == 0 {
		writeError(w, http.StatusBadRequest, "at least one topic is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := ws.NewClient(conn, h.logger)
	h.hub.Subscribe(client, topics)
	h.logger.Info("websocket client connected",
		zap.String("client_id", client.ID()),
		zap.Strings("topics", topics))

	client.Start(r.Context(), func(c *ws.Client) {
		h.hub.Unsubscribe(c)
		h.logger.Info("websocket client disconnected", zap.String("client_id", c.ID()))
	})
}
