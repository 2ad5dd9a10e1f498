package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/yourorg/libralend/internal/service"
)

// ActivityHandler streams lending events over a websocket for operator
// dashboards. It is a firehose of completed operations, not a member
// notification channel.
type ActivityHandler struct {
	feed           *service.ActivityFeed
	logger         *slog.Logger
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewActivityHandler creates a new activity stream handler
func NewActivityHandler(feed *service.ActivityFeed, logger *slog.Logger, allowedOrigins []string) *ActivityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &ActivityHandler{feed: feed, logger: logger, allowedOrigins: allowedOrigins}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.originAllowed,
	}
	return h
}

// ServeHTTP handles GET /ws/activity
func (h *ActivityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	events := h.feed.Subscribe()
	defer h.feed.Unsubscribe(events)

	// Drain client frames so close messages are processed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("activity client gone", slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (h *ActivityHandler) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
