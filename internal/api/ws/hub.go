package ws

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/tasklift/tasklift/internal/server/middleware"
	redisstore "github.com/tasklift/tasklift/internal/store/redis"
)

// Hub serves WebSocket connections backed by the Redis event feed.
type Hub struct {
	feed *redisstore.Feed
}

// NewHub creates a new WebSocket hub.
func NewHub(feed *redisstore.Feed) *Hub {
	return &Hub{feed: feed}
}

// ServeWorkspace streams committed task events for a workspace. Subscribes
// to the Redis channel "events:<tenantID>:<workspaceID>" and forwards each
// payload to the client as a text message. The stream is best effort; the
// durable record is the event log.
func (h *Hub) ServeWorkspace(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant", http.StatusBadRequest)
		return
	}

	workspaceID := chi.URLParam(r, "workspaceID")
	if workspaceID == "" {
		http.Error(w, "missing workspace id", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	channel := redisstore.WorkspaceChannel(tenantID, workspaceID)

	messages, cleanup, err := h.feed.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
