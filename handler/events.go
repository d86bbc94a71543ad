package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"audio-ingest/dto"
	"audio-ingest/pkg/events"
)

// ConsumerDependencies is what the change-event consumer hands each
// delivery handler.
type ConsumerDependencies struct {
	Hub *events.Hub
}

// ChangeEventHandler feeds bus deliveries into the in-process hub.
func ChangeEventHandler(ctx context.Context, msg amqp.Delivery, deps ConsumerDependencies) error {
	var event dto.ChangeEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal change event")
		return err
	}

	deps.Hub.Broadcast(event)
	return nil
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Events handles GET /recordings/events: upgrades to a websocket and
// relays change events until the client goes away. Events carry op and
// record id, so clients can patch their list incrementally and only
// full-reload after a reconnect.
func (h *Handler) Events(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch, cancel := h.hub.Subscribe()
	defer cancel()

	// Drain client frames so close is noticed; cancel ends the write loop.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for event := range ch {
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}
