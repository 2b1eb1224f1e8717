package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mantonx/mediacat/internal/events"
	"github.com/mantonx/mediacat/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from admin UIs on other origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamHandler pushes catalog events over a websocket. Optional ?types=
// parameters restrict the subscription.
func streamHandler(bus events.EventBus) gin.HandlerFunc {
	log := logger.Named("event-stream")

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		var filter events.EventFilter
		for _, t := range c.QueryArray("types") {
			filter.Types = append(filter.Types, events.EventType(t))
		}

		// The handler runs on the bus dispatch goroutine; hand events to the
		// writer through a buffered channel so a slow client cannot stall
		// dispatch.
		outbox := make(chan events.Event, 64)
		sub := bus.Subscribe(filter, func(e events.Event) {
			select {
			case outbox <- e:
			default:
				log.Debug("dropping event for slow stream client", "type", e.Type)
			}
		})
		defer bus.Unsubscribe(sub.ID)

		done := make(chan struct{})
		go func() {
			defer close(done)
			// Drain control frames and detect disconnect.
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case event := <-outbox:
				if err := conn.WriteJSON(event); err != nil {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			case <-done:
				return
			case <-c.Request.Context().Done():
				return
			}
		}
	}
}
