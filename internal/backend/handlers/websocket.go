package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// CheckEventsWebSocket streams check change events. The optional check_id
// query parameter narrows the stream to one check.
func (h *Handlers) CheckEventsWebSocket(c *gin.Context) {
	checkID := c.Query("check_id")

	sub, err := h.checkService.Subscribe(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse("subscribe_failed", "Event stream unavailable"))
		return
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the client.
		h.logger.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	h.logger.Info("websocket connected for check events", "check_id", checkID)

	if err := conn.WriteJSON(SuccessResponse("connected", gin.H{"check_id": checkID})); err != nil {
		return
	}

	// The client only ever closes; reading surfaces that.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.logger.Debug("websocket disconnected", "check_id", checkID, "error", err)
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if checkID != "" && event.CheckID != checkID {
				continue
			}
			if err := conn.WriteJSON(SuccessResponse("check_event", event)); err != nil {
				h.logger.Debug("websocket write error", "check_id", checkID, "error", err)
				return
			}
		}
	}
}
