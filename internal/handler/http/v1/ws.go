package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Дашборд обслуживается с того же origin, проверка не нужна
	CheckOrigin: func(r *http.Request) bool { return true },
}

// snapshotMessage - начальное состояние, отправляемое дашборду при подключении
type snapshotMessage struct {
	Op       string                `json:"op"`
	Active   []*IncidentResponse   `json:"active"`
	Overlay  *OverlayResponse      `json:"overlay"`
	Timeline TimelineStateResponse `json:"timeline"`
}

// @Summary Dashboard WebSocket
// @Description Upgrade to WebSocket. The server pushes map commands (markers, camera, layers), audio cues, overlay and timeline updates. Requires API key.
// @Tags System
// @Security ApiKeyAuth
// @Success 101 "Switching Protocols"
// @Router /ws/dashboard [get]
func (h *Handler) dashboardWS(c *gin.Context) {
	log := h.logger.WithField("method", "dashboardWS")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to upgrade dashboard connection")
		return
	}

	h.hub.Register(conn)

	// Свежеподключённый дашборд получает полный снапшот, дальше - только diff'ы
	snapshot := snapshotMessage{
		Op:       "snapshot",
		Active:   ModelsToIncidentResponses(h.incidentService.ActiveIncidents()),
		Overlay:  OverlayToResponse(h.incidentService.OverlayState()),
		Timeline: h.timelineResponse(h.timeline.Snapshot()),
	}
	if err := conn.WriteJSON(snapshot); err != nil {
		log.WithError(err).Warn("Failed to send initial snapshot")
		h.hub.Unregister(conn)
		return
	}

	// Входящих сообщений от дашборда нет; читаем только чтобы заметить закрытие
	go func() {
		defer h.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
