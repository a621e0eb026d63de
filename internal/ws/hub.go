package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Hub управляет WebSocket-подключениями дашбордов и рассылает им команды
type Hub struct {
	mu          sync.Mutex
	connections map[*websocket.Conn]bool
	logger      *logrus.Logger
}

// NewHub создает новый Hub
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		connections: make(map[*websocket.Conn]bool),
		logger:      logger,
	}
}

// Register добавляет подключение в пул
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[conn] = true
	h.logger.WithField("clients", len(h.connections)).Info("Dashboard client connected")
}

// Unregister убирает подключение из пула и закрывает его
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[conn]; ok {
		delete(h.connections, conn)
		conn.Close()
		h.logger.WithField("clients", len(h.connections)).Info("Dashboard client disconnected")
	}
}

// ClientCount возвращает количество подключённых дашбордов
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

// Broadcast отправляет JSON-сообщение всем подключённым дашбордам.
// Подключения с ошибкой записи убираются из пула.
func (h *Hub) Broadcast(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.connections {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.WithError(err).Warn("Failed to write to dashboard client, dropping connection")
			conn.Close()
			delete(h.connections, conn)
		}
	}
	return nil
}
