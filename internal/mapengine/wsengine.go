package mapengine

import (
	"sync"
	"time"

	"github.com/shenikar/crime_alerting_system/internal/ws"
	"github.com/sirupsen/logrus"
)

// command - сообщение карте на стороне дашборда
type command struct {
	Op          string         `json:"op"`
	Key         string         `json:"key,omitempty"`
	Coordinates *Coordinates   `json:"coordinates,omitempty"`
	Content     *MarkerContent `json:"content,omitempty"`
	FlyTo       *FlyToOptions  `json:"fly_to,omitempty"`
	LayerID     string         `json:"layer_id,omitempty"`
	LayerKind   string         `json:"layer_kind,omitempty"`
	Payload     any            `json:"payload,omitempty"`
	Cue         string         `json:"cue,omitempty"`
}

// WSEngine - боевая реализация MapEngine поверх WebSocket-хаба.
// Сам рендеринг выполняет браузер дашборда, сюда приходят только команды.
type WSEngine struct {
	hub    *ws.Hub
	logger *logrus.Logger
}

func NewWSEngine(hub *ws.Hub, logger *logrus.Logger) *WSEngine {
	return &WSEngine{hub: hub, logger: logger}
}

// AddMarker отправляет команду создания маркера.
// Если дашборды не подключены, маркер считается не созданным.
func (e *WSEngine) AddMarker(key string, coords Coordinates, content MarkerContent) (MarkerRef, error) {
	if e.hub.ClientCount() == 0 {
		return MarkerRef{}, ErrEngineNotReady
	}
	cmd := command{Op: "add_marker", Key: key, Coordinates: &coords, Content: &content}
	if err := e.hub.Broadcast(cmd); err != nil {
		return MarkerRef{}, err
	}
	return MarkerRef{Key: key}, nil
}

// RemoveMarker отправляет команду удаления маркера. Идемпотентна:
// удаление несуществующего маркера дашборд игнорирует.
func (e *WSEngine) RemoveMarker(ref MarkerRef) {
	if ref.Key == "" {
		return
	}
	if err := e.hub.Broadcast(command{Op: "remove_marker", Key: ref.Key}); err != nil {
		e.logger.WithError(err).Warn("Failed to broadcast remove_marker command")
	}
}

// FlyTo отправляет команду перелёта камеры
func (e *WSEngine) FlyTo(coords Coordinates, opts FlyToOptions) {
	cmd := command{Op: "fly_to", Coordinates: &coords, FlyTo: &opts}
	if err := e.hub.Broadcast(cmd); err != nil {
		e.logger.WithError(err).Warn("Failed to broadcast fly_to command")
	}
}

// AddLayer отправляет команду добавления слоя (линия, хитмэп)
func (e *WSEngine) AddLayer(id string, kind string, payload any) error {
	if e.hub.ClientCount() == 0 {
		return ErrEngineNotReady
	}
	return e.hub.Broadcast(command{Op: "add_layer", LayerID: id, LayerKind: kind, Payload: payload})
}

// RemoveLayer отправляет команду удаления слоя
func (e *WSEngine) RemoveLayer(id string) {
	if err := e.hub.Broadcast(command{Op: "remove_layer", LayerID: id}); err != nil {
		e.logger.WithError(err).Warn("Failed to broadcast remove_layer command")
	}
}

// WSAudio - реализация AudioPlayer поверх того же хаба.
// Повторный запуск того же сигнала, пока он ещё звучит, подавляется.
type WSAudio struct {
	hub         *ws.Hub
	logger      *logrus.Logger
	cueDuration time.Duration

	mu           sync.Mutex
	playingUntil map[string]time.Time
	now          func() time.Time
}

func NewWSAudio(hub *ws.Hub, logger *logrus.Logger, cueDuration time.Duration) *WSAudio {
	return &WSAudio{
		hub:          hub,
		logger:       logger,
		cueDuration:  cueDuration,
		playingUntil: make(map[string]time.Time),
		now:          time.Now,
	}
}

// PlayCue запускает звуковой сигнал на дашборде
func (a *WSAudio) PlayCue(cue string) error {
	a.mu.Lock()
	now := a.now()
	if until, ok := a.playingUntil[cue]; ok && now.Before(until) {
		a.mu.Unlock()
		a.logger.WithField("cue", cue).Debug("Cue already playing, skipping overlapping start")
		return nil
	}
	a.playingUntil[cue] = now.Add(a.cueDuration)
	a.mu.Unlock()

	return a.hub.Broadcast(command{Op: "play_cue", Cue: cue})
}
