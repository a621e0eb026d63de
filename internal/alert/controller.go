package alert

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/crime_alerting_system/internal/mapengine"
	"github.com/shenikar/crime_alerting_system/internal/models"
	"github.com/sirupsen/logrus"
)

// CueKlaxon - звуковой сигнал полноэкранной тревоги
const CueKlaxon = "klaxon"

// State - состояние контроллера тревог
type State int

const (
	// StateIdle - активных инцидентов нет
	StateIdle State = iota
	// StateAlerting - есть активные инциденты, оверлей показан
	StateAlerting
	// StateQuiesced - активные инциденты есть, но оверлей погашен таймером;
	// маркеры остаются на карте
	StateQuiesced
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAlerting:
		return "alerting"
	case StateQuiesced:
		return "quiesced"
	}
	return "unknown"
}

// Overlay - единственный на всю систему полноэкранный оверлей тревоги.
// Visible=true означает, что CurrentIncidentID был членом активного набора
// в момент показа; последующее разрешение инцидента оверлей не гасит -
// гашение только по таймеру (или при опустении набора).
type Overlay struct {
	Visible           bool      `json:"visible"`
	CurrentIncidentID uuid.UUID `json:"current_incident_id"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// Controller - контроллер жизненного цикла тревог: владеет маркерами
// активных инцидентов, единственным оверлеем и его таймером автогашения.
// Единственный писатель маркеров инцидентов на внешней карте.
type Controller struct {
	engine       mapengine.MapEngine
	audio        mapengine.AudioPlayer
	camera       *CameraDirector
	logger       *logrus.Logger
	dismissAfter time.Duration
	now          func() time.Time

	mu      sync.Mutex
	state   State
	markers map[uuid.UUID]*MarkerHandle
	// failed - инциденты, для которых создание маркера не удалось;
	// повторная попытка только после resolve + reactivate
	failed  map[uuid.UUID]bool
	overlay Overlay
	// generation - эпоха оверлея: устаревший таймер узнаёт себя по
	// несовпадению захваченного поколения с текущим
	generation   uint64
	dismissTimer *time.Timer
	closed       bool

	onOverlayChange func(Overlay)
}

// NewController создает контроллер тревог
func NewController(engine mapengine.MapEngine, audio mapengine.AudioPlayer, camera *CameraDirector, logger *logrus.Logger, dismissAfter time.Duration) *Controller {
	return &Controller{
		engine:       engine,
		audio:        audio,
		camera:       camera,
		logger:       logger,
		dismissAfter: dismissAfter,
		now:          time.Now,
		state:        StateIdle,
		markers:      make(map[uuid.UUID]*MarkerHandle),
		failed:       make(map[uuid.UUID]bool),
	}
}

// SetOnOverlayChange задает колбэк на каждое изменение оверлея
func (c *Controller) SetOnOverlayChange(fn func(Overlay)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onOverlayChange = fn
}

// Apply применяет результат диффа Store к карте и оверлею.
// activated отсортированы по CreatedAt asc (гарантия Store),
// поэтому камера и оверлей получают последний элемент как самый свежий.
func (c *Controller) Apply(activated, resolved []*models.Incident) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	for _, inc := range resolved {
		c.dropMarkerLocked(inc.ID)
	}

	for _, inc := range activated {
		c.createMarkerLocked(inc)
	}

	var overlayChanged bool
	if len(activated) > 0 {
		newest := activated[len(activated)-1]
		c.showOverlayLocked(newest)
		overlayChanged = true
	} else if len(resolved) > 0 && len(c.markers) == 0 && !c.anyActiveLeftLocked() {
		// Разрешился последний инцидент: принудительно в Idle,
		// оверлей гасим независимо от таймера.
		c.forceIdleLocked()
		overlayChanged = true
	}

	overlay := c.overlay
	notify := c.onOverlayChange
	c.mu.Unlock()

	if len(activated) > 0 {
		newest := activated[len(activated)-1]
		if err := c.audio.PlayCue(CueKlaxon); err != nil {
			c.logger.WithError(err).Warn("Failed to play alert cue")
		}
		if c.camera != nil {
			c.camera.OnActivated(newest)
		}
	}
	if overlayChanged && notify != nil {
		notify(overlay)
	}
}

// anyActiveLeftLocked: маркеров нет, но инцидент мог остаться активным
// с неудавшимся маркером - тогда набор ещё не пуст.
func (c *Controller) anyActiveLeftLocked() bool {
	return len(c.failed) > 0
}

// createMarkerLocked создает маркер для инцидента. На один id живёт не больше
// одного хэндла: повторная активация того же id - no-op.
func (c *Controller) createMarkerLocked(inc *models.Incident) {
	if _, ok := c.markers[inc.ID]; ok {
		return
	}
	if c.failed[inc.ID] {
		return
	}

	ref, err := c.engine.AddMarker(
		markerKey(inc.ID),
		mapengine.Coordinates{Longitude: inc.Longitude, Latitude: inc.Latitude},
		mapengine.MarkerContent{Title: inc.Category, Subtitle: inc.Address, Priority: inc.Priority},
	)
	if err != nil {
		// Инцидент всё равно попадает в оверлей: оператор должен быть
		// предупреждён, даже если карта не прогрузилась.
		c.logger.WithError(err).WithField("incident_id", inc.ID).Warn("Failed to create marker on map engine")
		c.failed[inc.ID] = true
		return
	}

	c.markers[inc.ID] = newMarkerHandle(inc.ID, ref, c.engine.RemoveMarker)
}

func (c *Controller) dropMarkerLocked(id uuid.UUID) {
	delete(c.failed, id)
	if h, ok := c.markers[id]; ok {
		delete(c.markers, id)
		h.Release()
	}
}

// showOverlayLocked показывает оверлей для самого свежего инцидента.
// Последний писатель выигрывает: текущий инцидент заменяется, таймер
// автогашения перезапускается, очереди показа нет.
func (c *Controller) showOverlayLocked(inc *models.Incident) {
	c.generation++
	gen := c.generation

	if c.dismissTimer != nil {
		c.dismissTimer.Stop()
	}

	c.state = StateAlerting
	c.overlay = Overlay{
		Visible:           true,
		CurrentIncidentID: inc.ID,
		ExpiresAt:         c.now().Add(c.dismissAfter),
	}
	c.dismissTimer = time.AfterFunc(c.dismissAfter, func() {
		c.expireOverlay(gen)
	})
}

// expireOverlay - срабатывание таймера автогашения. Таймер, переживший
// более свежую активацию или teardown, узнаёт себя по поколению и молчит.
func (c *Controller) expireOverlay(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.generation || c.state != StateAlerting {
		c.mu.Unlock()
		return
	}

	c.state = StateQuiesced
	c.overlay.Visible = false
	c.overlay.ExpiresAt = time.Time{}

	overlay := c.overlay
	notify := c.onOverlayChange
	c.mu.Unlock()

	c.logger.WithField("incident_id", overlay.CurrentIncidentID).Info("Alert overlay auto-dismissed")
	if notify != nil {
		notify(overlay)
	}
}

// Dismiss - явное гашение оверлея оператором
func (c *Controller) Dismiss() {
	c.mu.Lock()
	if c.closed || c.state != StateAlerting {
		c.mu.Unlock()
		return
	}
	c.generation++
	if c.dismissTimer != nil {
		c.dismissTimer.Stop()
		c.dismissTimer = nil
	}
	c.state = StateQuiesced
	c.overlay.Visible = false
	c.overlay.ExpiresAt = time.Time{}

	overlay := c.overlay
	notify := c.onOverlayChange
	c.mu.Unlock()

	if notify != nil {
		notify(overlay)
	}
}

func (c *Controller) forceIdleLocked() {
	c.generation++
	if c.dismissTimer != nil {
		c.dismissTimer.Stop()
		c.dismissTimer = nil
	}
	c.state = StateIdle
	c.overlay = Overlay{}
}

// ResolveAll освобождает все маркеры и принудительно переводит контроллер в Idle
func (c *Controller) ResolveAll() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	for id, h := range c.markers {
		delete(c.markers, id)
		h.Release()
	}
	c.failed = make(map[uuid.UUID]bool)
	c.forceIdleLocked()

	overlay := c.overlay
	notify := c.onOverlayChange
	c.mu.Unlock()

	c.logger.Info("All incidents resolved, alert controller is idle")
	if notify != nil {
		notify(overlay)
	}
}

// State возвращает текущее состояние контроллера
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Overlay возвращает снапшот состояния оверлея
func (c *Controller) Overlay() Overlay {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlay
}

// LiveMarkerCount возвращает число живых маркерных хэндлов
func (c *Controller) LiveMarkerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.markers)
}

// HasMarker проверяет наличие живого хэндла для инцидента
func (c *Controller) HasMarker(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.markers[id]
	return ok
}

// Close освобождает все ресурсы контроллера: маркеры, таймер, оверлей.
// Вызывается при остановке сервиса; повторный вызов безопасен.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.generation++
	if c.dismissTimer != nil {
		c.dismissTimer.Stop()
		c.dismissTimer = nil
	}
	for id, h := range c.markers {
		delete(c.markers, id)
		h.Release()
	}
	c.failed = make(map[uuid.UUID]bool)
	c.overlay = Overlay{}
	c.state = StateIdle
	c.mu.Unlock()

	c.logger.Info("Alert controller closed")
}

func markerKey(id uuid.UUID) string {
	return "incident:" + id.String()
}
