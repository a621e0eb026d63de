package alert

import (
	"sync"
	"time"

	"github.com/shenikar/crime_alerting_system/internal/mapengine"
	"github.com/shenikar/crime_alerting_system/internal/models"
	"github.com/sirupsen/logrus"
)

// CameraDirector направляет камеру карты на новые инциденты.
// Вызывается только для самого свежего инцидента пакета (гарантия
// сортировки Store), чтобы камера не металась между одновременными
// активациями. Новый запрос немедленно вытесняет ещё летящий старый
// (cancel-and-replace, без очереди).
type CameraDirector struct {
	engine   mapengine.MapEngine
	logger   *logrus.Logger
	zoom     float64
	pitch    float64
	duration time.Duration
	now      func() time.Time

	mu             sync.Mutex
	animatingUntil time.Time
	flights        uint64
}

// NewCameraDirector создает CameraDirector
func NewCameraDirector(engine mapengine.MapEngine, logger *logrus.Logger, zoom, pitch float64, duration time.Duration) *CameraDirector {
	return &CameraDirector{
		engine:   engine,
		logger:   logger,
		zoom:     zoom,
		pitch:    pitch,
		duration: duration,
		now:      time.Now,
	}
}

// OnActivated запрашивает перелёт камеры к координатам инцидента
func (d *CameraDirector) OnActivated(inc *models.Incident) {
	if inc == nil {
		return
	}

	d.mu.Lock()
	now := d.now()
	superseded := now.Before(d.animatingUntil)
	d.animatingUntil = now.Add(d.duration)
	d.flights++
	flight := d.flights
	d.mu.Unlock()

	log := d.logger.WithFields(logrus.Fields{
		"incident_id": inc.ID,
		"flight":      flight,
	})
	if superseded {
		log.Debug("Superseding in-flight camera move")
	}

	d.engine.FlyTo(
		mapengine.Coordinates{Longitude: inc.Longitude, Latitude: inc.Latitude},
		mapengine.FlyToOptions{
			Zoom:       d.zoom,
			Bearing:    0,
			Pitch:      d.pitch,
			DurationMs: d.duration.Milliseconds(),
		},
	)
	log.Info("Camera fly-to requested")
}

// Flights возвращает количество выполненных запросов перелёта
func (d *CameraDirector) Flights() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flights
}
