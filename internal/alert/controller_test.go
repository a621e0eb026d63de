package alert

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/crime_alerting_system/internal/mapengine"
	"github.com/shenikar/crime_alerting_system/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine - фейк карты для тестов: запоминает команды вместо отрисовки
type fakeEngine struct {
	mu       sync.Mutex
	failKeys map[string]bool
	markers  map[string]bool
	adds     int
	removes  int
	flyTos   []mapengine.Coordinates
	flyOpts  []mapengine.FlyToOptions
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		failKeys: make(map[string]bool),
		markers:  make(map[string]bool),
	}
}

func (e *fakeEngine) AddMarker(key string, coords mapengine.Coordinates, content mapengine.MarkerContent) (mapengine.MarkerRef, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failKeys[key] {
		return mapengine.MarkerRef{}, errors.New("engine offline")
	}
	e.adds++
	e.markers[key] = true
	return mapengine.MarkerRef{Key: key}, nil
}

func (e *fakeEngine) RemoveMarker(ref mapengine.MarkerRef) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removes++
	delete(e.markers, ref.Key)
}

func (e *fakeEngine) FlyTo(coords mapengine.Coordinates, opts mapengine.FlyToOptions) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flyTos = append(e.flyTos, coords)
	e.flyOpts = append(e.flyOpts, opts)
}

func (e *fakeEngine) AddLayer(id string, kind string, payload any) error { return nil }

func (e *fakeEngine) RemoveLayer(id string) {}

func (e *fakeEngine) markerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.markers)
}

func (e *fakeEngine) addCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.adds
}

func (e *fakeEngine) removeCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removes
}

func (e *fakeEngine) flights() []mapengine.Coordinates {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]mapengine.Coordinates, len(e.flyTos))
	copy(out, e.flyTos)
	return out
}

// fakeAudio - фейк аудиоплеера дашборда
type fakeAudio struct {
	mu   sync.Mutex
	cues []string
	err  error
}

func (a *fakeAudio) PlayCue(cue string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.cues = append(a.cues, cue)
	return nil
}

func (a *fakeAudio) played() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.cues))
	copy(out, a.cues)
	return out
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestController(t *testing.T, dismissAfter time.Duration) (*Controller, *fakeEngine, *fakeAudio) {
	t.Helper()
	engine := newFakeEngine()
	audio := &fakeAudio{}
	logger := newTestLogger()
	camera := NewCameraDirector(engine, logger, 15, 45, 200*time.Millisecond)
	ctrl := NewController(engine, audio, camera, logger, dismissAfter)
	t.Cleanup(ctrl.Close)
	return ctrl, engine, audio
}

func (c *Controller) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func TestControllerApply_ActivationLifecycle(t *testing.T) {
	// Подготовка
	ctrl, engine, audio := newTestController(t, time.Hour)
	base := time.Now()
	a := activeIncident("robbery", base.Add(-time.Hour))
	b := activeIncident("assault", base)

	// Действие: первая активация
	ctrl.Apply([]*models.Incident{a}, nil)

	// Проверки
	assert.Equal(t, StateAlerting, ctrl.State())
	assert.Equal(t, 1, ctrl.LiveMarkerCount())
	assert.True(t, ctrl.HasMarker(a.ID))
	overlay := ctrl.Overlay()
	assert.True(t, overlay.Visible)
	assert.Equal(t, a.ID, overlay.CurrentIncidentID)
	assert.Equal(t, []string{CueKlaxon}, audio.played())
	require.Len(t, engine.flights(), 1)

	// Действие: вторая активация вытесняет первую из оверлея
	ctrl.Apply([]*models.Incident{b}, nil)

	assert.Equal(t, StateAlerting, ctrl.State())
	assert.Equal(t, 2, ctrl.LiveMarkerCount())
	assert.Equal(t, b.ID, ctrl.Overlay().CurrentIncidentID)

	// Действие: разрешение первого инцидента оверлей не трогает
	ctrl.Apply(nil, []*models.Incident{a})

	assert.Equal(t, 1, ctrl.LiveMarkerCount())
	assert.False(t, ctrl.HasMarker(a.ID))
	assert.True(t, ctrl.Overlay().Visible)
	assert.Equal(t, b.ID, ctrl.Overlay().CurrentIncidentID)

	// Действие: разрешение последнего инцидента принудительно гасит всё
	ctrl.Apply(nil, []*models.Incident{b})

	assert.Equal(t, StateIdle, ctrl.State())
	assert.Equal(t, 0, ctrl.LiveMarkerCount())
	assert.False(t, ctrl.Overlay().Visible)
	assert.Equal(t, 0, engine.markerCount())
}

func TestControllerApply_NewestOfBatchOwnsOverlayAndCamera(t *testing.T) {
	// Подготовка
	ctrl, engine, audio := newTestController(t, time.Hour)
	base := time.Now()
	older := activeIncident("robbery", base.Add(-time.Hour))
	newest := activeIncident("assault", base)
	newest.Latitude = 59.93
	newest.Longitude = 30.33

	// Действие: пакетная активация (отсортирована по CreatedAt asc)
	ctrl.Apply([]*models.Incident{older, newest}, nil)

	// Проверки: оверлей и камера достаются самому свежему, сигнал один
	assert.Equal(t, 2, ctrl.LiveMarkerCount())
	assert.Equal(t, newest.ID, ctrl.Overlay().CurrentIncidentID)
	assert.Equal(t, []string{CueKlaxon}, audio.played())
	flights := engine.flights()
	require.Len(t, flights, 1)
	assert.Equal(t, newest.Longitude, flights[0].Longitude)
	assert.Equal(t, newest.Latitude, flights[0].Latitude)
}

func TestControllerApply_DuplicateActivationKeepsSingleMarker(t *testing.T) {
	// Подготовка
	ctrl, engine, _ := newTestController(t, time.Hour)
	a := activeIncident("robbery", time.Now())

	// Действие
	ctrl.Apply([]*models.Incident{a}, nil)
	ctrl.Apply([]*models.Incident{a}, nil)

	// Проверки: на один id живет не больше одного хэндла
	assert.Equal(t, 1, ctrl.LiveMarkerCount())
	assert.Equal(t, 1, engine.addCalls())
}

func TestControllerOverlay_AutoDismissByTimer(t *testing.T) {
	// Подготовка
	ctrl, _, _ := newTestController(t, 40*time.Millisecond)
	a := activeIncident("robbery", time.Now())

	// Действие
	ctrl.Apply([]*models.Incident{a}, nil)
	require.Equal(t, StateAlerting, ctrl.State())

	time.Sleep(150 * time.Millisecond)

	// Проверки: оверлей погашен, маркер остался
	assert.Equal(t, StateQuiesced, ctrl.State())
	assert.False(t, ctrl.Overlay().Visible)
	assert.Equal(t, 1, ctrl.LiveMarkerCount())
}

func TestControllerOverlay_StaleTimerDoesNotDismissFresherAlert(t *testing.T) {
	// Подготовка
	ctrl, _, _ := newTestController(t, 100*time.Millisecond)
	base := time.Now()
	a := activeIncident("robbery", base.Add(-time.Minute))
	b := activeIncident("assault", base)

	// Действие: вторая активация до срабатывания первого таймера
	ctrl.Apply([]*models.Incident{a}, nil)
	time.Sleep(50 * time.Millisecond)
	ctrl.Apply([]*models.Incident{b}, nil)

	// t ~ 125ms: таймер a уже отстрелялся как устаревший, таймер b еще жив
	time.Sleep(75 * time.Millisecond)
	assert.Equal(t, StateAlerting, ctrl.State())
	assert.True(t, ctrl.Overlay().Visible)
	assert.Equal(t, b.ID, ctrl.Overlay().CurrentIncidentID)

	// t ~ 250ms: таймер b погасил оверлей
	time.Sleep(125 * time.Millisecond)
	assert.Equal(t, StateQuiesced, ctrl.State())
	assert.False(t, ctrl.Overlay().Visible)
}

func TestControllerExpireOverlay_StaleGenerationIsNoop(t *testing.T) {
	// Подготовка
	ctrl, _, _ := newTestController(t, time.Hour)
	a := activeIncident("robbery", time.Now())
	ctrl.Apply([]*models.Incident{a}, nil)
	gen := ctrl.currentGeneration()

	// Действие: устаревшее поколение молчит
	ctrl.expireOverlay(gen + 1)
	ctrl.expireOverlay(gen - 1)

	assert.Equal(t, StateAlerting, ctrl.State())
	assert.True(t, ctrl.Overlay().Visible)

	// Действие: актуальное поколение гасит оверлей
	ctrl.expireOverlay(gen)

	assert.Equal(t, StateQuiesced, ctrl.State())
	assert.False(t, ctrl.Overlay().Visible)
}

func TestControllerDismiss(t *testing.T) {
	// Подготовка
	ctrl, _, _ := newTestController(t, time.Hour)
	a := activeIncident("robbery", time.Now())
	ctrl.Apply([]*models.Incident{a}, nil)
	gen := ctrl.currentGeneration()

	// Действие
	ctrl.Dismiss()

	// Проверки: оверлей погашен, маркер остался, старый таймер обезврежен
	assert.Equal(t, StateQuiesced, ctrl.State())
	assert.False(t, ctrl.Overlay().Visible)
	assert.Equal(t, 1, ctrl.LiveMarkerCount())
	ctrl.expireOverlay(gen)
	assert.Equal(t, StateQuiesced, ctrl.State())

	// Повторное гашение - no-op
	ctrl.Dismiss()
	assert.Equal(t, StateQuiesced, ctrl.State())
}

func TestControllerApply_MarkerFailureStillAlerts(t *testing.T) {
	// Подготовка: движок отказывает именно этому инциденту
	ctrl, engine, _ := newTestController(t, time.Hour)
	a := activeIncident("robbery", time.Now())
	engine.failKeys[markerKey(a.ID)] = true

	// Действие
	ctrl.Apply([]*models.Incident{a}, nil)

	// Проверки: маркера нет, но оператор предупрежден оверлеем
	assert.Equal(t, 0, ctrl.LiveMarkerCount())
	assert.Equal(t, StateAlerting, ctrl.State())
	assert.Equal(t, a.ID, ctrl.Overlay().CurrentIncidentID)

	// Повторная активация того же id маркер не ретраит
	ctrl.Apply([]*models.Incident{a}, nil)
	assert.Equal(t, 0, engine.addCalls())

	// Разрешение чистит запись о неудаче, набор пустеет - контроллер в Idle
	ctrl.Apply(nil, []*models.Incident{a})
	assert.Equal(t, StateIdle, ctrl.State())

	// Реактивация после разрешения пробует маркер заново
	engine.failKeys[markerKey(a.ID)] = false
	ctrl.Apply([]*models.Incident{a}, nil)
	assert.Equal(t, 1, ctrl.LiveMarkerCount())
}

func TestControllerResolveAll(t *testing.T) {
	// Подготовка
	ctrl, engine, _ := newTestController(t, time.Hour)
	base := time.Now()
	a := activeIncident("robbery", base.Add(-time.Hour))
	b := activeIncident("assault", base)
	ctrl.Apply([]*models.Incident{a, b}, nil)
	require.Equal(t, 2, ctrl.LiveMarkerCount())

	// Действие
	ctrl.ResolveAll()

	// Проверки: ни одного живого хэндла, карта чистая, контроллер в Idle
	assert.Equal(t, 0, ctrl.LiveMarkerCount())
	assert.Equal(t, 0, engine.markerCount())
	assert.Equal(t, 2, engine.removeCalls())
	assert.Equal(t, StateIdle, ctrl.State())
	assert.False(t, ctrl.Overlay().Visible)
}

func TestControllerClose(t *testing.T) {
	// Подготовка
	ctrl, engine, _ := newTestController(t, time.Hour)
	base := time.Now()
	a := activeIncident("robbery", base.Add(-time.Hour))
	b := activeIncident("assault", base)
	ctrl.Apply([]*models.Incident{a, b}, nil)

	// Действие
	ctrl.Close()

	// Проверки: все ресурсы освобождены ровно один раз
	assert.Equal(t, 0, engine.markerCount())
	assert.Equal(t, 2, engine.removeCalls())
	assert.Equal(t, StateIdle, ctrl.State())

	// После teardown'а контроллер инертен
	ctrl.Apply([]*models.Incident{activeIncident("arson", time.Now())}, nil)
	assert.Equal(t, 0, ctrl.LiveMarkerCount())

	// Повторный Close безопасен
	ctrl.Close()
	assert.Equal(t, 2, engine.removeCalls())
}

func TestControllerOnOverlayChange(t *testing.T) {
	// Подготовка
	ctrl, _, _ := newTestController(t, 40*time.Millisecond)
	var mu sync.Mutex
	var changes []Overlay
	ctrl.SetOnOverlayChange(func(o Overlay) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, o)
	})
	a := activeIncident("robbery", time.Now())

	// Действие: показ + автогашение
	ctrl.Apply([]*models.Incident{a}, nil)
	time.Sleep(150 * time.Millisecond)

	// Проверки
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 2)
	assert.True(t, changes[0].Visible)
	assert.Equal(t, a.ID, changes[0].CurrentIncidentID)
	assert.False(t, changes[1].Visible)
}

func TestMarkerHandle_ReleaseIsIdempotent(t *testing.T) {
	// Подготовка
	var released int
	id := uuid.New()
	h := newMarkerHandle(id, mapengine.MarkerRef{Key: "incident:" + id.String()}, func(mapengine.MarkerRef) {
		released++
	})

	// Действие
	h.Release()
	h.Release()
	h.Release()

	// Проверки: освобождение сработало ровно один раз
	assert.Equal(t, 1, released)
	assert.Equal(t, id, h.IncidentID())
}
