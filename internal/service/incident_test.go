package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/crime_alerting_system/internal/alert"
	"github.com/shenikar/crime_alerting_system/internal/alertfeed"
	"github.com/shenikar/crime_alerting_system/internal/config"
	"github.com/shenikar/crime_alerting_system/internal/mapengine"
	"github.com/shenikar/crime_alerting_system/internal/models"
	"github.com/shenikar/crime_alerting_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fakeMapEngine - фейк карты: хранит ключи маркеров вместо отрисовки
type fakeMapEngine struct {
	mu      sync.Mutex
	markers map[string]bool
}

func newFakeMapEngine() *fakeMapEngine {
	return &fakeMapEngine{markers: make(map[string]bool)}
}

func (e *fakeMapEngine) AddMarker(key string, coords mapengine.Coordinates, content mapengine.MarkerContent) (mapengine.MarkerRef, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.markers[key] = true
	return mapengine.MarkerRef{Key: key}, nil
}

func (e *fakeMapEngine) RemoveMarker(ref mapengine.MarkerRef) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.markers, ref.Key)
}

func (e *fakeMapEngine) FlyTo(coords mapengine.Coordinates, opts mapengine.FlyToOptions) {}

func (e *fakeMapEngine) AddLayer(id string, kind string, payload any) error { return nil }

func (e *fakeMapEngine) RemoveLayer(id string) {}

// fakeAudio - фейк аудиоплеера
type fakeAudio struct{}

func (fakeAudio) PlayCue(cue string) error { return nil }

// fakePublisher записывает опубликованные события ленты тревог
type fakePublisher struct {
	mu     sync.Mutex
	events []alertfeed.Event
}

func (p *fakePublisher) Publish(ctx context.Context, event alertfeed.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) published() []alertfeed.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]alertfeed.Event, len(p.events))
	copy(out, p.events)
	return out
}

type serviceFixture struct {
	service    IncidentService
	repo       *mocks.MockIncidentRepository
	publisher  *fakePublisher
	controller *alert.Controller
	store      *alert.Store
}

func newTestService(t *testing.T) *serviceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockIncidentRepository(ctrl)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{OverlayDismissAfter: time.Hour}
	store := alert.NewStore()
	alertCtrl := alert.NewController(newFakeMapEngine(), fakeAudio{}, nil, logger, cfg.OverlayDismissAfter)
	t.Cleanup(alertCtrl.Close)

	publisher := &fakePublisher{}
	svc := NewIncidentService(repo, logger, cfg, publisher, store, alertCtrl)
	return &serviceFixture{
		service:    svc,
		repo:       repo,
		publisher:  publisher,
		controller: alertCtrl,
		store:      store,
	}
}

func newActiveIncident(category string, createdAt time.Time) *models.Incident {
	return &models.Incident{
		ID:        uuid.New(),
		Category:  category,
		Priority:  models.PriorityHigh,
		Latitude:  55.75,
		Longitude: 37.61,
		District:  "Central",
		Status:    models.StatusActive,
		CreatedAt: createdAt,
	}
}

func TestGetIncident_FromCache(t *testing.T) {
	// Подготовка
	f := newTestService(t)
	incident := newActiveIncident("robbery", time.Now())

	// Ожидания: БД не трогаем
	f.repo.EXPECT().GetIncidentFromCache(gomock.Any(), incident.ID).Return(incident, nil)

	// Действие
	got, err := f.service.GetIncident(context.Background(), incident.ID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, incident, got)
}

func TestGetIncident_CacheMissFallsBackToDB(t *testing.T) {
	// Подготовка
	f := newTestService(t)
	incident := newActiveIncident("robbery", time.Now())

	// Ожидания
	f.repo.EXPECT().GetIncidentFromCache(gomock.Any(), incident.ID).Return(nil, nil)
	f.repo.EXPECT().GetByID(gomock.Any(), incident.ID).Return(incident, nil)
	f.repo.EXPECT().SetIncidentCache(gomock.Any(), incident).Return(nil)

	// Действие
	got, err := f.service.GetIncident(context.Background(), incident.ID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, incident, got)
}

func TestGetIncident_NotFound(t *testing.T) {
	// Подготовка
	f := newTestService(t)
	id := uuid.New()

	// Ожидания
	f.repo.EXPECT().GetIncidentFromCache(gomock.Any(), id).Return(nil, nil)
	f.repo.EXPECT().GetByID(gomock.Any(), id).Return(nil, errors.New("not found"))

	// Действие
	got, err := f.service.GetIncident(context.Background(), id)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, got)
}

func TestCreateIncident_TriggersAlertPipeline(t *testing.T) {
	// Подготовка
	f := newTestService(t)
	incident := newActiveIncident("robbery", time.Time{})

	// Ожидания: репозиторий проставляет id и время создания
	f.repo.EXPECT().Create(gomock.Any(), incident).DoAndReturn(
		func(_ context.Context, inc *models.Incident) error {
			inc.CreatedAt = time.Now()
			return nil
		})
	f.repo.EXPECT().ListActive(gomock.Any()).Return([]*models.Incident{incident}, nil)

	// Действие
	err := f.service.CreateIncident(context.Background(), incident)

	// Проверки: инцидент дошёл до карты, оверлея и ленты событий
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, incident.Status)
	assert.True(t, f.controller.HasMarker(incident.ID))
	assert.Equal(t, alert.StateAlerting, f.controller.State())
	assert.Equal(t, incident.ID, f.controller.Overlay().CurrentIncidentID)

	events := f.publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, alertfeed.EventActivated, events[0].Type)
	assert.Equal(t, incident.ID, events[0].IncidentID)
	assert.Equal(t, incident.District, events[0].District)
}

func TestCreateIncident_RepoError(t *testing.T) {
	// Подготовка
	f := newTestService(t)
	incident := newActiveIncident("robbery", time.Now())

	// Ожидания: синхронизация активного набора не запускается
	f.repo.EXPECT().Create(gomock.Any(), incident).Return(errors.New("db down"))

	// Действие
	err := f.service.CreateIncident(context.Background(), incident)

	// Проверки
	require.Error(t, err)
	assert.Empty(t, f.publisher.published())
	assert.Equal(t, alert.StateIdle, f.controller.State())
}

func TestIngestBatch_AppliesDiffToAlertPipeline(t *testing.T) {
	// Подготовка
	f := newTestService(t)
	base := time.Now()
	older := newActiveIncident("robbery", base.Add(-time.Hour))
	newer := newActiveIncident("assault", base)

	// Ожидания
	f.repo.EXPECT().Upsert(gomock.Any(), older).Return(nil)
	f.repo.EXPECT().Upsert(gomock.Any(), newer).Return(nil)
	f.repo.EXPECT().ListActive(gomock.Any()).Return([]*models.Incident{newer, older}, nil)

	// Действие
	err := f.service.IngestBatch(context.Background(), []*models.Incident{older, newer})

	// Проверки: оба на карте, оверлей у самого свежего
	require.NoError(t, err)
	assert.Equal(t, 2, f.controller.LiveMarkerCount())
	assert.Equal(t, newer.ID, f.controller.Overlay().CurrentIncidentID)

	// События активации опубликованы в порядке CreatedAt
	events := f.publisher.published()
	require.Len(t, events, 2)
	assert.Equal(t, older.ID, events[0].IncidentID)
	assert.Equal(t, newer.ID, events[1].IncidentID)
}

func TestIngestBatch_SkipsNilRecords(t *testing.T) {
	// Подготовка
	f := newTestService(t)
	incident := newActiveIncident("robbery", time.Now())

	// Ожидания: nil-записи не доходят до репозитория
	f.repo.EXPECT().Upsert(gomock.Any(), incident).Return(nil)
	f.repo.EXPECT().ListActive(gomock.Any()).Return([]*models.Incident{incident}, nil)

	// Действие
	err := f.service.IngestBatch(context.Background(), []*models.Incident{nil, incident, nil})

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, 1, f.controller.LiveMarkerCount())
}

func TestIngestBatch_UpsertError(t *testing.T) {
	// Подготовка
	f := newTestService(t)
	incident := newActiveIncident("robbery", time.Now())

	// Ожидания
	f.repo.EXPECT().Upsert(gomock.Any(), incident).Return(errors.New("db down"))

	// Действие
	err := f.service.IngestBatch(context.Background(), []*models.Incident{incident})

	// Проверки
	require.Error(t, err)
	assert.Empty(t, f.publisher.published())
}

func TestResolveIncident(t *testing.T) {
	// Подготовка: два активных инцидента в рабочем наборе
	f := newTestService(t)
	base := time.Now()
	a := newActiveIncident("robbery", base.Add(-time.Hour))
	b := newActiveIncident("assault", base)

	f.repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.repo.EXPECT().ListActive(gomock.Any()).Return([]*models.Incident{a, b}, nil)
	require.NoError(t, f.service.IngestBatch(context.Background(), []*models.Incident{a, b}))

	var mu sync.Mutex
	var resolvedIDs []uuid.UUID
	f.service.SetOnIncidentResolved(func(id uuid.UUID) {
		mu.Lock()
		defer mu.Unlock()
		resolvedIDs = append(resolvedIDs, id)
	})

	// Ожидания
	f.repo.EXPECT().Resolve(gomock.Any(), a.ID).Return(nil)
	f.repo.EXPECT().InvalidateIncidentCache(gomock.Any(), a.ID).Return(nil)
	f.repo.EXPECT().ListActive(gomock.Any()).Return([]*models.Incident{b}, nil)

	// Действие
	err := f.service.ResolveIncident(context.Background(), a.ID)

	// Проверки: маркер снят, второй инцидент остался, колбэк сработал
	require.NoError(t, err)
	assert.False(t, f.controller.HasMarker(a.ID))
	assert.True(t, f.controller.HasMarker(b.ID))

	mu.Lock()
	assert.Equal(t, []uuid.UUID{a.ID}, resolvedIDs)
	mu.Unlock()

	events := f.publisher.published()
	last := events[len(events)-1]
	assert.Equal(t, alertfeed.EventResolved, last.Type)
	assert.Equal(t, a.ID, last.IncidentID)
}

func TestResolveAll(t *testing.T) {
	// Подготовка
	f := newTestService(t)
	base := time.Now()
	a := newActiveIncident("robbery", base.Add(-time.Hour))
	b := newActiveIncident("assault", base)

	f.repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.repo.EXPECT().ListActive(gomock.Any()).Return([]*models.Incident{a, b}, nil)
	require.NoError(t, f.service.IngestBatch(context.Background(), []*models.Incident{a, b}))

	// Ожидания
	f.repo.EXPECT().ResolveAllActive(gomock.Any()).Return(nil)

	// Действие
	err := f.service.ResolveAll(context.Background())

	// Проверки: набор пуст, контроллер в Idle, событие resolved_all опубликовано
	require.NoError(t, err)
	assert.Equal(t, 0, f.controller.LiveMarkerCount())
	assert.Equal(t, alert.StateIdle, f.controller.State())
	assert.Empty(t, f.service.ActiveIncidents())

	events := f.publisher.published()
	last := events[len(events)-1]
	assert.Equal(t, alertfeed.EventResolvedAll, last.Type)
}

func TestUpdateIncident_Success(t *testing.T) {
	// Подготовка
	f := newTestService(t)
	existing := newActiveIncident("robbery", time.Now())
	update := &models.Incident{
		ID:        existing.ID,
		Category:  "assault",
		Priority:  models.PriorityMedium,
		Latitude:  existing.Latitude,
		Longitude: existing.Longitude,
		District:  "North",
	}

	// Ожидания: статус через Update не меняется
	f.repo.EXPECT().GetByID(gomock.Any(), existing.ID).Return(existing, nil)
	f.repo.EXPECT().Update(gomock.Any(), existing).DoAndReturn(
		func(_ context.Context, inc *models.Incident) error {
			assert.Equal(t, "assault", inc.Category)
			assert.Equal(t, models.PriorityMedium, inc.Priority)
			assert.Equal(t, models.StatusActive, inc.Status)
			return nil
		})
	f.repo.EXPECT().InvalidateIncidentCache(gomock.Any(), existing.ID).Return(nil)

	// Действие
	err := f.service.UpdateIncident(context.Background(), update)

	// Проверки
	require.NoError(t, err)
}

func TestUpdateIncident_NotFound(t *testing.T) {
	// Подготовка
	f := newTestService(t)
	update := newActiveIncident("robbery", time.Now())

	// Ожидания
	f.repo.EXPECT().GetByID(gomock.Any(), update.ID).Return(nil, errors.New("not found"))

	// Действие
	err := f.service.UpdateIncident(context.Background(), update)

	// Проверки
	require.Error(t, err)
}

func TestListIncidents_NormalizesPagination(t *testing.T) {
	// Подготовка
	f := newTestService(t)

	// Ожидания: невалидные параметры заменяются значениями по умолчанию
	f.repo.EXPECT().ListIncidents(gomock.Any(), 1, 20).Return([]*models.Incident{}, nil)

	// Действие
	_, err := f.service.ListIncidents(context.Background(), -5, 500)

	// Проверки
	require.NoError(t, err)
}

func TestSyncActiveSet_ListActiveErrorIsTransient(t *testing.T) {
	// Подготовка: создание проходит, но синхронизация набора недоступна
	f := newTestService(t)
	incident := newActiveIncident("robbery", time.Now())

	// Ожидания
	f.repo.EXPECT().Create(gomock.Any(), incident).Return(nil)
	f.repo.EXPECT().ListActive(gomock.Any()).Return(nil, errors.New("db down"))

	// Действие
	err := f.service.CreateIncident(context.Background(), incident)

	// Проверки: ошибка синхронизации не валит операцию, пайплайн не тронут
	require.NoError(t, err)
	assert.Empty(t, f.publisher.published())
	assert.Equal(t, alert.StateIdle, f.controller.State())
}

func TestGetStats(t *testing.T) {
	// Подготовка
	f := newTestService(t)
	stats := &models.Stats{
		ActiveCount: 2,
		TotalCount:  10,
		ByCategory:  map[string]int{"robbery": 4},
		ByDistrict:  map[string]int{"Central": 6},
		ByPriority:  map[string]int{"high": 3},
	}

	// Ожидания
	f.repo.EXPECT().GetStats(gomock.Any()).Return(stats, nil)

	// Действие
	got, err := f.service.GetStats(context.Background())

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, stats, got)
}

func TestGetTimelineBounds(t *testing.T) {
	// Подготовка
	f := newTestService(t)
	bounds := &models.TimelineBounds{StartYear: 2020, EndYear: 2026}

	// Ожидания
	f.repo.EXPECT().GetTimelineBounds(gomock.Any()).Return(bounds, nil)

	// Действие
	got, err := f.service.GetTimelineBounds(context.Background())

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, bounds, got)
}

func TestDismissOverlay(t *testing.T) {
	// Подготовка
	f := newTestService(t)
	incident := newActiveIncident("robbery", time.Now())

	f.repo.EXPECT().Upsert(gomock.Any(), incident).Return(nil)
	f.repo.EXPECT().ListActive(gomock.Any()).Return([]*models.Incident{incident}, nil)
	require.NoError(t, f.service.IngestBatch(context.Background(), []*models.Incident{incident}))
	require.True(t, f.service.OverlayState().Visible)

	// Действие
	f.service.DismissOverlay()

	// Проверки: оверлей погашен, маркер остался
	assert.False(t, f.service.OverlayState().Visible)
	assert.Equal(t, 1, f.controller.LiveMarkerCount())
}
