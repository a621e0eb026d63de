package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/crime_alerting_system/internal/alert"
	"github.com/shenikar/crime_alerting_system/internal/alertfeed"
	"github.com/shenikar/crime_alerting_system/internal/config"
	"github.com/shenikar/crime_alerting_system/internal/models"
	"github.com/sirupsen/logrus"
)

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	Upsert(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	Update(ctx context.Context, incident *models.Incident) error
	Resolve(ctx context.Context, id uuid.UUID) error
	ResolveAllActive(ctx context.Context) error
	ListIncidents(ctx context.Context, page, pageSize int) ([]*models.Incident, error)
	ListActive(ctx context.Context) ([]*models.Incident, error)
	GetStats(ctx context.Context) (*models.Stats, error)
	GetTimelineBounds(ctx context.Context) (*models.TimelineBounds, error)
	GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident) error
	InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error
}

// IncidentService определяет контракт бизнес-логики управления инцидентами
// и пайплайна тревог
type IncidentService interface {
	CreateIncident(ctx context.Context, incident *models.Incident) error
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	UpdateIncident(ctx context.Context, incident *models.Incident) error
	ListIncidents(ctx context.Context, page, pageSize int) ([]*models.Incident, error)
	IngestBatch(ctx context.Context, incidents []*models.Incident) error
	ResolveIncident(ctx context.Context, id uuid.UUID) error
	ResolveAll(ctx context.Context) error
	GetStats(ctx context.Context) (*models.Stats, error)
	GetTimelineBounds(ctx context.Context) (*models.TimelineBounds, error)
	ActiveIncidents() []*models.Incident
	OverlayState() alert.Overlay
	DismissOverlay()
	SetOnIncidentResolved(fn func(id uuid.UUID))
}

type incidentService struct {
	repo       IncidentRepository
	logger     *logrus.Logger
	cfg        *config.Config
	publisher  alertfeed.Publisher
	store      *alert.Store
	controller *alert.Controller

	onIncidentResolved func(id uuid.UUID)
}

func NewIncidentService(repo IncidentRepository, logger *logrus.Logger, cfg *config.Config, publisher alertfeed.Publisher, store *alert.Store, controller *alert.Controller) IncidentService {
	return &incidentService{
		repo:       repo,
		logger:     logger,
		cfg:        cfg,
		publisher:  publisher,
		store:      store,
		controller: controller,
	}
}

// SetOnIncidentResolved задает колбэк на ручное подтверждение инцидента оператором
func (s *incidentService) SetOnIncidentResolved(fn func(id uuid.UUID)) {
	s.onIncidentResolved = fn
}

// CreateIncident создает инцидент и прогоняет его через пайплайн тревог
func (s *incidentService) CreateIncident(ctx context.Context, incident *models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "incident",
		"method":   "CreateIncident",
		"category": incident.Category,
	})
	log.Info("Attempting to create a new incident")

	incident.Status = models.StatusActive
	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return fmt.Errorf("service: could not create incident: %w", err)
	}

	s.syncActiveSet(ctx)

	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	return nil
}

// GetIncident получает инцидент по ID, сначала из кеша, затем из БД
func (s *incidentService) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})

	cached, err := s.repo.GetIncidentFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to read incident cache, falling back to DB")
	}
	if cached != nil {
		return cached, nil
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Error("Failed to get incident in repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	if err := s.repo.SetIncidentCache(ctx, incident); err != nil {
		log.WithError(err).Warn("Failed to cache incident")
	}
	return incident, nil
}

// UpdateIncident обновляет существующий инцидент.
// Статус через Update не меняется: переход active -> resolved
// выполняется только ResolveIncident/ResolveAll.
func (s *incidentService) UpdateIncident(ctx context.Context, incident *models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateIncident",
		"incident_id": incident.ID,
	})
	log.Info("Attempting to update an incident")

	existing, err := s.repo.GetByID(ctx, incident.ID)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent incident")
		return fmt.Errorf("service: incident with id %s not found for update: %w", incident.ID, err)
	}

	existing.Category = incident.Category
	existing.Priority = incident.Priority
	existing.Description = incident.Description
	existing.Latitude = incident.Latitude
	existing.Longitude = incident.Longitude
	existing.District = incident.District
	existing.Address = incident.Address
	existing.ReporterName = incident.ReporterName

	if err := s.repo.Update(ctx, existing); err != nil {
		log.WithError(err).Error("Failed to update incident in repository")
		return fmt.Errorf("service: could not update incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, incident.ID); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.Info("Incident updated successfully")
	return nil
}

// ListIncidents возвращает список инцидентов с пагинацией
func (s *incidentService) ListIncidents(ctx context.Context, page, pageSize int) ([]*models.Incident, error) {
	if page < 1 {
		page = 1
	}

	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":   "incident",
		"method":    "ListIncidents",
		"page":      page,
		"page_size": pageSize,
	})

	incidents, err := s.repo.ListIncidents(ctx, page, pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}

	log.WithField("count", len(incidents)).Info("Incidents listed successfully")
	return incidents, nil
}

// IngestBatch принимает пакет инцидентов от коллаборатора-поставщика,
// сохраняет его и применяет diff к карте и оверлею.
// Инциденты без координат отфильтровываются и активациями не считаются.
func (s *incidentService) IngestBatch(ctx context.Context, incidents []*models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "IngestBatch",
		"size":    len(incidents),
	})
	log.Info("Ingesting incident batch")

	for _, inc := range incidents {
		if inc == nil {
			continue
		}
		if err := s.repo.Upsert(ctx, inc); err != nil {
			log.WithError(err).WithField("incident_id", inc.ID).Error("Failed to upsert ingested incident")
			return fmt.Errorf("service: could not upsert ingested incident: %w", err)
		}
	}

	s.syncActiveSet(ctx)
	return nil
}

// ResolveIncident - ручное подтверждение одного инцидента оператором
func (s *incidentService) ResolveIncident(ctx context.Context, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "ResolveIncident",
		"incident_id": id,
	})
	log.Info("Resolving incident")

	if err := s.repo.Resolve(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to resolve incident in repository")
		return fmt.Errorf("service: could not resolve incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	s.syncActiveSet(ctx)

	if s.onIncidentResolved != nil {
		s.onIncidentResolved(id)
	}
	return nil
}

// ResolveAll - массовое подтверждение всех активных инцидентов
func (s *incidentService) ResolveAll(ctx context.Context) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "ResolveAll",
	})
	log.Info("Resolving all active incidents")

	if err := s.repo.ResolveAllActive(ctx); err != nil {
		log.WithError(err).Error("Failed to resolve all incidents in repository")
		return fmt.Errorf("service: could not resolve all incidents: %w", err)
	}

	resolved := s.store.ResolveAll()
	s.controller.ResolveAll()

	if err := s.publisher.Publish(ctx, alertfeed.Event{
		Type:      alertfeed.EventResolvedAll,
		Timestamp: nowUTC(),
	}); err != nil {
		log.WithError(err).Warn("Failed to publish resolved_all event")
	}

	log.WithField("count", len(resolved)).Info("All incidents resolved")
	return nil
}

// GetStats возвращает агрегированную статистику
func (s *incidentService) GetStats(ctx context.Context) (*models.Stats, error) {
	stats, err := s.repo.GetStats(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get stats from repository")
		return nil, fmt.Errorf("service: could not get stats: %w", err)
	}
	return stats, nil
}

// GetTimelineBounds возвращает диапазон лет исторических данных
func (s *incidentService) GetTimelineBounds(ctx context.Context) (*models.TimelineBounds, error) {
	bounds, err := s.repo.GetTimelineBounds(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get timeline bounds from repository")
		return nil, fmt.Errorf("service: could not get timeline bounds: %w", err)
	}
	return bounds, nil
}

// ActiveIncidents возвращает снапшот активного набора
func (s *incidentService) ActiveIncidents() []*models.Incident {
	return s.store.Active()
}

// OverlayState возвращает текущее состояние оверлея тревоги
func (s *incidentService) OverlayState() alert.Overlay {
	return s.controller.Overlay()
}

// DismissOverlay - явное гашение оверлея оператором
func (s *incidentService) DismissOverlay() {
	s.controller.Dismiss()
}

// syncActiveSet перечитывает активный набор из бд и применяет diff
// к контроллеру тревог. БД - источник истины, Store хранит только
// презентационный рабочий набор.
func (s *incidentService) syncActiveSet(ctx context.Context) {
	log := s.logger.WithField("service", "incident").WithField("method", "syncActiveSet")

	active, err := s.repo.ListActive(ctx)
	if err != nil {
		// Транзиентная ошибка: пропускаем синхронизацию, следующий вызов догонит
		log.WithError(err).Error("Failed to list active incidents, skipping alert sync")
		return
	}

	activated, resolved := s.store.Ingest(active)
	if len(activated) == 0 && len(resolved) == 0 {
		return
	}

	s.controller.Apply(activated, resolved)

	for _, inc := range activated {
		s.publishEvent(ctx, alertfeed.EventActivated, inc)
	}
	for _, inc := range resolved {
		s.publishEvent(ctx, alertfeed.EventResolved, inc)
	}
}

func (s *incidentService) publishEvent(ctx context.Context, eventType string, inc *models.Incident) {
	event := alertfeed.Event{
		Type:       eventType,
		IncidentID: inc.ID,
		Category:   inc.Category,
		Priority:   inc.Priority,
		District:   inc.District,
		Latitude:   inc.Latitude,
		Longitude:  inc.Longitude,
		Timestamp:  nowUTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("incident_id", inc.ID).Warn("Failed to publish alert event")
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
