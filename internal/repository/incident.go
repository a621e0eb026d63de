package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/crime_alerting_system/internal/models"
	"github.com/shenikar/crime_alerting_system/internal/service"
)

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
	}
}

const incidentColumns = `
	id,
	category,
	priority,
	description,
	latitude,
	longitude,
	district,
	address,
	reporter_name,
	status,
	created_at,
	resolved_at
`

func scanIncident(row pgx.Row) (*models.Incident, error) {
	incident := &models.Incident{}
	err := row.Scan(
		&incident.ID,
		&incident.Category,
		&incident.Priority,
		&incident.Description,
		&incident.Latitude,
		&incident.Longitude,
		&incident.District,
		&incident.Address,
		&incident.ReporterName,
		&incident.Status,
		&incident.CreatedAt,
		&incident.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

// Create создает новую запись об инциденте в бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents (category, priority, description, latitude, longitude, district, address, reporter_name, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at;
	`
	err := r.db.QueryRow(ctx, query,
		incident.Category,
		incident.Priority,
		incident.Description,
		incident.Latitude,
		incident.Longitude,
		incident.District,
		incident.Address,
		incident.ReporterName,
		incident.Status,
	).Scan(&incident.ID, &incident.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// Upsert вставляет инцидент с заданным id или обновляет его статус.
// Используется пайплайном ингеста: поставщик присылает полный срез.
func (r *IncidentRepository) Upsert(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents (id, category, priority, description, latitude, longitude, district, address, reporter_name, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			resolved_at = CASE WHEN EXCLUDED.status = 'resolved' AND incidents.resolved_at IS NULL THEN NOW() ELSE incidents.resolved_at END;
	`
	_, err := r.db.Exec(ctx, query,
		incident.ID,
		incident.Category,
		incident.Priority,
		incident.Description,
		incident.Latitude,
		incident.Longitude,
		incident.District,
		incident.Address,
		incident.ReporterName,
		incident.Status,
		incident.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert incident: %w", err)
	}
	return nil
}

// GetByID возвращает инцидент по его UUID
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1;`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %s not found", id)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// Update обновляет изменяемые поля инцидента
func (r *IncidentRepository) Update(ctx context.Context, incident *models.Incident) error {
	query := `
		UPDATE incidents SET
			category = $1,
			priority = $2,
			description = $3,
			latitude = $4,
			longitude = $5,
			district = $6,
			address = $7,
			reporter_name = $8
		WHERE id = $9;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		incident.Category,
		incident.Priority,
		incident.Description,
		incident.Latitude,
		incident.Longitude,
		incident.District,
		incident.Address,
		incident.ReporterName,
		incident.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update incident: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident with id %s not found for update", incident.ID)
	}
	return nil
}

// Resolve переводит инцидент в статус 'resolved'. Обратного перехода нет.
func (r *IncidentRepository) Resolve(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE incidents SET
			status = 'resolved',
			resolved_at = NOW()
		WHERE id = $1 AND status = 'active';
	`
	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to resolve incident: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("active incident with id %s not found for resolve", id)
	}
	return nil
}

// ResolveAllActive переводит все активные инциденты в 'resolved'
func (r *IncidentRepository) ResolveAllActive(ctx context.Context) error {
	query := `
		UPDATE incidents SET
			status = 'resolved',
			resolved_at = NOW()
		WHERE status = 'active';
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to resolve all active incidents: %w", err)
	}
	return nil
}

// ListIncidents возвращает список инцидентов с пагинацией
func (r *IncidentRepository) ListIncidents(ctx context.Context, page, pageSize int) ([]*models.Incident, error) {
	// рассчитываем смещение
	offset := (page - 1) * pageSize

	query := `SELECT ` + incidentColumns + ` FROM incidents ORDER BY created_at DESC LIMIT $1 OFFSET $2;`
	rows, err := r.db.Query(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}

// ListActive возвращает все активные инциденты в порядке создания
func (r *IncidentRepository) ListActive(ctx context.Context) ([]*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE status = 'active' ORDER BY created_at ASC;`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row in ListActive: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration in ListActive: %w", err)
	}
	return incidents, nil
}

// GetStats возвращает агрегированную статистику для виджетов дашборда
func (r *IncidentRepository) GetStats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{
		ByCategory: make(map[string]int),
		ByDistrict: make(map[string]int),
		ByPriority: make(map[string]int),
	}

	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'active')
		FROM incidents;
	`
	if err := r.db.QueryRow(ctx, query).Scan(&stats.TotalCount, &stats.ActiveCount); err != nil {
		return nil, fmt.Errorf("failed to get incident counts: %w", err)
	}

	groupQueries := map[string]*map[string]int{
		"category": &stats.ByCategory,
		"district": &stats.ByDistrict,
		"priority": &stats.ByPriority,
	}
	for column, dest := range groupQueries {
		rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s, COUNT(*) FROM incidents GROUP BY %s;`, column, column))
		if err != nil {
			return nil, fmt.Errorf("failed to get stats grouped by %s: %w", column, err)
		}
		for rows.Next() {
			var key string
			var count int
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan stats row for %s: %w", column, err)
			}
			(*dest)[key] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("error stats iteration for %s: %w", column, err)
		}
		rows.Close()
	}

	return stats, nil
}

// GetTimelineBounds возвращает минимальный и максимальный год инцидентов
func (r *IncidentRepository) GetTimelineBounds(ctx context.Context) (*models.TimelineBounds, error) {
	query := `
		SELECT
			COALESCE(EXTRACT(YEAR FROM MIN(created_at))::int, EXTRACT(YEAR FROM NOW())::int),
			COALESCE(EXTRACT(YEAR FROM MAX(created_at))::int, EXTRACT(YEAR FROM NOW())::int)
		FROM incidents;
	`
	bounds := &models.TimelineBounds{}
	if err := r.db.QueryRow(ctx, query).Scan(&bounds.StartYear, &bounds.EndYear); err != nil {
		return nil, fmt.Errorf("failed to get timeline bounds: %w", err)
	}
	return bounds, nil
}

// GetIncidentFromCache пытается получить инцидент из Redis
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	key := fmt.Sprintf("incident:%s", id.String())
	val, err := r.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache сохраняет инцидент в Redis
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	key := fmt.Sprintf("incident:%s", incident.ID.String())
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	// Устанавливаем срок жизни кэша, например, 5 минут
	if err := r.redisClient.Set(ctx, key, val, 5*time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error {
	key := fmt.Sprintf("incident:%s", id.String())
	if err := r.redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}
