package v1

import (
	"time"

	"github.com/google/uuid"
)

// CreateIncidentRequest DTO для создания инцидента
// @Description DTO для создания инцидента
type CreateIncidentRequest struct {
	Category     string  `json:"category" validate:"required,min=2,max=100"`
	Priority     string  `json:"priority" validate:"required,oneof=low medium high"`
	Description  string  `json:"description,omitempty"`
	Latitude     float64 `json:"latitude" validate:"required,latitude"`
	Longitude    float64 `json:"longitude" validate:"required,longitude"`
	District     string  `json:"district" validate:"required,min=2,max=100"`
	Address      string  `json:"address,omitempty"`
	ReporterName string  `json:"reporter_name" validate:"required,min=2,max=255"`
}

// UpdateIncidentRequest DTO для обновления инцидента
// @Description DTO для обновления инцидента
type UpdateIncidentRequest struct {
	Category     string  `json:"category" validate:"required,min=2,max=100"`
	Priority     string  `json:"priority" validate:"required,oneof=low medium high"`
	Description  string  `json:"description,omitempty"`
	Latitude     float64 `json:"latitude" validate:"required,latitude"`
	Longitude    float64 `json:"longitude" validate:"required,longitude"`
	District     string  `json:"district" validate:"required,min=2,max=100"`
	Address      string  `json:"address,omitempty"`
	ReporterName string  `json:"reporter_name" validate:"required,min=2,max=255"`
}

// IngestIncident - один инцидент в пакете от поставщика
// @Description Один инцидент в пакете ингеста
type IngestIncident struct {
	ID           uuid.UUID `json:"id" validate:"required"`
	Category     string    `json:"category" validate:"required"`
	Priority     string    `json:"priority" validate:"required,oneof=low medium high"`
	Description  string    `json:"description,omitempty"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	District     string    `json:"district,omitempty"`
	Address      string    `json:"address,omitempty"`
	ReporterName string    `json:"reporter_name,omitempty"`
	Status       string    `json:"status" validate:"required,oneof=active resolved"`
	CreatedAt    time.Time `json:"created_at" validate:"required"`
}

// IngestRequest DTO пакета инцидентов от коллаборатора-поставщика
// @Description DTO пакета инцидентов
type IngestRequest struct {
	Incidents []IngestIncident `json:"incidents" validate:"required,dive"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID           uuid.UUID  `json:"id"`
	Category     string     `json:"category"`
	Priority     string     `json:"priority"`
	Description  string     `json:"description,omitempty"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	District     string     `json:"district"`
	Address      string     `json:"address,omitempty"`
	ReporterName string     `json:"reporter_name"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// OverlayResponse DTO состояния оверлея тревоги
// @Description DTO состояния полноэкранного оверлея тревоги
type OverlayResponse struct {
	Visible           bool       `json:"visible"`
	CurrentIncidentID *uuid.UUID `json:"current_incident_id,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
}

// StatsResponse DTO для ответа со статистикой
// @Description DTO для ответа со статистикой
type StatsResponse struct {
	ActiveCount int            `json:"active_count"`
	TotalCount  int            `json:"total_count"`
	ByCategory  map[string]int `json:"by_category"`
	ByDistrict  map[string]int `json:"by_district"`
	ByPriority  map[string]int `json:"by_priority"`
}

// ScrubRequest DTO перемотки таймлайна
// @Description DTO перемотки таймлайна по проценту
type ScrubRequest struct {
	Percent float64 `json:"percent" validate:"min=0,max=100"`
}

// DragRequest DTO начала/окончания перетаскивания ползунка
// @Description DTO перетаскивания ползунка таймлайна
type DragRequest struct {
	Dragging bool `json:"dragging"`
}

// TimelineStateResponse DTO состояния таймлайна
// @Description DTO состояния таймлайна
type TimelineStateResponse struct {
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	SubMonthProgress float64 `json:"sub_month_progress"`
	ProgressPercent  float64 `json:"progress_percent"`
	Playing          bool    `json:"playing"`
	Dragging         bool    `json:"dragging"`
}
