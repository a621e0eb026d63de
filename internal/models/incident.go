package models

import (
	"time"

	"github.com/google/uuid"
)

// Приоритеты инцидента
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Статусы инцидента. Переход только active -> resolved, обратного нет.
const (
	StatusActive   = "active"
	StatusResolved = "resolved"
)

type Incident struct {
	ID           uuid.UUID  `json:"id"`
	Category     string     `json:"category"`
	Priority     string     `json:"priority"`
	Description  string     `json:"description"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	District     string     `json:"district"`
	Address      string     `json:"address"`
	ReporterName string     `json:"reporter_name"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// HasLocation проверяет, что у инцидента есть пригодные координаты.
// Инциденты без координат отбрасываются при ингесте и до карты не доходят.
func (i *Incident) HasLocation() bool {
	if i.Latitude == 0 && i.Longitude == 0 {
		return false
	}
	return i.Latitude >= -90 && i.Latitude <= 90 &&
		i.Longitude >= -180 && i.Longitude <= 180
}

// IsActive сообщает, находится ли инцидент в активном рабочем наборе.
func (i *Incident) IsActive() bool {
	return i.Status == StatusActive
}
