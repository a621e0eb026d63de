package v1

import (
	"github.com/shenikar/crime_alerting_system/internal/alert"
	"github.com/shenikar/crime_alerting_system/internal/models"
)

// DTOToIncidentModel преобразует DTO создания/обновления в доменную модель.
// Используем одну функцию, так как поля совпадают.
func DTOToIncidentModel(dto any) *models.Incident {
	switch v := dto.(type) {
	case CreateIncidentRequest:
		return &models.Incident{
			Category:     v.Category,
			Priority:     v.Priority,
			Description:  v.Description,
			Latitude:     v.Latitude,
			Longitude:    v.Longitude,
			District:     v.District,
			Address:      v.Address,
			ReporterName: v.ReporterName,
		}
	case UpdateIncidentRequest:
		return &models.Incident{
			Category:     v.Category,
			Priority:     v.Priority,
			Description:  v.Description,
			Latitude:     v.Latitude,
			Longitude:    v.Longitude,
			District:     v.District,
			Address:      v.Address,
			ReporterName: v.ReporterName,
		}
	}
	return nil
}

// IngestToIncidentModel преобразует элемент пакета ингеста в доменную модель
func IngestToIncidentModel(dto IngestIncident) *models.Incident {
	return &models.Incident{
		ID:           dto.ID,
		Category:     dto.Category,
		Priority:     dto.Priority,
		Description:  dto.Description,
		Latitude:     dto.Latitude,
		Longitude:    dto.Longitude,
		District:     dto.District,
		Address:      dto.Address,
		ReporterName: dto.ReporterName,
		Status:       dto.Status,
		CreatedAt:    dto.CreatedAt,
	}
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:           model.ID,
		Category:     model.Category,
		Priority:     model.Priority,
		Description:  model.Description,
		Latitude:     model.Latitude,
		Longitude:    model.Longitude,
		District:     model.District,
		Address:      model.Address,
		ReporterName: model.ReporterName,
		Status:       model.Status,
		CreatedAt:    model.CreatedAt,
		ResolvedAt:   model.ResolvedAt,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(models []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

// OverlayToResponse преобразует состояние оверлея в DTO
func OverlayToResponse(overlay alert.Overlay) *OverlayResponse {
	resp := &OverlayResponse{
		Visible: overlay.Visible,
	}
	if overlay.Visible {
		id := overlay.CurrentIncidentID
		resp.CurrentIncidentID = &id
		if !overlay.ExpiresAt.IsZero() {
			expires := overlay.ExpiresAt
			resp.ExpiresAt = &expires
		}
	}
	return resp
}
