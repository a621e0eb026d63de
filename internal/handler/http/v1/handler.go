package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/crime_alerting_system/internal/config"
	"github.com/shenikar/crime_alerting_system/internal/models"
	"github.com/shenikar/crime_alerting_system/internal/service"
	"github.com/shenikar/crime_alerting_system/internal/timeline"
	"github.com/shenikar/crime_alerting_system/internal/ws"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	incidentService service.IncidentService
	timeline        *timeline.Driver
	hub             *ws.Hub
	logger          *logrus.Logger
	validate        *validator.Validate
	cfg             *config.Config
}

func NewHandler(incidentService service.IncidentService, driver *timeline.Driver, hub *ws.Hub, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		incidentService: incidentService,
		timeline:        driver,
		hub:             hub,
		logger:          logger,
		validate:        validator.New(),
		cfg:             cfg,
	}
}

// @Summary Create a new incident
// @Description Create a new incident report. The incident enters the active set and triggers the alert pipeline. Requires API key.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param incident body CreateIncidentRequest true "Incident creation request"
// @Success 201 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	var input CreateIncidentRequest
	log := h.logger.WithField("method", "createIncident")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model := DTOToIncidentModel(input)
	if err := h.incidentService.CreateIncident(c.Request.Context(), model); err != nil {
		log.WithError(err).Error("Failed to create incident in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, ModelToIncidentResponse(model))
}

// @Summary Get a list of incidents
// @Description Get a paginated list of all incidents. Requires API key.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Number of items per page" default(10)
// @Success 200 {array} IncidentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))

	incidents, err := h.incidentService.ListIncidents(c.Request.Context(), page, pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Get incident by ID
// @Description Get a single incident by its ID. Requires API key.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidentService.GetIncident(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident from service")
		c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Update an existing incident
// @Description Update an existing incident by ID. Status is not updatable here, use resolve endpoints. Requires API key.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Param incident body UpdateIncidentRequest true "Incident update request"
// @Success 200 "OK"
// @Failure 400 {object} map[string]string "Invalid incident ID or request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [put]
func (h *Handler) updateIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "updateIncident").WithField("id", id)

	var input UpdateIncidentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model := DTOToIncidentModel(input)
	model.ID = id

	if err := h.incidentService.UpdateIncident(c.Request.Context(), model); err != nil {
		log.WithError(err).Error("Failed to update incident in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update incident in service"})
		return
	}
	c.Status(http.StatusOK)
}

// @Summary Ingest a batch of incidents
// @Description Accept a batch of incident records from the ingestion collaborator and apply the diff to the alert pipeline. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param batch body IngestRequest true "Incident batch"
// @Success 202 "Accepted"
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/ingest [post]
func (h *Handler) ingestBatch(c *gin.Context) {
	var input IngestRequest
	log := h.logger.WithField("method", "ingestBatch")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batch := make([]*models.Incident, 0, len(input.Incidents))
	for _, dto := range input.Incidents {
		batch = append(batch, IngestToIncidentModel(dto))
	}

	if err := h.incidentService.IngestBatch(c.Request.Context(), batch); err != nil {
		log.WithError(err).Error("Failed to ingest batch in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusAccepted)
}

// @Summary Resolve an incident
// @Description Manually acknowledge a single incident. Its marker is removed from the map. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id}/resolve [post]
func (h *Handler) resolveIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "resolveIncident").WithField("id", id)

	if err := h.incidentService.ResolveIncident(c.Request.Context(), id); err != nil {
		log.WithError(err).Error("Failed to resolve incident in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve incident"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Resolve all active incidents
// @Description Bulk acknowledge every active incident. All markers are removed, the overlay is hidden. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/resolve-all [post]
func (h *Handler) resolveAll(c *gin.Context) {
	log := h.logger.WithField("method", "resolveAll")

	if err := h.incidentService.ResolveAll(c.Request.Context()); err != nil {
		log.WithError(err).Error("Failed to resolve all incidents in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve all incidents"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary List active incidents
// @Description Get the current active working set ordered by creation time. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} IncidentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /incidents/active [get]
func (h *Handler) listActive(c *gin.Context) {
	c.JSON(http.StatusOK, ModelsToIncidentResponses(h.incidentService.ActiveIncidents()))
}

// @Summary Get alert overlay state
// @Description Get the current full-screen alert overlay state. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} OverlayResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /overlay [get]
func (h *Handler) getOverlay(c *gin.Context) {
	c.JSON(http.StatusOK, OverlayToResponse(h.incidentService.OverlayState()))
}

// @Summary Dismiss the alert overlay
// @Description Explicit operator dismissal of the full-screen alert overlay. Markers stay on the map. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /overlay/dismiss [post]
func (h *Handler) dismissOverlay(c *gin.Context) {
	h.incidentService.DismissOverlay()
	c.Status(http.StatusNoContent)
}

// @Summary Get aggregate statistics
// @Description Get incident counts grouped by category, district and priority. Requires API key.
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} StatsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/stats [get]
func (h *Handler) getStats(c *gin.Context) {
	log := h.logger.WithField("method", "getStats")

	stats, err := h.incidentService.GetStats(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to get stats from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		ActiveCount: stats.ActiveCount,
		TotalCount:  stats.TotalCount,
		ByCategory:  stats.ByCategory,
		ByDistrict:  stats.ByDistrict,
		ByPriority:  stats.ByPriority,
	})
}

// @Summary Get timeline state
// @Description Get the current time-lapse timeline position. Requires API key.
// @Tags Timeline
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} TimelineStateResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /timeline [get]
func (h *Handler) getTimeline(c *gin.Context) {
	c.JSON(http.StatusOK, h.timelineResponse(h.timeline.Snapshot()))
}

// @Summary Get timeline bounds
// @Description Get the year range covered by historical incidents. Requires API key.
// @Tags Timeline
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.TimelineBounds
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /timeline/bounds [get]
func (h *Handler) getTimelineBounds(c *gin.Context) {
	log := h.logger.WithField("method", "getTimelineBounds")

	bounds, err := h.incidentService.GetTimelineBounds(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to get timeline bounds from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, bounds)
}

// @Summary Start timeline playback
// @Description Start autonomous time-lapse playback. Requires API key.
// @Tags Timeline
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} TimelineStateResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /timeline/play [post]
func (h *Handler) playTimeline(c *gin.Context) {
	h.timeline.Play()
	c.JSON(http.StatusOK, h.timelineResponse(h.timeline.Snapshot()))
}

// @Summary Pause timeline playback
// @Description Pause autonomous time-lapse playback. Requires API key.
// @Tags Timeline
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} TimelineStateResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /timeline/pause [post]
func (h *Handler) pauseTimeline(c *gin.Context) {
	h.timeline.Pause()
	c.JSON(http.StatusOK, h.timelineResponse(h.timeline.Snapshot()))
}

// @Summary Scrub the timeline
// @Description Set the timeline position directly by percent of the full range. Requires API key.
// @Tags Timeline
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param scrub body ScrubRequest true "Scrub request"
// @Success 200 {object} TimelineStateResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /timeline/scrub [post]
func (h *Handler) scrubTimeline(c *gin.Context) {
	var input ScrubRequest
	log := h.logger.WithField("method", "scrubTimeline")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.timelineResponse(h.timeline.ScrubTo(input.Percent)))
}

// @Summary Begin or end dragging the timeline slider
// @Description Dragging suspends autonomous playback advancement without stopping the frame loop. Requires API key.
// @Tags Timeline
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param drag body DragRequest true "Drag request"
// @Success 200 {object} TimelineStateResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /timeline/drag [post]
func (h *Handler) dragTimeline(c *gin.Context) {
	var input DragRequest
	log := h.logger.WithField("method", "dragTimeline")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if input.Dragging {
		h.timeline.BeginDrag()
	} else {
		h.timeline.EndDrag()
	}
	c.JSON(http.StatusOK, h.timelineResponse(h.timeline.Snapshot()))
}

func (h *Handler) timelineResponse(st timeline.State) TimelineStateResponse {
	return TimelineStateResponse{
		Year:             st.Year,
		Month:            st.Month,
		SubMonthProgress: st.SubMonthProgress,
		ProgressPercent:  h.timeline.ProgressPercent(),
		Playing:          st.Playing,
		Dragging:         st.Dragging,
	}
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
