package handler

import (
	"net/http"

	"taskpulse/internal/model"
	"taskpulse/internal/scheduler"
	"taskpulse/pkg/logger"
	filestore "taskpulse/pkg/store/file"

	"github.com/gin-gonic/gin"
)

// ScheduleHandler reads and overwrites the daily trigger time. A PUT
// both persists the new time and reschedules the live cron entry.
type ScheduleHandler struct {
	scheduleStore *filestore.ScheduleStore
	registry      *scheduler.Registry
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(scheduleStore *filestore.ScheduleStore, registry *scheduler.Registry) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleStore: scheduleStore,
		registry:      registry,
	}
}

// Get returns the persisted trigger time.
// @Summary Get the daily report schedule
// @Produce json
// @Router /api/v1/schedule [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	sched, err := h.scheduleStore.Load()
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to load schedule: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sched)
}

// Put overwrites the trigger time and reschedules the live entry.
// @Summary Update the daily report schedule
// @Accept json
// @Produce json
// @Router /api/v1/schedule [put]
func (h *ScheduleHandler) Put(c *gin.Context) {
	var sched model.ScheduleConfig
	if err := c.ShouldBindJSON(&sched); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected {\"hour\": 0-23, \"minute\": 0-59}"})
		return
	}
	if !sched.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hour must be 0-23 and minute 0-59"})
		return
	}

	if err := h.scheduleStore.Save(sched); err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to persist schedule: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.registry.Schedule(sched); err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to reschedule daily job: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sched)
}
