package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"taskpulse/internal/service"
	"taskpulse/pkg/logger"

	"github.com/gin-gonic/gin"
)

const queryDateLayout = "2006-01-02"

// RecordHandler serves the dashboard's record queries: filtered lists,
// key metrics, chart breakdowns and CSV export.
type RecordHandler struct {
	recordService *service.RecordService
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(recordService *service.RecordService) *RecordHandler {
	return &RecordHandler{recordService: recordService}
}

// List returns the normalized records matching the query filters.
// @Summary List task records
// @Produce json
// @Router /api/v1/records [get]
func (h *RecordHandler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.recordService.Query(filter)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to query records: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   len(records),
	})
}

// Summary returns the key metrics over the filtered set.
// @Summary Get record summary metrics
// @Produce json
// @Router /api/v1/records/summary [get]
func (h *RecordHandler) Summary(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.recordService.Summary(filter)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to compute summary: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Breakdown returns the chart data series for one grouping dimension.
// @Summary Get record breakdown by dimension
// @Produce json
// @Param by query string true "Grouping dimension"
// @Param limit query int false "Number of groups to return (default: 10, max: 50)"
// @Router /api/v1/records/breakdown [get]
func (h *RecordHandler) Breakdown(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := 0
	if limitParam := c.Query("limit"); limitParam != "" {
		if parsedLimit, err := strconv.Atoi(limitParam); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	groups, err := h.recordService.Breakdown(filter, c.Query("by"), limit)
	if err != nil {
		if errors.Is(err, service.ErrUnknownDimension) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.ErrorCtx(c.Request.Context(), "failed to compute breakdown: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"by":     c.Query("by"),
		"groups": groups,
		"total":  len(groups),
	})
}

// Export streams the filtered set as a CSV download.
// @Summary Export filtered records as CSV
// @Produce text/csv
// @Router /api/v1/records/export [get]
func (h *RecordHandler) Export(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, filename, err := h.recordService.ExportCSV(filter, time.Now())
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to export records: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// parseFilter builds a record filter from the shared query params.
func parseFilter(c *gin.Context) (service.RecordFilter, error) {
	filter := service.RecordFilter{
		Status:    c.Query("status"),
		Project:   c.Query("project"),
		College:   c.Query("college"),
		TaskTitle: c.Query("task_title"),
		Query:     c.Query("q"),
	}

	if fromParam := c.Query("from_date"); fromParam != "" {
		from, err := time.Parse(queryDateLayout, fromParam)
		if err != nil {
			return filter, fmt.Errorf("invalid from_date %q, expected YYYY-MM-DD", fromParam)
		}
		filter.From = &from
	}
	if toParam := c.Query("to_date"); toParam != "" {
		to, err := time.Parse(queryDateLayout, toParam)
		if err != nil {
			return filter, fmt.Errorf("invalid to_date %q, expected YYYY-MM-DD", toParam)
		}
		// inclusive end of day
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &to
	}
	return filter, nil
}
