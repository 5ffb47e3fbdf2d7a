package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"taskpulse/internal/service"
	"taskpulse/pkg/logger"

	"github.com/gin-gonic/gin"
)

// MailSender is the mail submission seam.
type MailSender interface {
	Send(ctx context.Context, recipients []string, subject, plainBody, htmlBody, attachmentPath string) error
}

// ReportHandler triggers the report pipeline on demand. Unlike the
// scheduled run, failures come back inline so the caller sees exactly
// why nothing was sent.
type ReportHandler struct {
	fetchService     *service.FetchService
	reportService    *service.ReportService
	recipientService *service.RecipientService
	mailSender       MailSender
}

// NewReportHandler creates a new report handler
func NewReportHandler(fetchService *service.FetchService, reportService *service.ReportService, recipientService *service.RecipientService, mailSender MailSender) *ReportHandler {
	return &ReportHandler{
		fetchService:     fetchService,
		reportService:    reportService,
		recipientService: recipientService,
		mailSender:       mailSender,
	}
}

// Send runs fetch, build and send immediately.
// @Summary Trigger the daily report pipeline now
// @Produce json
// @Success 200 {object} map[string]interface{} "Run ID, summary and recipient count"
// @Router /api/v1/report/send [post]
func (h *ReportHandler) Send(c *gin.Context) {
	ctx := c.Request.Context()
	now := time.Now()

	recipients, err := h.recipientService.List()
	if err != nil {
		logger.ErrorCtx(ctx, "manual send: loading recipients failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(recipients) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "recipient list is empty"})
		return
	}

	records, err := h.fetchService.Fetch(ctx, now.AddDate(0, 0, -1), now)
	if err != nil {
		logger.ErrorCtx(ctx, "manual send: fetch failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	report, err := h.reportService.Build(records, now)
	if err != nil {
		if errors.Is(err, service.ErrNoRecords) {
			c.JSON(http.StatusConflict, gin.H{"error": "no task records in the report window"})
			return
		}
		logger.ErrorCtx(ctx, "manual send: report build failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.mailSender.Send(ctx, recipients, report.Subject, report.PlainBody, report.HTMLBody, report.CSVPath); err != nil {
		logger.ErrorCtx(ctx, "manual send: submission failed (run %s): %v", report.RunID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":     report.RunID,
		"summary":    report.Summary,
		"recipients": len(recipients),
	})
}
