package handler

import (
	"errors"
	"net/http"

	"taskpulse/internal/service"
	"taskpulse/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RecipientHandler manages the report distribution list over HTTP.
type RecipientHandler struct {
	recipientService *service.RecipientService
}

// NewRecipientHandler creates a new recipient handler
func NewRecipientHandler(recipientService *service.RecipientService) *RecipientHandler {
	return &RecipientHandler{recipientService: recipientService}
}

// List returns the current distribution list.
// @Summary List report recipients
// @Produce json
// @Router /api/v1/recipients [get]
func (h *RecipientHandler) List(c *gin.Context) {
	recipients, err := h.recipientService.List()
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to load recipients: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipients": recipients,
		"total":      len(recipients),
	})
}

// Add validates and appends one address.
// @Summary Add a report recipient
// @Accept json
// @Produce json
// @Router /api/v1/recipients [post]
func (h *RecipientHandler) Add(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email required"})
		return
	}

	if err := h.recipientService.Add(req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyPresent):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrListFull):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			logger.ErrorCtx(c.Request.Context(), "failed to add recipient: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"email": req.Email})
}

// Remove drops one address; removing an absent address succeeds.
// @Summary Remove a report recipient
// @Produce json
// @Param email path string true "Recipient address"
// @Router /api/v1/recipients/{email} [delete]
func (h *RecipientHandler) Remove(c *gin.Context) {
	email := c.Param("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email required"})
		return
	}

	if err := h.recipientService.Remove(email); err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to remove recipient: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": email})
}
