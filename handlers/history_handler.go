package handlers

import (
	"context"
	"net/http"

	"lawconsult-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// historyStore is the read/delete surface of the consultation log
type historyStore interface {
	List(ctx context.Context) ([]models.ConsultationRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// HistoryHandler handles HTTP requests for the consultation history
type HistoryHandler struct {
	history historyStore
	logger  *zap.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history historyStore, logger *zap.Logger) *HistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryHandler{history: history, logger: logger}
}

// List handles GET /api/history
func (h *HistoryHandler) List(c *gin.Context) {
	records, err := h.history.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list consultation history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": "failed to load history",
			},
		})
		return
	}

	if records == nil {
		records = []models.ConsultationRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// Delete handles DELETE /api/history/:id
func (h *HistoryHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "invalid record id",
			},
		})
		return
	}

	if err := h.history.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("failed to delete consultation record",
			zap.String("id", id.String()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DELETE_FAILED",
				"message": "failed to delete record",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
