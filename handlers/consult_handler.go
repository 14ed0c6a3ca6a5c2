package handlers

import (
	"context"
	"net/http"

	"lawconsult-backend/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// consultRunner is the pipeline boundary exposed by the service layer
type consultRunner interface {
	Consult(ctx context.Context, query string) (*models.ConsultResponse, error)
}

// historySink accepts completed consultations for durable logging
type historySink interface {
	Create(ctx context.Context, record *models.ConsultationRecord) error
}

// ConsultHandler handles HTTP requests for consultations
type ConsultHandler struct {
	consult consultRunner
	history historySink
	logger  *zap.Logger
}

// NewConsultHandler creates a new consult handler
func NewConsultHandler(consult consultRunner, history historySink, logger *zap.Logger) *ConsultHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsultHandler{
		consult: consult,
		history: history,
		logger:  logger,
	}
}

// ConsultRequest represents the request body for a consultation
type ConsultRequest struct {
	Query string `json:"query" binding:"required"`
}

// Consult handles POST /api/consult
func (h *ConsultHandler) Consult(c *gin.Context) {
	var req ConsultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.consult.Consult(c.Request.Context(), req.Query)
	if err != nil {
		// Which stage failed stays in the logs; clients get a generic outcome
		h.logger.Error("consultation pipeline failed",
			zap.String("query", req.Query),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ANALYSIS_FAILED",
				"message": "analysis failed, please retry",
			},
		})
		return
	}

	// Fire-and-forget: a full history log must never fail the consultation
	if h.history != nil {
		record := &models.ConsultationRecord{
			Query:  req.Query,
			Result: *result,
		}
		if err := h.history.Create(c.Request.Context(), record); err != nil {
			h.logger.Warn("failed to persist consultation record", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, result)
}
