package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rmarek/headshot-service/internal/storage"
)

// AdminHandler handles administrative endpoints backed by the job log.
type AdminHandler struct {
	jobs   storage.JobRepository
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(jobs storage.JobRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		jobs:   jobs,
		logger: logger,
	}
}

// Stats returns aggregate processing statistics.
// Route: GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.jobs.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("loading job stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Jobs returns the most recent job records.
// Route: GET /api/v1/admin/jobs?limit=20
func (h *AdminHandler) Jobs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "limit must be between 1 and 500",
		})
		return
	}

	jobs, err := h.jobs.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("loading recent jobs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}
