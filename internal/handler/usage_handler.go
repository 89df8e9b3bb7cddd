package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/discoverly/visibility-service/internal/model"
	"github.com/discoverly/visibility-service/internal/storage"
)

// UsageHandler exposes the enabled provider pairs and the spend recorded
// in the call ledger.
type UsageHandler struct {
	pairs    []model.ProviderModel
	callRepo storage.CallRepository
	logger   *zap.Logger
}

// NewUsageHandler creates a UsageHandler.
func NewUsageHandler(pairs []model.ProviderModel, callRepo storage.CallRepository, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{
		pairs:    pairs,
		callRepo: callRepo,
		logger:   logger,
	}
}

// Providers lists the configured (provider, model) pairs.
// Route: GET /api/v1/providers
func (h *UsageHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": h.pairs,
	})
}

// Usage returns per-provider call counts and accumulated cost.
// Route: GET /api/v1/usage
func (h *UsageHandler) Usage(c *gin.Context) {
	ctx := c.Request.Context()

	usage, err := h.callRepo.UsageByProvider(ctx)
	if err != nil {
		h.logger.Error("aggregating usage", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	total, err := h.callRepo.Count(ctx)
	if err != nil {
		h.logger.Error("counting calls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_calls": total,
		"providers":   usage,
	})
}
