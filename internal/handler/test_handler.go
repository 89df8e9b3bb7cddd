package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/discoverly/visibility-service/internal/report"
	"github.com/discoverly/visibility-service/internal/service"
)

// TestHandler runs discoverability and competitive tests over HTTP.
// Runs are synchronous: the response is the finished report. Even a run
// where every provider call failed returns 200 with a zero success rate —
// that is a complete, diagnosable result, not a server error.
type TestHandler struct {
	orchestrator *service.Orchestrator
	competitive  *service.CompetitiveOrchestrator
	logger       *zap.Logger
}

// NewTestHandler creates a TestHandler over both pipelines.
func NewTestHandler(orchestrator *service.Orchestrator, competitive *service.CompetitiveOrchestrator, logger *zap.Logger) *TestHandler {
	return &TestHandler{
		orchestrator: orchestrator,
		competitive:  competitive,
		logger:       logger,
	}
}

// RunDiscoverability executes a full discoverability run.
// Route: POST /api/v1/tests/discoverability
func (h *TestHandler) RunDiscoverability(c *gin.Context) {
	var req service.TestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	rep, err := h.orchestrator.RunDiscoverabilityTest(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrNoProviders) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		h.logger.Warn("discoverability run rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report.ToExport(*rep))
}

// RunCompetitive executes a competitive analysis run.
// Route: POST /api/v1/tests/competitive
func (h *TestHandler) RunCompetitive(c *gin.Context) {
	var req service.CompetitiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	analysis, err := h.competitive.RunCompetitiveAnalysis(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrNoProviders) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		h.logger.Warn("competitive run rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, analysis)
}
