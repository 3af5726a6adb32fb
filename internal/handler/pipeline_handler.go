package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fleetwatch/fleet-ingest-go/internal/pipeline"
	"github.com/fleetwatch/fleet-ingest-go/pkg/response"
)

// PipelineHandler exposes operator controls over the orchestrator. All
// endpoints are thin pass-throughs into its public operations.
type PipelineHandler struct {
	orchestrator *pipeline.Orchestrator
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(orchestrator *pipeline.Orchestrator) *PipelineHandler {
	return &PipelineHandler{orchestrator: orchestrator}
}

// GetStatus handles GET /api/v1/pipeline/status
func (h *PipelineHandler) GetStatus(c *gin.Context) {
	response.Success(c, gin.H{
		"running":  h.orchestrator.Running(),
		"scanRoot": h.orchestrator.Root(),
		"totals":   h.orchestrator.Totals(),
	})
}

// Start handles POST /api/v1/pipeline/start
func (h *PipelineHandler) Start(c *gin.Context) {
	h.orchestrator.Start()
	response.Success(c, gin.H{"running": true})
}

// Stop handles POST /api/v1/pipeline/stop
func (h *PipelineHandler) Stop(c *gin.Context) {
	h.orchestrator.Stop()
	response.Success(c, gin.H{"running": false})
}

// Restart handles POST /api/v1/pipeline/restart
func (h *PipelineHandler) Restart(c *gin.Context) {
	h.orchestrator.Restart()
	response.Success(c, gin.H{"running": true})
}

// Process handles POST /api/v1/pipeline/process: force one cycle now
func (h *PipelineHandler) Process(c *gin.Context) {
	stats, err := h.orchestrator.RunCycle(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "cycle failed", err)
		return
	}
	response.Success(c, stats)
}

// ResetCounters handles POST /api/v1/pipeline/reset
func (h *PipelineHandler) ResetCounters(c *gin.Context) {
	h.orchestrator.ResetTotals()
	response.Success(c, h.orchestrator.Totals())
}

// GetRoot handles GET /api/v1/pipeline/root
func (h *PipelineHandler) GetRoot(c *gin.Context) {
	response.Success(c, gin.H{"scanRoot": h.orchestrator.Root()})
}

type rootRequest struct {
	ScanRoot string `json:"scanRoot" binding:"required"`
}

// SetRoot handles PUT /api/v1/pipeline/root
func (h *PipelineHandler) SetRoot(c *gin.Context) {
	var req rootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	h.orchestrator.SetRoot(req.ScanRoot)
	response.Success(c, gin.H{"scanRoot": h.orchestrator.Root()})
}
