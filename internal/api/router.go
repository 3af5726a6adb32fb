package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fleetwatch/fleet-ingest-go/internal/handler"
)

// SetupRouter wires the operator control endpoints
func SetupRouter(pipelineHandler *handler.PipelineHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		p := api.Group("/pipeline")
		{
			p.GET("/status", pipelineHandler.GetStatus)
			p.POST("/start", pipelineHandler.Start)
			p.POST("/stop", pipelineHandler.Stop)
			p.POST("/restart", pipelineHandler.Restart)
			p.POST("/process", pipelineHandler.Process)
			p.POST("/reset", pipelineHandler.ResetCounters)
			p.GET("/root", pipelineHandler.GetRoot)
			p.PUT("/root", pipelineHandler.SetRoot)
		}
	}

	return r
}
