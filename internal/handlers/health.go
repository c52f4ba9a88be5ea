package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusProvider reports background worker status
type StatusProvider interface {
	GetStatus() map[string]interface{}
}

// HealthHandler handles liveness and worker status requests
type HealthHandler struct {
	workers StatusProvider
	devMode bool
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(workers StatusProvider, devMode bool) *HealthHandler {
	return &HealthHandler{workers: workers, devMode: devMode}
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "earthistory",
		"dev_mode": h.devMode,
	})
}

// WorkerStatus handles GET /api/worker/status
func (h *HealthHandler) WorkerStatus(c *gin.Context) {
	if h.workers == nil {
		c.JSON(http.StatusOK, gin.H{"worker_status": gin.H{"running": false}})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"worker_status": h.workers.GetStatus(),
	})
}
