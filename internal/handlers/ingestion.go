package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"earthistory/internal/ingest"
	"earthistory/internal/logger"
	"earthistory/internal/provenance"
	"earthistory/internal/services"
	"earthistory/internal/sparql"

	"github.com/gin-gonic/gin"
)

// IngestionHandler handles topic ingestion requests
type IngestionHandler struct {
	service *services.IngestionService
	log     *logger.Logger
}

// NewIngestionHandler creates a new ingestion handler
func NewIngestionHandler(service *services.IngestionService, log *logger.Logger) *IngestionHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &IngestionHandler{service: service, log: log.With("handler", "ingestion")}
}

// Register mounts the ingestion routes. Writes go through guard.
func (h *IngestionHandler) Register(rg *gin.RouterGroup, guard gin.HandlerFunc) {
	rg.POST("/preview", h.Preview)
	rg.GET("/topics", h.Topics)

	writes := rg.Group("", guard)
	{
		writes.POST("/confirm", h.Confirm)
		writes.POST("/batch", h.Batch)
		writes.POST("/topic", h.IngestTopic)
	}
}

type topicRequest struct {
	Topic string `json:"topic"`
}

type confirmRequest struct {
	Topic string `json:"topic"`
	QID   string `json:"qid"`
}

type batchRequest struct {
	Topics []string `json:"topics"`
}

func bindTopic(c *gin.Context) (string, bool) {
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Topic) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Topic is required"})
		return "", false
	}
	return strings.TrimSpace(req.Topic), true
}

// Preview handles POST /api/ingestion/preview
func (h *IngestionHandler) Preview(c *gin.Context) {
	topic, ok := bindTopic(c)
	if !ok {
		return
	}
	h.log.Info("🔎 Previewing topic", "topic", topic)

	res, err := h.service.Preview(c.Request.Context(), topic)
	if err != nil {
		h.writeError(c, topic, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Confirm handles POST /api/ingestion/confirm
func (h *IngestionHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Topic == "" || req.QID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Topic and QID are required"})
		return
	}
	if !sparql.ValidQID(req.QID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid QID"})
		return
	}
	h.log.Info("✅ Confirming ingestion", "topic", req.Topic, "qid", req.QID)

	res, err := h.service.Confirm(c.Request.Context(), req.Topic, req.QID)
	if err != nil {
		h.writeError(c, req.Topic, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Batch handles POST /api/ingestion/batch; an empty body ingests the curated topics
func (h *IngestionHandler) Batch(c *gin.Context) {
	var req batchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	res, err := h.service.Batch(c.Request.Context(), req.Topics)
	if err != nil {
		h.writeError(c, "", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Topics handles GET /api/ingestion/topics
func (h *IngestionHandler) Topics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"topics": services.CuratedTopics})
}

// IngestTopic handles POST /api/ingestion/topic
func (h *IngestionHandler) IngestTopic(c *gin.Context) {
	topic, ok := bindTopic(c)
	if !ok {
		return
	}
	h.log.Info("📥 Ingesting topic", "topic", topic)

	res, err := h.service.Ingest(c.Request.Context(), topic)
	if err != nil {
		h.writeError(c, topic, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *IngestionHandler) writeError(c *gin.Context, topic string, err error) {
	switch {
	case errors.Is(err, ingest.ErrTopicNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":       "Topic not found on Wikidata",
			"suggestions": h.service.Suggest(c.Request.Context(), topic),
		})
	case errors.Is(err, services.ErrNoEvents):
		c.JSON(http.StatusNotFound, gin.H{"error": "No events found"})
	case errors.Is(err, ingest.ErrNoStore):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not available"})
	case errors.Is(err, provenance.ErrLicenseViolation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "License check failed", "details": err.Error()})
	case errors.Is(err, sparql.ErrInvalidEntityID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid QID", "details": err.Error()})
	case errors.Is(err, context.Canceled):
		h.log.Warn("⚠️ Request cancelled", "topic", topic)
		c.Status(499)
	default:
		h.log.Error("❌ Ingestion request failed", "topic", topic, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream query failed", "details": err.Error()})
	}
}
