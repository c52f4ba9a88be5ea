package handlers

import (
	"context"
	"errors"
	"html"
	"net/http"
	"strconv"

	"earthistory/internal/models"
	"earthistory/internal/worker"

	"github.com/gin-gonic/gin"
)

// RunLister reads recorded ingestion runs
type RunLister interface {
	Recent(ctx context.Context, limit int) ([]models.IngestionRun, error)
	Get(ctx context.Context, id string) (*models.IngestionRun, error)
}

// EventCounter counts stored events
type EventCounter interface {
	Count(ctx context.Context) (int64, error)
}

// ReingestTrigger starts one bulk run on demand. started is false when a run
// is already in progress.
type ReingestTrigger interface {
	TriggerReingest() (started bool, err error)
}

// AdminHandler handles the admin interface
type AdminHandler struct {
	runs     RunLister
	events   EventCounter
	reingest ReingestTrigger
	password string
}

// NewAdminHandler creates a new admin handler. Any dependency may be nil
// when the server runs without a database or without periodic ingestion.
func NewAdminHandler(runs RunLister, events EventCounter, reingest ReingestTrigger, password string) *AdminHandler {
	return &AdminHandler{
		runs:     runs,
		events:   events,
		reingest: reingest,
		password: password,
	}
}

// AdminAuth middleware for basic password protection
func (h *AdminHandler) AdminAuth() gin.HandlerFunc {
	return gin.BasicAuth(gin.Accounts{
		"admin": h.password,
	})
}

// ServeAdminDashboard serves the main admin dashboard
func (h *AdminHandler) ServeAdminDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	eventCount := int64(-1)
	if h.events != nil {
		if n, err := h.events.Count(ctx); err == nil {
			eventCount = n
		}
	}

	var recent []models.IngestionRun
	if h.runs != nil {
		recent, _ = h.runs.Recent(ctx, 10)
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, h.generateAdminDashboardHTML(eventCount, recent))
}

// ListRuns handles GET /admin/runs
func (h *AdminHandler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not available"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}

	runs, err := h.runs.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list runs", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRun handles GET /admin/runs/:id
func (h *AdminHandler) GetRun(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not available"})
		return
	}
	run, err := h.runs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load run", "details": err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// TriggerReingest handles POST /admin/reingest
func (h *AdminHandler) TriggerReingest(c *gin.Context) {
	if h.reingest == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Periodic ingestion is not configured"})
		return
	}

	started, err := h.reingest.TriggerReingest()
	switch {
	case errors.Is(err, worker.ErrReingestDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Periodic ingestion is not configured"})
		return
	case err != nil:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Background workers are not running", "details": err.Error()})
		return
	case !started:
		c.JSON(http.StatusConflict, gin.H{"error": "A re-ingestion run is already in progress"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Bulk re-ingestion triggered",
	})
}

// generateAdminDashboardHTML generates the admin dashboard. A negative
// eventCount means the count is unavailable.
func (h *AdminHandler) generateAdminDashboardHTML(eventCount int64, runs []models.IngestionRun) string {
	count := "n/a"
	if eventCount >= 0 {
		count = strconv.FormatInt(eventCount, 10)
	}

	return `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Earthistory Admin</title>
    <style>
        body { font-family: system-ui, sans-serif; margin: 2rem; color: #1e293b; background: #f8fafc; }
        .stat { display: inline-block; padding: 1rem 1.5rem; background: white; border: 1px solid #e2e8f0; border-radius: 8px; }
        table { border-collapse: collapse; width: 100%; margin-top: 1.5rem; background: white; }
        th, td { padding: 0.5rem 0.75rem; border-bottom: 1px solid #e2e8f0; text-align: left; font-size: 0.9rem; }
        .failed, .rejected { color: #dc2626; }
        .completed { color: #16a34a; }
    </style>
</head>
<body>
    <h1>Earthistory Admin</h1>
    <div class="stat"><strong>` + count + `</strong> events stored</div>
    <h2>Recent ingestion runs</h2>
    ` + h.generateRecentRunsHTML(runs) + `
</body>
</html>`
}

func (h *AdminHandler) generateRecentRunsHTML(runs []models.IngestionRun) string {
	if len(runs) == 0 {
		return `<p>No runs recorded yet.</p>`
	}

	rows := ""
	for _, run := range runs {
		rows += `<tr>
            <td>` + run.StartedAt.Format("2006-01-02 15:04") + `</td>
            <td>` + html.EscapeString(run.Mode) + `</td>
            <td>` + html.EscapeString(run.Topic) + `</td>
            <td class="` + html.EscapeString(run.Status) + `">` + html.EscapeString(run.Status) + `</td>
            <td>` + strconv.Itoa(run.Fetched) + `</td>
            <td>` + strconv.Itoa(run.Inserted) + `</td>
            <td>` + strconv.Itoa(run.Violations) + `</td>
            <td>` + html.EscapeString(run.Error) + `</td>
        </tr>`
	}
	return `<table>
        <tr><th>Started</th><th>Mode</th><th>Topic</th><th>Status</th><th>Fetched</th><th>Inserted</th><th>Violations</th><th>Error</th></tr>
        ` + rows + `
    </table>`
}
