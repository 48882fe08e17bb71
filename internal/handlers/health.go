package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangang/coachflow/backend/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the database and notification queue.
type HealthHandler struct {
	db    *gorm.DB
	queue services.TaskQueue
}

func NewHealthHandler(db *gorm.DB, queue services.TaskQueue) *HealthHandler {
	return &HealthHandler{db: db, queue: queue}
}

// CheckHealth
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	queueMode := "none"
	if h.queue != nil {
		queueMode = "sync"
		if h.queue.IsAsync() {
			queueMode = "async (Redis)"
		}
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "coachflow",
		"components": gin.H{
			"database":   dbStatus,
			"queue_mode": queueMode,
		},
	})
}
