package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/coachflow/backend/internal/services"
	"github.com/huangang/coachflow/backend/pkg/response"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{dashboardService: services.NewDashboardService(db)}
}

// GetStats returns dashboard statistics for the caller's role
// GET /{role}/dashboard
func (h *DashboardHandler) GetStats(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req services.DashboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	stats, err := h.dashboardService.GetStats(actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, stats)
}
