package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/coachflow/backend/internal/services"
	"github.com/huangang/coachflow/backend/pkg/response"
	"gorm.io/gorm"
)

type GoalHandler struct {
	goalService *services.GoalService
}

func NewGoalHandler(db *gorm.DB) *GoalHandler {
	return &GoalHandler{goalService: services.NewGoalService(db)}
}

// Create adds a goal for an entrepreneur of a session
// POST /{manager,coach}/goals
func (h *GoalHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req services.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	goal, err := h.goalService.CreateGoal(actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, goal, "")
}

// List lists the goals visible to the caller's role
// GET /{role}/goals
func (h *GoalHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req services.GoalListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	goals, err := h.goalService.ListGoals(actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, goals)
}

// UpdateProgress sets progress and optionally appends a log entry
// PATCH /coach/goals/:id
func (h *GoalHandler) UpdateProgress(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var note string
	if req.Update != nil {
		note = req.Update.Content
	}
	goal, err := h.goalService.UpdateProgress(actor, id, *req.Progress, note)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, goal)
}
