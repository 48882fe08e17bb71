package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/coachflow/backend/internal/services"
	"github.com/huangang/coachflow/backend/pkg/response"
	"gorm.io/gorm"
)

type SessionHandler struct {
	engagementService *services.EngagementService
}

func NewSessionHandler(db *gorm.DB, notifier services.Notifier, publicURL string) *SessionHandler {
	return &SessionHandler{engagementService: services.NewEngagementService(db, notifier, publicURL)}
}

// Create requests a session
// POST /manager/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req services.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.engagementService.CreateSession(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result.Session, result.Warning)
}

// List lists sessions visible to the caller's role
// GET /{role}/sessions
func (h *SessionHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req services.SessionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	sessions, err := h.engagementService.ListSessions(actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, sessions)
}

// Get returns one session
// GET /{role}/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	session, err := h.engagementService.GetSession(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, session)
}

// Respond accepts or declines a requested session
// PATCH /coach/sessions/:id/status
func (h *SessionHandler) Respond(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.engagementService.RespondToRequest(actor, id, *req.IsAccepted)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, session)
}

// MarkStatus completes or cancels a scheduled session
// PATCH /{manager,coach}/sessions/:id
func (h *SessionHandler) MarkStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.MarkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.engagementService.MarkStatus(actor, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, session)
}

// UpdateNotes replaces the coach's session notes
// PATCH /coach/sessions/:id/notes
func (h *SessionHandler) UpdateNotes(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.engagementService.UpdateNotes(actor, id, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, session)
}
