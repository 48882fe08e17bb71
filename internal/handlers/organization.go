package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/coachflow/backend/internal/middleware"
	"github.com/huangang/coachflow/backend/internal/services"
	"github.com/huangang/coachflow/backend/pkg/response"
	"gorm.io/gorm"
)

type OrganizationHandler struct {
	organizationService *services.OrganizationService
}

func NewOrganizationHandler(db *gorm.DB) *OrganizationHandler {
	return &OrganizationHandler{organizationService: services.NewOrganizationService(db)}
}

type memberStatusRequest struct {
	Status string `json:"status" binding:"required,membership_status"`
}

type memberListRequest struct {
	Role string `form:"role" binding:"omitempty,org_role"`
}

// Create makes the caller the manager of a new organization
// POST /organizations
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req services.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	org, err := h.organizationService.CreateOrganization(middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, org, "")
}

// AddMember adds an existing user to the manager's organization
// POST /manager/members
func (h *OrganizationHandler) AddMember(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req services.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	membership, err := h.organizationService.AddMember(actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, membership, "")
}

// ListMembers lists memberships, optionally filtered by role
// GET /manager/members
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req memberListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	members, err := h.organizationService.ListMembers(actor, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, members)
}

// SetMemberStatus activates or deactivates a membership
// PATCH /manager/members/:userId/status
func (h *OrganizationHandler) SetMemberStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	var req memberStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	membership, err := h.organizationService.SetMemberStatus(actor, userID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, membership)
}
