package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/coachflow/backend/internal/config"
	"github.com/huangang/coachflow/backend/internal/middleware"
	"github.com/huangang/coachflow/backend/internal/services"
	"github.com/huangang/coachflow/backend/pkg/response"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService       *services.AuthService
	membershipService *services.MembershipService
	jwtConfig         *config.JWTConfig
}

func NewAuthHandler(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthHandler {
	return &AuthHandler{
		authService:       services.NewAuthService(db, jwtCfg),
		membershipService: services.NewMembershipService(db),
		jwtConfig:         jwtCfg,
	}
}

// AuthService exposes the token verifier used by AuthRequired.
func (h *AuthHandler) AuthService() *services.AuthService {
	return h.authService
}

type loginResponse struct {
	*services.LoginResult
	Token string `json:"token"`
}

type switchOrganizationRequest struct {
	OrganizationID uint `json:"organizationId" binding:"required"`
}

type authStatus struct {
	User          interface{} `json:"user"`
	Organizations interface{} `json:"organizations"`
	Selected      interface{} `json:"selectedOrganization"`
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.jwtConfig.CookieName, token, maxAge, "/", "", h.jwtConfig.CookieSecure, true)
}

// Register creates an account
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.authService.Register(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, user, "")
}

// Login verifies credentials and sets the session cookie
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authService.Login(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	maxAge := int(time.Until(result.ExpireAt).Seconds())
	h.setSessionCookie(c, result.Token, maxAge)
	response.Success(c, loginResponse{LoginResult: result, Token: result.Token})
}

// Logout clears the session cookie
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	response.Success(c, nil)
}

// CheckAuthStatus returns the current user with their organizations
// GET /auth/check-auth-status
func (h *AuthHandler) CheckAuthStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)
	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	memberships, err := h.membershipService.ListMemberships(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	selected, err := h.membershipService.SelectedMembership(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, authStatus{User: user, Organizations: memberships, Selected: selected})
}

// ListOrganizations lists the caller's memberships
// GET /auth/organizations
func (h *AuthHandler) ListOrganizations(c *gin.Context) {
	memberships, err := h.membershipService.ListMemberships(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, memberships)
}

// SwitchOrganization selects another active membership
// POST /auth/switch-organization
func (h *AuthHandler) SwitchOrganization(c *gin.Context) {
	var req switchOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	membership, err := h.membershipService.SwitchSelected(middleware.GetUserID(c), req.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, membership)
}

// UpdateProfile edits the caller's name or email
// PATCH /auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.authService.UpdateProfile(middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, user)
}
