package main

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/coachflow/backend/internal/config"
	"github.com/huangang/coachflow/backend/internal/handlers"
	"github.com/huangang/coachflow/backend/internal/middleware"
	"github.com/huangang/coachflow/backend/internal/models"
	"github.com/huangang/coachflow/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, h *appHandlers, cfg *config.Config) {
	handlers.RegisterValidators()

	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	r.GET("/health", h.health.CheckHealth)

	credentialLimiter := middleware.NewRateLimiter(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst)

	api := r.Group("")
	api.Use(middleware.AuditLog())
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", credentialLimiter.Middleware(), h.auth.Register)
			auth.POST("/login", credentialLimiter.Middleware(), h.auth.Login)
			auth.POST("/logout", h.auth.Logout)
		}

		// Authenticated routes that do not need a selected organization
		authed := api.Group("")
		authed.Use(middleware.AuthRequired(h.auth.AuthService(), cfg.JWT.CookieName))
		{
			authed.GET("/auth/check-auth-status", h.auth.CheckAuthStatus)
			authed.GET("/auth/organizations", h.auth.ListOrganizations)
			authed.POST("/auth/switch-organization", h.auth.SwitchOrganization)
			authed.PATCH("/auth/profile", h.auth.UpdateProfile)
			authed.POST("/organizations", h.organization.Create)
		}

		tenant := authed.Group("")
		tenant.Use(middleware.TenantRequired(h.memberships))

		manager := tenant.Group("/manager", middleware.RequireRole(models.RoleManager))
		{
			manager.POST("/sessions", h.session.Create)
			manager.GET("/sessions", h.session.List)
			manager.GET("/sessions/:id", h.session.Get)
			manager.PATCH("/sessions/:id", h.session.MarkStatus)

			manager.POST("/members", h.organization.AddMember)
			manager.GET("/members", h.organization.ListMembers)
			manager.PATCH("/members/:userId/status", h.organization.SetMemberStatus)

			manager.POST("/goals", h.goal.Create)
			manager.GET("/goals", h.goal.List)

			manager.POST("/invoices", h.billing.IssueInvoice)
			manager.GET("/invoices", h.billing.ListInvoices)
			manager.PATCH("/invoices/:id/process", h.billing.ProcessInvoice)
			manager.GET("/payments", h.billing.ListPayments)

			manager.GET("/dashboard", h.dashboard.GetStats)
			manager.GET("/system-logs", h.systemLog.List)
		}

		coach := tenant.Group("/coach", middleware.RequireRole(models.RoleCoach))
		{
			coach.GET("/sessions", h.session.List)
			coach.GET("/sessions/:id", h.session.Get)
			coach.PATCH("/sessions/:id/status", h.session.Respond)
			coach.PATCH("/sessions/:id", h.session.MarkStatus)
			coach.PATCH("/sessions/:id/notes", h.session.UpdateNotes)

			coach.POST("/goals", h.goal.Create)
			coach.GET("/goals", h.goal.List)
			coach.PATCH("/goals/:id", h.goal.UpdateProgress)

			coach.GET("/payments", h.billing.ListPayments)
			coach.GET("/dashboard", h.dashboard.GetStats)
		}

		entrepreneur := tenant.Group("/entrepreneur", middleware.RequireRole(models.RoleEntrepreneur))
		{
			entrepreneur.GET("/sessions", h.session.List)
			entrepreneur.GET("/sessions/:id", h.session.Get)
			entrepreneur.GET("/goals", h.goal.List)
			entrepreneur.GET("/invoices", h.billing.ListInvoices)
			entrepreneur.POST("/invoices/:id/view", h.billing.MarkViewed)
			entrepreneur.GET("/dashboard", h.dashboard.GetStats)
		}
	}
}
