package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/coachflow/backend/internal/services"
)

const (
	ContextUserID         = "user_id"
	ContextOrganizationID = "organization_id"
	ContextRole           = "role"
	ContextActor          = "actor"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	VerifyToken(token string) (uint, error)
}

// ActorResolver builds the request context from the user's selected membership.
type ActorResolver interface {
	ResolveActor(userID uint) (services.Actor, error)
}

// tokenFromRequest prefers the session cookie and falls back to the
// Authorization header.
func tokenFromRequest(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			return token
		}
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthRequired rejects requests without a valid token.
func AuthRequired(verifier TokenVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c, cookieName)
		if token == "" {
			RespondError(c, services.ErrTokenInvalid.WithMessage("authentication required"))
			return
		}

		userID, err := verifier.VerifyToken(token)
		if err != nil {
			RespondError(c, err)
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// TenantRequired resolves the actor for the authenticated user. It must run
// after AuthRequired.
func TenantRequired(resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := resolver.ResolveActor(GetUserID(c))
		if err != nil {
			RespondError(c, err)
			return
		}

		c.Set(ContextActor, actor)
		c.Set(ContextOrganizationID, actor.OrganizationID)
		c.Set(ContextRole, actor.Role)
		c.Next()
	}
}

// RequireRole admits only actors holding one of roles in their selected organization.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			RespondError(c, services.ErrNoOrganizationSelected)
			return
		}
		if err := actor.RequireRole(roles...); err != nil {
			RespondError(c, err)
			return
		}
		c.Next()
	}
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		return id.(uint)
	}
	return 0
}

func GetActor(c *gin.Context) (services.Actor, bool) {
	if v, exists := c.Get(ContextActor); exists {
		actor, ok := v.(services.Actor)
		return actor, ok
	}
	return services.Actor{}, false
}

func GetOrganizationID(c *gin.Context) uint {
	if id, exists := c.Get(ContextOrganizationID); exists {
		return id.(uint)
	}
	return 0
}
