package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/huangang/coachflow/backend/internal/middleware"
	"github.com/huangang/coachflow/backend/internal/services"
	"github.com/huangang/coachflow/backend/pkg/response"
)

func respondError(c *gin.Context, err error) {
	middleware.RespondError(c, err)
}

// bindError reports a request that failed binding or validation.
func bindError(c *gin.Context, err error) {
	response.BadRequest(c, err.Error())
}

// parseID reads a positive numeric path parameter. It writes the error
// response itself and returns false on failure.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// actorFrom returns the actor resolved by TenantRequired.
func actorFrom(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, services.ErrNoOrganizationSelected)
	}
	return actor, ok
}
