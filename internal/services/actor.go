package services

import "github.com/huangang/coachflow/backend/internal/models"

// Actor is the resolved request context. It is the only authorization input
// services accept; roles are never re-derived from the user record.
type Actor struct {
	UserID         uint   `json:"userId"`
	OrganizationID uint   `json:"organizationId"`
	Role           string `json:"role"`
}

func (a Actor) IsCoach() bool { return a.Role == models.RoleCoach }
func (a Actor) IsEntrepreneur() bool { return a.Role == models.RoleEntrepreneur }

// RequireRole fails with ErrForbiddenRole unless the actor holds one of roles.
func (a Actor) RequireRole(roles ...string) error {
	for _, r := range roles {
		if a.Role == r {
			return nil
		}
	}
	return ErrForbiddenRole
}

// CheckOrganization rejects a request naming an organization other than the
// actor's selected one. Zero means the request named none.
func (a Actor) CheckOrganization(organizationID uint) error {
	if organizationID != 0 && organizationID != a.OrganizationID {
		return ErrNotAMember
	}
	return nil
}
