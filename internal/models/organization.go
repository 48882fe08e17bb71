package models

import "time"

// Organization roles held through a Membership.
const (
	RoleManager      = "manager"
	RoleCoach        = "coach"
	RoleEntrepreneur = "entrepreneur"
)

const (
	MembershipActive   = "active"
	MembershipInactive = "inactive"
)

// Organization is a tenant.
type Organization struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	CreatedByID uint      `gorm:"index" json:"createdById"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Organization) TableName() string { return "organizations" }

// Membership links a user to an organization with a role. At most one of a
// user's memberships is Selected; it is the acting context for requests.
type Membership struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	UserID         uint          `gorm:"uniqueIndex:idx_membership_user_org;not null" json:"userId"`
	User           *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrganizationID uint          `gorm:"uniqueIndex:idx_membership_user_org;index;not null" json:"organizationId"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Role           string        `gorm:"size:20;not null" json:"role"`
	Status         string        `gorm:"size:20;not null" json:"status"`
	Selected       bool          `gorm:"index" json:"selected"`
	SelectedAt     *time.Time    `json:"selectedAt,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

func (Membership) TableName() string { return "memberships" }

func (m *Membership) IsActive() bool {
	return m.Status == MembershipActive
}

func IsValidRole(role string) bool {
	switch role {
	case RoleManager, RoleCoach, RoleEntrepreneur:
		return true
	}
	return false
}

func IsValidMembershipStatus(status string) bool {
	return status == MembershipActive || status == MembershipInactive
}
