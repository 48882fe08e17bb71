package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huangang/coachflow/backend/internal/models"
	"gorm.io/gorm"
)

type OrganizationService struct {
	db          *gorm.DB
	memberships *MembershipService
}

func NewOrganizationService(db *gorm.DB) *OrganizationService {
	return &OrganizationService{db: db, memberships: NewMembershipService(db)}
}

type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

type AddMemberRequest struct {
	Email          string `json:"email" binding:"required,email"`
	Role           string `json:"role" binding:"required,org_role"`
	OrganizationID uint   `json:"organizationId"`
}

// CreateOrganization creates a tenant with the creator as its active manager.
// The new membership is selected when the creator has no selection yet.
func (s *OrganizationService) CreateOrganization(creatorID uint, req *CreateOrganizationRequest) (*models.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("organization name is required")
	}

	var org models.Organization
	err := s.db.Transaction(func(tx *gorm.DB) error {
		org = models.Organization{Name: name, CreatedByID: creatorID}
		if err := tx.Create(&org).Error; err != nil {
			return fmt.Errorf("create organization: %w", err)
		}

		m := models.Membership{
			UserID:         creatorID,
			OrganizationID: org.ID,
			Role:           models.RoleManager,
			Status:         models.MembershipActive,
		}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("create manager membership: %w", err)
		}

		var selected int64
		if err := tx.Model(&models.Membership{}).
			Where("user_id = ? AND selected = ?", creatorID, true).
			Count(&selected).Error; err != nil {
			return fmt.Errorf("check selection: %w", err)
		}
		if selected == 0 {
			return selectMembership(tx, creatorID, m.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	LogInfo("organizations", "create", fmt.Sprintf("organization %d created", org.ID), &creatorID, &org.ID, nil)
	return &org, nil
}

// AddMember adds the user registered under email to the actor's organization.
func (s *OrganizationService) AddMember(actor Actor, req *AddMemberRequest) (*models.Membership, error) {
	if err := actor.RequireRole(models.RoleManager); err != nil {
		return nil, err
	}
	if err := actor.CheckOrganization(req.OrganizationID); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	m, err := s.memberships.AddMembership(user.ID, actor.OrganizationID, req.Role)
	if err != nil {
		return nil, err
	}
	m.User = &user

	LogInfo("members", "add", fmt.Sprintf("user %d added as %s", user.ID, req.Role), &actor.UserID, &actor.OrganizationID, nil)
	return m, nil
}

// SetMemberStatus toggles a membership in the actor's organization.
func (s *OrganizationService) SetMemberStatus(actor Actor, userID uint, status string) (*models.Membership, error) {
	if err := actor.RequireRole(models.RoleManager); err != nil {
		return nil, err
	}
	m, err := s.memberships.SetStatus(userID, actor.OrganizationID, status)
	if err != nil {
		return nil, err
	}
	LogInfo("members", "set_status", fmt.Sprintf("user %d set %s", userID, status), &actor.UserID, &actor.OrganizationID, nil)
	return m, nil
}

// ListMembers lists the actor's organization members, optionally by role.
func (s *OrganizationService) ListMembers(actor Actor, role string) ([]models.Membership, error) {
	if err := actor.RequireRole(models.RoleManager); err != nil {
		return nil, err
	}
	return s.memberships.ListOrganizationMembers(actor.OrganizationID, role)
}
