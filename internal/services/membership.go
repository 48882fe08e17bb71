package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/huangang/coachflow/backend/internal/models"
	"gorm.io/gorm"
)

type MembershipService struct {
	db *gorm.DB
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db}
}

// ListMemberships returns every membership of the user, any status, with its organization.
func (s *MembershipService) ListMemberships(userID uint) ([]models.Membership, error) {
	var memberships []models.Membership
	if err := s.db.Preload("Organization").
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return memberships, nil
}

// SelectedMembership returns the selected membership, or nil when none is selected.
func (s *MembershipService) SelectedMembership(userID uint) (*models.Membership, error) {
	var m models.Membership
	err := s.db.Preload("Organization").
		Where("user_id = ? AND selected = ?", userID, true).
		Order("selected_at DESC, id DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load selected membership: %w", err)
	}
	return &m, nil
}

// SwitchSelected clears the user's selection and selects the membership for
// organizationID, which must be active.
func (s *MembershipService) SwitchSelected(userID, organizationID uint) (*models.Membership, error) {
	var target models.Membership
	err := s.db.Where("user_id = ? AND organization_id = ?", userID, organizationID).First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotAMember
	}
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}
	if !target.IsActive() {
		return nil, ErrNotAMember
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return selectMembership(tx, userID, target.ID)
	}); err != nil {
		return nil, err
	}

	if err := s.db.Preload("Organization").First(&target, target.ID).Error; err != nil {
		return nil, fmt.Errorf("reload membership: %w", err)
	}
	return &target, nil
}

// selectMembership clears then sets the selected flag.
func selectMembership(tx *gorm.DB, userID, membershipID uint) error {
	if err := tx.Model(&models.Membership{}).
		Where("user_id = ? AND selected = ?", userID, true).
		Update("selected", false).Error; err != nil {
		return fmt.Errorf("clear selection: %w", err)
	}
	now := time.Now()
	if err := tx.Model(&models.Membership{}).
		Where("id = ?", membershipID).
		Updates(map[string]interface{}{"selected": true, "selected_at": now}).Error; err != nil {
		return fmt.Errorf("set selection: %w", err)
	}
	return nil
}

// EnsureSelected returns the user's selected active membership, selecting the
// earliest active one when none is selected. Nil when the user has no active membership.
func (s *MembershipService) EnsureSelected(userID uint) (*models.Membership, error) {
	selected, err := s.SelectedMembership(userID)
	if err != nil {
		return nil, err
	}
	if selected != nil && selected.IsActive() {
		return selected, nil
	}

	var first models.Membership
	err = s.db.Where("user_id = ? AND status = ?", userID, models.MembershipActive).
		Order("created_at ASC, id ASC").
		First(&first).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load active membership: %w", err)
	}
	return s.SwitchSelected(userID, first.OrganizationID)
}

// ResolveActor builds the request context from the user's selected membership.
func (s *MembershipService) ResolveActor(userID uint) (Actor, error) {
	selected, err := s.SelectedMembership(userID)
	if err != nil {
		return Actor{}, err
	}
	if selected != nil && !selected.IsActive() {
		return Actor{}, ErrNotAMember
	}
	if selected == nil {
		selected, err = s.EnsureSelected(userID)
		if err != nil {
			return Actor{}, err
		}
		if selected == nil {
			return Actor{}, ErrNoOrganizationSelected
		}
	}
	return Actor{
		UserID:         userID,
		OrganizationID: selected.OrganizationID,
		Role:           selected.Role,
	}, nil
}

// AddMembership creates an active membership. A second membership for the
// same pair is rejected whatever the existing one's status.
func (s *MembershipService) AddMembership(userID, organizationID uint, role string) (*models.Membership, error) {
	if !models.IsValidRole(role) {
		return nil, validationError("invalid role %q", role)
	}
	if err := s.db.First(&models.User{}, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := s.db.First(&models.Organization{}, organizationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("load organization: %w", err)
	}

	var count int64
	if err := s.db.Model(&models.Membership{}).
		Where("user_id = ? AND organization_id = ?", userID, organizationID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if count > 0 {
		return nil, ErrAlreadyMember
	}

	m := models.Membership{
		UserID:         userID,
		OrganizationID: organizationID,
		Role:           role,
		Status:         models.MembershipActive,
	}
	if err := s.db.Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("create membership: %w", err)
	}
	return &m, nil
}

// SetStatus activates or deactivates a membership. Deactivation drops the selection.
func (s *MembershipService) SetStatus(userID, organizationID uint, status string) (*models.Membership, error) {
	if !models.IsValidMembershipStatus(status) {
		return nil, validationError("invalid membership status %q", status)
	}

	var m models.Membership
	err := s.db.Where("user_id = ? AND organization_id = ?", userID, organizationID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound.WithMessage("membership not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}

	updates := map[string]interface{}{"status": status}
	if status == models.MembershipInactive {
		updates["selected"] = false
	}
	if err := s.db.Model(&m).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update membership status: %w", err)
	}
	if err := s.db.Preload("User").First(&m, m.ID).Error; err != nil {
		return nil, fmt.Errorf("reload membership: %w", err)
	}
	return &m, nil
}

// ListOrganizationMembers returns the organization's memberships with user details.
func (s *MembershipService) ListOrganizationMembers(organizationID uint, role string) ([]models.Membership, error) {
	query := s.db.Preload("User").Where("organization_id = ?", organizationID)
	if role != "" {
		query = query.Where("role = ?", role)
	}
	var members []models.Membership
	if err := query.Order("created_at ASC, id ASC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("list organization members: %w", err)
	}
	return members, nil
}

// activeMembership loads userID's active membership in organizationID with the given role.
func activeMembership(db *gorm.DB, userID, organizationID uint, role string) (*models.Membership, error) {
	var m models.Membership
	err := db.Where("user_id = ? AND organization_id = ? AND role = ? AND status = ?",
		userID, organizationID, role, models.MembershipActive).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}
	return &m, nil
}
