package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangang/coachflow/backend/internal/models"
	"gorm.io/gorm"
)

// GoalService tracks goals whose status is derived from progress.
type GoalService struct {
	db *gorm.DB
}

func NewGoalService(db *gorm.DB) *GoalService {
	return &GoalService{db: db}
}

type CreateGoalRequest struct {
	OrganizationID uint   `json:"organizationId"`
	SessionID      uint   `json:"sessionId" binding:"required"`
	CoachID        uint   `json:"coachId"`
	EntrepreneurID uint   `json:"entrepreneurId" binding:"required"`
	Title          string `json:"title" binding:"required,max=200"`
	Description    string `json:"description" binding:"max=5000"`
}

type GoalUpdateInput struct {
	Content string `json:"content" binding:"max=5000"`
}

type UpdateProgressRequest struct {
	Progress *int             `json:"progress" binding:"required,min=0,max=100"`
	Update   *GoalUpdateInput `json:"update"`
}

type GoalListRequest struct {
	OrganizationID uint   `form:"organizationId"`
	SessionID      uint   `form:"sessionId"`
	EntrepreneurID uint   `form:"entrepreneurId"`
	Status         string `form:"status"`
}

// CreateGoal creates a goal at progress 0 for an entrepreneur of the session.
// A coach may only create goals for sessions they coach.
func (s *GoalService) CreateGoal(actor Actor, req *CreateGoalRequest) (*models.Goal, error) {
	if err := actor.RequireRole(models.RoleManager, models.RoleCoach); err != nil {
		return nil, err
	}
	if err := actor.CheckOrganization(req.OrganizationID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, validationError("title is required")
	}

	var session models.Session
	err := scopedSessions(s.db, actor.UserID, models.RoleManager, actor.OrganizationID).
		Preload("Participants").
		Where("sessions.id = ?", req.SessionID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	coachID := req.CoachID
	if actor.IsCoach() {
		if coachID != 0 && coachID != actor.UserID {
			return nil, ErrNotAssignedCoach
		}
		coachID = actor.UserID
		if session.CoachID() != actor.UserID {
			return nil, ErrNotAssignedCoach
		}
	} else if coachID == 0 {
		coachID = session.CoachID()
	}
	if coachID != session.CoachID() {
		return nil, validationError("user %d is not the coach of session %d", coachID, session.ID)
	}
	if !session.HasEntrepreneur(req.EntrepreneurID) {
		return nil, validationError("user %d is not an entrepreneur of session %d", req.EntrepreneurID, session.ID)
	}

	goal := models.Goal{
		OrganizationID: actor.OrganizationID,
		SessionID:      session.ID,
		CoachID:        coachID,
		EntrepreneurID: req.EntrepreneurID,
		Title:          title,
		Description:    req.Description,
		Progress:       0,
		Updates:        []models.GoalUpdate{},
	}
	if err := s.db.Create(&goal).Error; err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}

	LogInfo("goals", "create", fmt.Sprintf("goal %d created for entrepreneur %d", goal.ID, goal.EntrepreneurID),
		&actor.UserID, &actor.OrganizationID, nil)
	return &goal, nil
}

// UpdateProgress sets progress, re-derives status and optionally appends a
// log entry, all in one row write. Only the goal's coach may call it.
func (s *GoalService) UpdateProgress(actor Actor, id uint, progress int, note string) (*models.Goal, error) {
	if progress < 0 || progress > 100 {
		return nil, validationError("progress must be between 0 and 100")
	}

	var goal models.Goal
	err := s.db.Where("id = ? AND organization_id = ?", id, actor.OrganizationID).First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load goal: %w", err)
	}
	if goal.CoachID != actor.UserID {
		return nil, ErrNotAssignedCoach
	}

	previous := goal.Progress
	goal.Progress = progress
	if note = strings.TrimSpace(note); note != "" {
		goal.Updates = append(goal.Updates, models.GoalUpdate{
			AuthorID:  actor.UserID,
			Content:   note,
			CreatedAt: time.Now(),
		})
	}

	// Save runs the BeforeSave hook, so status follows progress in the same write.
	if err := s.db.Save(&goal).Error; err != nil {
		return nil, fmt.Errorf("save goal: %w", err)
	}

	LogInfo("goals", "progress", fmt.Sprintf("goal %d progress %d -> %d", goal.ID, previous, progress),
		&actor.UserID, &actor.OrganizationID, nil)
	return &goal, nil
}

func (s *GoalService) list(query *gorm.DB, req *GoalListRequest) ([]models.Goal, error) {
	if req != nil {
		if req.SessionID != 0 {
			query = query.Where("session_id = ?", req.SessionID)
		}
		if req.Status != "" {
			query = query.Where("status = ?", req.Status)
		}
	}
	var goals []models.Goal
	if err := query.Order("created_at DESC, id DESC").Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func (s *GoalService) ListForEntrepreneur(organizationID, entrepreneurID uint, req *GoalListRequest) ([]models.Goal, error) {
	return s.list(s.db.Where("organization_id = ? AND entrepreneur_id = ?", organizationID, entrepreneurID), req)
}

func (s *GoalService) ListForCoach(organizationID, coachID uint, req *GoalListRequest) ([]models.Goal, error) {
	return s.list(s.db.Where("organization_id = ? AND coach_id = ?", organizationID, coachID), req)
}

func (s *GoalService) ListForOrganization(organizationID uint, req *GoalListRequest) ([]models.Goal, error) {
	query := s.db.Where("organization_id = ?", organizationID)
	if req != nil && req.EntrepreneurID != 0 {
		query = query.Where("entrepreneur_id = ?", req.EntrepreneurID)
	}
	return s.list(query, req)
}

// ListGoals lists the goals visible to the actor's role.
func (s *GoalService) ListGoals(actor Actor, req *GoalListRequest) ([]models.Goal, error) {
	if err := actor.CheckOrganization(req.OrganizationID); err != nil {
		return nil, err
	}
	switch actor.Role {
	case models.RoleManager:
		return s.ListForOrganization(actor.OrganizationID, req)
	case models.RoleCoach:
		return s.ListForCoach(actor.OrganizationID, actor.UserID, req)
	case models.RoleEntrepreneur:
		return s.ListForEntrepreneur(actor.OrganizationID, actor.UserID, req)
	}
	return nil, ErrForbiddenRole
}

// GetGoal returns a goal visible to the actor.
func (s *GoalService) GetGoal(actor Actor, id uint) (*models.Goal, error) {
	query := s.db.Where("id = ? AND organization_id = ?", id, actor.OrganizationID)
	switch actor.Role {
	case models.RoleCoach:
		query = query.Where("coach_id = ?", actor.UserID)
	case models.RoleEntrepreneur:
		query = query.Where("entrepreneur_id = ?", actor.UserID)
	}

	var goal models.Goal
	if err := query.First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("load goal: %w", err)
	}
	return &goal, nil
}
