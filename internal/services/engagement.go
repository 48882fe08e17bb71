package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangang/coachflow/backend/internal/models"
	"github.com/huangang/coachflow/backend/pkg/logger"
	"gorm.io/gorm"
)

// EngagementService owns the session lifecycle and its participant roster.
type EngagementService struct {
	db        *gorm.DB
	notifier  Notifier
	publicURL string
}

func NewEngagementService(db *gorm.DB, notifier Notifier, publicURL string) *EngagementService {
	return &EngagementService{
		db:        db,
		notifier:  notifier,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

type CreateSessionRequest struct {
	Title           string    `json:"title" binding:"required,max=200"`
	StartTime       time.Time `json:"startTime" binding:"required"`
	EndTime         time.Time `json:"endTime" binding:"required"`
	OrganizationID  uint      `json:"organizationId"`
	CoachID         uint      `json:"coachId" binding:"required"`
	EntrepreneurIDs []uint    `json:"entrepreneurIds" binding:"required,min=1"`
	Price           float64   `json:"price" binding:"required,gt=0"`
	Notes           string    `json:"notes"`
}

// CreateSessionResult carries a soft warning when the coach could not be notified.
type CreateSessionResult struct {
	Session *models.Session `json:"session"`
	Warning string          `json:"warning,omitempty"`
}

type SessionListRequest struct {
	OrganizationID uint   `form:"organizationId"`
	Status         string `form:"status"`
}

type RespondRequest struct {
	IsAccepted *bool `json:"isAccepted" binding:"required"`
}

type MarkStatusRequest struct {
	Status string `json:"status" binding:"required,session_outcome"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes" binding:"max=10000"`
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// CreateSession records a requested session for one coach and at least one
// entrepreneur, then notifies the coach. A notification failure is reported
// as a warning and never undoes the session.
func (s *EngagementService) CreateSession(ctx context.Context, actor Actor, req *CreateSessionRequest) (*CreateSessionResult, error) {
	if err := actor.RequireRole(models.RoleManager); err != nil {
		return nil, err
	}
	if err := actor.CheckOrganization(req.OrganizationID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, validationError("title is required")
	}
	if !req.StartTime.Before(req.EndTime) {
		return nil, validationError("startTime must be before endTime")
	}
	if req.Price <= 0 {
		return nil, validationError("price must be positive")
	}
	entrepreneurIDs := uniqueIDs(req.EntrepreneurIDs)
	if len(entrepreneurIDs) == 0 {
		return nil, validationError("at least one entrepreneur is required")
	}
	for _, id := range entrepreneurIDs {
		if id == req.CoachID {
			return nil, validationError("coach cannot also be an entrepreneur")
		}
	}

	db := s.db.WithContext(ctx)
	orgID := actor.OrganizationID

	coach, err := activeMembership(db, req.CoachID, orgID, models.RoleCoach)
	if err != nil {
		return nil, err
	}
	if coach == nil {
		return nil, validationError("user %d is not an active coach in this organization", req.CoachID)
	}
	for _, id := range entrepreneurIDs {
		m, err := activeMembership(db, id, orgID, models.RoleEntrepreneur)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, validationError("user %d is not an active entrepreneur in this organization", id)
		}
	}

	session := models.Session{
		Title:       title,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Price:       req.Price,
		Status:      models.SessionRequested,
		Notes:       req.Notes,
		CreatedByID: actor.UserID,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		link := models.SessionOrganization{SessionID: session.ID, OrganizationID: orgID}
		if err := tx.Create(&link).Error; err != nil {
			return fmt.Errorf("link session to organization: %w", err)
		}

		now := time.Now()
		participants := []models.Participant{{
			SessionID: session.ID,
			UserID:    req.CoachID,
			Role:      models.ParticipantCoach,
			JoinedAt:  now,
		}}
		for _, id := range entrepreneurIDs {
			participants = append(participants, models.Participant{
				SessionID: session.ID,
				UserID:    id,
				Role:      models.ParticipantEntrepreneur,
				JoinedAt:  now,
			})
		}
		if err := tx.Create(&participants).Error; err != nil {
			return fmt.Errorf("create participants: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	LogInfo("sessions", "create", fmt.Sprintf("session %d requested for coach %d", session.ID, req.CoachID),
		&actor.UserID, &orgID, map[string]interface{}{"entrepreneurs": entrepreneurIDs})

	result := &CreateSessionResult{}
	if err := s.notifyCoach(ctx, &session, orgID, req.CoachID); err != nil {
		logger.Warn().Err(err).Uint("session_id", session.ID).Msg("[Engagement] coach notification failed")
		LogWarning("sessions", "notify", err.Error(), &actor.UserID, &orgID, map[string]interface{}{"session_id": session.ID})
		result.Warning = "session created but the coach could not be notified"
	}

	loaded, err := s.loadSession(db, session.ID)
	if err != nil {
		return nil, err
	}
	result.Session = loaded
	return result, nil
}

func (s *EngagementService) notifyCoach(ctx context.Context, session *models.Session, orgID, coachID uint) error {
	if s.notifier == nil {
		return errors.New("no notifier configured")
	}
	var coach models.User
	if err := s.db.WithContext(ctx).First(&coach, coachID).Error; err != nil {
		return fmt.Errorf("load coach: %w", err)
	}
	return s.notifier.SessionRequested(ctx, &SessionRequestedTask{
		SessionID:      session.ID,
		OrganizationID: orgID,
		CoachID:        coach.ID,
		CoachName:      coach.Name,
		CoachEmail:     coach.Email,
		Title:          session.Title,
		StartTime:      session.StartTime,
		EndTime:        session.EndTime,
		AcceptURL:      fmt.Sprintf("%s/coach/sessions/%d/respond", s.publicURL, session.ID),
	})
}

func (s *EngagementService) loadSession(db *gorm.DB, id uint) (*models.Session, error) {
	var session models.Session
	if err := db.Preload("Participants.User").First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &session, nil
}

// scopedSessions restricts a query to sessions of organizationID visible to
// the given user and role. Managers see every session of the organization;
// coaches and entrepreneurs only those they participate in under that role.
func scopedSessions(db *gorm.DB, userID uint, role string, organizationID uint) *gorm.DB {
	query := db.Model(&models.Session{}).
		Joins("JOIN session_organizations ON session_organizations.session_id = sessions.id").
		Where("session_organizations.organization_id = ?", organizationID)

	if role != models.RoleManager {
		query = query.Where(
			"EXISTS (SELECT 1 FROM participants WHERE participants.session_id = sessions.id AND participants.user_id = ? AND participants.role = ?)",
			userID, role)
	}
	return query
}

// ListForRole lists the sessions visible to userID acting as role in organizationID.
func (s *EngagementService) ListForRole(userID uint, role string, organizationID uint, status string) ([]models.Session, error) {
	if !models.IsValidRole(role) {
		return nil, ErrForbiddenRole
	}
	query := scopedSessions(s.db, userID, role, organizationID).Preload("Participants.User")
	if status != "" {
		query = query.Where("sessions.status = ?", status)
	}

	var sessions []models.Session
	if err := query.Order("sessions.start_time ASC, sessions.id ASC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// ListSessions lists the actor's visible sessions.
func (s *EngagementService) ListSessions(actor Actor, req *SessionListRequest) ([]models.Session, error) {
	if err := actor.CheckOrganization(req.OrganizationID); err != nil {
		return nil, err
	}
	return s.ListForRole(actor.UserID, actor.Role, actor.OrganizationID, req.Status)
}

// GetSession returns a session visible to the actor.
func (s *EngagementService) GetSession(actor Actor, id uint) (*models.Session, error) {
	var session models.Session
	err := scopedSessions(s.db, actor.UserID, actor.Role, actor.OrganizationID).
		Preload("Participants.User").
		Where("sessions.id = ?", id).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &session, nil
}

// loadForAssignment loads any session of the actor's organization. The caller
// checks the assigned coach.
func (s *EngagementService) loadForAssignment(actor Actor, id uint) (*models.Session, error) {
	var session models.Session
	err := scopedSessions(s.db, actor.UserID, models.RoleManager, actor.OrganizationID).
		Preload("Participants.User").
		Where("sessions.id = ?", id).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &session, nil
}

// transitionError explains why from -> to was refused.
func transitionError(from, to string) error {
	if models.IsTerminalSessionStatus(from) {
		return ErrInvalidTransition.WithMessage("session is %s and can no longer change", from)
	}
	return ErrInvalidTransition.WithMessage("cannot move session from %s to %s", from, to)
}

// transition moves the session from -> to in a single conditional write.
// Zero affected rows means another request changed the status first.
func (s *EngagementService) transition(id uint, from, to string, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	result := s.db.Model(&models.Session{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("update session status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition.WithMessage("session %d is no longer %s", id, from)
	}
	return nil
}

// RespondToRequest lets the assigned coach accept or decline a requested session.
func (s *EngagementService) RespondToRequest(actor Actor, id uint, accept bool) (*models.Session, error) {
	session, err := s.loadForAssignment(actor, id)
	if err != nil {
		return nil, err
	}
	if session.CoachID() != actor.UserID {
		return nil, ErrNotAssignedCoach
	}

	to := models.SessionDeclined
	if accept {
		to = models.SessionScheduled
	}
	if !models.CanTransitionSession(session.Status, to) {
		return nil, transitionError(session.Status, to)
	}
	if err := s.transition(id, session.Status, to, map[string]interface{}{"is_accepted": accept}); err != nil {
		return nil, err
	}

	LogInfo("sessions", "respond", fmt.Sprintf("session %d %s -> %s", id, session.Status, to),
		&actor.UserID, &actor.OrganizationID, nil)
	return s.loadSession(s.db, id)
}

// MarkStatus completes or cancels a scheduled session. Coaches may only act
// on sessions assigned to them.
func (s *EngagementService) MarkStatus(actor Actor, id uint, status string) (*models.Session, error) {
	if err := actor.RequireRole(models.RoleManager, models.RoleCoach); err != nil {
		return nil, err
	}
	if status != models.SessionCompleted && status != models.SessionCancelled {
		return nil, ErrInvalidTransition.WithMessage("status %q cannot be set directly", status)
	}

	session, err := s.loadForAssignment(actor, id)
	if err != nil {
		return nil, err
	}
	if actor.IsCoach() && session.CoachID() != actor.UserID {
		return nil, ErrNotAssignedCoach
	}
	if !models.CanTransitionSession(session.Status, status) {
		return nil, transitionError(session.Status, status)
	}
	if err := s.transition(id, session.Status, status, nil); err != nil {
		return nil, err
	}

	LogInfo("sessions", "mark_status", fmt.Sprintf("session %d %s -> %s", id, session.Status, status),
		&actor.UserID, &actor.OrganizationID, nil)
	return s.loadSession(s.db, id)
}

// UpdateNotes replaces the session notes. Allowed for the assigned coach and managers.
func (s *EngagementService) UpdateNotes(actor Actor, id uint, notes string) (*models.Session, error) {
	if err := actor.RequireRole(models.RoleManager, models.RoleCoach); err != nil {
		return nil, err
	}
	session, err := s.loadForAssignment(actor, id)
	if err != nil {
		return nil, err
	}
	if actor.IsCoach() && session.CoachID() != actor.UserID {
		return nil, ErrNotAssignedCoach
	}

	if err := s.db.Model(&models.Session{}).Where("id = ?", id).Update("notes", notes).Error; err != nil {
		return nil, fmt.Errorf("update notes: %w", err)
	}
	return s.loadSession(s.db, id)
}
