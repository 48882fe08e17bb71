package models

import "time"

const (
	SessionRequested = "requested"
	SessionDeclined  = "declined"
	SessionScheduled = "scheduled"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

const (
	ParticipantCoach        = "coach"
	ParticipantEntrepreneur = "entrepreneur"
)

// sessionTransitions lists the permitted edges. States absent as keys are terminal.
var sessionTransitions = map[string][]string{
	SessionRequested: {SessionScheduled, SessionDeclined},
	SessionScheduled: {SessionCompleted, SessionCancelled},
}

// CanTransitionSession reports whether from -> to is an edge of the session lifecycle.
func CanTransitionSession(from, to string) bool {
	for _, next := range sessionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminalSessionStatus(status string) bool {
	return len(sessionTransitions[status]) == 0
}

// Session is a coaching engagement between one coach and one or more entrepreneurs.
type Session struct {
	ID           uint                 `gorm:"primaryKey" json:"id"`
	Title        string               `gorm:"size:200;not null" json:"title"`
	StartTime    time.Time            `gorm:"not null" json:"startTime"`
	EndTime      time.Time            `gorm:"not null" json:"endTime"`
	Price        float64              `gorm:"not null" json:"price"`
	Status       string               `gorm:"size:20;index;not null" json:"status"`
	IsAccepted   bool                 `json:"isAccepted"`
	Notes        string               `gorm:"type:text" json:"notes"`
	CreatedByID  uint                 `json:"createdById"`
	Participants []Participant        `gorm:"foreignKey:SessionID" json:"participants,omitempty"`
	Scope        *SessionOrganization `gorm:"foreignKey:SessionID" json:"-"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

func (Session) TableName() string { return "sessions" }

// CoachID returns the coach participant's user id, or 0 when participants are not loaded.
func (s *Session) CoachID() uint {
	for _, p := range s.Participants {
		if p.Role == ParticipantCoach {
			return p.UserID
		}
	}
	return 0
}

// HasEntrepreneur reports whether userID is an entrepreneur participant.
func (s *Session) HasEntrepreneur(userID uint) bool {
	for _, p := range s.Participants {
		if p.Role == ParticipantEntrepreneur && p.UserID == userID {
			return true
		}
	}
	return false
}

// Participant is immutable once created.
type Participant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"uniqueIndex:idx_participant_session_user;not null" json:"sessionId"`
	UserID    uint      `gorm:"uniqueIndex:idx_participant_session_user;index;not null" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      string    `gorm:"size:20;not null" json:"role"`
	JoinedAt  time.Time `json:"joinedAt"`
}

func (Participant) TableName() string { return "participants" }

// SessionOrganization scopes a session to exactly one organization.
type SessionOrganization struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SessionID      uint      `gorm:"uniqueIndex;not null" json:"sessionId"`
	OrganizationID uint      `gorm:"index;not null" json:"organizationId"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (SessionOrganization) TableName() string { return "session_organizations" }
