package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	GoalNotStarted = "not-started"
	GoalInProgress = "in-progress"
	GoalCompleted  = "completed"
)

// GoalStatusForProgress derives a goal status from its progress.
func GoalStatusForProgress(progress int) string {
	switch {
	case progress <= 0:
		return GoalNotStarted
	case progress >= 100:
		return GoalCompleted
	default:
		return GoalInProgress
	}
}

// GoalUpdate is one entry of a goal's append-only log.
type GoalUpdate struct {
	AuthorID  uint      `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Goal tracks an entrepreneur's progress within a session. Status has no
// setter; it is recomputed from Progress on every save.
type Goal struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	OrganizationID uint         `gorm:"index;not null" json:"organizationId"`
	SessionID      uint         `gorm:"index;not null" json:"sessionId"`
	CoachID        uint         `gorm:"index;not null" json:"coachId"`
	EntrepreneurID uint         `gorm:"index;not null" json:"entrepreneurId"`
	Title          string       `gorm:"size:200;not null" json:"title"`
	Description    string       `gorm:"type:text" json:"description"`
	Progress       int          `gorm:"not null" json:"progress"`
	Status         string       `gorm:"size:20;index;not null" json:"status"`
	Updates        []GoalUpdate `gorm:"serializer:json;type:text" json:"updates"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

func (Goal) TableName() string { return "goals" }

func (g *Goal) BeforeSave(tx *gorm.DB) error {
	g.Status = GoalStatusForProgress(g.Progress)
	if g.Updates == nil {
		g.Updates = []GoalUpdate{}
	}
	return nil
}
