package models

import "time"

// SystemLog is an operation record kept for manual inspection of partial effects.
type SystemLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Level          string    `gorm:"size:20;index" json:"level"` // info, warning, error
	Module         string    `gorm:"size:100;index" json:"module"`
	Action         string    `gorm:"size:200;index" json:"action"`
	Message        string    `gorm:"type:text" json:"message"`
	UserID         *uint     `json:"userId"`
	OrganizationID *uint     `gorm:"index" json:"organizationId"`
	IP             string    `gorm:"size:50" json:"ip"`
	UserAgent      string    `gorm:"size:500" json:"userAgent"`
	Extra          string    `gorm:"type:text" json:"extra"` // JSON extra data
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
}

func (SystemLog) TableName() string { return "system_logs" }
