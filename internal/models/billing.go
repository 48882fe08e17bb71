package models

import "time"

const (
	InvoiceSent   = "sent"
	InvoiceViewed = "viewed"
	InvoicePaid   = "paid"
)

const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

var invoiceOrder = map[string]int{
	InvoiceSent:   0,
	InvoiceViewed: 1,
	InvoicePaid:   2,
}

// NextInvoiceStatus returns the status that immediately follows current.
func NextInvoiceStatus(current string) (string, bool) {
	switch current {
	case InvoiceSent:
		return InvoiceViewed, true
	case InvoiceViewed:
		return InvoicePaid, true
	}
	return "", false
}

// InvoiceStatusRank orders invoice statuses; -1 for unknown values.
func InvoiceStatusRank(status string) int {
	if rank, ok := invoiceOrder[status]; ok {
		return rank
	}
	return -1
}

// Payment settles one or more sessions for a coach.
type Payment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CoachID        uint       `gorm:"index;not null" json:"coachId"`
	OrganizationID uint       `gorm:"index;not null" json:"organizationId"`
	SessionIDs     []uint     `gorm:"serializer:json;type:text" json:"sessionIds"`
	Amount         float64    `gorm:"not null" json:"amount"`
	Currency       string     `gorm:"size:3;not null" json:"currency"`
	Status         string     `gorm:"size:20;not null" json:"status"`
	IssuedAt       time.Time  `json:"issuedAt"`
	PaidAt         *time.Time `json:"paidAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (Payment) TableName() string { return "payments" }

// Invoice is billed to an entrepreneur for a completed session. Its status
// only moves forward along sent -> viewed -> paid.
type Invoice struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	InvoiceNumber  string     `gorm:"uniqueIndex;size:64;not null" json:"invoiceNumber"`
	PaymentID      *uint      `gorm:"index" json:"paymentId"`
	Payment        *Payment   `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
	SessionID      uint       `gorm:"index;not null" json:"sessionId"`
	RecipientID    uint       `gorm:"index;not null" json:"recipientId"`
	OrganizationID uint       `gorm:"index;not null" json:"organizationId"`
	Amount         float64    `gorm:"not null" json:"amount"`
	Currency       string     `gorm:"size:3;not null" json:"currency"`
	Status         string     `gorm:"size:20;index;not null" json:"status"`
	IssuedAt       time.Time  `json:"issuedAt"`
	DueAt          time.Time  `json:"dueAt"`
	ViewedAt       *time.Time `json:"viewedAt,omitempty"`
	PaidAt         *time.Time `json:"paidAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (Invoice) TableName() string { return "invoices" }
