package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/huangang/coachflow/backend/internal/models"
	"github.com/huangang/coachflow/backend/pkg/logger"
	"gorm.io/gorm"
)

const defaultInvoiceDueDays = 30

var currencyValidator = validator.New()

// BillingService issues invoices and settles them into payments.
type BillingService struct {
	db *gorm.DB
}

func NewBillingService(db *gorm.DB) *BillingService {
	return &BillingService{db: db}
}

type IssueInvoiceRequest struct {
	OrganizationID uint       `json:"organizationId"`
	SessionID      uint       `json:"sessionId" binding:"required"`
	RecipientID    uint       `json:"recipientId" binding:"required"`
	Amount         float64    `json:"amount" binding:"required,gt=0"`
	Currency       string     `json:"currency" binding:"required,len=3"`
	InvoiceNumber  string     `json:"invoiceNumber" binding:"max=64"`
	DueAt          *time.Time `json:"dueAt"`
}

type ProcessInvoiceRequest struct {
	Status string `json:"status" binding:"required,invoice_target"`
}

type InvoiceListRequest struct {
	OrganizationID uint   `form:"organizationId"`
	SessionID      uint   `form:"sessionId"`
	Status         string `form:"status"`
}

type PaymentListRequest struct {
	OrganizationID uint   `form:"organizationId"`
	Status         string `form:"status"`
}

// GenerateInvoiceNumber returns INV-YYYYMMDD-XXXXXXXX.
func GenerateInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), suffix)
}

// IssueInvoice bills an entrepreneur of a completed session in the actor's organization.
func (s *BillingService) IssueInvoice(actor Actor, req *IssueInvoiceRequest) (*models.Invoice, error) {
	if err := actor.RequireRole(models.RoleManager); err != nil {
		return nil, err
	}
	if err := actor.CheckOrganization(req.OrganizationID); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, validationError("amount must be positive")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if err := currencyValidator.Var(currency, "required,iso4217"); err != nil {
		return nil, validationError("invalid currency %q", req.Currency)
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
	if session.Status != models.SessionCompleted {
		return nil, validationError("session %d is %s, only completed sessions can be invoiced", session.ID, session.Status)
	}
	if !session.HasEntrepreneur(req.RecipientID) {
		return nil, validationError("user %d is not an entrepreneur of session %d", req.RecipientID, session.ID)
	}

	now := time.Now()
	dueAt := now.AddDate(0, 0, defaultInvoiceDueDays)
	if req.DueAt != nil {
		if req.DueAt.Before(now) {
			return nil, validationError("dueAt must be in the future")
		}
		dueAt = *req.DueAt
	}

	number := strings.TrimSpace(req.InvoiceNumber)
	generated := number == ""

	// generated numbers are retried on collision; caller-supplied ones are not
	for attempt := 0; attempt < 3; attempt++ {
		if generated {
			number = GenerateInvoiceNumber(now)
		}
		invoice := models.Invoice{
			InvoiceNumber:  number,
			SessionID:      session.ID,
			RecipientID:    req.RecipientID,
			OrganizationID: actor.OrganizationID,
			Amount:         req.Amount,
			Currency:       currency,
			Status:         models.InvoiceSent,
			IssuedAt:       now,
			DueAt:          dueAt,
		}
		err := s.createInvoice(&invoice)
		if err == nil {
			LogInfo("billing", "issue", fmt.Sprintf("invoice %s issued for session %d", number, session.ID),
				&actor.UserID, &actor.OrganizationID, map[string]interface{}{"amount": req.Amount, "currency": currency})
			return &invoice, nil
		}
		if !errors.Is(err, ErrDuplicateInvoiceNumber) || !generated {
			return nil, err
		}
	}
	return nil, ErrDuplicateInvoiceNumber
}

func (s *BillingService) createInvoice(invoice *models.Invoice) error {
	var count int64
	if err := s.db.Model(&models.Invoice{}).Where("invoice_number = ?", invoice.InvoiceNumber).Count(&count).Error; err != nil {
		return fmt.Errorf("check invoice number: %w", err)
	}
	if count > 0 {
		return ErrDuplicateInvoiceNumber
	}
	if err := s.db.Create(invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateInvoiceNumber
		}
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

func (s *BillingService) loadInvoice(db *gorm.DB, id, organizationID uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := db.Preload("Payment").Where("id = ? AND organization_id = ?", id, organizationID).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load invoice: %w", err)
	}
	return &invoice, nil
}

// AdvanceStatus moves an invoice one step along sent -> viewed -> paid. Paying
// creates the Payment and links it in the same transaction.
func (s *BillingService) AdvanceStatus(actor Actor, id uint, to string) (*models.Invoice, error) {
	if err := actor.RequireRole(models.RoleManager); err != nil {
		return nil, err
	}
	if to != models.InvoiceViewed && to != models.InvoicePaid {
		return nil, validationError("invalid invoice status %q", to)
	}

	invoice, err := s.loadInvoice(s.db, id, actor.OrganizationID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == models.InvoicePaid {
		return nil, ErrAlreadyProcessed
	}
	next, ok := models.NextInvoiceStatus(invoice.Status)
	if !ok || next != to {
		return nil, ErrInvalidTransition.WithMessage("invoice %s is %s and cannot move to %s", invoice.InvoiceNumber, invoice.Status, to)
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": to}
		if to == models.InvoiceViewed {
			updates["viewed_at"] = now
		} else {
			updates["paid_at"] = now
		}
		result := tx.Model(&models.Invoice{}).
			Where("id = ? AND status = ?", invoice.ID, invoice.Status).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("update invoice status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return s.staleInvoiceError(tx, invoice.ID)
		}
		if to != models.InvoicePaid {
			return nil
		}

		var coach models.Participant
		if err := tx.Where("session_id = ? AND role = ?", invoice.SessionID, models.ParticipantCoach).
			First(&coach).Error; err != nil {
			return fmt.Errorf("load session coach: %w", err)
		}
		payment := models.Payment{
			CoachID:        coach.UserID,
			OrganizationID: invoice.OrganizationID,
			SessionIDs:     []uint{invoice.SessionID},
			Amount:         invoice.Amount,
			Currency:       invoice.Currency,
			Status:         models.PaymentPaid,
			IssuedAt:       invoice.IssuedAt,
			PaidAt:         &now,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if err := tx.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
			Update("payment_id", payment.ID).Error; err != nil {
			return fmt.Errorf("link payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if to == models.InvoicePaid {
		logger.Info().Uint("invoice_id", invoice.ID).Str("number", invoice.InvoiceNumber).Msg("[Billing] invoice settled")
	}
	LogInfo("billing", "advance", fmt.Sprintf("invoice %s %s -> %s", invoice.InvoiceNumber, invoice.Status, to),
		&actor.UserID, &actor.OrganizationID, nil)
	return s.loadInvoice(s.db, id, actor.OrganizationID)
}

// staleInvoiceError explains a conditional update that matched no row.
func (s *BillingService) staleInvoiceError(tx *gorm.DB, id uint) error {
	var current models.Invoice
	if err := tx.Select("status").First(&current, id).Error; err != nil {
		return fmt.Errorf("reload invoice: %w", err)
	}
	if current.Status == models.InvoicePaid {
		return ErrAlreadyProcessed
	}
	return ErrInvalidTransition.WithMessage("invoice changed to %s concurrently", current.Status)
}

// MarkViewed records that the recipient opened the invoice. It is a no-op
// once the invoice is viewed or paid.
func (s *BillingService) MarkViewed(actor Actor, id uint) (*models.Invoice, error) {
	if err := actor.RequireRole(models.RoleEntrepreneur); err != nil {
		return nil, err
	}
	invoice, err := s.loadInvoice(s.db, id, actor.OrganizationID)
	if err != nil {
		return nil, err
	}
	if invoice.RecipientID != actor.UserID {
		return nil, ErrInvoiceNotFound
	}
	if models.InvoiceStatusRank(invoice.Status) >= models.InvoiceStatusRank(models.InvoiceViewed) {
		return invoice, nil
	}

	if err := s.db.Model(&models.Invoice{}).
		Where("id = ? AND status = ?", invoice.ID, models.InvoiceSent).
		Updates(map[string]interface{}{"status": models.InvoiceViewed, "viewed_at": time.Now()}).Error; err != nil {
		return nil, fmt.Errorf("mark invoice viewed: %w", err)
	}
	return s.loadInvoice(s.db, id, actor.OrganizationID)
}

// ListInvoices: managers see the organization's invoices, entrepreneurs their own.
func (s *BillingService) ListInvoices(actor Actor, req *InvoiceListRequest) ([]models.Invoice, error) {
	if err := actor.CheckOrganization(req.OrganizationID); err != nil {
		return nil, err
	}
	query := s.db.Preload("Payment").Where("organization_id = ?", actor.OrganizationID)
	switch actor.Role {
	case models.RoleManager:
	case models.RoleEntrepreneur:
		query = query.Where("recipient_id = ?", actor.UserID)
	default:
		return nil, ErrForbiddenRole
	}
	if req.SessionID != 0 {
		query = query.Where("session_id = ?", req.SessionID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var invoices []models.Invoice
	if err := query.Order("issued_at DESC, id DESC").Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

// ListPayments: managers see the organization's payments, coaches their own.
func (s *BillingService) ListPayments(actor Actor, req *PaymentListRequest) ([]models.Payment, error) {
	if err := actor.CheckOrganization(req.OrganizationID); err != nil {
		return nil, err
	}
	query := s.db.Where("organization_id = ?", actor.OrganizationID)
	switch actor.Role {
	case models.RoleManager:
	case models.RoleCoach:
		query = query.Where("coach_id = ?", actor.UserID)
	default:
		return nil, ErrForbiddenRole
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var payments []models.Payment
	if err := query.Order("created_at DESC, id DESC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
