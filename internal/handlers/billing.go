package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/coachflow/backend/internal/services"
	"github.com/huangang/coachflow/backend/pkg/response"
	"gorm.io/gorm"
)

type BillingHandler struct {
	billingService *services.BillingService
}

func NewBillingHandler(db *gorm.DB) *BillingHandler {
	return &BillingHandler{billingService: services.NewBillingService(db)}
}

// IssueInvoice bills an entrepreneur for a completed session
// POST /manager/invoices
func (h *BillingHandler) IssueInvoice(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req services.IssueInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	invoice, err := h.billingService.IssueInvoice(actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, invoice, "")
}

// ListInvoices lists invoices for a manager or their recipient
// GET /{manager,entrepreneur}/invoices
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req services.InvoiceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	invoices, err := h.billingService.ListInvoices(actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, invoices)
}

// ProcessInvoice advances an invoice one step
// PATCH /manager/invoices/:id/process
func (h *BillingHandler) ProcessInvoice(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.ProcessInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	invoice, err := h.billingService.AdvanceStatus(actor, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, invoice)
}

// MarkViewed records that the recipient opened the invoice
// POST /entrepreneur/invoices/:id/view
func (h *BillingHandler) MarkViewed(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.billingService.MarkViewed(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, invoice)
}

// ListPayments lists payments for a manager or the paid coach
// GET /{manager,coach}/payments
func (h *BillingHandler) ListPayments(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req services.PaymentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	payments, err := h.billingService.ListPayments(actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, payments)
}
