package services

import (
	"fmt"

	"github.com/huangang/coachflow/backend/internal/models"
	"gorm.io/gorm"
)

type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

type DashboardRequest struct {
	OrganizationID uint `form:"organizationId"`
}

type DashboardStats struct {
	Role            string           `json:"role"`
	OrganizationID  uint             `json:"organizationId"`
	SessionsByState map[string]int64 `json:"sessionsByStatus"`
	GoalsByState    map[string]int64 `json:"goalsByStatus"`
	InvoicesByState map[string]int64 `json:"invoicesByStatus,omitempty"`
	Members         map[string]int64 `json:"membersByRole,omitempty"`
	PaidTotal       float64          `json:"paidTotal"`
	OutstandingDue  float64          `json:"outstandingTotal"`
}

type statusCount struct {
	Status string
	Count  int64
}

func countByStatus(query *gorm.DB, column string) (map[string]int64, error) {
	var rows []statusCount
	if err := query.Select(column + " AS status, COUNT(*) AS count").Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

func sumAmount(query *gorm.DB) (float64, error) {
	var total float64
	if err := query.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *DashboardService) goals(actor Actor) *gorm.DB {
	query := s.db.Model(&models.Goal{}).Where("organization_id = ?", actor.OrganizationID)
	switch actor.Role {
	case models.RoleCoach:
		query = query.Where("coach_id = ?", actor.UserID)
	case models.RoleEntrepreneur:
		query = query.Where("entrepreneur_id = ?", actor.UserID)
	}
	return query
}

func (s *DashboardService) invoices(actor Actor) *gorm.DB {
	query := s.db.Model(&models.Invoice{}).Where("organization_id = ?", actor.OrganizationID)
	if actor.IsEntrepreneur() {
		query = query.Where("recipient_id = ?", actor.UserID)
	}
	return query
}

func (s *DashboardService) paidPayments(actor Actor) *gorm.DB {
	query := s.db.Model(&models.Payment{}).
		Where("organization_id = ? AND status = ?", actor.OrganizationID, models.PaymentPaid)
	if actor.IsCoach() {
		query = query.Where("coach_id = ?", actor.UserID)
	}
	return query
}

// GetStats aggregates read-only statistics for the actor's role.
func (s *DashboardService) GetStats(actor Actor, req *DashboardRequest) (*DashboardStats, error) {
	if err := actor.CheckOrganization(req.OrganizationID); err != nil {
		return nil, err
	}
	if !models.IsValidRole(actor.Role) {
		return nil, ErrForbiddenRole
	}
	org := actor.OrganizationID
	stats := &DashboardStats{Role: actor.Role, OrganizationID: org}
	var err error

	if stats.SessionsByState, err = countByStatus(scopedSessions(s.db, actor.UserID, actor.Role, org), "sessions.status"); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	if stats.GoalsByState, err = countByStatus(s.goals(actor), "status"); err != nil {
		return nil, fmt.Errorf("count goals: %w", err)
	}

	switch actor.Role {
	case models.RoleManager:
		if stats.InvoicesByState, err = countByStatus(s.invoices(actor), "status"); err != nil {
			return nil, fmt.Errorf("count invoices: %w", err)
		}
		members := s.db.Model(&models.Membership{}).
			Where("organization_id = ? AND status = ?", org, models.MembershipActive)
		if stats.Members, err = countByStatus(members, "role"); err != nil {
			return nil, fmt.Errorf("count members: %w", err)
		}
		if stats.PaidTotal, err = sumAmount(s.paidPayments(actor)); err != nil {
			return nil, fmt.Errorf("sum payments: %w", err)
		}
	case models.RoleCoach:
		if stats.PaidTotal, err = sumAmount(s.paidPayments(actor)); err != nil {
			return nil, fmt.Errorf("sum payments: %w", err)
		}
	case models.RoleEntrepreneur:
		if stats.InvoicesByState, err = countByStatus(s.invoices(actor), "status"); err != nil {
			return nil, fmt.Errorf("count invoices: %w", err)
		}
		if stats.OutstandingDue, err = sumAmount(s.invoices(actor).Where("status <> ?", models.InvoicePaid)); err != nil {
			return nil, fmt.Errorf("sum outstanding: %w", err)
		}
	}
	return stats, nil
}
