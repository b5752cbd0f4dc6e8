package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/ahmedhesham6/invoice/internal/apperr"
	"github.com/ahmedhesham6/invoice/internal/models"
)

// DashboardService computes the aggregate statistics shown on the dashboard.
type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// Stats is the aggregate dashboard payload. Money fields are minor units in
// the account's mix of currencies, summed as stored.
type Stats struct {
	Outstanding   int64 `json:"outstanding"`
	PaidThisMonth int64 `json:"paid_this_month"`
	OverdueCount  int64 `json:"overdue_count"`
	TotalClients  int64 `json:"total_clients"`
	TotalInvoices int64 `json:"total_invoices"`
}

// StatusCounts is the number of invoices per lifecycle state.
type StatusCounts struct {
	Draft   int64 `json:"draft"`
	Sent    int64 `json:"sent"`
	Paid    int64 `json:"paid"`
	Overdue int64 `json:"overdue"`
}

// GetStats computes outstanding amount (sent + overdue), the total paid since
// the start of the current month, and entity counts.
func (s *DashboardService) GetStats(userID uint) (*Stats, error) {
	var invoices []models.Invoice
	if err := s.db.Where("user_id = ?", userID).Find(&invoices).Error; err != nil {
		return nil, apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}

	now := time.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	stats := &Stats{TotalInvoices: int64(len(invoices))}
	for _, inv := range invoices {
		if inv.IsOutstanding() {
			stats.Outstanding += inv.Total
		}
		if inv.Status == models.InvoiceStatusOverdue {
			stats.OverdueCount++
		}
		if inv.Status == models.InvoiceStatusPaid && inv.PaidAt != nil && !inv.PaidAt.Before(startOfMonth) {
			stats.PaidThisMonth += inv.Total
		}
	}

	if err := s.db.Model(&models.Client{}).Where("user_id = ?", userID).Count(&stats.TotalClients).Error; err != nil {
		return nil, apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}
	return stats, nil
}

// CountByStatus returns per-status invoice counts for the caller.
func (s *DashboardService) CountByStatus(userID uint) (*StatusCounts, error) {
	type row struct {
		Status models.InvoiceStatus
		N      int64
	}
	var rows []row
	if err := s.db.Model(&models.Invoice{}).
		Select("status, count(*) as n").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}

	counts := &StatusCounts{}
	for _, r := range rows {
		switch r.Status {
		case models.InvoiceStatusDraft:
			counts.Draft = r.N
		case models.InvoiceStatusSent:
			counts.Sent = r.N
		case models.InvoiceStatusPaid:
			counts.Paid = r.N
		case models.InvoiceStatusOverdue:
			counts.Overdue = r.N
		}
	}
	return counts, nil
}
