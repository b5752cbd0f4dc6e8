package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ahmedhesham6/invoice/internal/apperr"
	"github.com/ahmedhesham6/invoice/internal/money"
	"github.com/ahmedhesham6/invoice/internal/templates"
)

// InvoiceStatus is the closed set of invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// StatusEvent names a lifecycle transition request.
type StatusEvent string

const (
	EventMarkSent StatusEvent = "mark_sent"
	EventMarkPaid StatusEvent = "mark_paid"
	// EventSweepOverdue is not user-settable; only the overdue sweep emits it.
	EventSweepOverdue StatusEvent = "sweep_overdue"
)

// Invoice represents a billing invoice with its computed money fields.
// Implements the Ownable interface for ownership-based authorization.
//
// Subtotal, TaxAmount, DiscountAmount and Total are derived and only ever
// written by the recompute path; all of them are integer minor currency
// units (cents).
type Invoice struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// UserID is the owner of this invoice (for multi-tenant isolation)
	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	ClientID uint    `gorm:"index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	// Identity. Number is only meaningful within an account; no uniqueness is
	// enforced. PublicToken grants unauthenticated read access via share link.
	Number      string `gorm:"size:50;index" json:"number"`
	PublicToken string `gorm:"size:36;uniqueIndex;not null" json:"public_token"`

	// Dates
	IssueDate time.Time  `gorm:"not null" json:"issue_date"`
	DueDate   time.Time  `gorm:"not null" json:"due_date"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`

	Status InvoiceStatus `gorm:"size:20;not null;default:'draft'" json:"status"`

	// Money
	Currency       string             `gorm:"size:3;not null" json:"currency"`
	Subtotal       int64              `gorm:"not null" json:"subtotal"`
	TaxRate        decimal.Decimal    `gorm:"type:decimal(7,4);not null" json:"tax_rate"`
	TaxAmount      int64              `gorm:"not null" json:"tax_amount"`
	DiscountType   money.DiscountType `gorm:"size:20" json:"discount_type,omitempty"`
	DiscountValue  decimal.Decimal    `gorm:"type:decimal(14,4)" json:"discount_value"`
	DiscountAmount int64              `gorm:"not null" json:"discount_amount"`
	Total          int64              `gorm:"not null" json:"total"`

	// Content
	Notes           string       `gorm:"type:text" json:"notes,omitempty"`
	PaymentDetails  string       `gorm:"type:text" json:"payment_details,omitempty"`
	InvoiceTemplate templates.ID `gorm:"size:20" json:"invoice_template,omitempty"`

	Items []LineItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (i *Invoice) GetUserID() uint {
	return i.UserID
}

// IsDraft returns true if the invoice is in draft status.
func (i *Invoice) IsDraft() bool {
	return i.Status == InvoiceStatusDraft
}

// CanEdit returns true if invoice fields and line items may still be changed.
func (i *Invoice) CanEdit() bool {
	return i.Status == InvoiceStatusDraft
}

// IsOutstanding returns true if the invoice awaits payment.
func (i *Invoice) IsOutstanding() bool {
	return i.Status == InvoiceStatusSent || i.Status == InvoiceStatusOverdue
}

// Transition applies a lifecycle event to the invoice, enforcing the
// transition table in one place:
//
//	draft --mark_sent--> sent --mark_paid--> paid
//	                     sent --sweep_overdue--> overdue --mark_paid--> paid
//
// paid is terminal. Illegal events return ErrInvalidState and leave the
// invoice unchanged.
func (i *Invoice) Transition(event StatusEvent, now time.Time) error {
	switch event {
	case EventMarkSent:
		if i.Status != InvoiceStatusDraft {
			return apperr.New("invoice is already sent").
				WithHintf("invoice %s cannot be sent twice", i.Number).
				Mark(apperr.ErrInvalidState)
		}
		i.Status = InvoiceStatusSent
		i.SentAt = &now

	case EventMarkPaid:
		switch i.Status {
		case InvoiceStatusSent, InvoiceStatusOverdue:
			i.Status = InvoiceStatusPaid
			i.PaidAt = &now
		case InvoiceStatusDraft:
			return apperr.New("cannot mark draft invoice as paid").
				WithHint("send the invoice first").
				Mark(apperr.ErrInvalidState)
		default:
			return apperr.New("invoice is already paid").
				Mark(apperr.ErrInvalidState)
		}

	case EventSweepOverdue:
		if i.Status != InvoiceStatusSent {
			return apperr.New("only sent invoices become overdue").
				Mark(apperr.ErrInvalidState)
		}
		if !i.DueDate.Before(now) {
			return apperr.New("invoice is not past due").
				Mark(apperr.ErrInvalidState)
		}
		i.Status = InvoiceStatusOverdue

	default:
		return apperr.New("unknown status event").
			WithHintf("event %q is not defined", event).
			Mark(apperr.ErrInvalidState)
	}
	return nil
}

// LineItem represents a single billable entry on an invoice. Line items are
// owned exclusively by their invoice; deleting the invoice deletes them.
type LineItem struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InvoiceID uint     `gorm:"index;not null" json:"invoice_id"`
	Invoice   *Invoice `gorm:"foreignKey:InvoiceID" json:"-"`

	Description string          `gorm:"size:500;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantity"`
	Unit        string          `gorm:"size:50" json:"unit,omitempty"`
	UnitPrice   int64           `gorm:"not null" json:"unit_price"` // minor units
	Total       int64           `gorm:"not null" json:"total"`      // round(quantity * unit_price)

	// Order is the zero-based display position within the invoice.
	Order int `gorm:"column:sort_order;not null;default:0" json:"order"`
}

// ComputeTotal recomputes the derived line total from quantity and unit price.
func (li *LineItem) ComputeTotal() {
	li.Total = money.LineTotal(li.Quantity, li.UnitPrice)
}
