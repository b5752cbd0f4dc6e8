package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ahmedhesham6/invoice/internal/templates"
)

// Profile holds the freelancer's business identity and invoicing defaults.
// One profile per user; created lazily on first settings save.
type Profile struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	// Display identity
	DisplayName string `gorm:"size:255;not null" json:"display_name"`
	Email       string `gorm:"size:255;not null" json:"email"`
	Phone       string `gorm:"size:50" json:"phone,omitempty"`
	Website     string `gorm:"size:255" json:"website,omitempty"`

	// Address
	Address    string `gorm:"size:500" json:"address,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`
	Country    string `gorm:"size:100" json:"country,omitempty"`
	PostalCode string `gorm:"size:20" json:"postal_code,omitempty"`

	// Business info
	TaxID string `gorm:"size:50" json:"tax_id,omitempty"`

	// Invoice defaults
	DefaultCurrency     string       `gorm:"size:3;not null;default:'USD'" json:"default_currency"`
	InvoicePrefix       string       `gorm:"size:20;not null;default:'INV-'" json:"invoice_prefix"`
	NextInvoiceNumber   int          `gorm:"not null;default:1" json:"next_invoice_number"`
	DefaultPaymentTerms int          `gorm:"not null;default:30" json:"default_payment_terms"`
	PaymentDetails      string       `gorm:"type:text" json:"payment_details,omitempty"`
	DefaultNotes        string       `gorm:"type:text" json:"default_notes,omitempty"`
	DefaultTemplate     templates.ID `gorm:"size:20" json:"default_template,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (p *Profile) GetUserID() uint {
	return p.UserID
}

// FormatInvoiceNumber renders the human-readable number for a counter value,
// e.g. "INV-042" for prefix "INV-" and n 42.
func (p *Profile) FormatInvoiceNumber(n int) string {
	return fmt.Sprintf("%s%03d", p.InvoicePrefix, n)
}
