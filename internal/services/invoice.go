package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ahmedhesham6/invoice/internal/apperr"
	"github.com/ahmedhesham6/invoice/internal/logger"
	"github.com/ahmedhesham6/invoice/internal/models"
	"github.com/ahmedhesham6/invoice/internal/money"
	"github.com/ahmedhesham6/invoice/internal/policy"
	"github.com/ahmedhesham6/invoice/internal/templates"
	"github.com/ahmedhesham6/invoice/internal/validation"
)

// InvoiceService implements the invoice financial and lifecycle engine:
// creation with computed totals, draft-only editing, status transitions and
// the overdue sweep. Every mutation runs in a single transaction.
type InvoiceService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewInvoiceService(db *gorm.DB) *InvoiceService {
	return &InvoiceService{db: db, log: logger.WithComponent("invoices")}
}

// LineItemInput carries one billable entry for invoice creation/replacement.
type LineItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit,omitempty"`
	UnitPrice   int64           `json:"unit_price"`
}

// InvoiceInput carries the full set of writable invoice fields.
type InvoiceInput struct {
	ClientID       uint               `json:"client_id"`
	Number         string             `json:"number"`
	IssueDate      time.Time          `json:"issue_date"`
	DueDate        time.Time          `json:"due_date"`
	Currency       string             `json:"currency"`
	TaxRate        decimal.Decimal    `json:"tax_rate"`
	DiscountType   money.DiscountType `json:"discount_type,omitempty"`
	DiscountValue  decimal.Decimal    `json:"discount_value"`
	Notes          string             `json:"notes,omitempty"`
	PaymentDetails string             `json:"payment_details,omitempty"`
	Template       templates.ID       `json:"invoice_template,omitempty"`
	Items          []LineItemInput    `json:"items"`
}

func (in InvoiceInput) validate() error {
	v := validation.Violations{}
	validation.Required("number", in.Number, v)
	validation.Required("currency", in.Currency, v)
	if in.ClientID == 0 {
		v["client_id"] = "required"
	}
	validation.NonNegativeDecimal("tax_rate", in.TaxRate, v)
	validation.NonNegativeDecimal("discount_value", in.DiscountValue, v)
	switch in.DiscountType {
	case "", money.DiscountPercentage, money.DiscountFixed:
	default:
		v["discount_type"] = "unknown_discount_type"
	}
	if in.Template != "" && !templates.IsValid(in.Template) {
		v["invoice_template"] = "unknown_template"
	}
	for _, item := range in.Items {
		if item.Description == "" {
			v["items"] = "description_required"
		}
		if item.Quantity.IsNegative() || item.UnitPrice < 0 {
			v["items"] = "must_not_be_negative"
		}
	}
	if !v.Empty() {
		details := make(map[string]any, len(v))
		for field, code := range v {
			details[field] = code
		}
		return apperr.New("invoice validation failed").
			WithDetails(details).
			Mark(apperr.ErrValidation)
	}
	return nil
}

// List returns the caller's invoices newest first, optionally filtered by
// status and/or client, with client info attached.
func (s *InvoiceService) List(userID uint, status models.InvoiceStatus, clientID uint) ([]models.Invoice, error) {
	q := s.db.Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if clientID != 0 {
		q = q.Where("client_id = ?", clientID)
	}
	var invoices []models.Invoice
	if err := q.Preload("Client").Order("id desc").Find(&invoices).Error; err != nil {
		return nil, apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}
	return invoices, nil
}

// Recent returns the caller's most recent invoices with client info.
func (s *InvoiceService) Recent(userID uint, limit int) ([]models.Invoice, error) {
	if limit <= 0 {
		limit = 5
	}
	var invoices []models.Invoice
	if err := s.db.Where("user_id = ?", userID).
		Preload("Client").Order("id desc").Limit(limit).Find(&invoices).Error; err != nil {
		return nil, apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}
	return invoices, nil
}

// Get fetches one invoice with its client and ordered line items. Missing and
// not-owned are indistinguishable.
func (s *InvoiceService) Get(userID, id uint) (*models.Invoice, error) {
	return s.fetch(s.db, userID, id, true)
}

func (s *InvoiceService) fetch(tx *gorm.DB, userID, id uint, withRelations bool) (*models.Invoice, error) {
	q := tx.Where("id = ? AND user_id = ?", id, userID)
	if withRelations {
		q = q.Preload("Client").Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc")
		})
	}
	var inv models.Invoice
	err := q.First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New("invoice not found").Mark(apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}
	if err := policy.Authorize(userID, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// requireOwnedClient verifies the client exists and belongs to the caller.
func requireOwnedClient(tx *gorm.DB, userID, clientID uint) error {
	var client models.Client
	err := tx.Where("id = ? AND user_id = ?", clientID, userID).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New("client not found").Mark(apperr.ErrNotFound)
	}
	if err != nil {
		return apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}
	return nil
}

// Create stores a new draft invoice with its line items and computed totals.
func (s *InvoiceService) Create(userID uint, in InvoiceInput) (*models.Invoice, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var inv models.Invoice
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := requireOwnedClient(tx, userID, in.ClientID); err != nil {
			return err
		}

		inv = models.Invoice{
			UserID:          userID,
			ClientID:        in.ClientID,
			Number:          in.Number,
			PublicToken:     uuid.NewString(),
			IssueDate:       in.IssueDate,
			DueDate:         in.DueDate,
			Status:          models.InvoiceStatusDraft,
			Currency:        in.Currency,
			TaxRate:         in.TaxRate,
			DiscountType:    in.DiscountType,
			DiscountValue:   in.DiscountValue,
			Notes:           in.Notes,
			PaymentDetails:  in.PaymentDetails,
			InvoiceTemplate: in.Template,
		}
		if err := tx.Create(&inv).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}

		for i, item := range in.Items {
			li := models.LineItem{
				InvoiceID:   inv.ID,
				Description: item.Description,
				Quantity:    item.Quantity,
				Unit:        item.Unit,
				UnitPrice:   item.UnitPrice,
				Order:       i,
			}
			li.ComputeTotal()
			if err := tx.Create(&li).Error; err != nil {
				return apperr.Wrap(err).Mark(apperr.ErrDatabase)
			}
		}

		return recalcTotals(tx, inv.ID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("invoice_id", inv.ID).Str("number", inv.Number).Msg("invoice created")
	return s.Get(userID, inv.ID)
}

// InvoicePatch carries optional invoice fields; nil means "leave unchanged".
type InvoicePatch struct {
	ClientID       *uint
	IssueDate      *time.Time
	DueDate        *time.Time
	Currency       *string
	TaxRate        *decimal.Decimal
	DiscountType   *money.DiscountType
	DiscountValue  *decimal.Decimal
	Notes          *string
	PaymentDetails *string
	Template       *templates.ID
}

// Update patches invoice core fields. Draft-only. Changing tax or discount
// settings recomputes the derived money fields in the same transaction.
func (s *InvoiceService) Update(userID, id uint, patch InvoicePatch) (*models.Invoice, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		inv, err := s.fetch(tx, userID, id, false)
		if err != nil {
			return err
		}
		if !inv.CanEdit() {
			return apperr.New("can only edit draft invoices").Mark(apperr.ErrInvalidState)
		}

		if patch.ClientID != nil {
			if err := requireOwnedClient(tx, userID, *patch.ClientID); err != nil {
				return err
			}
			inv.ClientID = *patch.ClientID
		}
		if patch.IssueDate != nil {
			inv.IssueDate = *patch.IssueDate
		}
		if patch.DueDate != nil {
			inv.DueDate = *patch.DueDate
		}
		if patch.Currency != nil {
			inv.Currency = *patch.Currency
		}
		if patch.Template != nil {
			if *patch.Template != "" && !templates.IsValid(*patch.Template) {
				return apperr.New("unknown invoice template").Mark(apperr.ErrValidation)
			}
			inv.InvoiceTemplate = *patch.Template
		}
		if patch.Notes != nil {
			inv.Notes = *patch.Notes
		}
		if patch.PaymentDetails != nil {
			inv.PaymentDetails = *patch.PaymentDetails
		}

		moneyChanged := false
		if patch.TaxRate != nil {
			if patch.TaxRate.IsNegative() {
				return apperr.New("tax rate must not be negative").Mark(apperr.ErrValidation)
			}
			inv.TaxRate = *patch.TaxRate
			moneyChanged = true
		}
		if patch.DiscountType != nil {
			switch *patch.DiscountType {
			case "", money.DiscountPercentage, money.DiscountFixed:
			default:
				return apperr.New("unknown discount type").Mark(apperr.ErrValidation)
			}
			inv.DiscountType = *patch.DiscountType
			moneyChanged = true
		}
		if patch.DiscountValue != nil {
			inv.DiscountValue = *patch.DiscountValue
			moneyChanged = true
		}

		if err := tx.Save(inv).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}
		if moneyChanged {
			return recalcTotals(tx, inv.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(userID, id)
}

// FullUpdate replaces the invoice's fields and its entire line-item set.
// Draft-only; totals are recomputed from the new items.
func (s *InvoiceService) FullUpdate(userID, id uint, in InvoiceInput) (*models.Invoice, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		inv, err := s.fetch(tx, userID, id, false)
		if err != nil {
			return err
		}
		if !inv.CanEdit() {
			return apperr.New("can only edit draft invoices").Mark(apperr.ErrInvalidState)
		}
		if err := requireOwnedClient(tx, userID, in.ClientID); err != nil {
			return err
		}

		inv.ClientID = in.ClientID
		inv.Number = in.Number
		inv.IssueDate = in.IssueDate
		inv.DueDate = in.DueDate
		inv.Currency = in.Currency
		inv.TaxRate = in.TaxRate
		inv.DiscountType = in.DiscountType
		inv.DiscountValue = in.DiscountValue
		inv.Notes = in.Notes
		inv.PaymentDetails = in.PaymentDetails
		inv.InvoiceTemplate = in.Template
		if err := tx.Save(inv).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}

		if err := tx.Unscoped().Where("invoice_id = ?", inv.ID).Delete(&models.LineItem{}).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}
		for i, item := range in.Items {
			li := models.LineItem{
				InvoiceID:   inv.ID,
				Description: item.Description,
				Quantity:    item.Quantity,
				Unit:        item.Unit,
				UnitPrice:   item.UnitPrice,
				Order:       i,
			}
			li.ComputeTotal()
			if err := tx.Create(&li).Error; err != nil {
				return apperr.Wrap(err).Mark(apperr.ErrDatabase)
			}
		}

		return recalcTotals(tx, inv.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(userID, id)
}

// Delete removes a draft invoice and all of its line items.
func (s *InvoiceService) Delete(userID, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		inv, err := s.fetch(tx, userID, id, false)
		if err != nil {
			return err
		}
		if !inv.IsDraft() {
			return apperr.New("can only delete draft invoices").Mark(apperr.ErrInvalidState)
		}
		if err := tx.Unscoped().Where("invoice_id = ?", inv.ID).Delete(&models.LineItem{}).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}
		if err := tx.Unscoped().Delete(inv).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}
		return nil
	})
}

// Duplicate copies an invoice of any status into a fresh draft: new public
// token, copied line items with fresh ids, issue date now, due date now+30d,
// caller-supplied number.
func (s *InvoiceService) Duplicate(userID, id uint, newNumber string) (*models.Invoice, error) {
	if newNumber == "" {
		return nil, apperr.New("new invoice number is required").Mark(apperr.ErrValidation)
	}

	var copyID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		src, err := s.fetch(tx, userID, id, true)
		if err != nil {
			return err
		}

		now := time.Now()
		dup := models.Invoice{
			UserID:          userID,
			ClientID:        src.ClientID,
			Number:          newNumber,
			PublicToken:     uuid.NewString(),
			IssueDate:       now,
			DueDate:         now.AddDate(0, 0, 30),
			Status:          models.InvoiceStatusDraft,
			Currency:        src.Currency,
			Subtotal:        src.Subtotal,
			TaxRate:         src.TaxRate,
			TaxAmount:       src.TaxAmount,
			DiscountType:    src.DiscountType,
			DiscountValue:   src.DiscountValue,
			DiscountAmount:  src.DiscountAmount,
			Total:           src.Total,
			Notes:           src.Notes,
			PaymentDetails:  src.PaymentDetails,
			InvoiceTemplate: src.InvoiceTemplate,
		}
		if err := tx.Create(&dup).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}
		for _, item := range src.Items {
			li := models.LineItem{
				InvoiceID:   dup.ID,
				Description: item.Description,
				Quantity:    item.Quantity,
				Unit:        item.Unit,
				UnitPrice:   item.UnitPrice,
				Total:       item.Total,
				Order:       item.Order,
			}
			if err := tx.Create(&li).Error; err != nil {
				return apperr.Wrap(err).Mark(apperr.ErrDatabase)
			}
		}
		copyID = dup.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("source_id", id).Uint("invoice_id", copyID).Msg("invoice duplicated")
	return s.Get(userID, copyID)
}

// MarkSent transitions a draft invoice to sent and stamps sentAt.
func (s *InvoiceService) MarkSent(userID, id uint) (*models.Invoice, error) {
	return s.transition(userID, id, models.EventMarkSent)
}

// MarkPaid transitions a sent or overdue invoice to paid and stamps paidAt.
func (s *InvoiceService) MarkPaid(userID, id uint) (*models.Invoice, error) {
	return s.transition(userID, id, models.EventMarkPaid)
}

func (s *InvoiceService) transition(userID, id uint, event models.StatusEvent) (*models.Invoice, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		inv, err := s.fetch(tx, userID, id, false)
		if err != nil {
			return err
		}
		if err := inv.Transition(event, time.Now()); err != nil {
			return err
		}
		if err := tx.Save(inv).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(userID, id)
}

// CheckOverdue promotes the caller's sent invoices past their due date to
// overdue and returns how many changed. Idempotent: a second run right after
// the first changes nothing and returns 0.
func (s *InvoiceService) CheckOverdue(userID uint) (int, error) {
	now := time.Now()
	marked := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var sent []models.Invoice
		if err := tx.Where("user_id = ? AND status = ?", userID, models.InvoiceStatusSent).
			Find(&sent).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}
		for i := range sent {
			if !sent[i].DueDate.Before(now) {
				continue
			}
			if err := sent[i].Transition(models.EventSweepOverdue, now); err != nil {
				return err
			}
			if err := tx.Save(&sent[i]).Error; err != nil {
				return apperr.Wrap(err).Mark(apperr.ErrDatabase)
			}
			marked++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if marked > 0 {
		s.log.Info().Int("count", marked).Msg("invoices marked overdue")
	}
	return marked, nil
}

// PublicInvoice is the read-only payload served on the share-link path.
// Profile is reduced to the display fields the rendered invoice needs.
type PublicInvoice struct {
	Invoice          models.Invoice `json:"invoice"`
	Client           *models.Client `json:"client,omitempty"`
	Profile          *PublicProfile `json:"profile,omitempty"`
	ResolvedTemplate templates.ID   `json:"resolved_template"`
}

// PublicProfile is the subset of profile fields safe to expose to anyone
// holding a share link.
type PublicProfile struct {
	DisplayName    string `json:"display_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	Website        string `json:"website,omitempty"`
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	Country        string `json:"country,omitempty"`
	PostalCode     string `json:"postal_code,omitempty"`
	TaxID          string `json:"tax_id,omitempty"`
	PaymentDetails string `json:"payment_details,omitempty"`
}

// GetByToken resolves an invoice by its public token. This path deliberately
// bypasses ownership checks: the token itself is the credential. It returns
// only the single invoice's data, never a listing.
func (s *InvoiceService) GetByToken(token string) (*PublicInvoice, error) {
	var inv models.Invoice
	err := s.db.Where("public_token = ?", token).
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc") }).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New("invoice not found").Mark(apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}

	out := &PublicInvoice{Invoice: inv, Client: inv.Client}

	var clientTemplate, profileTemplate templates.ID
	if inv.Client != nil {
		clientTemplate = inv.Client.InvoiceTemplate
	}
	var profile models.Profile
	if err := s.db.Where("user_id = ?", inv.UserID).First(&profile).Error; err == nil {
		profileTemplate = profile.DefaultTemplate
		out.Profile = &PublicProfile{
			DisplayName:    profile.DisplayName,
			Email:          profile.Email,
			Phone:          profile.Phone,
			Website:        profile.Website,
			Address:        profile.Address,
			City:           profile.City,
			Country:        profile.Country,
			PostalCode:     profile.PostalCode,
			TaxID:          profile.TaxID,
			PaymentDetails: profile.PaymentDetails,
		}
	}

	out.ResolvedTemplate = templates.Resolve(inv.InvoiceTemplate, clientTemplate, profileTemplate)
	return out, nil
}

// recalcTotals recomputes the invoice's derived money fields from its line
// items. This is the only writer of subtotal/taxAmount/discountAmount/total.
func recalcTotals(tx *gorm.DB, invoiceID uint) error {
	var inv models.Invoice
	if err := tx.First(&inv, invoiceID).Error; err != nil {
		return apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}
	var items []models.LineItem
	if err := tx.Where("invoice_id = ?", invoiceID).Find(&items).Error; err != nil {
		return apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}

	lineTotals := make([]int64, len(items))
	for i, item := range items {
		lineTotals[i] = item.Total
	}
	subtotal := money.Subtotal(lineTotals)
	taxAmount := money.TaxAmount(subtotal, inv.TaxRate)
	discountAmount := money.DiscountAmount(subtotal, inv.DiscountType, inv.DiscountValue)
	total := money.Total(subtotal, taxAmount, discountAmount)

	if err := tx.Model(&inv).Updates(map[string]any{
		"subtotal":        subtotal,
		"tax_amount":      taxAmount,
		"discount_amount": discountAmount,
		"total":           total,
	}).Error; err != nil {
		return apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}
	return nil
}
