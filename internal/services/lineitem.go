package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ahmedhesham6/invoice/internal/apperr"
	"github.com/ahmedhesham6/invoice/internal/models"
)

// LineItemService maintains the ordered billable entries of an invoice and
// keeps the invoice's aggregate money fields consistent with them. Every
// mutation is draft-guarded and owner-guarded and runs in one transaction
// together with the aggregate recompute.
type LineItemService struct {
	db *gorm.DB
}

func NewLineItemService(db *gorm.DB) *LineItemService {
	return &LineItemService{db: db}
}

// ListByInvoice returns the invoice's items in display order.
func (s *LineItemService) ListByInvoice(userID, invoiceID uint) ([]models.LineItem, error) {
	if _, err := requireOwnedInvoice(s.db, userID, invoiceID); err != nil {
		return nil, err
	}
	var items []models.LineItem
	if err := s.db.Where("invoice_id = ?", invoiceID).Order("sort_order asc").Find(&items).Error; err != nil {
		return nil, apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}
	return items, nil
}

// Add appends a new item at the end of the current order and recomputes the
// invoice aggregates.
func (s *LineItemService) Add(userID, invoiceID uint, in LineItemInput) (*models.LineItem, error) {
	if in.Description == "" {
		return nil, apperr.New("line item description is required").Mark(apperr.ErrValidation)
	}
	if in.Quantity.IsNegative() || in.UnitPrice < 0 {
		return nil, apperr.New("line item amounts must not be negative").Mark(apperr.ErrValidation)
	}

	var item models.LineItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		inv, err := requireDraftInvoice(tx, userID, invoiceID)
		if err != nil {
			return err
		}

		// Append after the current max order (0 when the invoice is empty).
		var existing []models.LineItem
		if err := tx.Where("invoice_id = ?", inv.ID).Find(&existing).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}
		next := 0
		for _, e := range existing {
			if e.Order >= next {
				next = e.Order + 1
			}
		}

		item = models.LineItem{
			InvoiceID:   inv.ID,
			Description: in.Description,
			Quantity:    in.Quantity,
			Unit:        in.Unit,
			UnitPrice:   in.UnitPrice,
			Order:       next,
		}
		item.ComputeTotal()
		if err := tx.Create(&item).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}
		return recalcTotals(tx, inv.ID)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// LineItemPatch carries optional line item fields; nil means "leave unchanged".
type LineItemPatch struct {
	Description *string
	Quantity    *decimal.Decimal
	Unit        *string
	UnitPrice   *int64
}

// Update modifies an item, recomputes its own total and then the invoice
// aggregates.
func (s *LineItemService) Update(userID, id uint, patch LineItemPatch) (*models.LineItem, error) {
	var item models.LineItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		found, err := fetchOwnedItem(tx, userID, id)
		if err != nil {
			return err
		}
		item = *found

		if patch.Description != nil {
			item.Description = *patch.Description
		}
		if patch.Quantity != nil {
			if patch.Quantity.IsNegative() {
				return apperr.New("quantity must not be negative").Mark(apperr.ErrValidation)
			}
			item.Quantity = *patch.Quantity
		}
		if patch.Unit != nil {
			item.Unit = *patch.Unit
		}
		if patch.UnitPrice != nil {
			if *patch.UnitPrice < 0 {
				return apperr.New("unit price must not be negative").Mark(apperr.ErrValidation)
			}
			item.UnitPrice = *patch.UnitPrice
		}
		item.ComputeTotal()

		if err := tx.Save(&item).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}
		return recalcTotals(tx, item.InvoiceID)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Remove deletes an item and recomputes the invoice aggregates. Surviving
// items keep their order values; no renumbering happens.
func (s *LineItemService) Remove(userID, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		item, err := fetchOwnedItem(tx, userID, id)
		if err != nil {
			return err
		}
		invoiceID := item.InvoiceID
		if err := tx.Unscoped().Delete(item).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}
		return recalcTotals(tx, invoiceID)
	})
}

// Reorder assigns order = index for each id in the given sequence. Callers
// must supply the complete set of the invoice's item ids.
func (s *LineItemService) Reorder(userID, invoiceID uint, itemIDs []uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		inv, err := requireDraftInvoice(tx, userID, invoiceID)
		if err != nil {
			return err
		}
		for i, itemID := range itemIDs {
			res := tx.Model(&models.LineItem{}).
				Where("id = ? AND invoice_id = ?", itemID, inv.ID).
				Update("sort_order", i)
			if res.Error != nil {
				return apperr.Wrap(res.Error).Mark(apperr.ErrDatabase)
			}
			if res.RowsAffected == 0 {
				return apperr.New("line item not found").Mark(apperr.ErrNotFound)
			}
		}
		return nil
	})
}

// requireOwnedInvoice fetches the parent invoice scoped to the caller.
func requireOwnedInvoice(tx *gorm.DB, userID, invoiceID uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := tx.Where("id = ? AND user_id = ?", invoiceID, userID).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New("invoice not found").Mark(apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}
	return &inv, nil
}

// requireDraftInvoice additionally enforces the draft-only mutation rule.
func requireDraftInvoice(tx *gorm.DB, userID, invoiceID uint) (*models.Invoice, error) {
	inv, err := requireOwnedInvoice(tx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.CanEdit() {
		return nil, apperr.New("can only modify items of draft invoices").Mark(apperr.ErrInvalidState)
	}
	return inv, nil
}

// fetchOwnedItem resolves an item and authorizes through its parent invoice,
// requiring draft status.
func fetchOwnedItem(tx *gorm.DB, userID, id uint) (*models.LineItem, error) {
	var item models.LineItem
	err := tx.First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New("line item not found").Mark(apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}
	if _, err := requireDraftInvoice(tx, userID, item.InvoiceID); err != nil {
		return nil, err
	}
	return &item, nil
}
