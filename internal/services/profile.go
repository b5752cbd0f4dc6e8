package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ahmedhesham6/invoice/internal/apperr"
	"github.com/ahmedhesham6/invoice/internal/models"
	"github.com/ahmedhesham6/invoice/internal/templates"
)

// ProfileService manages the per-user business profile and its invoice
// numbering counter.
type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// Get returns the caller's profile, or nil if none exists yet.
func (s *ProfileService) Get(userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}
	return &profile, nil
}

// ProfileUpdate carries optional profile fields; nil means "leave unchanged".
type ProfileUpdate struct {
	DisplayName         *string
	Email               *string
	Phone               *string
	Website             *string
	Address             *string
	City                *string
	Country             *string
	PostalCode          *string
	TaxID               *string
	DefaultCurrency     *string
	InvoicePrefix       *string
	DefaultPaymentTerms *int
	PaymentDetails      *string
	DefaultNotes        *string
	DefaultTemplate     *templates.ID
}

// Update applies the patch, creating the profile with defaults on first save.
func (s *ProfileService) Update(userID uint, in ProfileUpdate) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.Transaction(func(tx *gorm.DB) error {
		findErr := tx.Where("user_id = ?", userID).First(&profile).Error
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			profile = models.Profile{
				UserID:              userID,
				DefaultCurrency:     "USD",
				InvoicePrefix:       "INV-",
				NextInvoiceNumber:   1,
				DefaultPaymentTerms: 30,
			}
		} else if findErr != nil {
			return apperr.Wrap(findErr).Mark(apperr.ErrDatabase)
		}

		applyProfileUpdate(&profile, in)
		if err := tx.Save(&profile).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func applyProfileUpdate(p *models.Profile, in ProfileUpdate) {
	if in.DisplayName != nil {
		p.DisplayName = *in.DisplayName
	}
	if in.Email != nil {
		p.Email = *in.Email
	}
	if in.Phone != nil {
		p.Phone = *in.Phone
	}
	if in.Website != nil {
		p.Website = *in.Website
	}
	if in.Address != nil {
		p.Address = *in.Address
	}
	if in.City != nil {
		p.City = *in.City
	}
	if in.Country != nil {
		p.Country = *in.Country
	}
	if in.PostalCode != nil {
		p.PostalCode = *in.PostalCode
	}
	if in.TaxID != nil {
		p.TaxID = *in.TaxID
	}
	if in.DefaultCurrency != nil {
		p.DefaultCurrency = *in.DefaultCurrency
	}
	if in.InvoicePrefix != nil {
		p.InvoicePrefix = *in.InvoicePrefix
	}
	if in.DefaultPaymentTerms != nil {
		p.DefaultPaymentTerms = *in.DefaultPaymentTerms
	}
	if in.PaymentDetails != nil {
		p.PaymentDetails = *in.PaymentDetails
	}
	if in.DefaultNotes != nil {
		p.DefaultNotes = *in.DefaultNotes
	}
	if in.DefaultTemplate != nil {
		p.DefaultTemplate = *in.DefaultTemplate
	}
}

// NextInvoiceNumber formats the next invoice number from the profile counter
// and increments it. The read-increment-write runs in one transaction; the
// storage layer serializes concurrent increments.
func (s *ProfileService) NextInvoiceNumber(userID uint) (string, error) {
	var number string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var profile models.Profile
		if err := tx.Where("user_id = ?", userID).First(&profile).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New("profile not found").
					WithHint("save your settings before issuing invoice numbers").
					Mark(apperr.ErrNotFound)
			}
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}
		number = profile.FormatInvoiceNumber(profile.NextInvoiceNumber)
		profile.NextInvoiceNumber++
		if err := tx.Save(&profile).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return number, nil
}
