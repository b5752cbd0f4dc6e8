package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/ahmedhesham6/invoice/internal/apperr"
	"github.com/ahmedhesham6/invoice/internal/models"
	"github.com/ahmedhesham6/invoice/internal/policy"
	"github.com/ahmedhesham6/invoice/internal/templates"
	"github.com/ahmedhesham6/invoice/internal/validation"
)

// ClientService manages the caller's clients.
type ClientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{db: db}
}

// List returns all of the caller's clients, newest first.
func (s *ClientService) List(userID uint) ([]models.Client, error) {
	var clients []models.Client
	if err := s.db.Where("user_id = ?", userID).Order("id desc").Find(&clients).Error; err != nil {
		return nil, apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}
	return clients, nil
}

// Get fetches one client by id. Missing and not-owned are indistinguishable.
func (s *ClientService) Get(userID, id uint) (*models.Client, error) {
	var client models.Client
	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New("client not found").Mark(apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}
	if err := policy.Authorize(userID, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

// Search returns the caller's clients whose name or email contains term.
func (s *ClientService) Search(userID uint, term string) ([]models.Client, error) {
	clients, err := s.List(userID)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return clients, nil
	}
	matched := clients[:0]
	for _, c := range clients {
		if strings.Contains(strings.ToLower(c.Name), term) || strings.Contains(strings.ToLower(c.Email), term) {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

// ClientInput carries the writable client fields.
type ClientInput struct {
	Name            string
	Email           string
	Phone           string
	Address         string
	City            string
	Country         string
	PostalCode      string
	TaxID           string
	Notes           string
	InvoiceTemplate templates.ID
}

func (in ClientInput) validate() error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Email("email", in.Email, v)
	if in.InvoiceTemplate != "" && !templates.IsValid(in.InvoiceTemplate) {
		v["invoice_template"] = "unknown_template"
	}
	if !v.Empty() {
		details := make(map[string]any, len(v))
		for field, code := range v {
			details[field] = code
		}
		return apperr.New("client validation failed").
			WithDetails(details).
			Mark(apperr.ErrValidation)
	}
	return nil
}

// Create stores a new client for the caller.
func (s *ClientService) Create(userID uint, in ClientInput) (*models.Client, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	client := models.Client{
		UserID:          userID,
		Name:            in.Name,
		Email:           in.Email,
		Phone:           in.Phone,
		Address:         in.Address,
		City:            in.City,
		Country:         in.Country,
		PostalCode:      in.PostalCode,
		TaxID:           in.TaxID,
		Notes:           in.Notes,
		InvoiceTemplate: in.InvoiceTemplate,
	}
	if err := s.db.Create(&client).Error; err != nil {
		return nil, apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}
	return &client, nil
}

// Update replaces the writable fields of an owned client.
func (s *ClientService) Update(userID, id uint, in ClientInput) (*models.Client, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	client, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	client.Name = in.Name
	client.Email = in.Email
	client.Phone = in.Phone
	client.Address = in.Address
	client.City = in.City
	client.Country = in.Country
	client.PostalCode = in.PostalCode
	client.TaxID = in.TaxID
	client.Notes = in.Notes
	client.InvoiceTemplate = in.InvoiceTemplate
	if err := s.db.Save(client).Error; err != nil {
		return nil, apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}
	return client, nil
}

// Delete removes a client. A client with at least one invoice cannot be
// deleted (referential guard).
func (s *ClientService) Delete(userID, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var client models.Client
		err := tx.Where("id = ? AND user_id = ?", id, userID).First(&client).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New("client not found").Mark(apperr.ErrNotFound)
		}
		if err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}

		var invoiceCount int64
		if err := tx.Model(&models.Invoice{}).
			Where("client_id = ? AND user_id = ?", id, userID).
			Count(&invoiceCount).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}
		if invoiceCount > 0 {
			return apperr.New("client has existing invoices").
				WithHint("delete or reassign the client's invoices first").
				Mark(apperr.ErrReferentialConflict)
		}

		if err := tx.Delete(&client).Error; err != nil {
			return apperr.Wrap(err).Mark(apperr.ErrDatabase)
		}
		return nil
	})
}

// Count returns how many clients the caller has.
func (s *ClientService) Count(userID uint) (int64, error) {
	var n int64
	if err := s.db.Model(&models.Client{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, apperr.Wrap(err).Mark(apperr.ErrDatabase)
	}
	return n, nil
}
