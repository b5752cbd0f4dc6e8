package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ahmedhesham6/invoice/internal/auth"
	"github.com/ahmedhesham6/invoice/internal/httpx"
	"github.com/ahmedhesham6/invoice/internal/services"
	"github.com/ahmedhesham6/invoice/internal/templates"
)

type ProfileHandler struct {
	Svc *services.ProfileService
}

func NewProfileHandler(svc *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{Svc: svc}
}

func (h *ProfileHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/profile", h.handle)
	mux.HandleFunc("/profile/next-number", h.nextNumber)
}

type profileRequest struct {
	DisplayName         *string       `json:"display_name"`
	Email               *string       `json:"email"`
	Phone               *string       `json:"phone"`
	Website             *string       `json:"website"`
	Address             *string       `json:"address"`
	City                *string       `json:"city"`
	Country             *string       `json:"country"`
	PostalCode          *string       `json:"postal_code"`
	TaxID               *string       `json:"tax_id"`
	DefaultCurrency     *string       `json:"default_currency"`
	InvoicePrefix       *string       `json:"invoice_prefix"`
	DefaultPaymentTerms *int          `json:"default_payment_terms"`
	PaymentDetails      *string       `json:"payment_details"`
	DefaultNotes        *string       `json:"default_notes"`
	DefaultTemplate     *templates.ID `json:"default_template"`
}

func (h *ProfileHandler) handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			httpx.JSON(w, http.StatusOK, nil)
			return
		}
		profile, err := h.Svc.Get(uid)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, profile)
	case http.MethodPost, http.MethodPut:
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthenticated", nil)
			return
		}
		var req profileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		if req.DefaultTemplate != nil && *req.DefaultTemplate != "" && !templates.IsValid(*req.DefaultTemplate) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_error", map[string]string{"default_template": "unknown_template"})
			return
		}
		profile, err := h.Svc.Update(uid, services.ProfileUpdate{
			DisplayName:         req.DisplayName,
			Email:               req.Email,
			Phone:               req.Phone,
			Website:             req.Website,
			Address:             req.Address,
			City:                req.City,
			Country:             req.Country,
			PostalCode:          req.PostalCode,
			TaxID:               req.TaxID,
			DefaultCurrency:     req.DefaultCurrency,
			InvoicePrefix:       req.InvoicePrefix,
			DefaultPaymentTerms: req.DefaultPaymentTerms,
			PaymentDetails:      req.PaymentDetails,
			DefaultNotes:        req.DefaultNotes,
			DefaultTemplate:     req.DefaultTemplate,
		})
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, profile)
	default:
		w.Header().Set("Allow", "GET,POST,PUT")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

// nextNumber issues the next formatted invoice number and advances the
// counter. POST because it mutates.
func (h *ProfileHandler) nextNumber(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}
	number, err := h.Svc.NextInvoiceNumber(uid)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"number": number})
}
