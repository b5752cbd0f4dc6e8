package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ahmedhesham6/invoice/internal/auth"
	"github.com/ahmedhesham6/invoice/internal/httpx"
	"github.com/ahmedhesham6/invoice/internal/models"
	"github.com/ahmedhesham6/invoice/internal/money"
	"github.com/ahmedhesham6/invoice/internal/pdf"
	"github.com/ahmedhesham6/invoice/internal/services"
	"github.com/ahmedhesham6/invoice/internal/templates"
)

type InvoiceHandler struct {
	Svc      *services.InvoiceService
	Profiles *services.ProfileService
}

func NewInvoiceHandler(svc *services.InvoiceService, profiles *services.ProfileService) *InvoiceHandler {
	return &InvoiceHandler{Svc: svc, Profiles: profiles}
}

func (h *InvoiceHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/invoices", h.handle)
	mux.HandleFunc("/invoices/get", h.get)
	mux.HandleFunc("/invoices/update", h.update)
	mux.HandleFunc("/invoices/full-update", h.fullUpdate)
	mux.HandleFunc("/invoices/delete", h.delete)
	mux.HandleFunc("/invoices/duplicate", h.duplicate)
	mux.HandleFunc("/invoices/mark-sent", h.markSent)
	mux.HandleFunc("/invoices/mark-paid", h.markPaid)
	mux.HandleFunc("/invoices/check-overdue", h.checkOverdue)
	mux.HandleFunc("/invoices/pdf", h.pdf)
}

func (h *InvoiceHandler) handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			httpx.JSON(w, http.StatusOK, []models.Invoice{})
			return
		}
		status := models.InvoiceStatus(r.URL.Query().Get("status"))
		var clientID uint
		if v := r.URL.Query().Get("client_id"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				clientID = uint(n)
			}
		}
		invoices, err := h.Svc.List(uid, status, clientID)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, invoices)
	case http.MethodPost:
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthenticated", nil)
			return
		}
		var in services.InvoiceInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		inv, err := h.Svc.Create(uid, in)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, inv)
	default:
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *InvoiceHandler) get(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSON(w, http.StatusOK, nil)
		return
	}
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	inv, err := h.Svc.Get(uid, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

type invoicePatchRequest struct {
	ClientID       *uint               `json:"client_id"`
	IssueDate      *time.Time          `json:"issue_date"`
	DueDate        *time.Time          `json:"due_date"`
	Currency       *string             `json:"currency"`
	TaxRate        *decimal.Decimal    `json:"tax_rate"`
	DiscountType   *money.DiscountType `json:"discount_type"`
	DiscountValue  *decimal.Decimal    `json:"discount_value"`
	Notes          *string             `json:"notes"`
	PaymentDetails *string             `json:"payment_details"`
	Template       *templates.ID       `json:"invoice_template"`
}

func (h *InvoiceHandler) update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPatch {
		w.Header().Set("Allow", "POST,PATCH")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var req invoicePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	inv, err := h.Svc.Update(uid, id, services.InvoicePatch{
		ClientID:       req.ClientID,
		IssueDate:      req.IssueDate,
		DueDate:        req.DueDate,
		Currency:       req.Currency,
		TaxRate:        req.TaxRate,
		DiscountType:   req.DiscountType,
		DiscountValue:  req.DiscountValue,
		Notes:          req.Notes,
		PaymentDetails: req.PaymentDetails,
		Template:       req.Template,
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) fullUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		w.Header().Set("Allow", "POST,PUT")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in services.InvoiceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	inv, err := h.Svc.FullUpdate(uid, id, in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		w.Header().Set("Allow", "POST,DELETE")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Svc.Delete(uid, id); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *InvoiceHandler) duplicate(w http.ResponseWriter, r *http.Request) {
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
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var req struct {
		Number string `json:"number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	inv, err := h.Svc.Duplicate(uid, id, req.Number)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) markSent(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.MarkSent)
}

func (h *InvoiceHandler) markPaid(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.MarkPaid)
}

func (h *InvoiceHandler) transition(w http.ResponseWriter, r *http.Request, op func(uint, uint) (*models.Invoice, error)) {
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
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	inv, err := op(uid, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) checkOverdue(w http.ResponseWriter, r *http.Request) {
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
	marked, err := h.Svc.CheckOverdue(uid)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"marked": marked})
}

func (h *InvoiceHandler) pdf(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	inv, err := h.Svc.Get(uid, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	profile, err := h.Profiles.Get(uid)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "invoice-"+inv.Number+".pdf"))
	if err := pdf.RenderInvoice(w, inv, inv.Client, profile); err != nil {
		// Headers are already out; nothing sensible left to send.
		_ = err
	}
}
