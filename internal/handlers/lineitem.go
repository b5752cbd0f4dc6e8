package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ahmedhesham6/invoice/internal/auth"
	"github.com/ahmedhesham6/invoice/internal/httpx"
	"github.com/ahmedhesham6/invoice/internal/models"
	"github.com/ahmedhesham6/invoice/internal/services"
)

type LineItemHandler struct {
	Svc *services.LineItemService
}

func NewLineItemHandler(svc *services.LineItemService) *LineItemHandler {
	return &LineItemHandler{Svc: svc}
}

func (h *LineItemHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/line-items", h.handle)
	mux.HandleFunc("/line-items/update", h.update)
	mux.HandleFunc("/line-items/delete", h.delete)
	mux.HandleFunc("/line-items/reorder", h.reorder)
}

func invoiceIDParam(r *http.Request) (uint, bool) {
	n, err := strconv.Atoi(r.URL.Query().Get("invoice_id"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return uint(n), true
}

func (h *LineItemHandler) handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			httpx.JSON(w, http.StatusOK, []models.LineItem{})
			return
		}
		invoiceID, ok := invoiceIDParam(r)
		if !ok {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_invoice_id", nil)
			return
		}
		items, err := h.Svc.ListByInvoice(uid, invoiceID)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, items)
	case http.MethodPost:
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthenticated", nil)
			return
		}
		invoiceID, ok := invoiceIDParam(r)
		if !ok {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_invoice_id", nil)
			return
		}
		var in services.LineItemInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		item, err := h.Svc.Add(uid, invoiceID, in)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, item)
	default:
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

type lineItemPatchRequest struct {
	Description *string          `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	Unit        *string          `json:"unit"`
	UnitPrice   *int64           `json:"unit_price"`
}

func (h *LineItemHandler) update(w http.ResponseWriter, r *http.Request) {
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
	var req lineItemPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	item, err := h.Svc.Update(uid, id, services.LineItemPatch{
		Description: req.Description,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		UnitPrice:   req.UnitPrice,
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *LineItemHandler) delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Svc.Remove(uid, id); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *LineItemHandler) reorder(w http.ResponseWriter, r *http.Request) {
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
	invoiceID, ok := invoiceIDParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_invoice_id", nil)
		return
	}
	var req struct {
		ItemIDs []uint `json:"item_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := h.Svc.Reorder(uid, invoiceID, req.ItemIDs); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
