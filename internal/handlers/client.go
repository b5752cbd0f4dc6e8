package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ahmedhesham6/invoice/internal/auth"
	"github.com/ahmedhesham6/invoice/internal/httpx"
	"github.com/ahmedhesham6/invoice/internal/models"
	"github.com/ahmedhesham6/invoice/internal/services"
	"github.com/ahmedhesham6/invoice/internal/templates"
)

type ClientHandler struct {
	Svc *services.ClientService
}

func NewClientHandler(svc *services.ClientService) *ClientHandler {
	return &ClientHandler{Svc: svc}
}

func (h *ClientHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/clients", h.handle)
	mux.HandleFunc("/clients/get", h.get)
	mux.HandleFunc("/clients/search", h.search)
	mux.HandleFunc("/clients/update", h.update)
	mux.HandleFunc("/clients/delete", h.delete)
	mux.HandleFunc("/clients/count", h.count)
}

type clientRequest struct {
	Name            string       `json:"name"`
	Email           string       `json:"email"`
	Phone           string       `json:"phone"`
	Address         string       `json:"address"`
	City            string       `json:"city"`
	Country         string       `json:"country"`
	PostalCode      string       `json:"postal_code"`
	TaxID           string       `json:"tax_id"`
	Notes           string       `json:"notes"`
	InvoiceTemplate templates.ID `json:"invoice_template"`
}

func (req clientRequest) toInput() services.ClientInput {
	return services.ClientInput{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Address:         req.Address,
		City:            req.City,
		Country:         req.Country,
		PostalCode:      req.PostalCode,
		TaxID:           req.TaxID,
		Notes:           req.Notes,
		InvoiceTemplate: req.InvoiceTemplate,
	}
}

// idParam parses the ?id= query parameter.
func idParam(r *http.Request) (uint, bool) {
	n, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return uint(n), true
}

func (h *ClientHandler) handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			httpx.JSON(w, http.StatusOK, []models.Client{})
			return
		}
		clients, err := h.Svc.List(uid)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, clients)
	case http.MethodPost:
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthenticated", nil)
			return
		}
		var req clientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		client, err := h.Svc.Create(uid, req.toInput())
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, client)
	default:
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *ClientHandler) get(w http.ResponseWriter, r *http.Request) {
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
	client, err := h.Svc.Get(uid, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *ClientHandler) search(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSON(w, http.StatusOK, []models.Client{})
		return
	}
	clients, err := h.Svc.Search(uid, r.URL.Query().Get("q"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, clients)
}

func (h *ClientHandler) update(w http.ResponseWriter, r *http.Request) {
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
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	client, err := h.Svc.Update(uid, id, req.toInput())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *ClientHandler) delete(w http.ResponseWriter, r *http.Request) {
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

func (h *ClientHandler) count(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSON(w, http.StatusOK, map[string]int64{"count": 0})
		return
	}
	n, err := h.Svc.Count(uid)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"count": n})
}
