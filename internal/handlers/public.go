package handlers

import (
	"net/http"

	"github.com/ahmedhesham6/invoice/internal/httpx"
	"github.com/ahmedhesham6/invoice/internal/services"
)

// PublicHandler serves the unauthenticated share-link surface. The token is
// the only credential; no session is consulted.
type PublicHandler struct {
	Svc *services.InvoiceService
}

func NewPublicHandler(svc *services.InvoiceService) *PublicHandler {
	return &PublicHandler{Svc: svc}
}

func (h *PublicHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/public/invoice", h.invoice)
}

func (h *PublicHandler) invoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_token", nil)
		return
	}
	pub, err := h.Svc.GetByToken(token)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pub)
}
