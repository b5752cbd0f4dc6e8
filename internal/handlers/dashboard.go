package handlers

import (
	"net/http"
	"strconv"

	"github.com/ahmedhesham6/invoice/internal/auth"
	"github.com/ahmedhesham6/invoice/internal/httpx"
	"github.com/ahmedhesham6/invoice/internal/models"
	"github.com/ahmedhesham6/invoice/internal/services"
)

type DashboardHandler struct {
	Svc      *services.DashboardService
	Invoices *services.InvoiceService
}

func NewDashboardHandler(svc *services.DashboardService, invoices *services.InvoiceService) *DashboardHandler {
	return &DashboardHandler{Svc: svc, Invoices: invoices}
}

func (h *DashboardHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/dashboard/stats", h.stats)
	mux.HandleFunc("/dashboard/recent", h.recent)
	mux.HandleFunc("/dashboard/by-status", h.byStatus)
}

// stats runs the overdue sweep first so the numbers reflect the current
// lifecycle states, then reports the aggregates.
func (h *DashboardHandler) stats(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSON(w, http.StatusOK, &services.Stats{})
		return
	}
	if _, err := h.Invoices.CheckOverdue(uid); err != nil {
		httpx.Error(w, err)
		return
	}
	stats, err := h.Svc.GetStats(uid)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *DashboardHandler) recent(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSON(w, http.StatusOK, []models.Invoice{})
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}
	invoices, err := h.Invoices.Recent(uid, limit)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

func (h *DashboardHandler) byStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSON(w, http.StatusOK, &services.StatusCounts{})
		return
	}
	counts, err := h.Svc.CountByStatus(uid)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, counts)
}
