// Package server wires the handlers, services and middleware into the root
// http.Handler.
package server

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/ahmedhesham6/invoice/internal/auth"
	"github.com/ahmedhesham6/invoice/internal/handlers"
	"github.com/ahmedhesham6/invoice/internal/httpx"
	"github.com/ahmedhesham6/invoice/internal/logger"
	"github.com/ahmedhesham6/invoice/internal/services"
)

// New constructs the root http.Handler with all routes and middleware applied.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	invoiceSvc := services.NewInvoiceService(db)
	profileSvc := services.NewProfileService(db)
	clientSvc := services.NewClientService(db)
	lineItemSvc := services.NewLineItemService(db)
	dashboardSvc := services.NewDashboardService(db)

	handlers.NewAuthHandler(db).Register(mux)
	handlers.NewProfileHandler(profileSvc).Register(mux)
	handlers.NewClientHandler(clientSvc).Register(mux)
	handlers.NewInvoiceHandler(invoiceSvc, profileSvc).Register(mux)
	handlers.NewLineItemHandler(lineItemSvc).Register(mux)
	handlers.NewDashboardHandler(dashboardSvc, invoiceSvc).Register(mux)
	handlers.NewPublicHandler(invoiceSvc).Register(mux)

	return auth.Middleware(withRecover(withLogging(mux)))
}

func withLogging(next http.Handler) http.Handler {
	log := logger.WithComponent("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func withRecover(next http.Handler) http.Handler {
	log := logger.WithComponent("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Any("panic", rec).Str("path", r.URL.Path).Msg("handler panic")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
