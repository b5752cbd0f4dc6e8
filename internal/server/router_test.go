package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ahmedhesham6/invoice/internal/db"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(conn)
}

func TestHealthz(t *testing.T) {
	h := newTestRouter(t)
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
}

func TestRoutesRegistered(t *testing.T) {
	h := newTestRouter(t)
	// Each GET surface answers without a session instead of 404ing.
	paths := []string{"/health", "/me", "/profile", "/clients", "/clients/search", "/invoices", "/line-items?invoice_id=1", "/dashboard/stats", "/dashboard/recent", "/dashboard/by-status"}
	for _, p := range paths {
		r := httptest.NewRequest(http.MethodGet, p, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code == http.StatusNotFound && !strings.Contains(w.Body.String(), "not_found") {
			t.Fatalf("%s: route not registered (%d)", p, w.Code)
		}
	}
}

func TestUnauthenticatedWriteRejected(t *testing.T) {
	h := newTestRouter(t)
	r := httptest.NewRequest(http.MethodPost, "/clients", strings.NewReader(`{"name":"X"}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}
}
