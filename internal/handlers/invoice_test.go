package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/ahmedhesham6/invoice/internal/auth"
	"github.com/ahmedhesham6/invoice/internal/models"
	"github.com/ahmedhesham6/invoice/internal/services"
)

func buildAPI(t *testing.T) (http.Handler, *gorm.DB, *http.Cookie, uint) {
	t.Helper()
	conn := setupHandlerTestDB(t)
	user, cookie := seedSession(t, conn, "flow@test")

	client := models.Client{UserID: user.ID, Name: "Acme Studio", Email: "billing@acme.test"}
	if err := conn.Create(&client).Error; err != nil {
		t.Fatalf("client: %v", err)
	}

	invoiceSvc := services.NewInvoiceService(conn)
	profileSvc := services.NewProfileService(conn)
	mux := http.NewServeMux()
	NewInvoiceHandler(invoiceSvc, profileSvc).Register(mux)
	NewLineItemHandler(services.NewLineItemService(conn)).Register(mux)
	NewPublicHandler(invoiceSvc).Register(mux)
	return auth.Middleware(mux), conn, cookie, client.ID
}

func createInvoiceJSON(t *testing.T, api http.Handler, cookie *http.Cookie, clientID uint) map[string]any {
	t.Helper()
	body := fmt.Sprintf(`{
		"client_id": %d,
		"number": "INV-001",
		"issue_date": "2026-08-01T00:00:00Z",
		"due_date": "2026-08-31T00:00:00Z",
		"currency": "USD",
		"tax_rate": "8",
		"items": [{"description": "Design", "quantity": "10", "unit_price": 5000}]
	}`, clientID)
	rec := doJSON(api, http.MethodPost, "/invoices", body, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var inv map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &inv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return inv
}

func TestInvoiceEndToEndFlow(t *testing.T) {
	api, _, cookie, clientID := buildAPI(t)

	inv := createInvoiceJSON(t, api, cookie, clientID)
	if inv["status"] != "draft" {
		t.Fatalf("expected draft got %v", inv["status"])
	}
	if inv["subtotal"].(float64) != 50000 || inv["tax_amount"].(float64) != 4000 || inv["total"].(float64) != 54000 {
		t.Fatalf("wrong totals: %v %v %v", inv["subtotal"], inv["tax_amount"], inv["total"])
	}
	id := int(inv["id"].(float64))
	token, _ := inv["public_token"].(string)
	if token == "" {
		t.Fatal("missing public token")
	}

	// Mark sent
	rec := doJSON(api, http.MethodPost, fmt.Sprintf("/invoices/mark-sent?id=%d", id), "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark-sent: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	// Editing after send conflicts
	rec = doJSON(api, http.MethodPost, fmt.Sprintf("/invoices/update?id=%d", id), `{"notes":"late edit"}`, cookie)
	if rec.Code != http.StatusConflict {
		t.Fatalf("update sent invoice: expected 409 got %d: %s", rec.Code, rec.Body.String())
	}

	// Mark paid
	rec = doJSON(api, http.MethodPost, fmt.Sprintf("/invoices/mark-paid?id=%d", id), "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark-paid: expected 200 got %d", rec.Code)
	}

	// Double-paid conflicts
	rec = doJSON(api, http.MethodPost, fmt.Sprintf("/invoices/mark-paid?id=%d", id), "", cookie)
	if rec.Code != http.StatusConflict {
		t.Fatalf("double mark-paid: expected 409 got %d", rec.Code)
	}

	// Share link works without any session
	rec = doJSON(api, http.MethodGet, "/public/invoice?token="+token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("public: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var pub map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &pub); err != nil {
		t.Fatalf("decode public: %v", err)
	}
	if pub["resolved_template"] != "classic" {
		t.Fatalf("expected classic template fallback, got %v", pub["resolved_template"])
	}

	// Unknown token is a 404
	rec = doJSON(api, http.MethodGet, "/public/invoice?token=bogus", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("bogus token: expected 404 got %d", rec.Code)
	}
}

func TestInvoicePDFDownload(t *testing.T) {
	api, _, cookie, clientID := buildAPI(t)
	inv := createInvoiceJSON(t, api, cookie, clientID)
	id := int(inv["id"].(float64))

	rec := doJSON(api, http.MethodGet, fmt.Sprintf("/invoices/pdf?id=%d", id), "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("pdf: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("wrong content type: %s", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Fatal("body is not a PDF")
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "invoice-INV-001.pdf") {
		t.Fatalf("wrong content disposition: %s", cd)
	}
}

func TestInvoiceUnauthenticatedAccess(t *testing.T) {
	api, _, _, clientID := buildAPI(t)

	// Reads come back empty rather than erroring.
	rec := doJSON(api, http.MethodGet, "/invoices", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200 got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %s", rec.Body.String())
	}

	// Writes are rejected.
	body := fmt.Sprintf(`{"client_id": %d, "number": "INV-9", "currency": "USD"}`, clientID)
	rec = doJSON(api, http.MethodPost, "/invoices", body, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("create: expected 401 got %d", rec.Code)
	}
	rec = doJSON(api, http.MethodPost, "/invoices/check-overdue", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("check-overdue: expected 401 got %d", rec.Code)
	}
}

func TestInvoiceCrossTenantLooksMissing(t *testing.T) {
	api, conn, cookie, clientID := buildAPI(t)
	inv := createInvoiceJSON(t, api, cookie, clientID)
	id := int(inv["id"].(float64))

	rec := doJSON(api, http.MethodGet, fmt.Sprintf("/invoices/get?id=%d", id), "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner get: expected 200 got %d", rec.Code)
	}

	// Another account sees neither this invoice nor a made-up id, with the
	// same response for both.
	_, otherCookie := seedSession(t, conn, "intruder@test")
	recOther := doJSON(api, http.MethodGet, fmt.Sprintf("/invoices/get?id=%d", id), "", otherCookie)
	recMissing := doJSON(api, http.MethodGet, "/invoices/get?id=99999", "", otherCookie)
	if recOther.Code != http.StatusNotFound || recMissing.Code != http.StatusNotFound {
		t.Fatalf("expected 404/404, got %d/%d", recOther.Code, recMissing.Code)
	}
	if recOther.Body.String() != recMissing.Body.String() {
		t.Fatalf("cross-tenant response differs from missing: %s vs %s", recOther.Body.String(), recMissing.Body.String())
	}
}

func TestLineItemEndpoints(t *testing.T) {
	api, _, cookie, clientID := buildAPI(t)
	inv := createInvoiceJSON(t, api, cookie, clientID)
	id := int(inv["id"].(float64))

	rec := doJSON(api, http.MethodPost, fmt.Sprintf("/line-items?invoice_id=%d", id),
		`{"description":"Hosting","quantity":"2","unit":"month","unit_price":1500}`, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var item map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item["total"].(float64) != 3000 {
		t.Fatalf("wrong item total: %v", item["total"])
	}

	rec = doJSON(api, http.MethodGet, fmt.Sprintf("/line-items?invoice_id=%d", id), "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200 got %d", rec.Code)
	}
	var items []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items got %d", len(items))
	}

	// The invoice aggregates followed.
	rec = doJSON(api, http.MethodGet, fmt.Sprintf("/invoices/get?id=%d", id), "", cookie)
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode invoice: %v", err)
	}
	if got["subtotal"].(float64) != 53000 {
		t.Fatalf("subtotal not recomputed: %v", got["subtotal"])
	}
}
