package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ahmedhesham6/invoice/internal/auth"
)

func TestRegisterLoginLogoutFlow(t *testing.T) {
	conn := setupHandlerTestDB(t)
	mux := http.NewServeMux()
	NewAuthHandler(conn).Register(mux)
	wrapped := auth.Middleware(mux)

	// Register
	rec := doJSON(wrapped, http.MethodPost, "/register", `{"email":"New@Test.dev","password":"longenough"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var created map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created["email"] != "new@test.dev" {
		t.Fatalf("email not normalised: %v", created["email"])
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("register did not set a session cookie")
	}

	// /me with the fresh session
	rec = doJSON(wrapped, http.MethodGet, "/me", "", cookies[0])
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200 got %d", rec.Code)
	}
	if rec.Body.String() == "null" {
		t.Fatal("me returned null for an authenticated session")
	}

	// Duplicate email rejected
	rec = doJSON(wrapped, http.MethodPost, "/register", `{"email":"new@test.dev","password":"longenough"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409 got %d", rec.Code)
	}

	// Wrong password
	rec = doJSON(wrapped, http.MethodPost, "/login", `{"email":"new@test.dev","password":"wrongpass1"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401 got %d", rec.Code)
	}

	// Correct password
	rec = doJSON(wrapped, http.MethodPost, "/login", `{"email":"new@test.dev","password":"longenough"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	// Logout clears the cookie
	rec = doJSON(wrapped, http.MethodPost, "/logout", "", cookies[0])
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200 got %d", rec.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	conn := setupHandlerTestDB(t)
	mux := http.NewServeMux()
	NewAuthHandler(conn).Register(mux)

	tests := []struct {
		name string
		body string
	}{
		{"empty", `{}`},
		{"short password", `{"email":"a@b.test","password":"short"}`},
		{"no email", `{"password":"longenough"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(mux, http.MethodPost, "/register", tt.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", rec.Code)
			}
		})
	}
}

func TestMeWithoutSession(t *testing.T) {
	conn := setupHandlerTestDB(t)
	mux := http.NewServeMux()
	NewAuthHandler(conn).Register(mux)
	wrapped := auth.Middleware(mux)

	rec := doJSON(wrapped, http.MethodGet, "/me", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Body.String() != "null" {
		t.Fatalf("expected null body, got %s", rec.Body.String())
	}
}
