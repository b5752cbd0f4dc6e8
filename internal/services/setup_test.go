package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ahmedhesham6/invoice/internal/db"
	"github.com/ahmedhesham6/invoice/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// seedUserClient creates a user with one client and returns both.
func seedUserClient(t *testing.T, conn *gorm.DB, email string) (models.User, models.Client) {
	t.Helper()
	user := models.User{Email: email, Password: "x"}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	client := models.Client{UserID: user.ID, Name: "Acme Studio", Email: "billing@acme.test"}
	if err := conn.Create(&client).Error; err != nil {
		t.Fatalf("client: %v", err)
	}
	return user, client
}

// draftInvoice creates a draft invoice with a single "Design" line item:
// quantity 10 at 5000 cents, 8% tax, no discount.
func draftInvoice(t *testing.T, svc *InvoiceService, userID, clientID uint) *models.Invoice {
	t.Helper()
	inv, err := svc.Create(userID, InvoiceInput{
		ClientID:  clientID,
		Number:    "INV-001",
		IssueDate: time.Now(),
		DueDate:   time.Now().AddDate(0, 0, 30),
		Currency:  "USD",
		TaxRate:   decimal.NewFromInt(8),
		Items: []LineItemInput{
			{Description: "Design", Quantity: decimal.NewFromInt(10), UnitPrice: 5000},
		},
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return inv
}
