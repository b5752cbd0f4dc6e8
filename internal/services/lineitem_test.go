package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedhesham6/invoice/internal/apperr"
)

func TestLineItemAddAppendsAndRecomputes(t *testing.T) {
	conn := setupTestDB(t)
	user, client := seedUserClient(t, conn, "items-add@test")
	invoices := NewInvoiceService(conn)
	items := NewLineItemService(conn)
	inv := draftInvoice(t, invoices, user.ID, client.ID)

	added, err := items.Add(user.ID, inv.ID, LineItemInput{
		Description: "Hosting",
		Quantity:    decimal.NewFromInt(2),
		Unit:        "month",
		UnitPrice:   1500,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added.Order)
	assert.Equal(t, int64(3000), added.Total)

	got, err := invoices.Get(user.ID, inv.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, int64(53000), got.Subtotal)
	// 8% tax on the new subtotal.
	assert.Equal(t, int64(4240), got.TaxAmount)
	assert.Equal(t, int64(57240), got.Total)
}

func TestLineItemFractionalQuantityRounds(t *testing.T) {
	conn := setupTestDB(t)
	user, client := seedUserClient(t, conn, "items-frac@test")
	invoices := NewInvoiceService(conn)
	items := NewLineItemService(conn)
	inv := draftInvoice(t, invoices, user.ID, client.ID)

	// 2.5 hours at $99.99 = 24997.5 cents, rounds half away from zero.
	added, err := items.Add(user.ID, inv.ID, LineItemInput{
		Description: "Consulting",
		Quantity:    decimal.RequireFromString("2.5"),
		Unit:        "hour",
		UnitPrice:   9999,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(24998), added.Total)
}

func TestLineItemAddValidation(t *testing.T) {
	conn := setupTestDB(t)
	user, client := seedUserClient(t, conn, "items-valid@test")
	invoices := NewInvoiceService(conn)
	items := NewLineItemService(conn)
	inv := draftInvoice(t, invoices, user.ID, client.ID)

	_, err := items.Add(user.ID, inv.ID, LineItemInput{Quantity: decimal.NewFromInt(1), UnitPrice: 100})
	assert.True(t, apperr.IsValidation(err), "empty description: %v", err)

	_, err = items.Add(user.ID, inv.ID, LineItemInput{Description: "X", Quantity: decimal.NewFromInt(-1), UnitPrice: 100})
	assert.True(t, apperr.IsValidation(err), "negative quantity: %v", err)

	_, err = items.Add(user.ID, inv.ID, LineItemInput{Description: "X", Quantity: decimal.NewFromInt(1), UnitPrice: -100})
	assert.True(t, apperr.IsValidation(err), "negative price: %v", err)
}

func TestLineItemUpdateRecomputes(t *testing.T) {
	conn := setupTestDB(t)
	user, client := seedUserClient(t, conn, "items-update@test")
	invoices := NewInvoiceService(conn)
	items := NewLineItemService(conn)
	inv := draftInvoice(t, invoices, user.ID, client.ID)

	qty := decimal.NewFromInt(4)
	updated, err := items.Update(user.ID, inv.Items[0].ID, LineItemPatch{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), updated.Total)

	got, err := invoices.Get(user.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), got.Subtotal)
	assert.Equal(t, int64(1600), got.TaxAmount)
	assert.Equal(t, int64(21600), got.Total)
}

func TestLineItemRemoveKeepsOrderGaps(t *testing.T) {
	conn := setupTestDB(t)
	user, client := seedUserClient(t, conn, "items-remove@test")
	invoices := NewInvoiceService(conn)
	items := NewLineItemService(conn)
	inv := draftInvoice(t, invoices, user.ID, client.ID)

	second, err := items.Add(user.ID, inv.ID, LineItemInput{Description: "B", Quantity: decimal.NewFromInt(1), UnitPrice: 100})
	require.NoError(t, err)
	third, err := items.Add(user.ID, inv.ID, LineItemInput{Description: "C", Quantity: decimal.NewFromInt(1), UnitPrice: 200})
	require.NoError(t, err)

	require.NoError(t, items.Remove(user.ID, second.ID))

	remaining, err := items.ListByInvoice(user.ID, inv.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	// Survivors keep their positions; no renumbering.
	assert.Equal(t, 0, remaining[0].Order)
	assert.Equal(t, third.Order, remaining[1].Order)

	got, err := invoices.Get(user.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50200), got.Subtotal)
}

func TestLineItemReorder(t *testing.T) {
	conn := setupTestDB(t)
	user, client := seedUserClient(t, conn, "items-reorder@test")
	invoices := NewInvoiceService(conn)
	items := NewLineItemService(conn)
	inv := draftInvoice(t, invoices, user.ID, client.ID)

	second, err := items.Add(user.ID, inv.ID, LineItemInput{Description: "B", Quantity: decimal.NewFromInt(1), UnitPrice: 100})
	require.NoError(t, err)

	require.NoError(t, items.Reorder(user.ID, inv.ID, []uint{second.ID, inv.Items[0].ID}))

	reordered, err := items.ListByInvoice(user.ID, inv.ID)
	require.NoError(t, err)
	require.Len(t, reordered, 2)
	assert.Equal(t, second.ID, reordered[0].ID)
	assert.Equal(t, inv.Items[0].ID, reordered[1].ID)

	err = items.Reorder(user.ID, inv.ID, []uint{99999})
	assert.True(t, apperr.IsNotFound(err))
}

func TestLineItemOwnershipIsolation(t *testing.T) {
	conn := setupTestDB(t)
	userA, clientA := seedUserClient(t, conn, "items-a@test")
	userB, _ := seedUserClient(t, conn, "items-b@test")
	invoices := NewInvoiceService(conn)
	items := NewLineItemService(conn)
	inv := draftInvoice(t, invoices, userA.ID, clientA.ID)

	_, err := items.ListByInvoice(userB.ID, inv.ID)
	assert.True(t, apperr.IsNotFound(err))
	_, err = items.Add(userB.ID, inv.ID, LineItemInput{Description: "X", Quantity: decimal.NewFromInt(1), UnitPrice: 1})
	assert.True(t, apperr.IsNotFound(err))
	_, err = items.Update(userB.ID, inv.Items[0].ID, LineItemPatch{UnitPrice: ptrInt64(1)})
	assert.True(t, apperr.IsNotFound(err))
	err = items.Remove(userB.ID, inv.Items[0].ID)
	assert.True(t, apperr.IsNotFound(err))
}
