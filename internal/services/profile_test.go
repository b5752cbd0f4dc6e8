package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedhesham6/invoice/internal/apperr"
	"github.com/ahmedhesham6/invoice/internal/templates"
)

func TestProfileGetMissingReturnsNil(t *testing.T) {
	conn := setupTestDB(t)
	user, _ := seedUserClient(t, conn, "profile-missing@test")
	svc := NewProfileService(conn)

	profile, err := svc.Get(user.ID)
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestProfileUpsertWithDefaults(t *testing.T) {
	conn := setupTestDB(t)
	user, _ := seedUserClient(t, conn, "profile-upsert@test")
	svc := NewProfileService(conn)

	name := "Jordan Freelance"
	created, err := svc.Update(user.ID, ProfileUpdate{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Jordan Freelance", created.DisplayName)
	assert.Equal(t, "USD", created.DefaultCurrency)
	assert.Equal(t, "INV-", created.InvoicePrefix)
	assert.Equal(t, 1, created.NextInvoiceNumber)
	assert.Equal(t, 30, created.DefaultPaymentTerms)

	// Second update patches in place, leaving the rest untouched.
	prefix := "ACME-"
	tpl := templates.Mono
	updated, err := svc.Update(user.ID, ProfileUpdate{InvoicePrefix: &prefix, DefaultTemplate: &tpl})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Jordan Freelance", updated.DisplayName)
	assert.Equal(t, "ACME-", updated.InvoicePrefix)
	assert.Equal(t, templates.Mono, updated.DefaultTemplate)
}

func TestNextInvoiceNumber(t *testing.T) {
	conn := setupTestDB(t)
	user, _ := seedUserClient(t, conn, "profile-counter@test")
	svc := NewProfileService(conn)

	// No profile yet: the counter has nowhere to live.
	_, err := svc.NextInvoiceNumber(user.ID)
	assert.True(t, apperr.IsNotFound(err))

	name := "Jordan"
	_, err = svc.Update(user.ID, ProfileUpdate{DisplayName: &name})
	require.NoError(t, err)

	first, err := svc.NextInvoiceNumber(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-001", first)

	second, err := svc.NextInvoiceNumber(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-002", second)

	// The counter survives prefix changes and keeps padding to three digits.
	prefix := "2026-"
	n := 99
	_, err = svc.Update(user.ID, ProfileUpdate{InvoicePrefix: &prefix, DefaultPaymentTerms: &n})
	require.NoError(t, err)
	third, err := svc.NextInvoiceNumber(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-003", third)
}
