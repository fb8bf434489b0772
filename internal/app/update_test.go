package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/quoteflow/internal/app"
	"github.com/neomorfeo/quoteflow/internal/domain"
)

func TestUpdateQuoteOffer(t *testing.T) {
	h := newHarness(t)
	q := h.sentQuote(t)

	revised, err := h.svc.UpdateQuoteOffer(context.Background(), app.UpdateQuoteOffer{
		QuoteUUID: q.UUID,
		TenantID:  1,
		UserID:    ptr(int64(7)),
		Offer:     decimal.RequireFromString("990000"),
	})
	require.NoError(t, err)

	require.NotNil(t, revised.InitialOffer)
	assert.Equal(t, "990000", revised.InitialOffer.String())
	assert.Equal(t, domain.StatusSent, revised.Status)
	assert.Equal(t, "990000", h.repo.quotes[q.UUID].InitialOffer.String())
	assert.Equal(t, []domain.EventType{domain.EventQuoteOfferUpdated}, h.pub.types())
	assert.True(t, containsLog(h.logMessages(), "quote offer updated"))
}

func TestUpdateQuoteOffer_Refused(t *testing.T) {
	h := newHarness(t)
	q := h.sentQuote(t)
	saves := h.repo.saves

	_, err := h.svc.UpdateQuoteOffer(context.Background(), app.UpdateQuoteOffer{QuoteUUID: q.UUID, TenantID: 1, Offer: decimal.NewFromInt(-5)})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "initial_offer", vErr.Field)

	_, err = h.svc.UpdateQuoteOffer(context.Background(), app.UpdateQuoteOffer{QuoteUUID: q.UUID, TenantID: 2, Offer: decimal.NewFromInt(5)})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)

	h.now = q.ExpiresAt.Add(time.Minute)
	_, err = h.svc.UpdateQuoteOffer(context.Background(), app.UpdateQuoteOffer{QuoteUUID: q.UUID, TenantID: 1, Offer: decimal.NewFromInt(5)})
	var expErr *domain.ExpiredError
	require.ErrorAs(t, err, &expErr)

	assert.Equal(t, saves, h.repo.saves, "nothing persisted")
	assert.Empty(t, h.pub.events)
}

func TestUpdateQuoteDetails(t *testing.T) {
	h := newHarness(t)
	q := h.createQuote(t)
	h.pub.events = nil

	updated, err := h.svc.UpdateQuoteDetails(context.Background(), app.UpdateQuoteDetails{
		QuoteUUID:             q.UUID,
		TenantID:              1,
		EstimatedDeliveryDays: ptr(21),
		Extra:                 map[string]any{"incoterm": "CIF"},
	})
	require.NoError(t, err)

	require.NotNil(t, updated.Details.EstimatedDeliveryDays)
	assert.Equal(t, 21, *updated.Details.EstimatedDeliveryDays)
	assert.Equal(t, "CIF", updated.Details.Extra["incoterm"])
	assert.Len(t, updated.Details.Items, 1)
	assert.Equal(t, domain.StatusDraft, updated.Status)
	assert.Empty(t, h.pub.events)
}

func TestUpdateQuoteDetails_Refused(t *testing.T) {
	h := newHarness(t)
	q := h.sentQuote(t)

	_, err := h.svc.UpdateQuoteDetails(context.Background(), app.UpdateQuoteDetails{QuoteUUID: q.UUID, TenantID: 1})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = h.svc.AcceptQuote(context.Background(), app.AcceptQuote{QuoteUUID: q.UUID, TenantID: 1})
	require.NoError(t, err)

	_, err = h.svc.UpdateQuoteDetails(context.Background(), app.UpdateQuoteDetails{QuoteUUID: q.UUID, TenantID: 1, EstimatedDeliveryDays: ptr(2)})
	var trErr *domain.TransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, domain.ActionUpdateDetails, trErr.Action)
}
