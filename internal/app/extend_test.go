package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/quoteflow/internal/app"
	"github.com/neomorfeo/quoteflow/internal/domain"
)

const day = 24 * time.Hour

func TestExtendQuoteExpiration_NearExpiry(t *testing.T) {
	h := newHarness(t)
	q := h.sentQuote(t)
	h.now = q.ExpiresAt.Add(-3 * day)
	newExpiry := q.ExpiresAt.Add(14 * day)

	extended, err := h.svc.ExtendQuoteExpiration(context.Background(), app.ExtendQuoteExpiration{
		QuoteUUID:    q.UUID,
		TenantID:     1,
		NewExpiresAt: newExpiry,
		UserID:       ptr(int64(12)),
	})
	require.NoError(t, err)

	assert.Equal(t, newExpiry, *extended.ExpiresAt)
	assert.Equal(t, domain.StatusSent, extended.Status)
	require.Len(t, extended.History, 1)
	assert.Equal(t, *q.ExpiresAt, *extended.History[0].OldExpiresAt)
	assert.Len(t, h.notif.extended, 1)
	assert.Equal(t, []domain.EventType{domain.EventQuoteExpirationExtended}, h.pub.types())

	audit := h.logs.FilterLoggerName("audit").All()
	require.Len(t, audit, 1)
	fields := audit[0].ContextMap()
	assert.Equal(t, q.UUID.String(), fields["quote_uuid"])
	assert.Equal(t, int64(12), fields["user_id"])
	assert.Equal(t, *q.ExpiresAt, fields["old_expires_at"])
	assert.Equal(t, newExpiry, fields["new_expires_at"])
}

func TestExtendQuoteExpiration_AlreadyExpired(t *testing.T) {
	h := newHarness(t)
	q := h.sentQuote(t)
	h.now = q.ExpiresAt.Add(2 * day)

	extended, err := h.svc.ExtendQuoteExpiration(context.Background(), app.ExtendQuoteExpiration{
		QuoteUUID:    q.UUID,
		TenantID:     1,
		NewExpiresAt: h.now.Add(10 * day),
	})
	require.NoError(t, err)
	assert.False(t, extended.IsExpired(h.now))
}

func TestExtendQuoteExpiration_Rules(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness, q domain.Quote) (time.Time, domain.Quote)
		field string
	}{
		{
			name: "new expiry in the past",
			setup: func(h *harness, q domain.Quote) (time.Time, domain.Quote) {
				h.now = q.ExpiresAt.Add(-day)
				return h.now.Add(-time.Hour), q
			},
			field: "new_expires_at",
		},
		{
			name: "new expiry equal to now",
			setup: func(h *harness, q domain.Quote) (time.Time, domain.Quote) {
				h.now = q.ExpiresAt.Add(-day)
				return h.now, q
			},
			field: "new_expires_at",
		},
		{
			name: "no current expiry",
			setup: func(h *harness, q domain.Quote) (time.Time, domain.Quote) {
				q.ExpiresAt = nil
				h.repo.quotes[q.UUID] = q
				return h.now.Add(day), q
			},
			field: "expires_at",
		},
		{
			name: "premature",
			setup: func(h *harness, q domain.Quote) (time.Time, domain.Quote) {
				h.now = q.ExpiresAt.Add(-8 * day)
				return q.ExpiresAt.Add(30 * day), q
			},
			field: "expires_at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			q := h.sentQuote(t)
			newExpiry, q := tt.setup(h, q)
			before := h.repo.quotes[q.UUID]

			_, err := h.svc.ExtendQuoteExpiration(context.Background(), app.ExtendQuoteExpiration{
				QuoteUUID:    q.UUID,
				TenantID:     1,
				NewExpiresAt: newExpiry,
			})

			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Equal(t, before.ExpiresAt, h.repo.quotes[q.UUID].ExpiresAt)
			assert.Empty(t, h.notif.extended)
			assert.Empty(t, h.logs.FilterLoggerName("audit").All())
		})
	}
}

func TestExtendQuoteExpiration_OtherTenant(t *testing.T) {
	h := newHarness(t)
	q := h.sentQuote(t)

	_, err := h.svc.ExtendQuoteExpiration(context.Background(), app.ExtendQuoteExpiration{
		QuoteUUID:    q.UUID,
		TenantID:     2,
		NewExpiresAt: q.ExpiresAt.Add(day),
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestExtendQuoteExpiration_VendorGone(t *testing.T) {
	h := newHarness(t)
	q := h.sentQuote(t)
	delete(h.dir.vendors, 9)
	h.now = q.ExpiresAt.Add(-day)

	_, err := h.svc.ExtendQuoteExpiration(context.Background(), app.ExtendQuoteExpiration{
		QuoteUUID:    q.UUID,
		TenantID:     1,
		NewExpiresAt: q.ExpiresAt.Add(day),
	})
	require.NoError(t, err)
	assert.Empty(t, h.notif.extended)
}

func TestExtendQuoteExpiration_NotificationFailure(t *testing.T) {
	h := newHarness(t)
	q := h.sentQuote(t)
	h.notif.err = errNotify
	h.now = q.ExpiresAt.Add(-day)

	_, err := h.svc.ExtendQuoteExpiration(context.Background(), app.ExtendQuoteExpiration{
		QuoteUUID:    q.UUID,
		TenantID:     1,
		NewExpiresAt: q.ExpiresAt.Add(day),
	})
	require.NoError(t, err)
	assert.True(t, containsLog(h.logMessages(), "quote notification failed"))
}
