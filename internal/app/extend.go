package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

// ExtendQuoteExpiration moves the expiry of a quote that has already
// lapsed or lapses within the extension window. Each accepted extension is
// written to the audit log.
func (s *QuoteService) ExtendQuoteExpiration(ctx context.Context, cmd ExtendQuoteExpiration) (domain.Quote, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Quote{}, err
	}

	var (
		saved     domain.Quote
		oldExpiry time.Time
		events    []domain.Event
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		q, err := s.findQuote(ctx, cmd.QuoteUUID, cmd.TenantID)
		if err != nil {
			return err
		}
		if q.TenantID != cmd.TenantID {
			return &domain.NotFoundError{Resource: "quote", ID: cmd.QuoteUUID.String(), TenantID: cmd.TenantID}
		}

		now := s.now()
		if !cmd.NewExpiresAt.After(now) {
			return &domain.ValidationError{Field: "new_expires_at", Message: "must be in the future"}
		}
		if q.ExpiresAt == nil {
			return &domain.ValidationError{Field: "expires_at", Message: "quote has no expiration to extend"}
		}
		if !q.IsExpired(now) && !q.ExpiresWithin(s.policy.ExtensionWindow, now) {
			return &domain.ValidationError{
				Field:   "expires_at",
				Message: fmt.Sprintf("quote can only be extended when expired or expiring within %s", s.policy.ExtensionWindow),
			}
		}
		oldExpiry = *q.ExpiresAt

		extended, evs := q.ExtendExpiration(cmd.NewExpiresAt, cmd.UserID, now)
		saved, events, err = s.save(ctx, extended, evs)
		return err
	})
	if err != nil {
		return domain.Quote{}, err
	}

	s.audit.Info("quote expiration extended",
		zap.Stringer("quote_uuid", saved.UUID),
		zap.Int64("quote_id", saved.ID),
		zap.String("quote_number", saved.QuoteNumber()),
		zap.Int64("tenant_id", saved.TenantID),
		zap.Int64p("user_id", cmd.UserID),
		zap.Time("old_expires_at", oldExpiry),
		zap.Time("new_expires_at", *saved.ExpiresAt),
	)

	vendor, found, err := s.directory.FindVendor(ctx, saved.VendorID, saved.TenantID)
	switch {
	case err != nil:
		s.log(ctx).Warn("loading vendor for extension notice", append(quoteFields(saved), zap.Error(err))...)
	case found:
		s.notify(ctx, domain.NotificationQuoteExtended, saved, vendor.ID, func(ctx context.Context) error {
			return s.notifier.SendQuoteExtendedNotification(ctx, saved, vendor)
		})
	}

	s.publish(ctx, events)
	return saved, nil
}
