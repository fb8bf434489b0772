package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

// SendQuoteToVendor marks a draft as sent. The vendor notification runs
// after commit and its failure does not undo the send; QuoteSentToVendor is
// published either way.
func (s *QuoteService) SendQuoteToVendor(ctx context.Context, cmd SendQuoteToVendor) (domain.Quote, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Quote{}, err
	}

	var (
		saved  domain.Quote
		vendor domain.Vendor
		events []domain.Event
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		q, err := s.findQuote(ctx, cmd.QuoteUUID, cmd.TenantID)
		if err != nil {
			return err
		}
		vendor, err = s.findVendor(ctx, q.VendorID, cmd.TenantID)
		if err != nil {
			return err
		}

		sent, evs, err := q.MarkAsSent(ctx, s.validator, cmd.UserID, s.now())
		if err != nil {
			return err
		}

		saved, events, err = s.save(ctx, sent, evs)
		return err
	})
	if err != nil {
		return domain.Quote{}, err
	}

	s.log(ctx).Info("quote sent to vendor", append(quoteFields(saved), zap.Int64("vendor_id", vendor.ID))...)

	s.notify(ctx, domain.NotificationQuoteSent, saved, vendor.ID, func(ctx context.Context) error {
		return s.notifier.SendQuoteNotification(ctx, saved, vendor)
	})
	s.publish(ctx, events)
	return saved, nil
}

func quoteFields(q domain.Quote) []zap.Field {
	return []zap.Field{
		zap.Stringer("quote_uuid", q.UUID),
		zap.String("quote_number", q.QuoteNumber()),
		zap.Int64("tenant_id", q.TenantID),
		zap.String("status", string(q.Status)),
	}
}
