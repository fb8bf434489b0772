package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

// AcceptQuote closes the quote as accepted, storing the delivery estimate
// in the same write when one is given.
func (s *QuoteService) AcceptQuote(ctx context.Context, cmd AcceptQuote) (domain.Quote, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Quote{}, err
	}
	return s.respond(ctx, cmd.QuoteUUID, cmd.TenantID, cmd.VendorUserID,
		domain.Accept{Notes: cmd.Notes},
		domain.DetailsPatch{EstimatedDeliveryDays: cmd.EstimatedDeliveryDays},
	)
}

// RejectQuote closes the quote as rejected. A blank reason is refused
// before the quote is loaded.
func (s *QuoteService) RejectQuote(ctx context.Context, cmd RejectQuote) (domain.Quote, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Quote{}, err
	}
	return s.respond(ctx, cmd.QuoteUUID, cmd.TenantID, cmd.VendorUserID,
		domain.Reject{Reason: cmd.Reason},
		domain.DetailsPatch{},
	)
}

// CounterQuote records a counter offer. A non-positive amount is refused
// before the quote is loaded.
func (s *QuoteService) CounterQuote(ctx context.Context, cmd CounterQuote) (domain.Quote, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Quote{}, err
	}
	return s.respond(ctx, cmd.QuoteUUID, cmd.TenantID, cmd.VendorUserID,
		domain.Counter{Amount: cmd.CounterOffer, Notes: cmd.Notes},
		domain.DetailsPatch{EstimatedDeliveryDays: cmd.EstimatedDeliveryDays},
	)
}

func (s *QuoteService) respond(ctx context.Context, id uuid.UUID, tenantID int64, actor *int64, resp domain.VendorResponse, patch domain.DetailsPatch) (domain.Quote, error) {
	if err := domain.ValidateResponse(resp); err != nil {
		return domain.Quote{}, err
	}

	var (
		saved  domain.Quote
		events []domain.Event
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		q, err := s.findQuote(ctx, id, tenantID)
		if err != nil {
			return err
		}

		answered, evs, err := q.RecordVendorResponse(ctx, s.validator, resp, patch, actor, s.now())
		if err != nil {
			return err
		}

		saved, events, err = s.save(ctx, answered, evs)
		return err
	})
	if err != nil {
		return domain.Quote{}, err
	}

	s.log(ctx).Info("vendor responded to quote", quoteFields(saved)...)

	s.notify(ctx, domain.NotificationQuoteResponded, saved, saved.VendorID, func(ctx context.Context) error {
		return s.notifier.SendQuoteResponseNotification(ctx, saved)
	})
	s.publish(ctx, events)
	return saved, nil
}

// AcknowledgeQuote moves a sent quote to pending_response.
func (s *QuoteService) AcknowledgeQuote(ctx context.Context, cmd AcknowledgeQuote) (domain.Quote, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Quote{}, err
	}

	var (
		saved  domain.Quote
		events []domain.Event
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		q, err := s.findQuote(ctx, cmd.QuoteUUID, cmd.TenantID)
		if err != nil {
			return err
		}

		acked, evs, err := q.Acknowledge(ctx, s.validator, cmd.VendorUserID, s.now())
		if err != nil {
			return err
		}

		saved, events, err = s.save(ctx, acked, evs)
		return err
	})
	if err != nil {
		return domain.Quote{}, err
	}

	s.log(ctx).Info("quote acknowledged", quoteFields(saved)...)
	s.publish(ctx, events)
	return saved, nil
}
