package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

// UpdateQuoteDetails merges the delivery estimate and extra attributes into
// a quote that is neither closed nor expired. Status is left as it is.
func (s *QuoteService) UpdateQuoteDetails(ctx context.Context, cmd UpdateQuoteDetails) (domain.Quote, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Quote{}, err
	}
	patch := domain.DetailsPatch{EstimatedDeliveryDays: cmd.EstimatedDeliveryDays, Extra: cmd.Extra}
	if patch.IsEmpty() {
		return domain.Quote{}, &domain.ValidationError{Field: "quote_details", Message: "nothing to update"}
	}

	var saved domain.Quote
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		q, err := s.findQuote(ctx, cmd.QuoteUUID, cmd.TenantID)
		if err != nil {
			return err
		}

		updated, err := q.UpdateQuoteDetails(patch, cmd.UserID, s.now())
		if err != nil {
			return err
		}

		saved, _, err = s.save(ctx, updated, nil)
		return err
	})
	if err != nil {
		return domain.Quote{}, err
	}

	s.log(ctx).Info("quote details updated", quoteFields(saved)...)
	return saved, nil
}

// UpdateQuoteOffer replaces the buyer's offer. A non-positive amount is
// refused before the quote is loaded.
func (s *QuoteService) UpdateQuoteOffer(ctx context.Context, cmd UpdateQuoteOffer) (domain.Quote, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Quote{}, err
	}
	if !cmd.Offer.IsPositive() {
		return domain.Quote{}, &domain.ValidationError{Field: "initial_offer", Message: "must be greater than zero"}
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

		revised, evs, err := q.UpdateOffer(cmd.Offer, cmd.UserID, s.now())
		if err != nil {
			return err
		}

		saved, events, err = s.save(ctx, revised, evs)
		return err
	})
	if err != nil {
		return domain.Quote{}, err
	}

	s.log(ctx).Info("quote offer updated",
		append(quoteFields(saved), zap.String("offer", saved.InitialOffer.String()))...)
	s.publish(ctx, events)
	return saved, nil
}
