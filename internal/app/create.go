package app

import (
	"context"
	"maps"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

// CreateQuote checks that the order, vendor and product belong to the
// tenant, then persists a draft quote and publishes QuoteCreated.
// Nothing is written when any reference is missing.
func (s *QuoteService) CreateQuote(ctx context.Context, cmd CreateQuote) (domain.Quote, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Quote{}, err
	}

	currency := cmd.Currency
	if currency == "" {
		currency = s.policy.DefaultCurrency
	}

	var (
		saved  domain.Quote
		events []domain.Event
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.findOrder(ctx, cmd.OrderID, cmd.TenantID); err != nil {
			return err
		}
		if _, err := s.findVendor(ctx, cmd.VendorID, cmd.TenantID); err != nil {
			return err
		}
		product, err := s.findProduct(ctx, cmd.ProductID, cmd.TenantID)
		if err != nil {
			return err
		}

		q, evs := domain.NewQuote(domain.NewQuoteParams{
			TenantID:       cmd.TenantID,
			OrderID:        cmd.OrderID,
			VendorID:       cmd.VendorID,
			ProductID:      cmd.ProductID,
			Quantity:       cmd.Quantity,
			Specifications: cmd.Specifications,
			Notes:          cmd.Notes,
			InitialOffer:   cmd.InitialOffer,
			Currency:       currency,
			ExpiresAt:      cmd.ExpiresAt,
			Validity:       s.policy.DefaultValidity,
			ActorID:        cmd.UserID,
			Details: domain.Details{Items: []domain.LineItem{{
				ProductID:      product.ID,
				ProductName:    product.Name,
				SKU:            product.SKU,
				Quantity:       cmd.Quantity,
				Specifications: maps.Clone(cmd.Specifications),
				Notes:          cmd.Notes,
			}}},
		}, s.now())

		saved, events, err = s.save(ctx, q, evs)
		return err
	})
	if err != nil {
		return domain.Quote{}, err
	}

	s.log(ctx).Info("quote created", quoteFields(saved)...)
	s.publish(ctx, events)
	return saved, nil
}
