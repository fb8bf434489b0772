package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

// ExpireOverdueQuotes moves quotes still awaiting the vendor past their
// expiry to expired, one transaction per quote. It returns how many were
// expired. A quote that fails is logged and skipped.
func (s *QuoteService) ExpireOverdueQuotes(ctx context.Context) (int, error) {
	now := s.now()

	due, err := s.repo.FindExpirable(ctx, now, s.policy.ExpiryBatchSize)
	if err != nil {
		return 0, fmt.Errorf("finding expirable quotes: %w", err)
	}

	expired := 0
	for _, candidate := range due {
		if err := ctx.Err(); err != nil {
			return expired, err
		}

		var events []domain.Event
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			q, err := s.findQuote(ctx, candidate.UUID, candidate.TenantID)
			if err != nil {
				return err
			}

			closed, evs, err := q.MarkAsExpired(ctx, s.validator, nil, now)
			if err != nil {
				return err
			}

			_, events, err = s.save(ctx, closed, evs)
			return err
		})

		var trErr *domain.TransitionError
		switch {
		case err == nil:
			expired++
			s.publish(ctx, events)
		case errors.Is(err, domain.ErrNotYetExpired), errors.As(err, &trErr):
			// Answered or extended since it was selected.
		default:
			s.log(ctx).Error("expiring quote",
				zap.Stringer("quote_uuid", candidate.UUID),
				zap.Int64("tenant_id", candidate.TenantID),
				zap.Error(err),
			)
		}
	}

	if expired > 0 {
		s.log(ctx).Info("expired overdue quotes", zap.Int("count", expired))
	}
	return expired, nil
}
