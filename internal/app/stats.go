package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

// Statistics summarizes a tenant's quotes. Rates are percentages of the
// total, rounded to two places.
type Statistics struct {
	Total          int
	ByStatus       domain.StatusCounts
	AcceptanceRate decimal.Decimal
	RejectionRate  decimal.Decimal
}

// QuoteStatistics counts quotes per status and derives the outcome rates.
func (s *QuoteService) QuoteStatistics(ctx context.Context, cmd QuoteStatistics) (Statistics, error) {
	if err := validateCommand(cmd); err != nil {
		return Statistics{}, err
	}

	counts, err := s.repo.CountByStatus(ctx, cmd.TenantID, cmd.DateFrom, cmd.DateTo)
	if err != nil {
		return Statistics{}, fmt.Errorf("counting quotes: %w", err)
	}

	byStatus := make(domain.StatusCounts, len(domain.Statuses))
	for _, st := range domain.Statuses {
		byStatus[st] = counts[st]
	}
	total := byStatus.Total()

	return Statistics{
		Total:          total,
		ByStatus:       byStatus,
		AcceptanceRate: rate(byStatus[domain.StatusAccepted], total),
		RejectionRate:  rate(byStatus[domain.StatusRejected], total),
	}, nil
}

var hundred = decimal.NewFromInt(100)

func rate(n, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(n)).Mul(hundred).Div(decimal.NewFromInt(int64(total))).Round(2)
}
