package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

// PageMeta describes where a page sits in the full result. From and To are
// the 1-based inclusive range of returned items, both zero when empty.
type PageMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	From        int `json:"from"`
	To          int `json:"to"`
}

// NewPageMeta computes listing metadata for page of size perPage over total items.
func NewPageMeta(page, perPage, total int) PageMeta {
	m := PageMeta{CurrentPage: page, PerPage: perPage, Total: total}
	if perPage > 0 {
		m.LastPage = (total + perPage - 1) / perPage
	}
	if total == 0 {
		return m
	}
	offset := (page - 1) * perPage
	m.From = min(offset+1, total)
	m.To = min(offset+perPage, total)
	return m
}

// QuoteList is one page of quotes with its metadata.
type QuoteList struct {
	Data []domain.QuoteSummary
	Meta PageMeta
}

// ListQuotes translates cmd into a repository query and reshapes the result.
func (s *QuoteService) ListQuotes(ctx context.Context, cmd ListQuotes) (QuoteList, error) {
	if err := validateCommand(cmd); err != nil {
		return QuoteList{}, err
	}
	if cmd.Status != nil && !cmd.Status.IsValid() {
		return QuoteList{}, &domain.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", *cmd.Status)}
	}

	sortBy := domain.SortField(cmd.SortBy)
	if sortBy == "" {
		sortBy = domain.SortCreatedAt
	}
	if !sortBy.IsValid() {
		return QuoteList{}, &domain.ValidationError{Field: "sort_by", Message: fmt.Sprintf("cannot sort by %q", cmd.SortBy)}
	}
	order := domain.SortDesc
	if strings.EqualFold(cmd.SortOrder, string(domain.SortAsc)) {
		order = domain.SortAsc
	}

	page := max(cmd.Page, 1)
	perPage := cmd.PerPage
	if perPage < 1 {
		perPage = s.policy.DefaultPerPage
	}
	perPage = min(perPage, s.policy.MaxPerPage)

	result, err := s.repo.List(ctx, domain.ListQuery{
		TenantID: cmd.TenantID,
		Filter: domain.QuoteFilter{
			Status:   cmd.Status,
			DateFrom: cmd.DateFrom,
			DateTo:   cmd.DateTo,
			VendorID: cmd.VendorID,
			OrderID:  cmd.OrderID,
			Search:   strings.TrimSpace(cmd.Search),
		},
		SortBy:    sortBy,
		SortOrder: order,
		Page:      page,
		PerPage:   perPage,
	})
	if err != nil {
		return QuoteList{}, fmt.Errorf("listing quotes: %w", err)
	}

	data := result.Items
	if data == nil {
		data = []domain.QuoteSummary{}
	}
	return QuoteList{Data: data, Meta: NewPageMeta(page, perPage, result.Total)}, nil
}

// GetQuote returns one quote of the tenant.
func (s *QuoteService) GetQuote(ctx context.Context, cmd GetQuote) (domain.Quote, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Quote{}, err
	}
	return s.findQuote(ctx, cmd.QuoteUUID, cmd.TenantID)
}
