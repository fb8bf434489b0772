package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/quoteflow/internal/app"
	"github.com/neomorfeo/quoteflow/internal/domain"
)

const timeLayout = time.RFC3339

// QuoteResponse is the API representation of a quote. Money travels as
// decimal strings.
type QuoteResponse struct {
	ID               int64                 `json:"id" doc:"Numeric identifier"`
	UUID             string                `json:"uuid" doc:"Public identifier"`
	QuoteNumber      string                `json:"quote_number" doc:"Display number, QT-YYYYMM-NNNNN"`
	TenantID         int64                 `json:"tenant_id"`
	OrderID          int64                 `json:"order_id"`
	VendorID         int64                 `json:"vendor_id"`
	ProductID        int64                 `json:"product_id"`
	Quantity         int                   `json:"quantity"`
	Specifications   map[string]any        `json:"specifications,omitempty"`
	Notes            string                `json:"notes,omitempty"`
	Status           string                `json:"status" doc:"Lifecycle state"`
	InitialOffer     *string               `json:"initial_offer,omitempty" doc:"Decimal amount"`
	CounterOffer     *string               `json:"counter_offer,omitempty" doc:"Decimal amount"`
	Currency         string                `json:"currency"`
	Details          domain.Details        `json:"quote_details"`
	NegotiationRound int                   `json:"negotiation_round"`
	ResponseType     string                `json:"vendor_response_type,omitempty"`
	ResponseNotes    string                `json:"vendor_notes,omitempty"`
	StatusHistory    []domain.StatusChange `json:"status_history"`
	History          []HistoryResponse     `json:"history,omitempty"`
	ExpiresAt        *string               `json:"expires_at,omitempty" doc:"Expiry timestamp (RFC 3339)"`
	SentAt           *string               `json:"sent_at,omitempty"`
	RespondedAt      *string               `json:"responded_at,omitempty"`
	ClosedAt         *string               `json:"closed_at,omitempty"`
	IsExpired        bool                  `json:"is_expired"`
	CanBeModified    bool                  `json:"can_be_modified"`
	OrderNumber      string                `json:"order_number,omitempty"`
	CustomerName     string                `json:"customer_name,omitempty"`
	VendorName       string                `json:"vendor_name,omitempty"`
	CreatedAt        string                `json:"created_at" doc:"Creation timestamp (RFC 3339)"`
	UpdatedAt        string                `json:"updated_at" doc:"Last update timestamp (RFC 3339)"`
}

func toQuoteResponse(q domain.Quote, now time.Time) QuoteResponse {
	history := q.StatusHistory
	if history == nil {
		history = []domain.StatusChange{}
	}
	return QuoteResponse{
		ID:               q.ID,
		UUID:             q.UUID.String(),
		QuoteNumber:      q.QuoteNumber(),
		TenantID:         q.TenantID,
		OrderID:          q.OrderID,
		VendorID:         q.VendorID,
		ProductID:        q.ProductID,
		Quantity:         q.Quantity,
		Specifications:   q.Specifications,
		Notes:            q.Notes,
		Status:           string(q.Status),
		InitialOffer:     money(q.InitialOffer),
		CounterOffer:     money(q.CounterOffer),
		Currency:         q.Currency,
		Details:          q.Details,
		NegotiationRound: q.Round,
		ResponseType:     string(q.ResponseType),
		ResponseNotes:    q.ResponseNotes,
		StatusHistory:    history,
		History:          toHistoryResponse(q.History),
		ExpiresAt:        timestamp(q.ExpiresAt),
		SentAt:           timestamp(q.SentAt),
		RespondedAt:      timestamp(q.RespondedAt),
		ClosedAt:         timestamp(q.ClosedAt),
		IsExpired:        q.IsExpired(now),
		CanBeModified:    q.CanBeModified(now),
		CreatedAt:        q.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:        q.UpdatedAt.UTC().Format(timeLayout),
	}
}

// HistoryResponse is one non-status change: details, offer or expiry.
type HistoryResponse struct {
	Action       string  `json:"action"`
	UserID       *int64  `json:"user_id,omitempty"`
	At           string  `json:"at"`
	OldExpiresAt *string `json:"old_expires_at,omitempty"`
	NewExpiresAt *string `json:"new_expires_at,omitempty"`
	Amount       *string `json:"amount,omitempty" doc:"Decimal amount of an offer update"`
	Currency     string  `json:"currency,omitempty"`
}

func toHistoryResponse(entries []domain.HistoryEntry) []HistoryResponse {
	if len(entries) == 0 {
		return nil
	}
	out := make([]HistoryResponse, len(entries))
	for i, e := range entries {
		out[i] = HistoryResponse{
			Action:       e.Action,
			UserID:       e.UserID,
			At:           e.At.UTC().Format(timeLayout),
			OldExpiresAt: timestamp(e.OldExpiresAt),
			NewExpiresAt: timestamp(e.NewExpiresAt),
			Amount:       money(e.Amount),
			Currency:     e.Currency,
		}
	}
	return out
}

func toSummaryResponse(s domain.QuoteSummary, now time.Time) QuoteResponse {
	r := toQuoteResponse(s.Quote, now)
	r.OrderNumber = s.OrderNumber
	r.CustomerName = s.CustomerName
	r.VendorName = s.VendorName
	return r
}

func money(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(2)
	return &s
}

func timestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(timeLayout)
	return &s
}

// QuoteListResponse is one page of quotes.
type QuoteListResponse struct {
	Data []QuoteResponse `json:"data"`
	Meta app.PageMeta    `json:"meta"`
}

// StatisticsResponse summarizes a tenant's quotes.
type StatisticsResponse struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status" doc:"Count per status, every status present"`
	AcceptanceRate float64        `json:"acceptance_rate" doc:"Accepted share of total, percent"`
	RejectionRate  float64        `json:"rejection_rate" doc:"Rejected share of total, percent"`
}

func toStatisticsResponse(s app.Statistics) StatisticsResponse {
	byStatus := make(map[string]int, len(domain.Statuses))
	for _, st := range domain.Statuses {
		byStatus[string(st)] = s.ByStatus[st]
	}
	return StatisticsResponse{
		Total:          s.Total,
		ByStatus:       byStatus,
		AcceptanceRate: s.AcceptanceRate.InexactFloat64(),
		RejectionRate:  s.RejectionRate.InexactFloat64(),
	}
}
