package domain

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultValidity is how long a new quote stays open when no expiry is given.
const DefaultValidity = 30 * 24 * time.Hour

// StatusChange is one entry of a quote's status history.
type StatusChange struct {
	From      Status    `json:"from,omitempty"`
	To        Status    `json:"to"`
	ChangedBy *int64    `json:"changed_by,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
	Reason    string    `json:"reason,omitempty"`
}

// HistoryEntry records a change that does not move the status.
type HistoryEntry struct {
	Action       string     `json:"action"`
	UserID       *int64     `json:"user_id,omitempty"`
	At           time.Time  `json:"at"`
	OldExpiresAt *time.Time       `json:"old_expires_at,omitempty"`
	NewExpiresAt *time.Time       `json:"new_expires_at,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Currency     string           `json:"currency,omitempty"`
}

// Quote is a vendor's priced offer for one order line, negotiated within a tenant.
type Quote struct {
	ID             int64
	UUID           uuid.UUID
	TenantID       int64
	OrderID        int64
	VendorID       int64
	ProductID      int64
	Quantity       int
	Specifications map[string]any
	Notes          string
	Status         Status
	InitialOffer   *decimal.Decimal
	CounterOffer   *decimal.Decimal
	Currency       string
	Details        Details
	Round          int
	ResponseType   ResponseKind
	ResponseNotes  string
	StatusHistory  []StatusChange
	History        []HistoryEntry
	ExpiresAt      *time.Time
	SentAt         *time.Time
	RespondedAt    *time.Time
	ClosedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewQuoteParams carries everything needed to open a quote.
type NewQuoteParams struct {
	TenantID       int64
	OrderID        int64
	VendorID       int64
	ProductID      int64
	Quantity       int
	Specifications map[string]any
	Notes          string
	InitialOffer   *decimal.Decimal
	Details        Details
	Currency       string
	ExpiresAt      *time.Time
	// Validity is used when ExpiresAt is nil. Zero means DefaultValidity.
	Validity time.Duration
	ActorID  *int64
}

// NewQuote creates a quote in the draft status.
func NewQuote(p NewQuoteParams, now time.Time) (Quote, []Event) {
	now = now.UTC()

	expiresAt := p.ExpiresAt
	if expiresAt == nil {
		validity := p.Validity
		if validity <= 0 {
			validity = DefaultValidity
		}
		at := now.Add(validity)
		expiresAt = &at
	} else {
		at := expiresAt.UTC()
		expiresAt = &at
	}

	q := Quote{
		UUID:           uuid.New(),
		TenantID:       p.TenantID,
		OrderID:        p.OrderID,
		VendorID:       p.VendorID,
		ProductID:      p.ProductID,
		Quantity:       p.Quantity,
		Specifications: maps.Clone(p.Specifications),
		Notes:          p.Notes,
		Status:         StatusDraft,
		InitialOffer:   cloneDecimal(p.InitialOffer),
		Currency:       p.Currency,
		Details:        p.Details.clone(),
		Round:          1,
		StatusHistory: []StatusChange{{
			To:        StatusDraft,
			ChangedBy: p.ActorID,
			ChangedAt: now,
			Reason:    "quote created",
		}},
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return q, []Event{newEvent(EventQuoteCreated, q, p.ActorID, now)}
}

// QuoteNumber returns the display number, QT-YYYYMM-NNNNN once persisted.
func (q Quote) QuoteNumber() string {
	if q.ID == 0 {
		return "QT-DRAFT"
	}
	return fmt.Sprintf("QT-%s-%05d", q.CreatedAt.UTC().Format("200601"), q.ID)
}

// IsExpired reports whether the quote's expiry lies strictly before now.
func (q Quote) IsExpired(now time.Time) bool {
	return q.ExpiresAt != nil && now.After(*q.ExpiresAt)
}

// ExpiresWithin reports whether the quote expires no later than now+d.
func (q Quote) ExpiresWithin(d time.Duration, now time.Time) bool {
	return q.ExpiresAt != nil && !q.ExpiresAt.After(now.Add(d))
}

// IsTerminal reports whether the negotiation is closed.
func (q Quote) IsTerminal() bool {
	return q.Status.IsTerminal()
}

// MarkAsSent moves a draft quote to sent.
func (q Quote) MarkAsSent(ctx context.Context, v TransitionValidator, actor *int64, now time.Time) (Quote, []Event, error) {
	next, err := v.Apply(ctx, q.Status, ActionSend)
	if err != nil {
		return q, nil, err
	}

	now = now.UTC()
	out := q.clone()
	out.transition(next, actor, now, "quote sent to vendor")
	out.SentAt = &now

	return out, []Event{newEvent(EventQuoteSentToVendor, out, actor, now)}, nil
}

// Acknowledge records that the vendor has seen the quote and is preparing a response.
func (q Quote) Acknowledge(ctx context.Context, v TransitionValidator, actor *int64, now time.Time) (Quote, []Event, error) {
	next, err := v.Apply(ctx, q.Status, ActionAcknowledge)
	if err != nil {
		return q, nil, err
	}
	if q.IsExpired(now) {
		return q, nil, &ExpiredError{QuoteUUID: q.UUID, ExpiresAt: *q.ExpiresAt}
	}

	now = now.UTC()
	out := q.clone()
	out.transition(next, actor, now, "vendor acknowledged quote")

	return out, []Event{newEvent(EventQuoteAcknowledged, out, actor, now)}, nil
}

// RecordVendorResponse applies the vendor's answer together with any
// ancillary details. The details are merged first so they are part of the
// same write as the status change. On error the receiver is returned unchanged.
func (q Quote) RecordVendorResponse(ctx context.Context, v TransitionValidator, resp VendorResponse, patch DetailsPatch, actor *int64, now time.Time) (Quote, []Event, error) {
	if resp == nil {
		return q, nil, &ValidationError{Field: "response", Message: "vendor response is required"}
	}

	next, err := v.Apply(ctx, q.Status, resp.action())
	if err != nil {
		return q, nil, err
	}
	if q.IsExpired(now) {
		return q, nil, &ExpiredError{QuoteUUID: q.UUID, ExpiresAt: *q.ExpiresAt}
	}
	if err := resp.validate(); err != nil {
		return q, nil, err
	}

	now = now.UTC()
	out := q.clone()
	if !patch.IsEmpty() {
		out = out.mergeDetails(patch, actor, now)
	}

	var (
		eventType EventType
		notes     string
	)
	switch r := resp.(type) {
	case Accept:
		eventType, notes = EventQuoteAccepted, r.Notes
		out.ClosedAt = &now
	case Reject:
		eventType, notes = EventQuoteRejected, r.Reason
		out.Notes = r.Reason
		out.ClosedAt = &now
	case Counter:
		eventType, notes = EventQuoteCountered, r.Notes
		amount := r.Amount
		out.CounterOffer = &amount
		out.Round++
	}

	out.ResponseType = resp.Kind()
	out.ResponseNotes = notes
	out.RespondedAt = &now

	reason := "vendor response: " + string(resp.Kind())
	if notes != "" {
		reason += ": " + notes
	}
	out.transition(next, actor, now, reason)

	return out, []Event{newEvent(eventType, out, actor, now)}, nil
}

// UpdateQuoteDetails merges patch into the quote details without changing status.
func (q Quote) UpdateQuoteDetails(patch DetailsPatch, actor *int64, now time.Time) (Quote, error) {
	if err := q.checkModifiable(ActionUpdateDetails, now); err != nil {
		return q, err
	}
	return q.clone().mergeDetails(patch, actor, now.UTC()), nil
}

// UpdateOffer replaces the buyer's offer while the quote is still open,
// including after a vendor counter.
func (q Quote) UpdateOffer(amount decimal.Decimal, actor *int64, now time.Time) (Quote, []Event, error) {
	if !amount.IsPositive() {
		return q, nil, &ValidationError{Field: "initial_offer", Message: "must be greater than zero"}
	}
	if err := q.checkModifiable(ActionUpdateOffer, now); err != nil {
		return q, nil, err
	}

	now = now.UTC()
	out := q.clone()
	out.InitialOffer = &amount
	out.History = append(out.History, HistoryEntry{
		Action:   "offer_updated",
		UserID:   actor,
		At:       now,
		Amount:   cloneDecimal(&amount),
		Currency: q.Currency,
	})
	out.UpdatedAt = now

	return out, []Event{newEvent(EventQuoteOfferUpdated, out, actor, now)}, nil
}

// CanBeModified reports whether details and offer may still change.
func (q Quote) CanBeModified(now time.Time) bool {
	return q.checkModifiable(ActionUpdateDetails, now) == nil
}

// checkModifiable refuses edits to closed quotes, then to lapsed ones.
func (q Quote) checkModifiable(action Action, now time.Time) error {
	if q.IsTerminal() {
		return &TransitionError{Action: action, Current: q.Status}
	}
	if q.IsExpired(now) {
		return &ExpiredError{QuoteUUID: q.UUID, ExpiresAt: *q.ExpiresAt}
	}
	return nil
}

// ExtendExpiration sets a new expiry. Eligibility is decided by the caller.
func (q Quote) ExtendExpiration(newExpiresAt time.Time, actor *int64, now time.Time) (Quote, []Event) {
	now = now.UTC()
	next := newExpiresAt.UTC()

	out := q.clone()
	out.History = append(out.History, HistoryEntry{
		Action:       "expiration_extended",
		UserID:       actor,
		At:           now,
		OldExpiresAt: cloneTime(q.ExpiresAt),
		NewExpiresAt: &next,
	})
	out.ExpiresAt = &next
	out.UpdatedAt = now

	return out, []Event{newEvent(EventQuoteExpirationExtended, out, actor, now)}
}

// MarkAsExpired closes a quote whose expiry has passed without a vendor answer.
func (q Quote) MarkAsExpired(ctx context.Context, v TransitionValidator, actor *int64, now time.Time) (Quote, []Event, error) {
	next, err := v.Apply(ctx, q.Status, ActionExpire)
	if err != nil {
		return q, nil, err
	}
	if !q.IsExpired(now) {
		return q, nil, ErrNotYetExpired
	}

	now = now.UTC()
	out := q.clone()
	out.transition(next, actor, now, "quote expired without response")
	out.ClosedAt = &now

	return out, []Event{newEvent(EventQuoteExpired, out, actor, now)}, nil
}

func (q *Quote) transition(next Status, actor *int64, now time.Time, reason string) {
	q.StatusHistory = append(q.StatusHistory, StatusChange{
		From:      q.Status,
		To:        next,
		ChangedBy: actor,
		ChangedAt: now,
		Reason:    reason,
	})
	q.Status = next
	q.UpdatedAt = now
}

func (q Quote) mergeDetails(patch DetailsPatch, actor *int64, now time.Time) Quote {
	q.Details = q.Details.Merge(patch)
	q.History = append(q.History, HistoryEntry{
		Action: "details_updated",
		UserID: actor,
		At:     now,
	})
	q.UpdatedAt = now
	return q
}

// clone returns a copy that shares no mutable state with q.
func (q Quote) clone() Quote {
	out := q
	out.Specifications = maps.Clone(q.Specifications)
	out.InitialOffer = cloneDecimal(q.InitialOffer)
	out.CounterOffer = cloneDecimal(q.CounterOffer)
	out.Details = q.Details.clone()
	out.StatusHistory = slices.Clone(q.StatusHistory)
	out.History = slices.Clone(q.History)
	out.ExpiresAt = cloneTime(q.ExpiresAt)
	out.SentAt = cloneTime(q.SentAt)
	out.RespondedAt = cloneTime(q.RespondedAt)
	out.ClosedAt = cloneTime(q.ClosedAt)
	return out
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
