package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a completed change to a quote.
type EventType string

const (
	EventQuoteCreated            EventType = "QuoteCreated"
	EventQuoteSentToVendor       EventType = "QuoteSentToVendor"
	EventQuoteAcknowledged       EventType = "QuoteAcknowledged"
	EventQuoteAccepted           EventType = "QuoteAccepted"
	EventQuoteRejected           EventType = "QuoteRejected"
	EventQuoteCountered          EventType = "QuoteCountered"
	EventQuoteExpirationExtended EventType = "QuoteExpirationExtended"
	EventQuoteExpired            EventType = "QuoteExpired"
	EventQuoteOfferUpdated       EventType = "QuoteOfferUpdated"
)

// Event is an immutable record of a change, carrying the quote as it was
// right after the change. Quote.ID is zero for events raised before the
// first save; use cases refresh it after persisting.
type Event struct {
	ID         uuid.UUID
	Type       EventType
	OccurredAt time.Time
	ActorID    *int64
	Quote      Quote
}

func newEvent(t EventType, q Quote, actor *int64, at time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		OccurredAt: at,
		ActorID:    actor,
		Quote:      q,
	}
}

// WithQuote returns events whose snapshot is replaced by the persisted quote,
// keeping their identity and timestamps.
func WithQuote(events []Event, q Quote) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		e.Quote = q
		out[i] = e
	}
	return out
}
