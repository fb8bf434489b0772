package river

import (
	"context"
	"fmt"
	"time"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries a quote event to the worker. River serializes this
// as JSON into its job queue table. It is a snapshot of the quote at the
// time of the change, so the worker never needs to query the database.
type EventJobArgs struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	QuoteUUID   string    `json:"quote_uuid"`
	QuoteNumber string    `json:"quote_number"`
	TenantID    int64     `json:"tenant_id"`
	Status      string    `json:"status"`
	OrderID     int64     `json:"order_id"`
	VendorID    int64     `json:"vendor_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	ActorID     *int64    `json:"actor_id,omitempty"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "quote.event" }

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a quote event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	q := event.Quote
	_, err := p.client.Insert(ctx, EventJobArgs{
		EventID:     event.ID.String(),
		Type:        string(event.Type),
		QuoteUUID:   q.UUID.String(),
		QuoteNumber: q.QuoteNumber(),
		TenantID:    q.TenantID,
		Status:      string(q.Status),
		OrderID:     q.OrderID,
		VendorID:    q.VendorID,
		OccurredAt:  event.OccurredAt,
		ActorID:     event.ActorID,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}
