package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QuoteRepository defines the persistence contract for quotes.
// Every lookup is scoped to a tenant; a quote owned by another tenant is
// reported as absent.
type QuoteRepository interface {
	FindByUUID(ctx context.Context, id uuid.UUID, tenantID int64) (Quote, bool, error)
	// Save inserts or updates by UUID and returns the quote with its ID set.
	Save(ctx context.Context, q Quote) (Quote, error)
	List(ctx context.Context, q ListQuery) (QuotePage, error)
	// FindExpirable returns quotes awaiting a vendor whose expiry is before now, across tenants.
	FindExpirable(ctx context.Context, now time.Time, limit int) ([]Quote, error)
	CountByStatus(ctx context.Context, tenantID int64, from, to *time.Time) (StatusCounts, error)
}

// Directory looks up the entities a quote references, within one tenant.
type Directory interface {
	FindOrder(ctx context.Context, id, tenantID int64) (Order, bool, error)
	FindVendor(ctx context.Context, id, tenantID int64) (Vendor, bool, error)
	FindProduct(ctx context.Context, id, tenantID int64) (Product, bool, error)
}

// NotificationKind names a message sent about a quote.
type NotificationKind string

const (
	NotificationQuoteSent      NotificationKind = "quote_sent"
	NotificationQuoteResponded NotificationKind = "quote_responded"
	NotificationQuoteExtended  NotificationKind = "quote_extended"
)

// Notifier delivers quote messages to vendors and administrators.
type Notifier interface {
	SendQuoteNotification(ctx context.Context, q Quote, v Vendor) error
	SendQuoteResponseNotification(ctx context.Context, q Quote) error
	SendQuoteExtendedNotification(ctx context.Context, q Quote, v Vendor) error
}

// EventPublisher defines the contract for emitting domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Transactor runs fn inside a transaction. Calls made with the context
// passed to fn take part in it; nested calls join the outer transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransitionValidator decides whether action is allowed from current and
// returns the destination status, or a *TransitionError.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, action Action) (Status, error)
}
