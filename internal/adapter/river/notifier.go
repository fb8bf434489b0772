package river

import (
	"context"
	"fmt"
	"time"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

// Compile-time check: Notifier implements domain.Notifier.
var _ domain.Notifier = (*Notifier)(nil)

// NotificationJobArgs is one message about a quote, queued for delivery.
type NotificationJobArgs struct {
	Notification string     `json:"notification"`
	QuoteUUID    string     `json:"quote_uuid"`
	QuoteNumber  string     `json:"quote_number"`
	TenantID     int64      `json:"tenant_id"`
	Status       string     `json:"status"`
	VendorID     int64      `json:"vendor_id"`
	VendorName   string     `json:"vendor_name,omitempty"`
	VendorEmail  string     `json:"vendor_email,omitempty"`
	ResponseType string     `json:"response_type,omitempty"`
	CounterOffer string     `json:"counter_offer,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (NotificationJobArgs) Kind() string { return "quote.notification" }

// Notifier implements domain.Notifier by enqueuing notification jobs.
// A returned error means the message was not queued.
type Notifier struct {
	client *Client
}

// NewNotifier creates a notifier backed by the given River client.
func NewNotifier(client *Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) SendQuoteNotification(ctx context.Context, q domain.Quote, v domain.Vendor) error {
	return n.enqueue(ctx, notificationArgs(domain.NotificationQuoteSent, q, &v))
}

func (n *Notifier) SendQuoteResponseNotification(ctx context.Context, q domain.Quote) error {
	args := notificationArgs(domain.NotificationQuoteResponded, q, nil)
	args.ResponseType = string(q.ResponseType)
	if q.CounterOffer != nil {
		args.CounterOffer = q.CounterOffer.String()
	}
	return n.enqueue(ctx, args)
}

func (n *Notifier) SendQuoteExtendedNotification(ctx context.Context, q domain.Quote, v domain.Vendor) error {
	return n.enqueue(ctx, notificationArgs(domain.NotificationQuoteExtended, q, &v))
}

func (n *Notifier) enqueue(ctx context.Context, args NotificationJobArgs) error {
	if _, err := n.client.Insert(ctx, args, nil); err != nil {
		return fmt.Errorf("enqueuing %s notification: %w", args.Notification, err)
	}
	return nil
}

func notificationArgs(kind domain.NotificationKind, q domain.Quote, v *domain.Vendor) NotificationJobArgs {
	args := NotificationJobArgs{
		Notification: string(kind),
		QuoteUUID:    q.UUID.String(),
		QuoteNumber:  q.QuoteNumber(),
		TenantID:     q.TenantID,
		Status:       string(q.Status),
		VendorID:     q.VendorID,
		ExpiresAt:    q.ExpiresAt,
	}
	if v != nil {
		args.VendorID = v.ID
		args.VendorName = v.Name
		args.VendorEmail = v.Email
	}
	return args
}
