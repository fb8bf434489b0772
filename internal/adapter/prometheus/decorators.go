package prometheus

import (
	"context"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

var (
	_ domain.EventPublisher = (*CountingPublisher)(nil)
	_ domain.Notifier       = (*CountingNotifier)(nil)
)

// CountingPublisher counts every publish attempt by event type and outcome.
type CountingPublisher struct {
	next    domain.EventPublisher
	metrics *Metrics
}

func NewCountingPublisher(next domain.EventPublisher, m *Metrics) *CountingPublisher {
	return &CountingPublisher{next: next, metrics: m}
}

func (p *CountingPublisher) Publish(ctx context.Context, event domain.Event) error {
	err := p.next.Publish(ctx, event)
	p.metrics.eventPublished(string(event.Type), err)
	return err
}

// CountingNotifier counts every notification attempt by kind and outcome.
type CountingNotifier struct {
	next    domain.Notifier
	metrics *Metrics
}

func NewCountingNotifier(next domain.Notifier, m *Metrics) *CountingNotifier {
	return &CountingNotifier{next: next, metrics: m}
}

func (n *CountingNotifier) SendQuoteNotification(ctx context.Context, q domain.Quote, v domain.Vendor) error {
	err := n.next.SendQuoteNotification(ctx, q, v)
	n.metrics.notificationSent(string(domain.NotificationQuoteSent), err)
	return err
}

func (n *CountingNotifier) SendQuoteResponseNotification(ctx context.Context, q domain.Quote) error {
	err := n.next.SendQuoteResponseNotification(ctx, q)
	n.metrics.notificationSent(string(domain.NotificationQuoteResponded), err)
	return err
}

func (n *CountingNotifier) SendQuoteExtendedNotification(ctx context.Context, q domain.Quote, v domain.Vendor) error {
	err := n.next.SendQuoteExtendedNotification(ctx, q, v)
	n.metrics.notificationSent(string(domain.NotificationQuoteExtended), err)
	return err
}
