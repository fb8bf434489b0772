package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

// TracingPublisher wraps a domain.EventPublisher with OpenTelemetry tracing.
type TracingPublisher struct {
	next   domain.EventPublisher
	tracer trace.Tracer
}

// Compile-time check: TracingPublisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next domain.EventPublisher) *TracingPublisher {
	return &TracingPublisher{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (p *TracingPublisher) Publish(ctx context.Context, event domain.Event) error {
	ctx, span := p.tracer.Start(ctx, "EventPublisher.Publish",
		trace.WithAttributes(
			attribute.String("event.id", event.ID.String()),
			attribute.String("event.type", string(event.Type)),
			attribute.String("quote.uuid", event.Quote.UUID.String()),
			attribute.Int64("tenant.id", event.Quote.TenantID),
		),
	)
	defer span.End()

	err := p.next.Publish(ctx, event)
	recordError(span, err)
	return err
}

// TracingNotifier wraps a domain.Notifier with OpenTelemetry tracing.
type TracingNotifier struct {
	next   domain.Notifier
	tracer trace.Tracer
}

// Compile-time check: TracingNotifier implements domain.Notifier.
var _ domain.Notifier = (*TracingNotifier)(nil)

// NewTracingNotifier creates a tracing decorator around the given notifier.
func NewTracingNotifier(next domain.Notifier) *TracingNotifier {
	return &TracingNotifier{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (n *TracingNotifier) SendQuoteNotification(ctx context.Context, q domain.Quote, v domain.Vendor) error {
	ctx, span := n.start(ctx, domain.NotificationQuoteSent, q)
	defer span.End()
	span.SetAttributes(attribute.Int64("vendor.id", v.ID))

	err := n.next.SendQuoteNotification(ctx, q, v)
	recordError(span, err)
	return err
}

func (n *TracingNotifier) SendQuoteResponseNotification(ctx context.Context, q domain.Quote) error {
	ctx, span := n.start(ctx, domain.NotificationQuoteResponded, q)
	defer span.End()
	span.SetAttributes(attribute.String("quote.response_type", string(q.ResponseType)))

	err := n.next.SendQuoteResponseNotification(ctx, q)
	recordError(span, err)
	return err
}

func (n *TracingNotifier) SendQuoteExtendedNotification(ctx context.Context, q domain.Quote, v domain.Vendor) error {
	ctx, span := n.start(ctx, domain.NotificationQuoteExtended, q)
	defer span.End()
	span.SetAttributes(attribute.Int64("vendor.id", v.ID))

	err := n.next.SendQuoteExtendedNotification(ctx, q, v)
	recordError(span, err)
	return err
}

func (n *TracingNotifier) start(ctx context.Context, kind domain.NotificationKind, q domain.Quote) (context.Context, trace.Span) {
	return n.tracer.Start(ctx, "Notifier.Send",
		trace.WithAttributes(
			attribute.String("notification.kind", string(kind)),
			attribute.String("quote.uuid", q.UUID.String()),
			attribute.Int64("tenant.id", q.TenantID),
		),
	)
}
