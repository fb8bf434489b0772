package otel_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	adapter "github.com/neomorfeo/quoteflow/internal/adapter/otel"
	"github.com/neomorfeo/quoteflow/internal/domain"
)

// --- Mock publisher ---

type mockPublisher struct {
	events []domain.Event
}

func (m *mockPublisher) Publish(_ context.Context, e domain.Event) error {
	m.events = append(m.events, e)
	return nil
}

type failingPublisher struct{}

func (p *failingPublisher) Publish(context.Context, domain.Event) error {
	return fmt.Errorf("publish failed")
}

type mockNotifier struct {
	err  error
	sent int
}

func (m *mockNotifier) SendQuoteNotification(context.Context, domain.Quote, domain.Vendor) error {
	m.sent++
	return m.err
}

func (m *mockNotifier) SendQuoteResponseNotification(context.Context, domain.Quote) error {
	m.sent++
	return m.err
}

func (m *mockNotifier) SendQuoteExtendedNotification(context.Context, domain.Quote, domain.Vendor) error {
	m.sent++
	return m.err
}

// --- Tests ---

func TestTracingPublisher_Publish_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockPublisher{}
	pub := adapter.NewTracingPublisher(inner)

	event := domain.Event{
		ID:    uuid.MustParse("8e0f4a7c-1d2b-4e3f-a5b6-c7d8e9f00112"),
		Type:  domain.EventQuoteSentToVendor,
		Quote: sampleQuote(),
	}
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "EventPublisher.Publish" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "EventPublisher.Publish")
	}

	assertAttribute(t, spans[0], "event.type", "QuoteSentToVendor")
	assertAttribute(t, spans[0], "event.id", "8e0f4a7c-1d2b-4e3f-a5b6-c7d8e9f00112")
	assertAttribute(t, spans[0], "tenant.id", "7")

	if len(inner.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(inner.events))
	}
}

func TestTracingPublisher_Publish_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	pub := adapter.NewTracingPublisher(&failingPublisher{})

	err := pub.Publish(context.Background(), domain.Event{Type: domain.EventQuoteCreated, Quote: sampleQuote()})
	if err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
}

func TestTracingNotifier_RecordsKind(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockNotifier{}
	n := adapter.NewTracingNotifier(inner)
	q := sampleQuote()
	q.ResponseType = domain.ResponseReject

	if err := n.SendQuoteResponseNotification(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := n.SendQuoteExtendedNotification(context.Background(), q, domain.Vendor{ID: 9}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	assertAttribute(t, spans[0], "notification.kind", "quote_responded")
	assertAttribute(t, spans[0], "quote.response_type", "reject")
	assertAttribute(t, spans[1], "notification.kind", "quote_extended")
	assertAttribute(t, spans[1], "vendor.id", "9")
	if inner.sent != 2 {
		t.Errorf("inner notifier called %d times, want 2", inner.sent)
	}
}

func TestTracingNotifier_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	n := adapter.NewTracingNotifier(&mockNotifier{err: fmt.Errorf("queue unavailable")})

	if err := n.SendQuoteNotification(context.Background(), sampleQuote(), domain.Vendor{ID: 9}); err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
}
