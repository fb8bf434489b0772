package otel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

const tracerName = "github.com/neomorfeo/quoteflow/internal/adapter/otel"

// recordError marks the span as failed when err is non-nil.
func recordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// TracingQuoteRepository wraps a domain.QuoteRepository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingQuoteRepository struct {
	next   domain.QuoteRepository
	tracer trace.Tracer
}

// Compile-time check: TracingQuoteRepository implements domain.QuoteRepository.
var _ domain.QuoteRepository = (*TracingQuoteRepository)(nil)

// NewTracingQuoteRepository creates a tracing decorator around the given repository.
func NewTracingQuoteRepository(next domain.QuoteRepository) *TracingQuoteRepository {
	return &TracingQuoteRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingQuoteRepository) FindByUUID(ctx context.Context, id uuid.UUID, tenantID int64) (domain.Quote, bool, error) {
	ctx, span := r.tracer.Start(ctx, "QuoteRepository.FindByUUID",
		trace.WithAttributes(
			attribute.String("quote.uuid", id.String()),
			attribute.Int64("tenant.id", tenantID),
		),
	)
	defer span.End()

	q, found, err := r.next.FindByUUID(ctx, id, tenantID)
	recordError(span, err)
	span.SetAttributes(attribute.Bool("result.found", found))
	return q, found, err
}

func (r *TracingQuoteRepository) Save(ctx context.Context, q domain.Quote) (domain.Quote, error) {
	ctx, span := r.tracer.Start(ctx, "QuoteRepository.Save",
		trace.WithAttributes(
			attribute.String("quote.uuid", q.UUID.String()),
			attribute.String("quote.status", string(q.Status)),
			attribute.Int64("tenant.id", q.TenantID),
		),
	)
	defer span.End()

	saved, err := r.next.Save(ctx, q)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int64("quote.id", saved.ID))
	}
	return saved, err
}

func (r *TracingQuoteRepository) List(ctx context.Context, q domain.ListQuery) (domain.QuotePage, error) {
	ctx, span := r.tracer.Start(ctx, "QuoteRepository.List",
		trace.WithAttributes(
			attribute.Int64("tenant.id", q.TenantID),
			attribute.Int("query.page", q.Page),
			attribute.Int("query.per_page", q.PerPage),
			attribute.String("query.sort_by", string(q.SortBy)),
		),
	)
	defer span.End()

	if q.Filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*q.Filter.Status)))
	}

	page, err := r.next.List(ctx, q)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(
			attribute.Int("result.count", len(page.Items)),
			attribute.Int("result.total", page.Total),
		)
	}
	return page, err
}

func (r *TracingQuoteRepository) FindExpirable(ctx context.Context, now time.Time, limit int) ([]domain.Quote, error) {
	ctx, span := r.tracer.Start(ctx, "QuoteRepository.FindExpirable",
		trace.WithAttributes(attribute.Int("query.limit", limit)),
	)
	defer span.End()

	quotes, err := r.next.FindExpirable(ctx, now, limit)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(quotes)))
	}
	return quotes, err
}

func (r *TracingQuoteRepository) CountByStatus(ctx context.Context, tenantID int64, from, to *time.Time) (domain.StatusCounts, error) {
	ctx, span := r.tracer.Start(ctx, "QuoteRepository.CountByStatus",
		trace.WithAttributes(attribute.Int64("tenant.id", tenantID)),
	)
	defer span.End()

	counts, err := r.next.CountByStatus(ctx, tenantID, from, to)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.total", counts.Total()))
	}
	return counts, err
}

// TracingDirectory wraps a domain.Directory with OpenTelemetry tracing.
type TracingDirectory struct {
	next   domain.Directory
	tracer trace.Tracer
}

// Compile-time check: TracingDirectory implements domain.Directory.
var _ domain.Directory = (*TracingDirectory)(nil)

// NewTracingDirectory creates a tracing decorator around the given directory.
func NewTracingDirectory(next domain.Directory) *TracingDirectory {
	return &TracingDirectory{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (d *TracingDirectory) FindOrder(ctx context.Context, id, tenantID int64) (domain.Order, bool, error) {
	ctx, span := d.start(ctx, "Directory.FindOrder", id, tenantID)
	defer span.End()

	o, found, err := d.next.FindOrder(ctx, id, tenantID)
	recordError(span, err)
	span.SetAttributes(attribute.Bool("result.found", found))
	return o, found, err
}

func (d *TracingDirectory) FindVendor(ctx context.Context, id, tenantID int64) (domain.Vendor, bool, error) {
	ctx, span := d.start(ctx, "Directory.FindVendor", id, tenantID)
	defer span.End()

	v, found, err := d.next.FindVendor(ctx, id, tenantID)
	recordError(span, err)
	span.SetAttributes(attribute.Bool("result.found", found))
	return v, found, err
}

func (d *TracingDirectory) FindProduct(ctx context.Context, id, tenantID int64) (domain.Product, bool, error) {
	ctx, span := d.start(ctx, "Directory.FindProduct", id, tenantID)
	defer span.End()

	p, found, err := d.next.FindProduct(ctx, id, tenantID)
	recordError(span, err)
	span.SetAttributes(attribute.Bool("result.found", found))
	return p, found, err
}

func (d *TracingDirectory) start(ctx context.Context, name string, id, tenantID int64) (context.Context, trace.Span) {
	return d.tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.Int64("entity.id", id),
			attribute.Int64("tenant.id", tenantID),
		),
	)
}
