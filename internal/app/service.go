package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neomorfeo/quoteflow/internal/domain"
	"github.com/neomorfeo/quoteflow/internal/logger"
)

// Policy holds the tunable rules of the negotiation.
type Policy struct {
	// DefaultValidity is the expiry given to new quotes.
	DefaultValidity time.Duration
	// ExtensionWindow is how close to expiry a quote must be before it can be extended.
	ExtensionWindow time.Duration
	DefaultCurrency string
	DefaultPerPage  int
	MaxPerPage      int
	// ExpiryBatchSize caps the number of quotes one sweep expires.
	ExpiryBatchSize int
}

// DefaultPolicy returns the standard negotiation rules.
func DefaultPolicy() Policy {
	return Policy{
		DefaultValidity: domain.DefaultValidity,
		ExtensionWindow: 7 * 24 * time.Hour,
		DefaultCurrency: "IDR",
		DefaultPerPage:  20,
		MaxPerPage:      100,
		ExpiryBatchSize: 100,
	}
}

// Deps are the adapters a QuoteService drives.
type Deps struct {
	Repo      domain.QuoteRepository
	Directory domain.Directory
	Publisher domain.EventPublisher
	Notifier  domain.Notifier
	Validator domain.TransitionValidator
	// Tx may be nil, in which case use cases run without a transaction.
	Tx     domain.Transactor
	Logger *zap.Logger
}

// Option customizes a QuoteService.
type Option func(*QuoteService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *QuoteService) { s.clock = now }
}

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(s *QuoteService) { s.policy = p }
}

// QuoteService orchestrates quote negotiation use cases.
type QuoteService struct {
	repo      domain.QuoteRepository
	directory domain.Directory
	publisher domain.EventPublisher
	notifier  domain.Notifier
	validator domain.TransitionValidator
	tx        domain.Transactor
	logger    *zap.Logger
	audit     *zap.Logger
	clock     func() time.Time
	policy    Policy
}

// NewQuoteService creates a service with the given adapters.
func NewQuoteService(d Deps, opts ...Option) *QuoteService {
	s := &QuoteService{
		repo:      d.Repo,
		directory: d.Directory,
		publisher: d.Publisher,
		notifier:  d.Notifier,
		validator: d.Validator,
		tx:        d.Tx,
		logger:    d.Logger,
		clock:     time.Now,
		policy:    DefaultPolicy(),
	}
	if s.tx == nil {
		s.tx = noTx{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	for _, opt := range opts {
		opt(s)
	}
	s.audit = s.logger.Named(logger.AuditName)
	return s
}

func (s *QuoteService) now() time.Time {
	return s.clock().UTC()
}

func (s *QuoteService) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, s.logger)
}

// publish sends events after commit. A failure is logged; the change it
// describes is already durable.
func (s *QuoteService) publish(ctx context.Context, events []domain.Event) {
	for _, e := range events {
		if err := s.publisher.Publish(ctx, e); err != nil {
			s.log(ctx).Error("publishing quote event",
				zap.Stringer("event_id", e.ID),
				zap.String("event_type", string(e.Type)),
				zap.Stringer("quote_uuid", e.Quote.UUID),
				zap.Error(err),
			)
		}
	}
}

// notify runs send and logs a failure instead of returning it.
func (s *QuoteService) notify(ctx context.Context, kind domain.NotificationKind, q domain.Quote, vendorID int64, send func(context.Context) error) {
	if err := send(ctx); err != nil {
		nErr := &domain.NotificationError{Kind: kind, QuoteUUID: q.UUID, Err: err}
		s.log(ctx).Warn("quote notification failed",
			zap.String("notification", string(kind)),
			zap.Stringer("quote_uuid", q.UUID),
			zap.Int64("quote_id", q.ID),
			zap.Int64("vendor_id", vendorID),
			zap.Int64("tenant_id", q.TenantID),
			zap.Error(nErr),
		)
	}
}

// resolve runs a tenant-scoped lookup and turns "absent" into a
// *domain.NotFoundError naming the resource, id and tenant.
func resolve[T any](resource string, id any, tenantID int64, find func() (T, bool, error)) (T, error) {
	v, found, err := find()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("finding %s %v: %w", resource, id, err)
	}
	if !found {
		var zero T
		return zero, &domain.NotFoundError{Resource: resource, ID: fmt.Sprint(id), TenantID: tenantID}
	}
	return v, nil
}

func (s *QuoteService) findQuote(ctx context.Context, id uuid.UUID, tenantID int64) (domain.Quote, error) {
	return resolve("quote", id, tenantID, func() (domain.Quote, bool, error) {
		return s.repo.FindByUUID(ctx, id, tenantID)
	})
}

func (s *QuoteService) findOrder(ctx context.Context, id, tenantID int64) (domain.Order, error) {
	return resolve("order", id, tenantID, func() (domain.Order, bool, error) {
		return s.directory.FindOrder(ctx, id, tenantID)
	})
}

func (s *QuoteService) findVendor(ctx context.Context, id, tenantID int64) (domain.Vendor, error) {
	return resolve("vendor", id, tenantID, func() (domain.Vendor, bool, error) {
		return s.directory.FindVendor(ctx, id, tenantID)
	})
}

func (s *QuoteService) findProduct(ctx context.Context, id, tenantID int64) (domain.Product, error) {
	return resolve("product", id, tenantID, func() (domain.Product, bool, error) {
		return s.directory.FindProduct(ctx, id, tenantID)
	})
}

// save persists q and refreshes the snapshot carried by events.
func (s *QuoteService) save(ctx context.Context, q domain.Quote, events []domain.Event) (domain.Quote, []domain.Event, error) {
	saved, err := s.repo.Save(ctx, q)
	if err != nil {
		return domain.Quote{}, nil, fmt.Errorf("saving quote %s: %w", q.UUID, err)
	}
	return saved, domain.WithQuote(events, saved), nil
}

type noTx struct{}

func (noTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
