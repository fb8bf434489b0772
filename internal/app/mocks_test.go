package app_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/neomorfeo/quoteflow/internal/adapter/fsm"
	"github.com/neomorfeo/quoteflow/internal/app"
	"github.com/neomorfeo/quoteflow/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	quotes  map[uuid.UUID]domain.Quote
	nextID  int64
	saves   int
	saveErr error
	lastQ   domain.ListQuery
	page    domain.QuotePage
	counts  domain.StatusCounts
}

func newMockRepo() *mockRepo {
	return &mockRepo{quotes: make(map[uuid.UUID]domain.Quote)}
}

func (m *mockRepo) FindByUUID(_ context.Context, id uuid.UUID, tenantID int64) (domain.Quote, bool, error) {
	q, ok := m.quotes[id]
	if !ok || q.TenantID != tenantID {
		return domain.Quote{}, false, nil
	}
	return q, true, nil
}

func (m *mockRepo) Save(_ context.Context, q domain.Quote) (domain.Quote, error) {
	if m.saveErr != nil {
		return domain.Quote{}, m.saveErr
	}
	if existing, ok := m.quotes[q.UUID]; ok {
		if existing.TenantID != q.TenantID {
			return domain.Quote{}, &domain.NotFoundError{Resource: "quote", ID: q.UUID.String(), TenantID: q.TenantID}
		}
		q.ID = existing.ID
	} else {
		m.nextID++
		q.ID = m.nextID
	}
	m.saves++
	m.quotes[q.UUID] = q
	return q, nil
}

func (m *mockRepo) List(_ context.Context, q domain.ListQuery) (domain.QuotePage, error) {
	m.lastQ = q
	return m.page, nil
}

func (m *mockRepo) FindExpirable(_ context.Context, now time.Time, limit int) ([]domain.Quote, error) {
	var out []domain.Quote
	for _, q := range m.quotes {
		if q.Status.AwaitsVendor() && q.IsExpired(now) {
			out = append(out, q)
		}
	}
	slices.SortFunc(out, func(a, b domain.Quote) int { return int(a.ID - b.ID) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepo) CountByStatus(_ context.Context, _ int64, _, _ *time.Time) (domain.StatusCounts, error) {
	return m.counts, nil
}

type mockDirectory struct {
	orders   map[int64]domain.Order
	vendors  map[int64]domain.Vendor
	products map[int64]domain.Product
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		orders:   map[int64]domain.Order{5: {ID: 5, TenantID: 1, OrderNumber: "SO-0005", CustomerName: "PT Maju"}},
		vendors:  map[int64]domain.Vendor{9: {ID: 9, TenantID: 1, Name: "Sinar Logam", Email: "sales@sinar.test"}},
		products: map[int64]domain.Product{3: {ID: 3, TenantID: 1, Name: "Steel bracket", SKU: "BRK-3"}},
	}
}

func lookup[T any](m map[int64]T, id, tenantID int64, tenantOf func(T) int64) (T, bool, error) {
	v, ok := m[id]
	if !ok || tenantOf(v) != tenantID {
		var zero T
		return zero, false, nil
	}
	return v, true, nil
}

func (m *mockDirectory) FindOrder(_ context.Context, id, tenantID int64) (domain.Order, bool, error) {
	return lookup(m.orders, id, tenantID, func(o domain.Order) int64 { return o.TenantID })
}

func (m *mockDirectory) FindVendor(_ context.Context, id, tenantID int64) (domain.Vendor, bool, error) {
	return lookup(m.vendors, id, tenantID, func(v domain.Vendor) int64 { return v.TenantID })
}

func (m *mockDirectory) FindProduct(_ context.Context, id, tenantID int64) (domain.Product, bool, error) {
	return lookup(m.products, id, tenantID, func(p domain.Product) int64 { return p.TenantID })
}

type mockPublisher struct {
	events []domain.Event
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, e domain.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *mockPublisher) types() []domain.EventType {
	out := make([]domain.EventType, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

type mockNotifier struct {
	sent      []domain.Quote
	responded []domain.Quote
	extended  []domain.Quote
	err       error
}

func (m *mockNotifier) SendQuoteNotification(_ context.Context, q domain.Quote, _ domain.Vendor) error {
	m.sent = append(m.sent, q)
	return m.err
}

func (m *mockNotifier) SendQuoteResponseNotification(_ context.Context, q domain.Quote) error {
	m.responded = append(m.responded, q)
	return m.err
}

func (m *mockNotifier) SendQuoteExtendedNotification(_ context.Context, q domain.Quote, _ domain.Vendor) error {
	m.extended = append(m.extended, q)
	return m.err
}

type mockTx struct {
	calls  int
	failed int
}

func (m *mockTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if err := fn(ctx); err != nil {
		m.failed++
		return err
	}
	return nil
}

// --- Harness ---

var (
	baseTime  = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	errNotify = errors.New("mail relay unavailable")
)

type harness struct {
	svc   *app.QuoteService
	repo  *mockRepo
	dir   *mockDirectory
	pub   *mockPublisher
	notif *mockNotifier
	tx    *mockTx
	logs  *observer.ObservedLogs
	now   time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	h := &harness{
		repo:  newMockRepo(),
		dir:   newMockDirectory(),
		pub:   &mockPublisher{},
		notif: &mockNotifier{},
		tx:    &mockTx{},
		logs:  logs,
		now:   baseTime,
	}
	h.svc = app.NewQuoteService(app.Deps{
		Repo:      h.repo,
		Directory: h.dir,
		Publisher: h.pub,
		Notifier:  h.notif,
		Validator: fsm.New(),
		Tx:        h.tx,
		Logger:    zap.New(core),
	}, app.WithClock(func() time.Time { return h.now }))
	return h
}

func (h *harness) createQuote(t *testing.T) domain.Quote {
	t.Helper()
	q, err := h.svc.CreateQuote(context.Background(), app.CreateQuote{
		TenantID:  1,
		OrderID:   5,
		VendorID:  9,
		ProductID: 3,
		Quantity:  10,
	})
	if err != nil {
		t.Fatalf("CreateQuote: %v", err)
	}
	return q
}

func (h *harness) sentQuote(t *testing.T) domain.Quote {
	t.Helper()
	q := h.createQuote(t)
	q, err := h.svc.SendQuoteToVendor(context.Background(), app.SendQuoteToVendor{QuoteUUID: q.UUID, TenantID: 1})
	if err != nil {
		t.Fatalf("SendQuoteToVendor: %v", err)
	}
	h.pub.events = nil
	return q
}

func (h *harness) logMessages() []string {
	var out []string
	for _, e := range h.logs.All() {
		out = append(out, e.LoggerName+": "+e.Message)
	}
	return out
}

func containsLog(messages []string, substr string) bool {
	return slices.ContainsFunc(messages, func(m string) bool { return strings.Contains(m, substr) })
}

func ptr[T any](v T) *T { return &v }
