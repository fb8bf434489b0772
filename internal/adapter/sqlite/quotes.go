package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

// Compile-time check: QuoteRepository implements domain.QuoteRepository.
var _ domain.QuoteRepository = (*QuoteRepository)(nil)

// QuoteRepository implements domain.QuoteRepository using SQLite.
type QuoteRepository struct {
	db *sql.DB
}

// timeFormat is fixed width so stored times sort and compare as text.
const timeFormat = "2006-01-02T15:04:05.000000Z"

const quoteColumns = `q.id, q.uuid, q.tenant_id, q.order_id, q.vendor_id, q.product_id, q.quantity,
	q.specifications, q.notes, q.status, q.initial_offer, q.counter_offer, q.currency,
	q.quote_details, q.round, q.response_type, q.response_notes, q.status_history, q.history,
	q.expires_at, q.sent_at, q.responded_at, q.closed_at, q.created_at, q.updated_at`

// quoteNumberSQL renders QT-YYYYMM-NNNNN from the stored row, matching domain.Quote.QuoteNumber.
const quoteNumberSQL = `('QT-' || substr(q.created_at, 1, 4) || substr(q.created_at, 6, 2) || '-' || printf('%05d', q.id))`

func (r *QuoteRepository) FindByUUID(ctx context.Context, id uuid.UUID, tenantID int64) (domain.Quote, bool, error) {
	q, err := scanQuote(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes q WHERE q.uuid = ? AND q.tenant_id = ?`,
		id.String(), tenantID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quote{}, false, nil
	}
	if err != nil {
		return domain.Quote{}, false, err
	}
	return q, true, nil
}

// Save inserts q, or updates the row with the same UUID. A UUID that
// belongs to another tenant is reported as not found.
func (r *QuoteRepository) Save(ctx context.Context, q domain.Quote) (domain.Quote, error) {
	row, err := encodeQuote(q)
	if err != nil {
		return domain.Quote{}, err
	}

	var id int64
	err = conn(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO quotes (
			uuid, tenant_id, order_id, vendor_id, product_id, quantity,
			specifications, notes, status, initial_offer, counter_offer, currency,
			quote_details, round, response_type, response_notes, status_history, history,
			expires_at, sent_at, responded_at, closed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (uuid) DO UPDATE SET
			order_id = excluded.order_id,
			vendor_id = excluded.vendor_id,
			product_id = excluded.product_id,
			quantity = excluded.quantity,
			specifications = excluded.specifications,
			notes = excluded.notes,
			status = excluded.status,
			initial_offer = excluded.initial_offer,
			counter_offer = excluded.counter_offer,
			currency = excluded.currency,
			quote_details = excluded.quote_details,
			round = excluded.round,
			response_type = excluded.response_type,
			response_notes = excluded.response_notes,
			status_history = excluded.status_history,
			history = excluded.history,
			expires_at = excluded.expires_at,
			sent_at = excluded.sent_at,
			responded_at = excluded.responded_at,
			closed_at = excluded.closed_at,
			updated_at = excluded.updated_at
		WHERE quotes.tenant_id = excluded.tenant_id
		RETURNING id`,
		q.UUID.String(), q.TenantID, q.OrderID, q.VendorID, q.ProductID, q.Quantity,
		row.specifications, q.Notes, string(q.Status), nullDecimal(q.InitialOffer), nullDecimal(q.CounterOffer), q.Currency,
		row.details, q.Round, string(q.ResponseType), q.ResponseNotes, row.statusHistory, row.history,
		formatTimePtr(q.ExpiresAt), formatTimePtr(q.SentAt), formatTimePtr(q.RespondedAt), formatTimePtr(q.ClosedAt),
		formatTime(q.CreatedAt), formatTime(q.UpdatedAt),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quote{}, &domain.NotFoundError{Resource: "quote", ID: q.UUID.String(), TenantID: q.TenantID}
	}
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Quote{}, &domain.ValidationError{Field: "quote", Message: "order, vendor or product does not belong to the tenant"}
		}
		return domain.Quote{}, fmt.Errorf("saving quote: %w", err)
	}

	q.ID = id
	return q, nil
}

var sortColumns = map[domain.SortField]string{
	domain.SortCreatedAt: "q.created_at",
	domain.SortUpdatedAt: "q.updated_at",
	domain.SortExpiresAt: "q.expires_at",
	domain.SortStatus:    "q.status",
	domain.SortQuoteID:   "q.id",
}

func (r *QuoteRepository) List(ctx context.Context, lq domain.ListQuery) (domain.QuotePage, error) {
	from := ` FROM quotes q
		LEFT JOIN orders o ON o.id = q.order_id AND o.tenant_id = q.tenant_id
		LEFT JOIN vendors v ON v.id = q.vendor_id AND v.tenant_id = q.tenant_id`
	where, args := listWhere(lq)

	db := conn(ctx, r.db)

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return domain.QuotePage{}, fmt.Errorf("counting quotes: %w", err)
	}

	column, ok := sortColumns[lq.SortBy]
	if !ok {
		column = sortColumns[domain.SortCreatedAt]
	}
	direction := "DESC"
	if lq.SortOrder == domain.SortAsc {
		direction = "ASC"
	}

	query := `SELECT ` + quoteColumns + `,
		COALESCE(o.order_number, ''), COALESCE(o.customer_name, ''), COALESCE(v.name, '')` +
		from + where +
		fmt.Sprintf(` ORDER BY %s %s, q.id %s`, column, direction, direction)

	pageArgs := args
	if lq.PerPage > 0 {
		query += ` LIMIT ? OFFSET ?`
		pageArgs = append(pageArgs, lq.PerPage, lq.Offset())
	}

	rows, err := db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return domain.QuotePage{}, fmt.Errorf("listing quotes: %w", err)
	}
	defer rows.Close()

	items := make([]domain.QuoteSummary, 0)
	for rows.Next() {
		var s domain.QuoteSummary
		q, err := scanQuote(rows, &s.OrderNumber, &s.CustomerName, &s.VendorName)
		if err != nil {
			return domain.QuotePage{}, err
		}
		s.Quote = q
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return domain.QuotePage{}, fmt.Errorf("iterating quotes: %w", err)
	}

	return domain.QuotePage{Items: items, Total: total}, nil
}

func listWhere(lq domain.ListQuery) (string, []any) {
	var b strings.Builder
	args := []any{lq.TenantID}
	b.WriteString(` WHERE q.tenant_id = ?`)

	f := lq.Filter
	if f.Status != nil {
		b.WriteString(` AND q.status = ?`)
		args = append(args, string(*f.Status))
	}
	if f.DateFrom != nil {
		b.WriteString(` AND q.created_at >= ?`)
		args = append(args, formatTime(*f.DateFrom))
	}
	if f.DateTo != nil {
		b.WriteString(` AND q.created_at <= ?`)
		args = append(args, formatTime(*f.DateTo))
	}
	if f.VendorID != nil {
		b.WriteString(` AND q.vendor_id = ?`)
		args = append(args, *f.VendorID)
	}
	if f.OrderID != nil {
		b.WriteString(` AND q.order_id = ?`)
		args = append(args, *f.OrderID)
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		b.WriteString(` AND (` + quoteNumberSQL + ` LIKE ? ESCAPE '\'
			OR o.order_number LIKE ? ESCAPE '\'
			OR v.name LIKE ? ESCAPE '\'
			OR o.customer_name LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern, pattern)
	}
	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *QuoteRepository) FindExpirable(ctx context.Context, now time.Time, limit int) ([]domain.Quote, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes q
		 WHERE q.status IN (?, ?) AND q.expires_at IS NOT NULL AND q.expires_at < ?
		 ORDER BY q.expires_at, q.id
		 LIMIT ?`,
		string(domain.StatusSent), string(domain.StatusPendingResponse), formatTime(now), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("finding expirable quotes: %w", err)
	}
	defer rows.Close()

	var out []domain.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *QuoteRepository) CountByStatus(ctx context.Context, tenantID int64, from, to *time.Time) (domain.StatusCounts, error) {
	query := `SELECT q.status, COUNT(*) FROM quotes q WHERE q.tenant_id = ?`
	args := []any{tenantID}
	if from != nil {
		query += ` AND q.created_at >= ?`
		args = append(args, formatTime(*from))
	}
	if to != nil {
		query += ` AND q.created_at <= ?`
		args = append(args, formatTime(*to))
	}
	query += ` GROUP BY q.status`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("counting quotes by status: %w", err)
	}
	defer rows.Close()

	counts := make(domain.StatusCounts)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[domain.Status(status)] = n
	}
	return counts, rows.Err()
}

// encodedQuote holds the JSON columns of a quote row.
type encodedQuote struct {
	specifications string
	details        string
	statusHistory  string
	history        string
}

func encodeQuote(q domain.Quote) (encodedQuote, error) {
	var (
		out encodedQuote
		err error
	)
	if out.specifications, err = encodeJSON(q.Specifications, "{}"); err != nil {
		return out, fmt.Errorf("encoding specifications: %w", err)
	}
	if out.details, err = encodeJSON(q.Details, "{}"); err != nil {
		return out, fmt.Errorf("encoding quote details: %w", err)
	}
	if out.statusHistory, err = encodeJSON(q.StatusHistory, "[]"); err != nil {
		return out, fmt.Errorf("encoding status history: %w", err)
	}
	if out.history, err = encodeJSON(q.History, "[]"); err != nil {
		return out, fmt.Errorf("encoding history: %w", err)
	}
	return out, nil
}

func encodeJSON(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanQuote reads the quoteColumns of one row, followed by any extra columns.
func scanQuote(row scanner, extra ...any) (domain.Quote, error) {
	var (
		q                                        domain.Quote
		id, status, responseType                 string
		specs, details, statusHistory, history   string
		initialOffer, counterOffer               decimal.NullDecimal
		expiresAt, sentAt, respondedAt, closedAt sql.NullString
		createdAt, updatedAt                     string
	)

	dest := []any{
		&q.ID, &id, &q.TenantID, &q.OrderID, &q.VendorID, &q.ProductID, &q.Quantity,
		&specs, &q.Notes, &status, &initialOffer, &counterOffer, &q.Currency,
		&details, &q.Round, &responseType, &q.ResponseNotes, &statusHistory, &history,
		&expiresAt, &sentAt, &respondedAt, &closedAt, &createdAt, &updatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Quote{}, err
		}
		return domain.Quote{}, fmt.Errorf("scanning quote: %w", err)
	}

	var err error
	if q.UUID, err = uuid.Parse(id); err != nil {
		return domain.Quote{}, fmt.Errorf("parsing quote uuid %q: %w", id, err)
	}
	q.Status = domain.Status(status)
	q.ResponseType = domain.ResponseKind(responseType)
	q.InitialOffer = decimalPtr(initialOffer)
	q.CounterOffer = decimalPtr(counterOffer)

	if err := decodeJSON(specs, &q.Specifications); err != nil {
		return domain.Quote{}, fmt.Errorf("decoding specifications of quote %s: %w", id, err)
	}
	if err := decodeJSON(details, &q.Details); err != nil {
		return domain.Quote{}, fmt.Errorf("decoding details of quote %s: %w", id, err)
	}
	if err := decodeJSON(statusHistory, &q.StatusHistory); err != nil {
		return domain.Quote{}, fmt.Errorf("decoding status history of quote %s: %w", id, err)
	}
	if err := decodeJSON(history, &q.History); err != nil {
		return domain.Quote{}, fmt.Errorf("decoding history of quote %s: %w", id, err)
	}

	nullable := []struct {
		column string
		raw    sql.NullString
		dst    **time.Time
	}{
		{"expires_at", expiresAt, &q.ExpiresAt},
		{"sent_at", sentAt, &q.SentAt},
		{"responded_at", respondedAt, &q.RespondedAt},
		{"closed_at", closedAt, &q.ClosedAt},
	}
	for _, c := range nullable {
		if *c.dst, err = parseNullTime(c.raw); err != nil {
			return domain.Quote{}, fmt.Errorf("parsing %s of quote %s: %w", c.column, id, err)
		}
	}
	if q.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return domain.Quote{}, fmt.Errorf("parsing created_at of quote %s: %w", id, err)
	}
	if q.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return domain.Quote{}, fmt.Errorf("parsing updated_at of quote %s: %w", id, err)
	}

	return q, nil
}

func decodeJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(timeFormat, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
