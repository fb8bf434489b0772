package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/neomorfeo/quoteflow/internal/app"
	"github.com/neomorfeo/quoteflow/internal/domain"
	"github.com/neomorfeo/quoteflow/internal/logger"
)

// Caller identifies the tenant and user behind a request.
type Caller struct {
	TenantID int64 `header:"X-Tenant-ID" required:"true" minimum:"1" doc:"Tenant the request acts within"`
	UserID   int64 `header:"X-User-ID" required:"false" minimum:"0" doc:"Acting user, if any"`
}

func (c Caller) actor() *int64 {
	if c.UserID == 0 {
		return nil
	}
	id := c.UserID
	return &id
}

// QuoteOutput wraps a single quote.
type QuoteOutput struct {
	Body QuoteResponse
}

// --- Create Quote ---

type CreateQuoteInput struct {
	Caller
	Body struct {
		OrderID        int64          `json:"order_id" minimum:"1"`
		VendorID       int64          `json:"vendor_id" minimum:"1"`
		ProductID      int64          `json:"product_id" minimum:"1"`
		Quantity       int            `json:"quantity" minimum:"1"`
		Specifications map[string]any `json:"specifications,omitempty"`
		Notes          string         `json:"notes,omitempty" maxLength:"2000"`
		InitialOffer   string         `json:"initial_offer,omitempty" doc:"Decimal amount, e.g. \"1500000.00\""`
		Currency       string         `json:"currency,omitempty" minLength:"3" maxLength:"3"`
		ExpiresAt      *time.Time     `json:"expires_at,omitempty" doc:"Defaults to the configured validity"`
	}
}

// --- Get / Send / Acknowledge ---

type QuoteRefInput struct {
	Caller
	UUID string `path:"uuid" format:"uuid" doc:"Quote UUID"`
}

// --- List Quotes ---

type ListQuotesInput struct {
	Caller
	Status    string `query:"status" required:"false" doc:"Filter by status"`
	DateFrom  string `query:"date_from" required:"false" doc:"Created on or after (YYYY-MM-DD or RFC 3339)"`
	DateTo    string `query:"date_to" required:"false" doc:"Created on or before; a bare date covers the whole day"`
	VendorID  int64  `query:"vendor_id" required:"false" minimum:"0"`
	OrderID   int64  `query:"order_id" required:"false" minimum:"0"`
	Search    string `query:"search" required:"false" maxLength:"200" doc:"Matches quote number, order number, vendor name or customer name"`
	SortBy    string `query:"sort_by" required:"false" doc:"created_at, updated_at, expires_at, status or id"`
	SortOrder string `query:"sort_order" required:"false" doc:"asc or desc"`
	Page      int    `query:"page" required:"false" minimum:"0" default:"1"`
	PerPage   int    `query:"per_page" required:"false" minimum:"0" doc:"Page size, capped by the server"`
}

type ListQuotesOutput struct {
	Body QuoteListResponse
}

// --- Statistics ---

type StatisticsInput struct {
	Caller
	DateFrom string `query:"date_from" required:"false" doc:"Created on or after (YYYY-MM-DD or RFC 3339)"`
	DateTo   string `query:"date_to" required:"false" doc:"Created on or before; a bare date covers the whole day"`
}

type StatisticsOutput struct {
	Body StatisticsResponse
}

// --- Vendor responses ---

// AcceptQuoteBody is optional; a bare POST accepts the quote as offered.
type AcceptQuoteBody struct {
	Notes                 string `json:"notes,omitempty" maxLength:"2000"`
	EstimatedDeliveryDays *int   `json:"estimated_delivery_days,omitempty" minimum:"0"`
}

type AcceptQuoteInput struct {
	QuoteRefInput
	Body *AcceptQuoteBody `required:"false"`
}

type RejectQuoteInput struct {
	QuoteRefInput
	Body struct {
		Reason string `json:"reason,omitempty" maxLength:"2000" doc:"Why the vendor declines; required"`
	}
}

type CounterQuoteInput struct {
	QuoteRefInput
	Body struct {
		CounterOffer          string `json:"counter_offer" doc:"Decimal amount, must be positive"`
		Notes                 string `json:"notes,omitempty" maxLength:"2000"`
		EstimatedDeliveryDays *int   `json:"estimated_delivery_days,omitempty" minimum:"0"`
	}
}

// --- Buyer revisions ---

type UpdateDetailsInput struct {
	QuoteRefInput
	Body struct {
		EstimatedDeliveryDays *int           `json:"estimated_delivery_days,omitempty" minimum:"0"`
		Extra                 map[string]any `json:"extra,omitempty" doc:"Free-form attributes merged key by key"`
	}
}

type UpdateOfferInput struct {
	QuoteRefInput
	Body struct {
		InitialOffer string `json:"initial_offer" doc:"Decimal amount, must be positive"`
	}
}

// --- Extend ---

type ExtendQuoteInput struct {
	QuoteRefInput
	Body struct {
		NewExpiresAt time.Time `json:"new_expires_at" doc:"New expiry, must be in the future"`
	}
}

// Register adds all quote API routes to the Huma API.
func Register(api huma.API, svc *app.QuoteService) {
	h := &handler{svc: svc, now: time.Now}

	huma.Register(api, huma.Operation{
		OperationID:   "create-quote",
		Method:        http.MethodPost,
		Path:          "/api/v1/quotes",
		Summary:       "Create a draft quote",
		Tags:          []string{"Quotes"},
		DefaultStatus: http.StatusCreated,
	}, h.create)

	huma.Register(api, huma.Operation{
		OperationID: "list-quotes",
		Method:      http.MethodGet,
		Path:        "/api/v1/quotes",
		Summary:     "List quotes",
		Tags:        []string{"Quotes"},
	}, h.list)

	huma.Register(api, huma.Operation{
		OperationID: "quote-statistics",
		Method:      http.MethodGet,
		Path:        "/api/v1/quotes/statistics",
		Summary:     "Count quotes per status",
		Tags:        []string{"Quotes"},
	}, h.statistics)

	huma.Register(api, huma.Operation{
		OperationID: "get-quote",
		Method:      http.MethodGet,
		Path:        "/api/v1/quotes/{uuid}",
		Summary:     "Get a quote by UUID",
		Tags:        []string{"Quotes"},
	}, h.get)

	huma.Register(api, huma.Operation{
		OperationID: "send-quote",
		Method:      http.MethodPost,
		Path:        "/api/v1/quotes/{uuid}/send",
		Summary:     "Send a draft quote to its vendor",
		Tags:        []string{"Quotes"},
	}, h.send)

	huma.Register(api, huma.Operation{
		OperationID: "acknowledge-quote",
		Method:      http.MethodPost,
		Path:        "/api/v1/quotes/{uuid}/acknowledge",
		Summary:     "Record that the vendor is preparing a response",
		Tags:        []string{"Vendor responses"},
	}, h.acknowledge)

	huma.Register(api, huma.Operation{
		OperationID: "accept-quote",
		Method:      http.MethodPost,
		Path:        "/api/v1/quotes/{uuid}/accept",
		Summary:     "Accept a quote",
		Tags:        []string{"Vendor responses"},
	}, h.accept)

	huma.Register(api, huma.Operation{
		OperationID: "reject-quote",
		Method:      http.MethodPost,
		Path:        "/api/v1/quotes/{uuid}/reject",
		Summary:     "Reject a quote",
		Tags:        []string{"Vendor responses"},
	}, h.reject)

	huma.Register(api, huma.Operation{
		OperationID: "counter-quote",
		Method:      http.MethodPost,
		Path:        "/api/v1/quotes/{uuid}/counter",
		Summary:     "Counter a quote with a new amount",
		Tags:        []string{"Vendor responses"},
	}, h.counter)

	huma.Register(api, huma.Operation{
		OperationID: "update-quote-details",
		Method:      http.MethodPatch,
		Path:        "/api/v1/quotes/{uuid}/details",
		Summary:     "Update the details of an open quote",
		Tags:        []string{"Quotes"},
	}, h.updateDetails)

	huma.Register(api, huma.Operation{
		OperationID: "update-quote-offer",
		Method:      http.MethodPatch,
		Path:        "/api/v1/quotes/{uuid}/offer",
		Summary:     "Revise the offer of an open quote",
		Tags:        []string{"Quotes"},
	}, h.updateOffer)

	huma.Register(api, huma.Operation{
		OperationID: "extend-quote",
		Method:      http.MethodPost,
		Path:        "/api/v1/quotes/{uuid}/extend",
		Summary:     "Extend the expiry of a lapsing quote",
		Tags:        []string{"Quotes"},
	}, h.extend)
}

type handler struct {
	svc *app.QuoteService
	now func() time.Time
}

func (h *handler) reply(q domain.Quote) *QuoteOutput {
	return &QuoteOutput{Body: toQuoteResponse(q, h.now())}
}

func (h *handler) create(ctx context.Context, input *CreateQuoteInput) (*QuoteOutput, error) {
	offer, err := parseMoney("initial_offer", input.Body.InitialOffer)
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	q, err := h.svc.CreateQuote(ctx, app.CreateQuote{
		TenantID:       input.TenantID,
		OrderID:        input.Body.OrderID,
		VendorID:       input.Body.VendorID,
		ProductID:      input.Body.ProductID,
		Quantity:       input.Body.Quantity,
		Specifications: input.Body.Specifications,
		Notes:          input.Body.Notes,
		InitialOffer:   offer,
		Currency:       input.Body.Currency,
		ExpiresAt:      input.Body.ExpiresAt,
		UserID:         input.actor(),
	})
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	return h.reply(q), nil
}

func (h *handler) list(ctx context.Context, input *ListQuotesInput) (*ListQuotesOutput, error) {
	from, to, err := parseRange(input.DateFrom, input.DateTo)
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	cmd := app.ListQuotes{
		TenantID:  input.TenantID,
		DateFrom:  from,
		DateTo:    to,
		VendorID:  optionalID(input.VendorID),
		OrderID:   optionalID(input.OrderID),
		Search:    input.Search,
		SortBy:    input.SortBy,
		SortOrder: input.SortOrder,
		Page:      input.Page,
		PerPage:   input.PerPage,
	}
	if input.Status != "" {
		s := domain.Status(input.Status)
		cmd.Status = &s
	}

	result, err := h.svc.ListQuotes(ctx, cmd)
	if err != nil {
		return nil, toHumaError(ctx, err)
	}

	now := h.now()
	data := make([]QuoteResponse, len(result.Data))
	for i, s := range result.Data {
		data[i] = toSummaryResponse(s, now)
	}
	return &ListQuotesOutput{Body: QuoteListResponse{Data: data, Meta: result.Meta}}, nil
}

func (h *handler) statistics(ctx context.Context, input *StatisticsInput) (*StatisticsOutput, error) {
	from, to, err := parseRange(input.DateFrom, input.DateTo)
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	stats, err := h.svc.QuoteStatistics(ctx, app.QuoteStatistics{TenantID: input.TenantID, DateFrom: from, DateTo: to})
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	return &StatisticsOutput{Body: toStatisticsResponse(stats)}, nil
}

func (h *handler) get(ctx context.Context, input *QuoteRefInput) (*QuoteOutput, error) {
	id, err := parseQuoteUUID(input.UUID)
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	q, err := h.svc.GetQuote(ctx, app.GetQuote{QuoteUUID: id, TenantID: input.TenantID})
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	return h.reply(q), nil
}

func (h *handler) send(ctx context.Context, input *QuoteRefInput) (*QuoteOutput, error) {
	id, err := parseQuoteUUID(input.UUID)
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	q, err := h.svc.SendQuoteToVendor(ctx, app.SendQuoteToVendor{QuoteUUID: id, TenantID: input.TenantID, UserID: input.actor()})
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	return h.reply(q), nil
}

func (h *handler) acknowledge(ctx context.Context, input *QuoteRefInput) (*QuoteOutput, error) {
	id, err := parseQuoteUUID(input.UUID)
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	q, err := h.svc.AcknowledgeQuote(ctx, app.AcknowledgeQuote{QuoteUUID: id, TenantID: input.TenantID, VendorUserID: input.actor()})
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	return h.reply(q), nil
}

func (h *handler) accept(ctx context.Context, input *AcceptQuoteInput) (*QuoteOutput, error) {
	id, err := parseQuoteUUID(input.UUID)
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	cmd := app.AcceptQuote{
		QuoteUUID:    id,
		TenantID:     input.TenantID,
		VendorUserID: input.actor(),
	}
	if input.Body != nil {
		cmd.Notes = input.Body.Notes
		cmd.EstimatedDeliveryDays = input.Body.EstimatedDeliveryDays
	}
	q, err := h.svc.AcceptQuote(ctx, cmd)
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	return h.reply(q), nil
}

func (h *handler) reject(ctx context.Context, input *RejectQuoteInput) (*QuoteOutput, error) {
	id, err := parseQuoteUUID(input.UUID)
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	q, err := h.svc.RejectQuote(ctx, app.RejectQuote{
		QuoteUUID:    id,
		TenantID:     input.TenantID,
		VendorUserID: input.actor(),
		Reason:       input.Body.Reason,
	})
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	return h.reply(q), nil
}

func (h *handler) counter(ctx context.Context, input *CounterQuoteInput) (*QuoteOutput, error) {
	id, err := parseQuoteUUID(input.UUID)
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	amount, err := parseMoney("counter_offer", input.Body.CounterOffer)
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	if amount == nil {
		return nil, toHumaError(ctx, &domain.ValidationError{Field: "counter_offer", Message: "is required"})
	}
	q, err := h.svc.CounterQuote(ctx, app.CounterQuote{
		QuoteUUID:             id,
		TenantID:              input.TenantID,
		VendorUserID:          input.actor(),
		CounterOffer:          *amount,
		Notes:                 input.Body.Notes,
		EstimatedDeliveryDays: input.Body.EstimatedDeliveryDays,
	})
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	return h.reply(q), nil
}

func (h *handler) updateDetails(ctx context.Context, input *UpdateDetailsInput) (*QuoteOutput, error) {
	id, err := parseQuoteUUID(input.UUID)
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	q, err := h.svc.UpdateQuoteDetails(ctx, app.UpdateQuoteDetails{
		QuoteUUID:             id,
		TenantID:              input.TenantID,
		UserID:                input.actor(),
		EstimatedDeliveryDays: input.Body.EstimatedDeliveryDays,
		Extra:                 input.Body.Extra,
	})
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	return h.reply(q), nil
}

func (h *handler) updateOffer(ctx context.Context, input *UpdateOfferInput) (*QuoteOutput, error) {
	id, err := parseQuoteUUID(input.UUID)
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	offer, err := parseMoney("initial_offer", input.Body.InitialOffer)
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	if offer == nil {
		return nil, toHumaError(ctx, &domain.ValidationError{Field: "initial_offer", Message: "is required"})
	}
	q, err := h.svc.UpdateQuoteOffer(ctx, app.UpdateQuoteOffer{
		QuoteUUID: id,
		TenantID:  input.TenantID,
		UserID:    input.actor(),
		Offer:     *offer,
	})
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	return h.reply(q), nil
}

func (h *handler) extend(ctx context.Context, input *ExtendQuoteInput) (*QuoteOutput, error) {
	id, err := parseQuoteUUID(input.UUID)
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	q, err := h.svc.ExtendQuoteExpiration(ctx, app.ExtendQuoteExpiration{
		QuoteUUID:    id,
		TenantID:     input.TenantID,
		NewExpiresAt: input.Body.NewExpiresAt,
		UserID:       input.actor(),
	})
	if err != nil {
		return nil, toHumaError(ctx, err)
	}
	return h.reply(q), nil
}

func parseQuoteUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, &domain.ValidationError{Field: "uuid", Message: "must be a valid UUID"}
	}
	return id, nil
}

// parseMoney reads a decimal amount. An empty string means absent.
func parseMoney(field, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, &domain.ValidationError{Field: field, Message: "must be a decimal amount"}
	}
	return &d, nil
}

// parseRange reads optional date bounds. A bare date as the upper bound
// covers that whole day.
func parseRange(fromRaw, toRaw string) (from, to *time.Time, err error) {
	if fromRaw != "" {
		t, _, err := parseDate("date_from", fromRaw)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if toRaw != "" {
		t, dateOnly, err := parseDate("date_to", toRaw)
		if err != nil {
			return nil, nil, err
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Microsecond)
		}
		to = &t
	}
	return from, to, nil
}

func parseDate(field, s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	return time.Time{}, false, &domain.ValidationError{Field: field, Message: "must be YYYY-MM-DD or an RFC 3339 timestamp"}
}

func optionalID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(ctx context.Context, err error) error {
	var nfErr *domain.NotFoundError
	if errors.As(err, &nfErr) {
		return huma.Error404NotFound(nfErr.Resource + " not found")
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return huma.Error422UnprocessableEntity(vErr.Error(), &huma.ErrorDetail{
			Location: vErr.Field,
			Message:  vErr.Message,
		})
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error409Conflict(trErr.Error())
	}

	var expErr *domain.ExpiredError
	if errors.As(err, &expErr) {
		return huma.Error410Gone(expErr.Error())
	}

	logger.FromContext(ctx, nil).Error("request failed", zap.Error(err))
	return huma.Error500InternalServerError("internal server error")
}
