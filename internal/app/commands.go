package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

// CreateQuote opens a draft quote for one order line.
type CreateQuote struct {
	TenantID       int64            `json:"tenant_id" validate:"required,gt=0"`
	OrderID        int64            `json:"order_id" validate:"required,gt=0"`
	VendorID       int64            `json:"vendor_id" validate:"required,gt=0"`
	ProductID      int64            `json:"product_id" validate:"required,gt=0"`
	Quantity       int              `json:"quantity" validate:"required,gt=0"`
	Specifications map[string]any   `json:"specifications"`
	Notes          string           `json:"notes" validate:"max=2000"`
	InitialOffer   *decimal.Decimal `json:"initial_offer"`
	Currency       string           `json:"currency" validate:"omitempty,len=3"`
	ExpiresAt      *time.Time       `json:"expires_at"`
	UserID         *int64           `json:"user_id"`
}

// SendQuoteToVendor moves a draft to sent and notifies the vendor.
type SendQuoteToVendor struct {
	QuoteUUID uuid.UUID `json:"quote_uuid" validate:"required"`
	TenantID  int64     `json:"tenant_id" validate:"required,gt=0"`
	UserID    *int64    `json:"user_id"`
}

// AcknowledgeQuote records that the vendor is preparing a response.
type AcknowledgeQuote struct {
	QuoteUUID    uuid.UUID `json:"quote_uuid" validate:"required"`
	TenantID     int64     `json:"tenant_id" validate:"required,gt=0"`
	VendorUserID *int64    `json:"vendor_user_id"`
}

// AcceptQuote records the vendor's acceptance.
type AcceptQuote struct {
	QuoteUUID             uuid.UUID `json:"quote_uuid" validate:"required"`
	TenantID              int64     `json:"tenant_id" validate:"required,gt=0"`
	VendorUserID          *int64    `json:"vendor_user_id"`
	Notes                 string    `json:"notes" validate:"max=2000"`
	EstimatedDeliveryDays *int      `json:"estimated_delivery_days" validate:"omitempty,gte=0"`
}

// RejectQuote records the vendor's refusal. Reason is mandatory.
type RejectQuote struct {
	QuoteUUID    uuid.UUID `json:"quote_uuid" validate:"required"`
	TenantID     int64     `json:"tenant_id" validate:"required,gt=0"`
	VendorUserID *int64    `json:"vendor_user_id"`
	Reason       string    `json:"reason" validate:"max=2000"`
}

// CounterQuote records the vendor's counter offer.
type CounterQuote struct {
	QuoteUUID             uuid.UUID       `json:"quote_uuid" validate:"required"`
	TenantID              int64           `json:"tenant_id" validate:"required,gt=0"`
	VendorUserID          *int64          `json:"vendor_user_id"`
	CounterOffer          decimal.Decimal `json:"counter_offer"`
	Notes                 string          `json:"notes" validate:"max=2000"`
	EstimatedDeliveryDays *int            `json:"estimated_delivery_days" validate:"omitempty,gte=0"`
}

// ExtendQuoteExpiration pushes back the expiry of a quote that is about to lapse.
type ExtendQuoteExpiration struct {
	QuoteUUID    uuid.UUID `json:"quote_uuid" validate:"required"`
	TenantID     int64     `json:"tenant_id" validate:"required,gt=0"`
	NewExpiresAt time.Time `json:"new_expires_at" validate:"required"`
	UserID       *int64    `json:"user_id"`
}

// UpdateQuoteDetails merges buyer-side details into an open quote.
type UpdateQuoteDetails struct {
	QuoteUUID             uuid.UUID      `json:"quote_uuid" validate:"required"`
	TenantID              int64          `json:"tenant_id" validate:"required,gt=0"`
	UserID                *int64         `json:"user_id"`
	EstimatedDeliveryDays *int           `json:"estimated_delivery_days" validate:"omitempty,gte=0"`
	Extra                 map[string]any `json:"extra"`
}

// UpdateQuoteOffer revises the buyer's offer on an open quote.
type UpdateQuoteOffer struct {
	QuoteUUID uuid.UUID       `json:"quote_uuid" validate:"required"`
	TenantID  int64           `json:"tenant_id" validate:"required,gt=0"`
	UserID    *int64          `json:"user_id"`
	Offer     decimal.Decimal `json:"initial_offer"`
}

// GetQuote loads one quote.
type GetQuote struct {
	QuoteUUID uuid.UUID `json:"quote_uuid" validate:"required"`
	TenantID  int64     `json:"tenant_id" validate:"required,gt=0"`
}

// ListQuotes is a filtered, paginated listing request.
type ListQuotes struct {
	TenantID  int64          `json:"tenant_id" validate:"required,gt=0"`
	Status    *domain.Status `json:"status"`
	DateFrom  *time.Time     `json:"date_from"`
	DateTo    *time.Time     `json:"date_to"`
	VendorID  *int64         `json:"vendor_id"`
	OrderID   *int64         `json:"order_id"`
	Search    string         `json:"search" validate:"max=200"`
	SortBy    string         `json:"sort_by"`
	SortOrder string         `json:"sort_order" validate:"omitempty,oneof=asc desc ASC DESC"`
	Page      int            `json:"page" validate:"gte=0"`
	PerPage   int            `json:"per_page" validate:"gte=0"`
}

// QuoteStatistics summarizes a tenant's quotes over an optional period.
type QuoteStatistics struct {
	TenantID int64      `json:"tenant_id" validate:"required,gt=0"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// validateCommand reports the first failing field as a *domain.ValidationError.
func validateCommand(cmd any) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return fmt.Errorf("validating command: %w", err)
	}
	fe := errs[0]
	return &domain.ValidationError{Field: fe.Field(), Message: validationMessage(fe)}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return "is invalid"
}
