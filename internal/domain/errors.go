package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrNotFound      = errors.New("not found")
	ErrNotYetExpired = errors.New("quote has not reached its expiry")
)

// NotFoundError is returned when a tenant-scoped lookup finds nothing.
// A record owned by another tenant is reported the same way.
type NotFoundError struct {
	Resource string
	ID       string
	TenantID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found for tenant %d", e.Resource, e.ID, e.TenantID)
}

// Is lets callers match any NotFoundError with errors.Is(err, ErrNotFound).
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError is returned when input is rejected before the quote is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TransitionError is returned when an action is not allowed from the current status.
type TransitionError struct {
	Action  Action
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("action %q is not valid from status %q", e.Action, e.Current)
}

// ExpiredError is returned when a vendor action arrives after the quote expired.
type ExpiredError struct {
	QuoteUUID uuid.UUID
	ExpiresAt time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("quote %s expired at %s", e.QuoteUUID, e.ExpiresAt.UTC().Format(time.RFC3339))
}

// NotificationError wraps a failed notification attempt. It is logged, never returned.
type NotificationError struct {
	Kind      NotificationKind
	QuoteUUID uuid.UUID
	Err       error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s notification for quote %s: %v", e.Kind, e.QuoteUUID, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}
