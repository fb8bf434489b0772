package domain

import "time"

// SortField is a column quotes can be ordered by.
type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortUpdatedAt SortField = "updated_at"
	SortExpiresAt SortField = "expires_at"
	SortStatus    SortField = "status"
	SortQuoteID   SortField = "id"
)

// SortFields lists the columns a listing may be sorted by.
var SortFields = []SortField{SortCreatedAt, SortUpdatedAt, SortExpiresAt, SortStatus, SortQuoteID}

// IsValid reports whether f is an allowed sort column.
func (f SortField) IsValid() bool {
	for _, known := range SortFields {
		if f == known {
			return true
		}
	}
	return false
}

// SortOrder is the listing direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// QuoteFilter narrows a listing. Nil or empty fields are ignored.
type QuoteFilter struct {
	Status   *Status
	DateFrom *time.Time
	DateTo   *time.Time
	VendorID *int64
	OrderID  *int64
	// Search matches quote number, order number, vendor name and customer name.
	Search string
}

// ListQuery is a tenant-scoped, paginated listing request.
type ListQuery struct {
	TenantID  int64
	Filter    QuoteFilter
	SortBy    SortField
	SortOrder SortOrder
	Page      int
	PerPage   int
}

// Offset returns the number of rows to skip.
func (q ListQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PerPage
}

// QuoteSummary is a listed quote together with the names shown beside it.
type QuoteSummary struct {
	Quote        Quote
	OrderNumber  string
	CustomerName string
	VendorName   string
}

// QuotePage is one page of a listing plus the total match count.
type QuotePage struct {
	Items []QuoteSummary
	Total int
}

// StatusCounts maps each status to its number of quotes.
type StatusCounts map[Status]int

// Total returns the sum over all statuses.
func (c StatusCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}
