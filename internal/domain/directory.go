package domain

// Order, Vendor and Product are owned by other parts of the platform.
// Quotes only reference them, always within a single tenant.

// Order is the customer order a quote is negotiated for.
type Order struct {
	ID           int64
	TenantID     int64
	OrderNumber  string
	CustomerName string
}

// Vendor is the supplier asked to price the order.
type Vendor struct {
	ID       int64
	TenantID int64
	Name     string
	Email    string
}

// Product is the catalog item being quoted.
type Product struct {
	ID       int64
	TenantID int64
	Name     string
	SKU      string
}
