package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

// Compile-time check: Directory implements domain.Directory.
var _ domain.Directory = (*Directory)(nil)

// Directory reads orders, vendors and products, always within one tenant.
type Directory struct {
	db *sql.DB
}

func (d *Directory) FindOrder(ctx context.Context, id, tenantID int64) (domain.Order, bool, error) {
	var o domain.Order
	err := conn(ctx, d.db).QueryRowContext(ctx,
		`SELECT id, tenant_id, order_number, customer_name FROM orders WHERE id = ? AND tenant_id = ?`,
		id, tenantID,
	).Scan(&o.ID, &o.TenantID, &o.OrderNumber, &o.CustomerName)
	return found(o, err, "order")
}

func (d *Directory) FindVendor(ctx context.Context, id, tenantID int64) (domain.Vendor, bool, error) {
	var v domain.Vendor
	err := conn(ctx, d.db).QueryRowContext(ctx,
		`SELECT id, tenant_id, name, email FROM vendors WHERE id = ? AND tenant_id = ?`,
		id, tenantID,
	).Scan(&v.ID, &v.TenantID, &v.Name, &v.Email)
	return found(v, err, "vendor")
}

func (d *Directory) FindProduct(ctx context.Context, id, tenantID int64) (domain.Product, bool, error) {
	var p domain.Product
	err := conn(ctx, d.db).QueryRowContext(ctx,
		`SELECT id, tenant_id, name, sku FROM products WHERE id = ? AND tenant_id = ?`,
		id, tenantID,
	).Scan(&p.ID, &p.TenantID, &p.Name, &p.SKU)
	return found(p, err, "product")
}

func found[T any](v T, err error, resource string) (T, bool, error) {
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		var zero T
		return zero, false, fmt.Errorf("scanning %s: %w", resource, err)
	}
	return v, true, nil
}

// SaveOrder inserts an order. A zero ID lets SQLite assign one.
func (d *Directory) SaveOrder(ctx context.Context, o domain.Order) (domain.Order, error) {
	id, err := d.insert(ctx, "order",
		`INSERT INTO orders (id, tenant_id, order_number, customer_name) VALUES (NULLIF(?, 0), ?, ?, ?) RETURNING id`,
		o.ID, o.TenantID, o.OrderNumber, o.CustomerName,
	)
	o.ID = id
	return o, err
}

// SaveVendor inserts a vendor. A zero ID lets SQLite assign one.
func (d *Directory) SaveVendor(ctx context.Context, v domain.Vendor) (domain.Vendor, error) {
	id, err := d.insert(ctx, "vendor",
		`INSERT INTO vendors (id, tenant_id, name, email) VALUES (NULLIF(?, 0), ?, ?, ?) RETURNING id`,
		v.ID, v.TenantID, v.Name, v.Email,
	)
	v.ID = id
	return v, err
}

// SaveProduct inserts a product. A zero ID lets SQLite assign one.
func (d *Directory) SaveProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	id, err := d.insert(ctx, "product",
		`INSERT INTO products (id, tenant_id, name, sku) VALUES (NULLIF(?, 0), ?, ?, ?) RETURNING id`,
		p.ID, p.TenantID, p.Name, p.SKU,
	)
	p.ID = id
	return p, err
}

func (d *Directory) insert(ctx context.Context, resource, query string, args ...any) (int64, error) {
	var id int64
	if err := conn(ctx, d.db).QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, &domain.ValidationError{Field: "id", Message: fmt.Sprintf("%s %v already exists", resource, args[0])}
		}
		return 0, fmt.Errorf("inserting %s: %w", resource, err)
	}
	return id, nil
}
