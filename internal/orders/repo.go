package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArrzGeraldy/api-ecommerce/internal/apperr"
)

// Store adalah semua akses DB yang dibutuhkan order, payment dan webhook.
// Setiap method yang menulis lebih dari satu baris berjalan dalam satu transaksi.
type Store interface {
	VariantReader

	CreateOrder(ctx context.Context, o *Order, items []OrderItem) error
	GetOrder(ctx context.Context, id string) (Order, error)
	GetOrderDetail(ctx context.Context, id string) (OrderDetail, error)
	ListOrders(ctx context.Context, f ListFilter) ([]OrderDetail, int, error)
	PatchOrder(ctx context.Context, id string, p Patch) error

	GetAddress(ctx context.Context, id int64) (Address, error)
	GetPayment(ctx context.Context, orderID string) (Payment, error)
	CreatePayment(ctx context.Context, p Payment, s Shipping, addressID *int64) (Order, error)
	SetPaymentVA(ctx context.Context, orderID, vaNumber string, expiry time.Time) (Payment, error)
	ApplyStatus(ctx context.Context, orderID string, pair StatusPair) error
}

// Patch: nil = field tidak diubah.
type Patch struct {
	Status         *Status
	PaymentStatus  *PaymentStatus
	TrackingNumber *string
}

func (p Patch) Empty() bool {
	return p.Status == nil && p.PaymentStatus == nil && p.TrackingNumber == nil
}

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func (r *Repo) GetVariant(ctx context.Context, id int64) (Variant, error) {
	var v Variant
	err := r.DB.QueryRow(ctx, `
		SELECT v.id, v.product_id, v.name, v.stock, v.price_diff, v.is_active,
		       p.id, p.name, p.price, p.discount
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = $1 AND v.deleted_at IS NULL AND v.is_active AND p.deleted_at IS NULL`, id,
	).Scan(&v.ID, &v.ProductID, &v.Name, &v.Stock, &v.PriceDiff, &v.IsActive,
		&v.Product.ID, &v.Product.Name, &v.Product.Price, &v.Product.Discount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Variant{}, apperr.NotFound("Product variant not found")
	}
	if err != nil {
		return Variant{}, fmt.Errorf("query variant %d: %w", id, err)
	}
	return v, nil
}

// CreateOrder menyimpan header + items, sekaligus reserve stok dengan
// conditional decrement di transaksi yang sama (tidak bisa oversell).
func (r *Repo) CreateOrder(ctx context.Context, o *Order, items []OrderItem) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, user_id, status, base_price, final_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		o.ID, o.UserID, o.Status, o.BasePrice, o.FinalPrice,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range items {
		it := &items[i]
		ct, err := tx.Exec(ctx, `
			UPDATE product_variants SET stock = stock - $2
			WHERE id = $1 AND stock >= $2 AND deleted_at IS NULL AND is_active`,
			it.ProductVariantID, it.Quantity)
		if err != nil {
			return fmt.Errorf("reserve stock: %w", err)
		}
		if ct.RowsAffected() != 1 {
			return stockConflict(ctx, tx, it.ProductVariantID)
		}

		it.OrderID = o.ID
		if err := tx.QueryRow(ctx, `
			INSERT INTO order_items(order_id, product_variant_id, quantity, amount)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			o.ID, it.ProductVariantID, it.Quantity, it.Amount,
		).Scan(&it.ID); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO stock_reservations(order_id, product_variant_id, qty, status)
			VALUES ($1, $2, $3, 'RESERVED')
			ON CONFLICT (order_id, product_variant_id)
			DO UPDATE SET qty = stock_reservations.qty + EXCLUDED.qty`,
			o.ID, it.ProductVariantID, it.Quantity); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// stockConflict: stok berubah antara validasi dan insert (order lain menang).
func stockConflict(ctx context.Context, tx pgx.Tx, variantID int64) error {
	var name string
	var stock int
	err := tx.QueryRow(ctx, `SELECT name, stock FROM product_variants WHERE id = $1`, variantID).Scan(&name, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("Product variant not found")
	}
	if err != nil {
		return err
	}
	return apperr.Invalid("Only %d left for variant %q", stock, name)
}

const orderColumns = `id, user_id, address_id, status, base_price, final_price,
	shipping_courier, shipping_cost, tracking_number, created_at, updated_at`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(&o.ID, &o.UserID, &o.AddressID, &o.Status, &o.BasePrice, &o.FinalPrice,
		&o.ShippingCourier, &o.ShippingCost, &o.TrackingNumber, &o.CreatedAt, &o.UpdatedAt)
}

func (r *Repo) GetOrder(ctx context.Context, id string) (Order, error) {
	var o Order
	err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, apperr.NotFound("Order not found")
	}
	if err != nil {
		return Order{}, fmt.Errorf("query order: %w", err)
	}
	return o, nil
}

func (r *Repo) GetOrderDetail(ctx context.Context, id string) (OrderDetail, error) {
	o, err := r.GetOrder(ctx, id)
	if err != nil {
		return OrderDetail{}, err
	}
	details, err := r.attach(ctx, []Order{o})
	if err != nil {
		return OrderDetail{}, err
	}
	if err := r.attachShipping(ctx, &details[0]); err != nil {
		return OrderDetail{}, err
	}
	return details[0], nil
}

func (r *Repo) ListOrders(ctx context.Context, f ListFilter) ([]OrderDetail, int, error) {
	where := `WHERE ($1::bigint IS NULL OR user_id = $1) AND ($2 = '' OR status = $2)`

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, f.UserID, string(f.Status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders `+where+`
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		f.UserID, string(f.Status), f.Limit, (f.Page-1)*f.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var list []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, 0, err
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(list) == 0 {
		return []OrderDetail{}, total, nil
	}

	details, err := r.attach(ctx, list)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// attach mengisi items (dengan nama varian/produk) dan payment untuk banyak order sekaligus.
func (r *Repo) attach(ctx context.Context, list []Order) ([]OrderDetail, error) {
	ids := make([]string, len(list))
	idx := make(map[string]int, len(list))
	out := make([]OrderDetail, len(list))
	for i, o := range list {
		ids[i] = o.ID
		idx[o.ID] = i
		out[i] = OrderDetail{Order: o, Items: []OrderItem{}}
	}

	rows, err := r.DB.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_variant_id, oi.quantity, oi.amount, v.name, p.name
		FROM order_items oi
		JOIN product_variants v ON v.id = oi.product_variant_id
		JOIN products p ON p.id = v.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id`, ids)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductVariantID, &it.Quantity, &it.Amount,
			&it.VariantName, &it.ProductName); err != nil {
			rows.Close()
			return nil, err
		}
		d := &out[idx[it.OrderID]]
		d.Items = append(d.Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prow, err := r.DB.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer prow.Close()
	for prow.Next() {
		var p Payment
		if err := scanPayment(prow, &p); err != nil {
			return nil, err
		}
		out[idx[p.OrderID]].Payment = &p
	}
	return out, prow.Err()
}

func (r *Repo) attachShipping(ctx context.Context, d *OrderDetail) error {
	var s Shipping
	err := r.DB.QueryRow(ctx, `
		SELECT order_id, recipient_name, phone, province, city, postal_code, detail,
		       shipping_courier, shipping_cost, tracking_number
		FROM shippings WHERE order_id = $1`, d.ID,
	).Scan(&s.OrderID, &s.RecipientName, &s.Phone, &s.Province, &s.City, &s.PostalCode, &s.Detail,
		&s.ShippingCourier, &s.ShippingCost, &s.TrackingNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query shipping: %w", err)
	}
	d.Shipping = &s
	return nil
}

// PatchOrder: field order + status payment + tracking shipping dalam satu transaksi.
func (r *Repo) PatchOrder(ctx context.Context, id string, p Patch) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET
			status = COALESCE($2, status),
			tracking_number = COALESCE($3, tracking_number),
			updated_at = now()
		WHERE id = $1`, id, p.Status, p.TrackingNumber)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return apperr.NotFound("Order not found")
	}

	if p.TrackingNumber != nil {
		if _, err := tx.Exec(ctx, `UPDATE shippings SET tracking_number = $2 WHERE order_id = $1`,
			id, *p.TrackingNumber); err != nil {
			return fmt.Errorf("update shipping: %w", err)
		}
	}
	if p.PaymentStatus != nil {
		ct, err := tx.Exec(ctx, `UPDATE payments SET status = $2, updated_at = now() WHERE order_id = $1`,
			id, *p.PaymentStatus)
		if err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		if ct.RowsAffected() != 1 {
			return apperr.NotFound("Payment not found")
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) GetAddress(ctx context.Context, id int64) (Address, error) {
	var a Address
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, recipient_name, phone, province, city, postal_code, detail
		FROM addresses WHERE id = $1`, id,
	).Scan(&a.ID, &a.UserID, &a.RecipientName, &a.Phone, &a.Province, &a.City, &a.PostalCode, &a.Detail)
	if errors.Is(err, pgx.ErrNoRows) {
		return Address{}, apperr.NotFound("Address not found")
	}
	if err != nil {
		return Address{}, fmt.Errorf("query address: %w", err)
	}
	return a, nil
}

const paymentColumns = `order_id, method, bank, status, va_number, expiry_time, created_at, updated_at`

func scanPayment(row pgx.Row, p *Payment) error {
	return row.Scan(&p.OrderID, &p.Method, &p.Bank, &p.Status, &p.VANumber, &p.ExpiryTime, &p.CreatedAt, &p.UpdatedAt)
}

func (r *Repo) GetPayment(ctx context.Context, orderID string) (Payment, error) {
	var p Payment
	err := scanPayment(r.DB.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, apperr.NotFound("Payment not found")
	}
	if err != nil {
		return Payment{}, fmt.Errorf("query payment: %w", err)
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// CreatePayment: payment + shipping + final_price order, satu transaksi.
func (r *Repo) CreatePayment(ctx context.Context, p Payment, s Shipping, addressID *int64) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO payments(order_id, method, bank, status)
		VALUES ($1, $2, $3, $4)`, p.OrderID, p.Method, p.Bank, p.Status); err != nil {
		// request lain untuk order yang sama menang duluan
		if isUniqueViolation(err) {
			return Order{}, apperr.Invalid("Payment already created")
		}
		return Order{}, fmt.Errorf("insert payment: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO shippings(order_id, recipient_name, phone, province, city, postal_code, detail,
		                      shipping_courier, shipping_cost, tracking_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.OrderID, s.RecipientName, s.Phone, s.Province, s.City, s.PostalCode, s.Detail,
		s.ShippingCourier, s.ShippingCost, s.TrackingNumber); err != nil {
		return Order{}, fmt.Errorf("insert shipping: %w", err)
	}

	var o Order
	err = scanOrder(tx.QueryRow(ctx, `
		UPDATE orders SET
			final_price = base_price + $2,
			shipping_courier = $3,
			shipping_cost = $2,
			tracking_number = $4,
			address_id = $5,
			updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		s.OrderID, s.ShippingCost, s.ShippingCourier, s.TrackingNumber, addressID), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, apperr.NotFound("Order not found")
	}
	if err != nil {
		return Order{}, fmt.Errorf("update order price: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) SetPaymentVA(ctx context.Context, orderID, vaNumber string, expiry time.Time) (Payment, error) {
	var p Payment
	err := scanPayment(r.DB.QueryRow(ctx, `
		UPDATE payments SET va_number = $2, expiry_time = $3, updated_at = now()
		WHERE order_id = $1
		RETURNING `+paymentColumns, orderID, vaNumber, expiry), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, apperr.NotFound("Payment not found")
	}
	if err != nil {
		return Payment{}, fmt.Errorf("update payment va: %w", err)
	}
	return p, nil
}

// ApplyStatus menulis status order & payment bersamaan; gagal salah satu = rollback keduanya.
func (r *Repo) ApplyStatus(ctx context.Context, orderID string, pair StatusPair) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, orderID, pair.Order)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return apperr.NotFound("Order not found")
	}

	ct, err = tx.Exec(ctx, `UPDATE payments SET status = $2, updated_at = now() WHERE order_id = $1`, orderID, pair.Payment)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return apperr.NotFound("Payment not found")
	}
	return tx.Commit(ctx)
}
