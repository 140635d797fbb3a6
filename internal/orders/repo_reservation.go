package orders

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationRepo struct{ DB *pgxpool.Pool }

// ReleaseAll mengembalikan stok semua reservation RESERVED milik order lalu
// menandainya RELEASED. Panggilan ulang tidak melakukan apa-apa.
func (r *ReservationRepo) ReleaseAll(ctx context.Context, orderID string) (int, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT product_variant_id, qty FROM stock_reservations
		WHERE order_id = $1 AND status = 'RESERVED'
		FOR UPDATE`, orderID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var recs []ItemQty
	for rows.Next() {
		var x ItemQty
		if err := rows.Scan(&x.ProductVariantID, &x.Qty); err != nil {
			return 0, err
		}
		recs = append(recs, x)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, x := range recs {
		if _, err := tx.Exec(ctx, `UPDATE product_variants SET stock = stock + $2 WHERE id = $1`,
			x.ProductVariantID, x.Qty); err != nil {
			return 0, err
		}
	}
	if _, err := tx.Exec(ctx, `
		UPDATE stock_reservations SET status = 'RELEASED', released_at = now()
		WHERE order_id = $1 AND status = 'RESERVED'`, orderID); err != nil {
		return 0, err
	}
	return len(recs), tx.Commit(ctx)
}
