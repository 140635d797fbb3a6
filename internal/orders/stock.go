package orders

import (
	"context"

	"github.com/ArrzGeraldy/api-ecommerce/internal/apperr"
)

type VariantReader interface {
	// GetVariant hanya mengembalikan varian aktif yang belum di-soft-delete.
	GetVariant(ctx context.Context, id int64) (Variant, error)
}

// CheckStock memvalidasi qty terhadap stok varian.
// held > 0 berarti baris yang sudah ada (merge cart): yang dicek adalah held+requested.
func CheckStock(ctx context.Context, variants VariantReader, variantID int64, requested, held int) (Variant, error) {
	v, err := variants.GetVariant(ctx, variantID)
	if err != nil {
		return Variant{}, err
	}
	if held > 0 {
		if held+requested > v.Stock {
			return Variant{}, apperr.Invalid("You already have %d in cart. Adding %d exceeds stock limit.", held, requested)
		}
		return v, nil
	}
	if requested > v.Stock {
		return Variant{}, apperr.Invalid("Only %d left for variant %q", v.Stock, v.Name)
	}
	return v, nil
}
