package cart

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/ArrzGeraldy/api-ecommerce/internal/apperr"
	"github.com/ArrzGeraldy/api-ecommerce/internal/auth"
	"github.com/ArrzGeraldy/api-ecommerce/internal/orders"
	"github.com/ArrzGeraldy/api-ecommerce/internal/validation"
)

// Store menyimpan qty per varian untuk satu user.
type Store interface {
	Get(ctx context.Context, userID, variantID int64) (qty int, ok bool, err error)
	Set(ctx context.Context, userID, variantID int64, qty int) error
	Delete(ctx context.Context, userID, variantID int64) (bool, error)
	All(ctx context.Context, userID int64) (map[int64]int, error)
}

type ItemRequest struct {
	ProductVariantID int64 `json:"product_variant_id" validate:"gt=0"`
	Quantity         int   `json:"quantity" validate:"min=1"`
}

type Line struct {
	ProductVariantID int64  `json:"product_variant_id"`
	ProductName      string `json:"product_name"`
	VariantName      string `json:"variant_name"`
	Quantity         int    `json:"quantity"`
	Stock            int    `json:"stock"`
	Amount           int64  `json:"amount"`
}

type Cart struct {
	UserID int64  `json:"user_id"`
	Items  []Line `json:"items"`
	Total  int64  `json:"total"`
}

type Service struct {
	Store    Store
	Variants orders.VariantReader
}

func line(v orders.Variant, qty int) Line {
	return Line{
		ProductVariantID: v.ID,
		ProductName:      v.Product.Name,
		VariantName:      v.Name,
		Quantity:         qty,
		Stock:            v.Stock,
		Amount:           v.Amount(qty),
	}
}

// Add menambah qty. Kalau varian sudah ada di cart, yang dicek adalah total qty.
func (s *Service) Add(ctx context.Context, p auth.Principal, userID int64, req ItemRequest) (Line, error) {
	if !p.CanAccess(userID) {
		return Line{}, apperr.Forbidden()
	}
	if err := validation.Struct(req); err != nil {
		return Line{}, err
	}
	held, _, err := s.Store.Get(ctx, userID, req.ProductVariantID)
	if err != nil {
		return Line{}, fmt.Errorf("cart get: %w", err)
	}
	v, err := orders.CheckStock(ctx, s.Variants, req.ProductVariantID, req.Quantity, held)
	if err != nil {
		return Line{}, err
	}
	qty := held + req.Quantity
	if err := s.Store.Set(ctx, userID, v.ID, qty); err != nil {
		return Line{}, fmt.Errorf("cart set: %w", err)
	}
	return line(v, qty), nil
}

// Update mengganti qty item yang sudah ada di cart.
func (s *Service) Update(ctx context.Context, p auth.Principal, userID int64, req ItemRequest) (Line, error) {
	if !p.CanAccess(userID) {
		return Line{}, apperr.Forbidden()
	}
	if err := validation.Struct(req); err != nil {
		return Line{}, err
	}
	_, ok, err := s.Store.Get(ctx, userID, req.ProductVariantID)
	if err != nil {
		return Line{}, fmt.Errorf("cart get: %w", err)
	}
	if !ok {
		return Line{}, apperr.NotFound("Cart item not found")
	}
	v, err := orders.CheckStock(ctx, s.Variants, req.ProductVariantID, req.Quantity, 0)
	if err != nil {
		return Line{}, err
	}
	if err := s.Store.Set(ctx, userID, v.ID, req.Quantity); err != nil {
		return Line{}, fmt.Errorf("cart set: %w", err)
	}
	return line(v, req.Quantity), nil
}

func (s *Service) Remove(ctx context.Context, p auth.Principal, userID, variantID int64) error {
	if !p.CanAccess(userID) {
		return apperr.Forbidden()
	}
	ok, err := s.Store.Delete(ctx, userID, variantID)
	if err != nil {
		return fmt.Errorf("cart delete: %w", err)
	}
	if !ok {
		return apperr.NotFound("Cart item not found")
	}
	return nil
}

// List mengembalikan isi cart dengan harga terkini. Varian yang sudah tidak
// tersedia dibuang dari cart.
func (s *Service) List(ctx context.Context, p auth.Principal, userID int64) (Cart, error) {
	if !p.CanAccess(userID) {
		return Cart{}, apperr.Forbidden()
	}
	all, err := s.Store.All(ctx, userID)
	if err != nil {
		return Cart{}, fmt.Errorf("cart list: %w", err)
	}
	ids := make([]int64, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	c := Cart{UserID: userID, Items: []Line{}}
	for _, id := range ids {
		v, err := s.Variants.GetVariant(ctx, id)
		if apperr.Is(err, apperr.KindNotFound) {
			if _, err := s.Store.Delete(ctx, userID, id); err != nil {
				log.Printf("cart prune user=%d variant=%d: %v", userID, id, err)
			}
			continue
		}
		if err != nil {
			return Cart{}, err
		}
		l := line(v, all[id])
		c.Items = append(c.Items, l)
		c.Total += l.Amount
	}
	return c, nil
}
