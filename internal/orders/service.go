package orders

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/ArrzGeraldy/api-ecommerce/internal/apperr"
	"github.com/ArrzGeraldy/api-ecommerce/internal/auth"
	"github.com/ArrzGeraldy/api-ecommerce/internal/validation"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type ItemInput struct {
	ProductVariantID int64 `json:"product_variant_id" validate:"gt=0"`
	Quantity         int   `json:"quantity" validate:"min=1"`
}

type CreateOrderRequest struct {
	Items []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// PatchRequest: string kosong diperlakukan sama dengan field tidak dikirim.
type PatchRequest struct {
	Status         *string `json:"status"`
	PaymentStatus  *string `json:"payment_status"`
	TrackingNumber *string `json:"tracking_number"`
}

// CachedStatus disimpan di Redis: order_status:{order_id}.
type CachedStatus struct {
	UserID        int64         `json:"user_id"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
}

type StatusCache interface {
	Get(ctx context.Context, orderID string) (CachedStatus, bool)
	Set(ctx context.Context, orderID string, s CachedStatus)
	Delete(ctx context.Context, orderID string)
}

type Service struct {
	Store        Store
	Gateway      Charger
	Cache        StatusCache // optional
	Events       Publisher   // optional
	ServiceName  string
	ShippingCost int64
}

func NewService(store Store, gw Charger, cache StatusCache, events Publisher, serviceName string) *Service {
	return &Service{
		Store:        store,
		Gateway:      gw,
		Cache:        cache,
		Events:       events,
		ServiceName:  serviceName,
		ShippingCost: DefaultShippingCost,
	}
}

// CreateOrder memvalidasi stok & menghitung harga tiap item, lalu menyimpan
// order pending beserta item-nya secara atomik.
func (s *Service) CreateOrder(ctx context.Context, p auth.Principal, req CreateOrderRequest) (OrderDetail, error) {
	if err := validation.Struct(req); err != nil {
		return OrderDetail{}, err
	}

	items := make([]OrderItem, 0, len(req.Items))
	var basePrice int64
	for _, in := range req.Items {
		v, err := CheckStock(ctx, s.Store, in.ProductVariantID, in.Quantity, 0)
		if err != nil {
			return OrderDetail{}, err
		}
		amount := v.Amount(in.Quantity)
		items = append(items, OrderItem{
			ProductVariantID: v.ID,
			Quantity:         in.Quantity,
			Amount:           amount,
			VariantName:      v.Name,
			ProductName:      v.Product.Name,
		})
		basePrice += amount
	}

	o := Order{
		ID:         uuid.NewString(),
		UserID:     p.ID,
		Status:     StatusPending,
		BasePrice:  basePrice,
		FinalPrice: basePrice,
	}
	if err := s.Store.CreateOrder(ctx, &o, items); err != nil {
		return OrderDetail{}, fmt.Errorf("create order: %w", err)
	}
	log.Printf("order created id=%s user=%d items=%d base_price=%d", o.ID, o.UserID, len(items), o.BasePrice)

	s.cacheStatus(ctx, o.ID, CachedStatus{UserID: o.UserID, Status: o.Status})

	payload := OrderCreatedPayload{OrderID: o.ID, UserID: o.UserID, BasePrice: o.BasePrice}
	for _, it := range items {
		payload.Items = append(payload.Items, ItemAmount{ProductVariantID: it.ProductVariantID, Qty: it.Quantity, Amount: it.Amount})
	}
	publish(ctx, s.Events, TopicOrderCreated, EventOrderCreated, s.ServiceName, o.ID, payload)

	return OrderDetail{Order: o, Items: items}, nil
}

func (s *Service) FindByID(ctx context.Context, p auth.Principal, id string) (OrderDetail, error) {
	d, err := s.Store.GetOrderDetail(ctx, id)
	if err != nil {
		return OrderDetail{}, err
	}
	if !p.CanAccess(d.UserID) {
		return OrderDetail{}, apperr.Forbidden()
	}
	return d, nil
}

type ListQuery struct {
	Status string
	Page   int
	Limit  int
}

func (q ListQuery) filter() (ListFilter, error) {
	f := ListFilter{Page: q.Page, Limit: q.Limit}
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Page < 0 {
		return ListFilter{}, apperr.Invalid("page must be a positive number")
	}
	if f.Limit < 0 || f.Limit > MaxLimit {
		return ListFilter{}, apperr.Invalid("limit must be between 1 and %d", MaxLimit)
	}
	if q.Status != "" {
		st, ok := ParseStatus(q.Status)
		if !ok {
			return ListFilter{}, apperr.Invalid("Invalid value status")
		}
		f.Status = st
	}
	return f, nil
}

// FindAll: admin saja.
func (s *Service) FindAll(ctx context.Context, p auth.Principal, q ListQuery) (Page, error) {
	if !p.IsAdmin() {
		return Page{}, apperr.Forbidden()
	}
	f, err := q.filter()
	if err != nil {
		return Page{}, err
	}
	return s.list(ctx, f)
}

func (s *Service) FindByUser(ctx context.Context, p auth.Principal, userID int64, q ListQuery) (Page, error) {
	if !p.CanAccess(userID) {
		return Page{}, apperr.Forbidden()
	}
	f, err := q.filter()
	if err != nil {
		return Page{}, err
	}
	f.UserID = &userID
	return s.list(ctx, f)
}

func (s *Service) list(ctx context.Context, f ListFilter) (Page, error) {
	data, total, err := s.Store.ListOrders(ctx, f)
	if err != nil {
		return Page{}, fmt.Errorf("list orders: %w", err)
	}
	return Page{
		Data:        data,
		TotalPage:   int(math.Ceil(float64(total) / float64(f.Limit))),
		CurrentPage: f.Page,
		TotalData:   total,
		PerPage:     f.Limit,
	}, nil
}

func (r PatchRequest) parse() (Patch, error) {
	var out Patch
	if v := trimmed(r.Status); v != "" {
		st, ok := ParseStatus(v)
		if !ok {
			return Patch{}, apperr.Invalid("Status not allowed")
		}
		out.Status = &st
	}
	if v := trimmed(r.PaymentStatus); v != "" {
		st, ok := ParsePaymentStatus(v)
		if !ok {
			return Patch{}, apperr.Invalid("Payment status not allowed")
		}
		out.PaymentStatus = &st
	}
	if v := trimmed(r.TrackingNumber); v != "" {
		out.TrackingNumber = &v
	}
	return out, nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// PatchOrder adalah override manual oleh admin; tidak ada guard transisi status.
func (s *Service) PatchOrder(ctx context.Context, p auth.Principal, id string, req PatchRequest) (OrderDetail, error) {
	if !p.IsAdmin() {
		return OrderDetail{}, apperr.Forbidden()
	}
	patch, err := req.parse()
	if err != nil {
		return OrderDetail{}, err
	}
	if patch.Empty() {
		return OrderDetail{}, apperr.Invalid("No valid fields to update")
	}
	o, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return OrderDetail{}, err
	}
	// stok order canceled sudah dilepas consumer inventory, jadi tidak bisa dibuka lagi
	if o.Status == StatusCanceled && patch.Status != nil && *patch.Status != StatusCanceled {
		return OrderDetail{}, apperr.Invalid("Canceled order cannot be reopened")
	}
	if err := s.Store.PatchOrder(ctx, id, patch); err != nil {
		return OrderDetail{}, fmt.Errorf("patch order: %w", err)
	}
	s.invalidate(ctx, id)

	d, err := s.Store.GetOrderDetail(ctx, id)
	if err != nil {
		return OrderDetail{}, err
	}
	if patch.Status != nil || patch.PaymentStatus != nil {
		ev := OrderStatusChangedPayload{OrderID: id, OrderStatus: d.Status, Source: "admin"}
		if d.Payment != nil {
			ev.PaymentStatus = d.Payment.Status
		}
		publish(ctx, s.Events, TopicOrderStatusChanged, EventOrderStatusChanged, s.ServiceName, id, ev)
	}
	return d, nil
}

// GetStatus membaca status lewat cache Redis, fallback ke DB.
func (s *Service) GetStatus(ctx context.Context, p auth.Principal, id string) (CachedStatus, error) {
	if s.Cache != nil {
		if cs, ok := s.Cache.Get(ctx, id); ok {
			if !p.CanAccess(cs.UserID) {
				return CachedStatus{}, apperr.Forbidden()
			}
			return cs, nil
		}
	}
	o, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return CachedStatus{}, err
	}
	if !p.CanAccess(o.UserID) {
		return CachedStatus{}, apperr.Forbidden()
	}
	cs := CachedStatus{UserID: o.UserID, Status: o.Status}
	if pay, err := s.Store.GetPayment(ctx, id); err == nil {
		cs.PaymentStatus = pay.Status
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return CachedStatus{}, err
	}
	s.cacheStatus(ctx, id, cs)
	return cs, nil
}

func (s *Service) cacheStatus(ctx context.Context, id string, cs CachedStatus) {
	if s.Cache != nil {
		s.Cache.Set(ctx, id, cs)
	}
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.Cache != nil {
		s.Cache.Delete(ctx, id)
	}
}
