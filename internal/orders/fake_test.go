package orders

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/ArrzGeraldy/api-ecommerce/internal/apperr"
	"github.com/ArrzGeraldy/api-ecommerce/internal/auth"
	"github.com/ArrzGeraldy/api-ecommerce/internal/gateway"
)

var (
	alice = auth.Principal{ID: 1, Role: auth.RoleUser}
	bob   = auth.Principal{ID: 2, Role: auth.RoleUser}
	admin = auth.Principal{ID: 99, Role: auth.RoleAdmin}
)

func ptr[T any](v T) *T { return &v }

// fakeStore menyimpan semua di memori; setiap method tulis all-or-nothing.
type fakeStore struct {
	mu        sync.Mutex
	variants  map[int64]Variant
	addresses map[int64]Address
	orders    map[string]Order
	items     map[string][]OrderItem
	payments  map[string]Payment
	shippings map[string]Shipping
	nextItem  int64
	now       time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		variants:  map[int64]Variant{},
		addresses: map[int64]Address{},
		orders:    map[string]Order{},
		items:     map[string][]OrderItem{},
		payments:  map[string]Payment{},
		shippings: map[string]Shipping{},
		now:       time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) addVariant(v Variant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v.Product.ID == 0 {
		v.Product.ID = v.ProductID
	}
	v.IsActive = true
	f.variants[v.ID] = v
}

func (f *fakeStore) GetVariant(_ context.Context, id int64) (Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.variants[id]
	if !ok || !v.IsActive {
		return Variant{}, apperr.NotFound("Product variant not found")
	}
	return v, nil
}

func (f *fakeStore) CreateOrder(_ context.Context, o *Order, items []OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	need := map[int64]int{}
	for _, it := range items {
		need[it.ProductVariantID] += it.Quantity
	}
	for id, q := range need {
		v := f.variants[id]
		if v.Stock < q {
			return apperr.Invalid("Only %d left for variant %q", v.Stock, v.Name)
		}
	}
	for id, q := range need {
		v := f.variants[id]
		v.Stock -= q
		f.variants[id] = v
	}

	o.CreatedAt, o.UpdatedAt = f.now, f.now
	f.now = f.now.Add(time.Minute)
	for i := range items {
		f.nextItem++
		items[i].ID = f.nextItem
		items[i].OrderID = o.ID
	}
	f.orders[o.ID] = *o
	f.items[o.ID] = append([]OrderItem(nil), items...)
	return nil
}

func (f *fakeStore) GetOrder(_ context.Context, id string) (Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return Order{}, apperr.NotFound("Order not found")
	}
	return o, nil
}

func (f *fakeStore) detail(o Order) OrderDetail {
	d := OrderDetail{Order: o, Items: append([]OrderItem{}, f.items[o.ID]...)}
	if p, ok := f.payments[o.ID]; ok {
		d.Payment = &p
	}
	if s, ok := f.shippings[o.ID]; ok {
		d.Shipping = &s
	}
	return d
}

func (f *fakeStore) GetOrderDetail(ctx context.Context, id string) (OrderDetail, error) {
	o, err := f.GetOrder(ctx, id)
	if err != nil {
		return OrderDetail{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detail(o), nil
}

func (f *fakeStore) ListOrders(_ context.Context, lf ListFilter) ([]OrderDetail, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []Order
	for _, o := range f.orders {
		if lf.UserID != nil && o.UserID != *lf.UserID {
			continue
		}
		if lf.Status != "" && o.Status != lf.Status {
			continue
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start := (lf.Page - 1) * lf.Limit
	out := []OrderDetail{}
	for i := start; i < len(all) && i < start+lf.Limit; i++ {
		out = append(out, f.detail(all[i]))
	}
	return out, len(all), nil
}

func (f *fakeStore) PatchOrder(_ context.Context, id string, p Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return apperr.NotFound("Order not found")
	}
	pay, hasPay := f.payments[id]
	if p.PaymentStatus != nil && !hasPay {
		return apperr.NotFound("Payment not found")
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.TrackingNumber != nil {
		o.TrackingNumber = p.TrackingNumber
		if s, ok := f.shippings[id]; ok {
			s.TrackingNumber = *p.TrackingNumber
			f.shippings[id] = s
		}
	}
	if p.PaymentStatus != nil {
		pay.Status = *p.PaymentStatus
		f.payments[id] = pay
	}
	f.orders[id] = o
	return nil
}

func (f *fakeStore) GetAddress(_ context.Context, id int64) (Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.addresses[id]
	if !ok {
		return Address{}, apperr.NotFound("Address not found")
	}
	return a, nil
}

func (f *fakeStore) GetPayment(_ context.Context, orderID string) (Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[orderID]
	if !ok {
		return Payment{}, apperr.NotFound("Payment not found")
	}
	return p, nil
}

func (f *fakeStore) CreatePayment(_ context.Context, p Payment, s Shipping, addressID *int64) (Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[p.OrderID]
	if !ok {
		return Order{}, apperr.NotFound("Order not found")
	}
	if _, dup := f.payments[p.OrderID]; dup {
		return Order{}, apperr.Invalid("Payment already created")
	}
	o.FinalPrice = o.BasePrice + s.ShippingCost
	o.ShippingCourier = &s.ShippingCourier
	o.ShippingCost = &s.ShippingCost
	o.TrackingNumber = &s.TrackingNumber
	o.AddressID = addressID
	f.orders[o.ID] = o
	f.payments[p.OrderID] = p
	f.shippings[p.OrderID] = s
	return o, nil
}

func (f *fakeStore) SetPaymentVA(_ context.Context, orderID, va string, expiry time.Time) (Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[orderID]
	if !ok {
		return Payment{}, apperr.NotFound("Payment not found")
	}
	p.VANumber, p.ExpiryTime = &va, &expiry
	f.payments[orderID] = p
	return p, nil
}

func (f *fakeStore) ApplyStatus(_ context.Context, orderID string, pair StatusPair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return apperr.NotFound("Order not found")
	}
	p, ok := f.payments[orderID]
	if !ok {
		return apperr.NotFound("Payment not found")
	}
	o.Status, p.Status = pair.Order, pair.Payment
	f.orders[orderID], f.payments[orderID] = o, p
	return nil
}

type fakeGateway struct {
	mu    sync.Mutex
	resp  gateway.ChargeResponse
	err   error
	calls []gateway.ChargeRequest
}

func (g *fakeGateway) Charge(_ context.Context, req gateway.ChargeRequest) (gateway.ChargeResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	return g.resp, g.err
}

func acceptedCharge(va string) gateway.ChargeResponse {
	return gateway.ChargeResponse{
		StatusCode:  "201",
		FraudStatus: "accept",
		VANumber:    va,
		ExpiryTime:  time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
	}
}

type fakeCache struct {
	mu sync.Mutex
	m  map[string]CachedStatus
}

func newFakeCache() *fakeCache { return &fakeCache{m: map[string]CachedStatus{}} }

func (c *fakeCache) Get(_ context.Context, id string) (CachedStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.m[id]
	return s, ok
}

func (c *fakeCache) Set(_ context.Context, id string, s CachedStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[id] = s
}

func (c *fakeCache) Delete(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, id)
}

type published struct {
	Topic string
	Key   string
	Env   Envelope
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (p *fakePublisher) Publish(topic string, key, value []byte, _ ...kafkago.Header) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var env Envelope
	_ = json.Unmarshal(value, &env)
	p.msgs = append(p.msgs, published{Topic: topic, Key: string(key), Env: env})
}

func (p *fakePublisher) byTopic(topic string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, m := range p.msgs {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

type fixture struct {
	store *fakeStore
	gw    *fakeGateway
	cache *fakeCache
	pub   *fakePublisher
	svc   *Service
}

func newFixture() *fixture {
	f := &fixture{
		store: newFakeStore(),
		gw:    &fakeGateway{resp: acceptedCharge("88008")},
		cache: newFakeCache(),
		pub:   &fakePublisher{},
	}
	f.svc = NewService(f.store, f.gw, f.cache, f.pub, "order-api-test")

	f.store.addVariant(Variant{ID: 10, ProductID: 1, Name: "Red / L", Stock: 3, PriceDiff: 5000,
		Product: Product{Name: "Shirt", Price: 100000, Discount: ptr(10.0)}})
	f.store.addVariant(Variant{ID: 11, ProductID: 1, Name: "Blue / M", Stock: 10,
		Product: Product{Name: "Shirt", Price: 100000, Discount: ptr(10.0)}})
	f.store.addVariant(Variant{ID: 20, ProductID: 2, Name: "Default", Stock: 5, PriceDiff: -2000,
		Product: Product{Name: "Mug", Price: 25000}})
	f.store.addresses[7] = Address{ID: 7, UserID: alice.ID, RecipientName: "Alice", Phone: "0812",
		Province: "DKI Jakarta", City: "Jakarta", PostalCode: "10110"}
	f.store.addresses[8] = Address{ID: 8, UserID: bob.ID, RecipientName: "Bob", Phone: "0813",
		Province: "Jawa Barat", City: "Bandung", PostalCode: "40111"}
	return f
}
