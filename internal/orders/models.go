package orders

import "time"

type Product struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Discount *float64 `json:"discount"` // persen, NULL = tanpa diskon
}

type Variant struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Stock     int     `json:"stock"`
	PriceDiff int64   `json:"price_diff"`
	IsActive  bool    `json:"is_active"`
	Product   Product `json:"product"`
}

// Amount menghitung total baris untuk qty unit varian ini.
func (v Variant) Amount(qty int) int64 {
	return LineAmount(v.Product.Discount, v.Product.Price, v.PriceDiff, qty)
}

type Address struct {
	ID            int64   `json:"id"`
	UserID        int64   `json:"user_id"`
	RecipientName string  `json:"recipient_name"`
	Phone         string  `json:"phone"`
	Province      string  `json:"province"`
	City          string  `json:"city"`
	PostalCode    string  `json:"postal_code"`
	Detail        *string `json:"detail"`
}

type Order struct {
	ID              string    `json:"id"`
	UserID          int64     `json:"user_id"`
	AddressID       *int64    `json:"address_id"`
	Status          Status    `json:"status"` // lihat status.go
	BasePrice       int64     `json:"base_price"`
	FinalPrice      int64     `json:"final_price"`
	ShippingCourier *string   `json:"shipping_courier"`
	ShippingCost    *int64    `json:"shipping_cost"`
	TrackingNumber  *string   `json:"tracking_number"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID               int64  `json:"id"`
	OrderID          string `json:"order_id"`
	ProductVariantID int64  `json:"product_variant_id"`
	Quantity         int    `json:"quantity"`
	Amount           int64  `json:"amount"`
	VariantName      string `json:"variant_name,omitempty"`
	ProductName      string `json:"product_name,omitempty"`
}

type Payment struct {
	OrderID    string        `json:"order_id"`
	Method     string        `json:"method"`
	Bank       string        `json:"bank"`
	Status     PaymentStatus `json:"status"`
	VANumber   *string       `json:"va_number"`
	ExpiryTime *time.Time    `json:"expiry_time"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type Shipping struct {
	OrderID         string  `json:"order_id"`
	RecipientName   string  `json:"recipient_name"`
	Phone           string  `json:"phone"`
	Province        string  `json:"province"`
	City            string  `json:"city"`
	PostalCode      string  `json:"postal_code"`
	Detail          *string `json:"detail"`
	ShippingCourier string  `json:"shipping_courier"`
	ShippingCost    int64   `json:"shipping_cost"`
	TrackingNumber  string  `json:"tracking_number"`
}

// OrderDetail adalah bentuk order yang dikembalikan oleh semua endpoint baca.
type OrderDetail struct {
	Order
	Items    []OrderItem `json:"order_items"`
	Payment  *Payment    `json:"payment"`
	Shipping *Shipping   `json:"shipping"`
}

type ListFilter struct {
	UserID *int64
	Status Status
	Page   int
	Limit  int
}

type Page struct {
	Data        []OrderDetail `json:"data"`
	TotalPage   int           `json:"total_page"`
	CurrentPage int           `json:"current_page"`
	TotalData   int           `json:"total_data"`
	PerPage     int           `json:"per_page"`
}
