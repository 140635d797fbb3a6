package orders

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"

	"github.com/ArrzGeraldy/api-ecommerce/internal/apperr"
	"github.com/ArrzGeraldy/api-ecommerce/internal/auth"
	"github.com/ArrzGeraldy/api-ecommerce/internal/gateway"
	"github.com/ArrzGeraldy/api-ecommerce/internal/validation"
)

const (
	// Ongkir masih flat sampai integrasi kurir tersedia.
	DefaultShippingCost int64 = 10000

	PaymentMethodBankTransfer = gateway.PaymentTypeBankTransfer

	trackingNumberLen = 8
)

var allowedBanks = map[string]bool{"bca": true, "bni": true, "bri": true, "cimb": true}

// Charger dipenuhi oleh gateway.Midtrans.
type Charger interface {
	Charge(ctx context.Context, req gateway.ChargeRequest) (gateway.ChargeResponse, error)
}

type AddressInput struct {
	RecipientName string  `json:"recipient_name" validate:"required,max=100"`
	Phone         string  `json:"phone" validate:"required,max=20"`
	Province      string  `json:"province" validate:"required,max=100"`
	City          string  `json:"city" validate:"required,max=100"`
	PostalCode    string  `json:"postal_code" validate:"required,max=10"`
	Detail        *string `json:"detail"`
}

// CreatePaymentRequest: alamat dikirim inline (snapshot) atau lewat address_id milik user.
type CreatePaymentRequest struct {
	Bank            string        `json:"bank" validate:"required,max=50"`
	ShippingCourier string        `json:"shipping_courier" validate:"required,max=100"`
	Address         *AddressInput `json:"address"`
	AddressID       *int64        `json:"address_id" validate:"omitempty,gt=0"`
}

// CreatePayment membuat payment+shipping (commit lokal dulu), lalu charge ke gateway.
// Kalau gateway gagal, baris lokal TIDAK di-rollback: va_number tetap NULL dan
// pemanggilan berikutnya akan mengulang charge saja.
func (s *Service) CreatePayment(ctx context.Context, p auth.Principal, orderID string, req CreatePaymentRequest) (Payment, error) {
	if err := validation.Struct(req); err != nil {
		return Payment{}, err
	}

	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return Payment{}, err
	}
	if !p.CanAccess(order.UserID) {
		return Payment{}, apperr.Forbidden()
	}
	bank := strings.ToLower(strings.TrimSpace(req.Bank))
	if !allowedBanks[bank] {
		return Payment{}, apperr.Invalid("Allowed bank: BCA, BNI, BRI, CIMB")
	}

	existing, err := s.Store.GetPayment(ctx, orderID)
	switch {
	case err == nil && existing.VANumber != nil:
		return Payment{}, apperr.Invalid("Payment already created")
	case err == nil:
		log.Printf("payment retry order=%s bank=%s", orderID, existing.Bank)
		return s.charge(ctx, order.ID, order.FinalPrice, existing.Bank)
	case !apperr.Is(err, apperr.KindNotFound):
		return Payment{}, err
	}

	ship, addressID, err := s.shippingFor(ctx, order, req)
	if err != nil {
		return Payment{}, err
	}
	tracking, err := randomString(trackingNumberLen)
	if err != nil {
		return Payment{}, fmt.Errorf("tracking number: %w", err)
	}
	ship.ShippingCost = s.ShippingCost
	ship.TrackingNumber = tracking

	pay := Payment{OrderID: order.ID, Method: PaymentMethodBankTransfer, Bank: bank, Status: PaymentPending}
	updated, err := s.Store.CreatePayment(ctx, pay, ship, addressID)
	if err != nil {
		return Payment{}, fmt.Errorf("create payment: %w", err)
	}
	s.invalidate(ctx, order.ID)

	return s.charge(ctx, updated.ID, updated.FinalPrice, bank)
}

func (s *Service) shippingFor(ctx context.Context, o Order, req CreatePaymentRequest) (Shipping, *int64, error) {
	ship := Shipping{OrderID: o.ID, ShippingCourier: req.ShippingCourier}
	switch {
	case req.AddressID != nil:
		a, err := s.Store.GetAddress(ctx, *req.AddressID)
		if err != nil {
			return Shipping{}, nil, err
		}
		if a.UserID != o.UserID {
			return Shipping{}, nil, apperr.Forbidden()
		}
		ship.RecipientName, ship.Phone, ship.Province = a.RecipientName, a.Phone, a.Province
		ship.City, ship.PostalCode, ship.Detail = a.City, a.PostalCode, a.Detail
		return ship, &a.ID, nil
	case req.Address != nil:
		a := req.Address
		ship.RecipientName, ship.Phone, ship.Province = a.RecipientName, a.Phone, a.Province
		ship.City, ship.PostalCode, ship.Detail = a.City, a.PostalCode, a.Detail
		return ship, nil, nil
	default:
		return Shipping{}, nil, apperr.Invalid("address is required")
	}
}

func (s *Service) charge(ctx context.Context, orderID string, amount int64, bank string) (Payment, error) {
	resp, err := s.Gateway.Charge(ctx, gateway.ChargeRequest{OrderID: orderID, GrossAmount: amount, Bank: bank})
	if err == nil {
		err = acceptCharge(resp)
	}
	if err != nil {
		log.Printf("gateway charge order=%s: %v", orderID, err)
		return Payment{}, apperr.Gateway(err)
	}

	pay, err := s.Store.SetPaymentVA(ctx, orderID, resp.VANumber, resp.ExpiryTime)
	if err != nil {
		return Payment{}, fmt.Errorf("store va number: %w", err)
	}
	log.Printf("payment initiated order=%s bank=%s va=%s", orderID, bank, resp.VANumber)

	publish(ctx, s.Events, TopicPaymentInitiated, EventPaymentInitiated, s.ServiceName, orderID, PaymentInitiatedPayload{
		OrderID: orderID, Bank: bank, VANumber: resp.VANumber, ExpiryTime: resp.ExpiryTime, FinalPrice: amount,
	})
	return pay, nil
}

var errMissingVA = errors.New("missing VA number or expiry time from gateway")

func acceptCharge(r gateway.ChargeResponse) error {
	if r.StatusCode != "201" || r.FraudStatus != "accept" {
		return fmt.Errorf("gateway rejected charge: status_code=%s fraud_status=%s", r.StatusCode, r.FraudStatus)
	}
	if r.VANumber == "" || r.ExpiryTime.IsZero() {
		return errMissingVA
	}
	return nil
}

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func randomString(n int) (string, error) {
	base := big.NewInt(int64(len(alphanumeric)))
	b := make([]byte, n)
	for i := range b {
		k, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		b[i] = alphanumeric[k.Int64()]
	}
	return string(b), nil
}
