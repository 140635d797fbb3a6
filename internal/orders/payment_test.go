package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArrzGeraldy/api-ecommerce/internal/apperr"
	"github.com/ArrzGeraldy/api-ecommerce/internal/gateway"
)

func inlinePayment(bank string) CreatePaymentRequest {
	return CreatePaymentRequest{
		Bank:            bank,
		ShippingCourier: "jne",
		Address: &AddressInput{
			RecipientName: "Alice",
			Phone:         "08123456789",
			Province:      "DKI Jakarta",
			City:          "Jakarta Selatan",
			PostalCode:    "12345",
			Detail:        ptr("Jl. Melati 1"),
		},
	}
}

func TestCreatePayment_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d := createOrder(t, f, ItemInput{ProductVariantID: 20, Quantity: 2}) // 46000

	pay, err := f.svc.CreatePayment(ctx, alice, d.ID, inlinePayment("BCA"))
	require.NoError(t, err)
	require.NotNil(t, pay.VANumber)
	assert.Equal(t, "88008", *pay.VANumber)
	assert.Equal(t, "bca", pay.Bank)
	assert.Equal(t, d.ID, pay.OrderID)
	assert.Equal(t, PaymentMethodBankTransfer, pay.Method)
	assert.Equal(t, PaymentPending, pay.Status)
	require.NotNil(t, pay.ExpiryTime)

	require.Len(t, f.gw.calls, 1)
	assert.Equal(t, gateway.ChargeRequest{OrderID: d.ID, GrossAmount: 46000 + DefaultShippingCost, Bank: "bca"}, f.gw.calls[0])

	got, err := f.store.GetOrderDetail(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.BasePrice+DefaultShippingCost, got.FinalPrice)
	require.NotNil(t, got.Shipping)
	assert.Equal(t, "Jakarta Selatan", got.Shipping.City)
	assert.Equal(t, "jne", got.Shipping.ShippingCourier)
	assert.Equal(t, DefaultShippingCost, got.Shipping.ShippingCost)
	assert.Len(t, got.Shipping.TrackingNumber, 8)
	assert.Nil(t, got.AddressID)

	assert.Len(t, f.pub.byTopic(TopicPaymentInitiated), 1)
}

func TestCreatePayment_GatewayRejectKeepsLocalRows(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d := createOrder(t, f, ItemInput{ProductVariantID: 11, Quantity: 1})

	deny := acceptedCharge("88008")
	deny.FraudStatus = "deny"
	f.gw.resp = deny

	_, err := f.svc.CreatePayment(ctx, alice, d.ID, inlinePayment("bri"))
	require.Error(t, err)
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 502, ae.Status())
	assert.Equal(t, "Payment processing failed. Please try again.", ae.Message)

	pay, err := f.store.GetPayment(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, pay.VANumber)
	assert.Nil(t, pay.ExpiryTime)
	assert.Equal(t, "bri", pay.Bank)

	got, err := f.store.GetOrderDetail(ctx, d.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Shipping)
	assert.Empty(t, f.pub.byTopic(TopicPaymentInitiated))
}

func TestCreatePayment_UnusableGatewayResponses(t *testing.T) {
	cases := map[string]func(r *gateway.ChargeResponse){
		"status code":    func(r *gateway.ChargeResponse) { r.StatusCode = "406" },
		"missing va":     func(r *gateway.ChargeResponse) { r.VANumber = "" },
		"missing expiry": func(r *gateway.ChargeResponse) { r.ExpiryTime = time.Time{} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			d := createOrder(t, f, ItemInput{ProductVariantID: 11, Quantity: 1})
			resp := acceptedCharge("88008")
			mutate(&resp)
			f.gw.resp = resp

			_, err := f.svc.CreatePayment(context.Background(), alice, d.ID, inlinePayment("cimb"))
			assert.True(t, apperr.Is(err, apperr.KindGateway), "%v", err)
		})
	}

	t.Run("transport error", func(t *testing.T) {
		f := newFixture()
		d := createOrder(t, f, ItemInput{ProductVariantID: 11, Quantity: 1})
		f.gw.err = context.DeadlineExceeded

		_, err := f.svc.CreatePayment(context.Background(), alice, d.ID, inlinePayment("bca"))
		assert.True(t, apperr.Is(err, apperr.KindGateway))
		_, err = f.store.GetPayment(context.Background(), d.ID)
		assert.NoError(t, err)
	})
}

func TestCreatePayment_RetryAfterGatewayFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d := createOrder(t, f, ItemInput{ProductVariantID: 11, Quantity: 1})

	f.gw.err = errors.New("connection reset")
	_, err := f.svc.CreatePayment(ctx, alice, d.ID, inlinePayment("bni"))
	require.Error(t, err)
	firstTracking := f.store.shippings[d.ID].TrackingNumber

	f.gw.err = nil
	pay, err := f.svc.CreatePayment(ctx, alice, d.ID, inlinePayment("bca"))
	require.NoError(t, err)
	require.NotNil(t, pay.VANumber)
	// bank & shipping dari percobaan pertama yang dipakai
	assert.Equal(t, "bni", pay.Bank)
	assert.Equal(t, "bni", f.gw.calls[1].Bank)
	assert.Equal(t, firstTracking, f.store.shippings[d.ID].TrackingNumber)

	_, err = f.svc.CreatePayment(ctx, alice, d.ID, inlinePayment("bca"))
	require.Error(t, err)
	assert.EqualError(t, err, "Payment already created")
	assert.Len(t, f.gw.calls, 2)
}

func TestCreatePayment_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d := createOrder(t, f, ItemInput{ProductVariantID: 11, Quantity: 1})

	_, err := f.svc.CreatePayment(ctx, alice, d.ID, inlinePayment("mandiri"))
	assert.EqualError(t, err, "Allowed bank: BCA, BNI, BRI, CIMB")

	req := inlinePayment("bca")
	req.ShippingCourier = ""
	_, err = f.svc.CreatePayment(ctx, alice, d.ID, req)
	assert.EqualError(t, err, "shipping_courier is required")

	req = inlinePayment("bca")
	req.Address.City = ""
	_, err = f.svc.CreatePayment(ctx, alice, d.ID, req)
	assert.EqualError(t, err, "address.city is required")

	req = inlinePayment("bca")
	req.Address = nil
	_, err = f.svc.CreatePayment(ctx, alice, d.ID, req)
	assert.EqualError(t, err, "address is required")

	_, err = f.svc.CreatePayment(ctx, alice, "missing", inlinePayment("bca"))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.CreatePayment(ctx, bob, d.ID, inlinePayment("bca"))
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	// order dicek dulu sebelum bank
	_, err = f.svc.CreatePayment(ctx, alice, "missing", inlinePayment("mandiri"))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = f.svc.CreatePayment(ctx, bob, d.ID, inlinePayment("mandiri"))
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	assert.Empty(t, f.gw.calls)
	assert.Empty(t, f.store.payments)
}

func TestCreatePayment_SavedAddress(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d := createOrder(t, f, ItemInput{ProductVariantID: 11, Quantity: 1})

	req := CreatePaymentRequest{Bank: "bca", ShippingCourier: "sicepat", AddressID: ptr(int64(8))}
	_, err := f.svc.CreatePayment(ctx, alice, d.ID, req)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Empty(t, f.store.payments)

	req.AddressID = ptr(int64(404))
	_, err = f.svc.CreatePayment(ctx, alice, d.ID, req)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	req.AddressID = ptr(int64(7))
	_, err = f.svc.CreatePayment(ctx, alice, d.ID, req)
	require.NoError(t, err)

	got, err := f.store.GetOrderDetail(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AddressID)
	assert.Equal(t, int64(7), *got.AddressID)
	assert.Equal(t, "Alice", got.Shipping.RecipientName)
	assert.Equal(t, "10110", got.Shipping.PostalCode)
}

func TestRandomString(t *testing.T) {
	s, err := randomString(8)
	require.NoError(t, err)
	assert.Len(t, s, 8)
	for _, c := range s {
		assert.Contains(t, alphanumeric, string(c))
	}
}
