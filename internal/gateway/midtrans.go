package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
)

// Midtrans mengirim expiry_time dalam WIB tanpa offset.
var wib = time.FixedZone("WIB", 7*60*60)

const expiryLayout = "2006-01-02 15:04:05"

type Midtrans struct {
	client  coreapi.Client
	timeout time.Duration
}

func NewMidtrans(serverKey, env string, timeout time.Duration) *Midtrans {
	e := midtrans.Sandbox
	if strings.EqualFold(env, "production") {
		e = midtrans.Production
	}
	m := &Midtrans{timeout: timeout}
	m.client.New(serverKey, e)
	return m
}

type chargeResult struct {
	resp *coreapi.ChargeResponse
	err  error
}

// Charge membuat transaksi bank_transfer. SDK tidak menerima context, jadi
// pemanggilan dibungkus goroutine dan dibatasi timeout + ctx.
// order_id dipakai sebagai idempotency key, retry setelah crash tidak double-charge.
func (m *Midtrans) Charge(ctx context.Context, req ChargeRequest) (ChargeResponse, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	// salinan per panggilan: Options tidak aman dipakai bersama antar goroutine
	c := m.client
	c.Options = &midtrans.ConfigOptions{}
	c.Options.SetPaymentIdempotencyKey(req.OrderID)

	done := make(chan chargeResult, 1)
	go func() {
		resp, merr := c.ChargeTransaction(&coreapi.ChargeReq{
			PaymentType: coreapi.PaymentTypeBankTransfer,
			TransactionDetails: midtrans.TransactionDetails{
				OrderID:  req.OrderID,
				GrossAmt: req.GrossAmount,
			},
			BankTransfer: &coreapi.BankTransferDetails{Bank: midtrans.Bank(req.Bank)},
		})
		// *midtrans.Error nil jangan sampai jadi error interface non-nil
		if merr != nil {
			done <- chargeResult{err: merr}
			return
		}
		done <- chargeResult{resp: resp}
	}()

	select {
	case <-ctx.Done():
		return ChargeResponse{}, fmt.Errorf("midtrans charge: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return ChargeResponse{}, fmt.Errorf("midtrans charge: %w", r.err)
		}
		if r.resp == nil {
			return ChargeResponse{}, errors.New("midtrans charge: empty response")
		}
		return toChargeResponse(r.resp)
	}
}

func toChargeResponse(r *coreapi.ChargeResponse) (ChargeResponse, error) {
	out := ChargeResponse{
		StatusCode:    r.StatusCode,
		FraudStatus:   r.FraudStatus,
		TransactionID: r.TransactionID,
	}
	if len(r.VaNumbers) > 0 {
		out.VANumber = r.VaNumbers[0].VANumber
	}
	if r.ExpiryTime != "" {
		t, err := time.ParseInLocation(expiryLayout, r.ExpiryTime, wib)
		if err != nil {
			return ChargeResponse{}, fmt.Errorf("midtrans expiry_time %q: %w", r.ExpiryTime, err)
		}
		out.ExpiryTime = t
	}
	return out, nil
}
