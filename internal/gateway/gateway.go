// Package gateway membungkus payment gateway (Midtrans Core API) untuk transfer bank / VA.
package gateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"time"
)

const PaymentTypeBankTransfer = "bank_transfer"

type ChargeRequest struct {
	OrderID     string
	GrossAmount int64
	Bank        string
}

// ChargeResponse adalah subset respons charge yang dipakai order service.
// VANumber kosong / ExpiryTime zero berarti gateway tidak mengirimkannya.
type ChargeResponse struct {
	StatusCode    string
	FraudStatus   string
	TransactionID string
	VANumber      string
	ExpiryTime    time.Time
}

// Signature = hex(sha512(order_id + status_code + gross_amount + server_key)).
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func VerifySignature(orderID, statusCode, grossAmount, serverKey, signature string) bool {
	expected := Signature(orderID, statusCode, grossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
