package orders

import "strings"

type Status string

const (
	StatusPending   Status = "pending"
	StatusProgress  Status = "progress"
	StatusShipping  Status = "shipping"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentSettlement PaymentStatus = "settlement"
	PaymentPaid       PaymentStatus = "paid"
	PaymentExpired    PaymentStatus = "expired"
	PaymentCanceled   PaymentStatus = "canceled"
)

var validStatus = map[Status]bool{
	StatusPending: true, StatusProgress: true, StatusShipping: true,
	StatusCompleted: true, StatusCanceled: true,
}

var validPaymentStatus = map[PaymentStatus]bool{
	PaymentPending: true, PaymentSettlement: true, PaymentPaid: true,
	PaymentExpired: true, PaymentCanceled: true,
}

// ParseStatus case-insensitive; ok=false kalau bukan salah satu dari lima status order.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, validStatus[st]
}

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	st := PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	return st, validPaymentStatus[st]
}

// StatusPair adalah pasangan status yang selalu ditulis bersama.
type StatusPair struct {
	Order   Status
	Payment PaymentStatus
}

// transaction_status dari gateway -> status order & payment.
// Output tidak bergantung pada state sekarang, jadi webhook ulang aman.
var gatewayStatusMap = map[string]StatusPair{
	"settlement": {Order: StatusProgress, Payment: PaymentSettlement},
	"expire":     {Order: StatusCanceled, Payment: PaymentExpired},
	"cancel":     {Order: StatusCanceled, Payment: PaymentCanceled},
}

func MapTransactionStatus(ts string) (StatusPair, bool) {
	p, ok := gatewayStatusMap[ts]
	return p, ok
}
