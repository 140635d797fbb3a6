package orders

const (
	TopicOrderCreated       = "order.created"
	TopicPaymentInitiated   = "order.payment.initiated"
	TopicOrderStatusChanged = "order.status.changed"
	TopicStockReleased      = "inventory.stock.released"
)

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
