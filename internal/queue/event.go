// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into operator notifications.
package queue

// OrderConfirmedEvent is published after an order is successfully persisted
// with its definitive number, whether it arrived online or through offline
// replay. It carries enough for downstream consumers to notify or log
// without querying the primary database.
type OrderConfirmedEvent struct {
	OrderID       uint64 `json:"order_id"`
	OrderNumber   int64  `json:"order_number"`
	DisplayNumber string `json:"display_number"`
	CustomerName  string `json:"customer_name"`
	DeliveryDate  string `json:"delivery_date"`
	DeliveryTime  string `json:"delivery_time"`
	ItemCount     int    `json:"item_count"`
	TotalWeight   int    `json:"total_weight"`
	Replayed      bool   `json:"replayed"`
	ConfirmedAt   string `json:"confirmed_at"`
}
