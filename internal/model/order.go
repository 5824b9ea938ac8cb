package model

import "time"

// Order statuses. An order is created in memory as StatusNew, becomes
// StatusActive on its first successful persistence (at which point it owns a
// definitive order number), may move to StatusModified on edit and to
// StatusCancelled on explicit cancellation. Cancelled orders keep their
// number forever; numbers are never reused.
const (
	StatusNew       = "new"
	StatusActive    = "active"
	StatusModified  = "modified"
	StatusCancelled = "cancelled"
)

// Order is the unit being scheduled: a customer order for pickup at a
// specific date and time. The order number is assigned exactly once by the
// sequence allocator and is unique across the lifetime of the store.
//
// Fields:
//  ID           primary key, assigned by the store on first persistence;
//               zero for orders still queued offline.
//  OrderNumber  positive integer identity, strictly increasing across
//               persisted orders; zero until allocated.
//  CustomerName free-text customer name as entered by the operator.
//  Phone        customer phone, used to upsert the client record.
//  Items        ordered line items; see OrderItem.
//  DeliveryDate pickup date in "2006-01-02" form, local calendar.
//  DeliveryTime pickup time in "15:04" form, local wall clock.
//  Status       one of the Status* constants above.
//  Notes        optional free-text operator notes.
//  CreatedAt    creation timestamp in UTC.
//  UpdatedAt    last update timestamp in UTC.
type Order struct {
	ID           uint64      `json:"id"`
	OrderNumber  int64       `json:"order_number"`
	CustomerName string      `json:"customer_name"`
	Phone        string      `json:"phone,omitempty"`
	Items        []OrderItem `json:"items"`
	DeliveryDate string      `json:"delivery_date"`
	DeliveryTime string      `json:"delivery_time"`
	Status       string      `json:"status"`
	Notes        string      `json:"notes,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// OrderItem is a single order line. A line may reference a catalog product
// or be a manually entered item with no catalog backing, which is why the
// capacity weight lives on the line rather than on the product.
//
// Fields:
//  ProductID      catalog product reference; nil for manual lines.
//  Name           display name of the line.
//  Quantity       number of units, always positive.
//  UnitPriceCents price per unit in cents.
//  CapacityWeight contribution of this line toward the shared production
//                 limit: equal to Quantity for lines in the two
//                 capacity-bearing categories, zero otherwise.
type OrderItem struct {
	ProductID      *uint64 `json:"product_id"`
	Name           string  `json:"name"`
	Quantity       int     `json:"quantity"`
	UnitPriceCents uint32  `json:"unit_price_cents"`
	CapacityWeight int     `json:"capacity_weight"`
}

// CapacityWeight sums the capacity weight of all lines of the order.
func (o *Order) CapacityWeight() int {
	return ItemsWeight(o.Items)
}

// ItemsWeight sums the capacity weight across a list of lines.
func ItemsWeight(items []OrderItem) int {
	total := 0
	for _, it := range items {
		total += it.CapacityWeight
	}
	return total
}
