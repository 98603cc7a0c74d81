package models

import (
	"time"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderHold       OrderStatus = "hold"
)

var OrderStatuses = []OrderStatus{
	OrderPending,
	OrderProcessing,
	OrderShipped,
	OrderDelivered,
	OrderCancelled,
	OrderHold,
}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s OrderStatus) Label() string {
	switch s {
	case OrderPending:
		return "Pending"
	case OrderProcessing:
		return "Processing"
	case OrderShipped:
		return "Shipped"
	case OrderDelivered:
		return "Delivered"
	case OrderCancelled:
		return "Cancelled"
	case OrderHold:
		return "On Hold"
	}
	return string(s)
}

const (
	NoteOrderPlaced       = "Order placed"
	NoteCancelledCustomer = "Order cancelled by customer"
)

type StatusEvent struct {
	Status OrderStatus `json:"status"`
	Date   string      `json:"date"`
	Note   string      `json:"note,omitempty"`
}

type OrderItem struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	SKU       string  `json:"sku"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Subtotal  float64 `json:"subtotal"`
	Image     string  `json:"image,omitempty"`
}

type Order struct {
	ID              string        `json:"id"`
	Date            string        `json:"date"`
	CreatedAt       string        `json:"createdAt"`
	CustomerID      int64         `json:"customerId"`
	CustomerName    string        `json:"customerName"`
	CustomerEmail   string        `json:"customerEmail,omitempty"`
	ShippingAddress string        `json:"shippingAddress"`
	Items           []OrderItem   `json:"items"`
	Total           float64       `json:"total"`
	Status          OrderStatus   `json:"status"`
	StatusHistory   []StatusEvent `json:"statusHistory"`
	ShippedDate     string        `json:"shippedDate,omitempty"`
	DeliveredDate   string        `json:"deliveredDate,omitempty"`
	CancelledDate   string        `json:"cancelledDate,omitempty"`
	UpdatedAt       string        `json:"updatedAt,omitempty"`
}

// PlacedAt parses createdAt, falling back to the plain order date.
func (o *Order) PlacedAt() time.Time {
	if t, err := time.Parse(time.RFC3339Nano, o.CreatedAt); err == nil {
		return t
	}
	if t, err := time.Parse(DateLayout, o.Date); err == nil {
		return t
	}
	return time.Time{}
}

// EnsureHistory synthesizes the initial "Order placed" entry for orders
// written before history was tracked.
func (o *Order) EnsureHistory() {
	if len(o.StatusHistory) > 0 {
		return
	}
	date := o.CreatedAt
	if date == "" {
		date = o.Date
	}
	o.StatusHistory = []StatusEvent{{Status: o.Status, Date: date, Note: NoteOrderPlaced}}
}

func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

func (o Order) Clone() Order {
	out := o
	if o.Items != nil {
		out.Items = make([]OrderItem, len(o.Items))
		copy(out.Items, o.Items)
	}
	if o.StatusHistory != nil {
		out.StatusHistory = make([]StatusEvent, len(o.StatusHistory))
		copy(out.StatusHistory, o.StatusHistory)
	}
	return out
}

const DateLayout = "2006-01-02"

func FormatDate(t time.Time) string { return t.UTC().Format(DateLayout) }

func FormatTimestamp(t time.Time) string { return t.UTC().Format("2006-01-02T15:04:05.000Z07:00") }
