package models

// CartItem is one line of a customer's cart. Price and the display fields are
// captured when the line is created and are not re-synced with the catalog.
type CartItem struct {
	UserID    int64   `json:"userId"`
	ProductID int     `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Name      string  `json:"name"`
	Image     string  `json:"image,omitempty"`
	SKU       string  `json:"sku"`
}

func (c CartItem) Subtotal() float64 { return c.Price * float64(c.Quantity) }

type CartSummary struct {
	Items     []CartItem `json:"items"`
	ItemCount int        `json:"item_count"`
	Total     float64    `json:"total"`
}

func Summarize(items []CartItem) CartSummary {
	s := CartSummary{Items: items}
	if s.Items == nil {
		s.Items = []CartItem{}
	}
	for _, it := range items {
		s.ItemCount += it.Quantity
		s.Total += it.Subtotal()
	}
	return s
}
