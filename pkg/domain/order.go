package domain

// OrderItem is a single line item in an order.
type OrderItem struct {
	SKU      string `json:"sku" yaml:"sku"`
	Name     string `json:"name" yaml:"name"`
	Quantity int    `json:"quantity" yaml:"quantity"`
}

// Order is an order record as returned by the order store.
type Order struct {
	OrderID      string      `json:"order_id" yaml:"order_id"`
	CustomerName string      `json:"customer_name" yaml:"customer_name"`
	Email        string      `json:"email" yaml:"email"`
	Items        []OrderItem `json:"items" yaml:"items"`
	OrderDate    string      `json:"order_date" yaml:"order_date"`
	Status       string      `json:"status" yaml:"status"`
	DeliveryDate string      `json:"delivery_date,omitempty" yaml:"delivery_date"`
	TotalAmount  float64     `json:"total_amount" yaml:"total_amount"`
	Currency     string      `json:"currency" yaml:"currency"`
}

// CandidateSummary is the abbreviated order form surfaced to the caller
// when the user has to pick between multiple matches.
type CandidateSummary struct {
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	FirstItem string `json:"first_item,omitempty"`
}

// Summarize reduces an order to its candidate summary.
func (o Order) Summarize() CandidateSummary {
	s := CandidateSummary{OrderID: o.OrderID, Status: o.Status}
	if len(o.Items) > 0 {
		s.FirstItem = o.Items[0].Name
	}
	return s
}
