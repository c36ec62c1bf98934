package cart

import (
	"github.com/shopspring/decimal"

	"github.com/beanbar/pos-terminal/internal/domain/catalog"
)

// LineItem pairs a product snapshot with a quantity. The snapshot is
// captured when the product is first added, so the price submitted
// later is the price the customer saw, not whatever the catalog says
// by then.
type LineItem struct {
	Product  catalog.Product
	Quantity int
}

// Subtotal returns quantity times the captured unit price.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Product.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Order is an ordered sequence of line items for one customer.
// An order holds at most one line item per product id; it has no
// identity of its own until it is submitted.
type Order struct {
	Items []LineItem
}

// Total sums the line subtotals, rounded to 2 decimal places.
// It is always derived, never stored.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, li := range o.Items {
		total = total.Add(li.Subtotal())
	}
	return total.Round(2)
}

// IsEmpty reports whether the order has no line items.
func (o Order) IsEmpty() bool {
	return len(o.Items) == 0
}

// find returns the index of the line item holding productID, or -1.
func (o Order) find(productID string) int {
	for i, li := range o.Items {
		if li.Product.ID == productID {
			return i
		}
	}
	return -1
}

// clone returns a deep copy of the order.
func (o Order) clone() Order {
	items := make([]LineItem, len(o.Items))
	copy(items, o.Items)
	return Order{Items: items}
}

// OrderSet is the collection of all open orders plus which one is
// active. Invariants: the set always contains at least one order, and
// Current is always a valid index.
type OrderSet struct {
	Orders  []Order
	Current int
}

// NewOrderSet returns a set holding a single empty order.
func NewOrderSet() *OrderSet {
	return &OrderSet{Orders: []Order{{}}}
}

// CurrentOrder returns the active order.
func (s *OrderSet) CurrentOrder() Order {
	return s.Orders[s.Current]
}

// Clone returns a deep copy of the set.
func (s *OrderSet) Clone() *OrderSet {
	orders := make([]Order, len(s.Orders))
	for i, o := range s.Orders {
		orders[i] = o.clone()
	}
	return &OrderSet{Orders: orders, Current: s.Current}
}

// Normalize repairs a set loaded from persisted state: line items with
// non-positive quantities are dropped, the set is refilled with one
// empty order if it drained, and Current is clamped into range.
func (s *OrderSet) Normalize() {
	for i := range s.Orders {
		kept := s.Orders[i].Items[:0]
		for _, li := range s.Orders[i].Items {
			if li.Quantity > 0 {
				kept = append(kept, li)
			}
		}
		s.Orders[i].Items = kept
	}
	if len(s.Orders) == 0 {
		s.Orders = []Order{{}}
	}
	if s.Current < 0 {
		s.Current = 0
	}
	if s.Current >= len(s.Orders) {
		s.Current = len(s.Orders) - 1
	}
}
