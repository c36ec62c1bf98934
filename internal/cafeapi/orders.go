package cafeapi

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/beanbar/pos-terminal/internal/domain/cart"
	"github.com/beanbar/pos-terminal/internal/domain/order"
)

var _ order.Sink = (*Client)(nil)

// CreateOrder registers a new empty order record and returns the
// server-assigned identifier.
func (c *Client) CreateOrder(ctx context.Context) (string, error) {
	body, err := c.postJSON(ctx, []byte("{}"), "orders")
	if err != nil {
		return "", errors.Wrap(err, "create order")
	}

	var id string
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "id" {
			return d.Skip()
		}
		var err error
		id, err = decodeFlexID(d)
		return err
	}); err != nil {
		return "", errors.Wrap(err, "decode order")
	}
	if id == "" {
		return "", errors.New("order response carries no id")
	}
	return id, nil
}

// AttachProduct adds one line to an existing remote order. The body
// carries the price captured when the item was added to the cart, so
// catalog price drift between add and submit does not change what the
// customer is charged.
func (c *Client) AttachProduct(ctx context.Context, orderID string, item cart.LineItem) error {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("product_id", func(e *jx.Encoder) {
			encodeFlexID(e, item.Product.ID)
		})
		e.Field("order_id", func(e *jx.Encoder) {
			encodeFlexID(e, orderID)
		})
		e.Field("price_at_time", func(e *jx.Encoder) {
			e.Num(jx.Num(item.Product.Price.String()))
		})
		e.Field("quantity", func(e *jx.Encoder) {
			e.Int(item.Quantity)
		})
	})

	if _, err := c.postJSON(ctx, e.Bytes(), "orders", orderID, "products"); err != nil {
		return errors.Wrap(err, "attach product")
	}
	return nil
}
