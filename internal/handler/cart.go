package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/beanbar/pos-terminal/internal/domain/cart"
	"github.com/beanbar/pos-terminal/internal/domain/catalog"
)

// addItemRequest is the body of the add gesture. Quantity defaults to
// one tap's worth.
type addItemRequest struct {
	ProductID string
	Quantity  int
}

func decodeAddItem(body []byte) (addItemRequest, error) {
	req := addItemRequest{Quantity: 1}
	d := jx.DecodeBytes(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id":
			req.ProductID, err = d.Str()
		case "quantity":
			req.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<16))
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	req, err := decodeAddItem(body)
	if err != nil {
		writeError(w, r, badRequest(errors.Wrap(err, "decode body")))
		return
	}
	if req.ProductID == "" {
		writeError(w, r, badRequest(errors.New("product_id is required")))
		return
	}

	p, err := h.resolveProduct(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.AddToOrder(r.Context(), p, req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}
	h.getCart(w, r)
}

func (h *Handler) adjustItem(dir cart.Direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := pathIndex(r)
		if !ok {
			writeError(w, r, badRequest(errors.New("invalid line index")))
			return
		}
		if err := h.store.AdjustQuantity(r.Context(), index, dir); err != nil {
			writeError(w, r, err)
			return
		}
		h.getCart(w, r)
	}
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(r)
	if !ok {
		writeError(w, r, badRequest(errors.New("invalid line index")))
		return
	}
	if err := h.store.RemoveFromOrder(r.Context(), index); err != nil {
		writeError(w, r, err)
		return
	}
	h.getCart(w, r)
}

func (h *Handler) newOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.store.NewOrder(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	h.getCart(w, r)
}

func (h *Handler) selectOrder(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(r)
	if !ok {
		writeError(w, r, badRequest(errors.New("invalid order index")))
		return
	}
	if err := h.store.SwitchTo(r.Context(), index); err != nil {
		writeError(w, r, err)
		return
	}
	h.getCart(w, r)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteCurrent(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	h.getCart(w, r)
}

func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.seq.Submit(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("order_id", func(e *jx.Encoder) { e.Str(receipt.OrderID) })
			e.Field("lines", func(e *jx.Encoder) { e.Int(receipt.Lines) })
			e.Field("total", func(e *jx.Encoder) { e.Str(receipt.Total.StringFixed(2)) })
		})
	})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	set := h.store.Snapshot()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrderSet(e, set)
	})
}

func encodeOrderSet(e *jx.Encoder, set *cart.OrderSet) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("current", func(e *jx.Encoder) { e.Int(set.Current) })
		e.Field("orders", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, o := range set.Orders {
					encodeOrder(e, o)
				}
			})
		})
	})
}

func encodeOrder(e *jx.Encoder, o cart.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, li := range o.Items {
					encodeLineItem(e, li)
				}
			})
		})
		e.Field("total", func(e *jx.Encoder) { e.Str(o.Total().StringFixed(2)) })
	})
}

func encodeLineItem(e *jx.Encoder, li cart.LineItem) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("product", func(e *jx.Encoder) { encodeProduct(e, li.Product) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(li.Quantity) })
		e.Field("subtotal", func(e *jx.Encoder) { e.Str(li.Subtotal().StringFixed(2)) })
	})
}

func encodeProduct(e *jx.Encoder, p catalog.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("price", func(e *jx.Encoder) { e.Str(p.Price.String()) })
		e.Field("category_id", func(e *jx.Encoder) { e.Str(p.CategoryID) })
		e.Field("image_url", func(e *jx.Encoder) { e.Str(p.ImageURL) })
	})
}
