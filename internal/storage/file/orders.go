// Package file persists the OrderSet as a single JSON blob on disk,
// the terminal's stand-in for browser local storage. The whole set is
// rewritten on every save; concurrent processes sharing one path race
// last-write-wins, which is a documented limitation, not a bug to fix
// here.
package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/beanbar/pos-terminal/internal/domain/cart"
	"github.com/beanbar/pos-terminal/internal/domain/catalog"
)

var _ cart.Repository = (*OrderStore)(nil)

// OrderStore reads and writes the OrderSet snapshot at a fixed path.
type OrderStore struct {
	mu   sync.Mutex
	path string
}

// NewOrderStore returns a store writing to path. The parent directory
// is created on first save.
func NewOrderStore(path string) *OrderStore {
	return &OrderStore{path: path}
}

// Load reads the persisted OrderSet. A missing file means no state has
// been saved yet and returns (nil, nil). Loaded sets are normalized:
// non-positive quantities are dropped and the current index clamped.
func (s *OrderStore) Load(_ context.Context) (*cart.OrderSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read snapshot")
	}

	set, err := decodeOrderSet(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode snapshot %s", s.path)
	}
	set.Normalize()
	return set, nil
}

// Save atomically replaces the snapshot with the full OrderSet: the
// blob is written to a temp file in the same directory, then renamed
// over the target.
func (s *OrderStore) Save(_ context.Context, set *cart.OrderSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "create state dir")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(encodeOrderSet(set)); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close snapshot")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "replace snapshot")
	}
	return nil
}

// encodeOrderSet serializes the set. Prices are written as strings so
// decimals survive the round-trip exactly.
func encodeOrderSet(set *cart.OrderSet) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("current", func(e *jx.Encoder) {
			e.Int(set.Current)
		})
		e.Field("orders", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, o := range set.Orders {
					encodeOrder(e, o)
				}
			})
		})
	})
	return e.Bytes()
}

func encodeOrder(e *jx.Encoder, o cart.Order) {
	e.Arr(func(e *jx.Encoder) {
		for _, li := range o.Items {
			e.Obj(func(e *jx.Encoder) {
				e.Field("product", func(e *jx.Encoder) {
					encodeProduct(e, li.Product)
				})
				e.Field("quantity", func(e *jx.Encoder) {
					e.Int(li.Quantity)
				})
			})
		}
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

func decodeOrderSet(data []byte) (*cart.OrderSet, error) {
	set := &cart.OrderSet{}
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "current":
			v, err := d.Int()
			if err != nil {
				return err
			}
			set.Current = v
			return nil
		case "orders":
			return d.Arr(func(d *jx.Decoder) error {
				o, err := decodeOrder(d)
				if err != nil {
					return err
				}
				set.Orders = append(set.Orders, o)
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, err
	}
	return set, nil
}

func decodeOrder(d *jx.Decoder) (cart.Order, error) {
	var o cart.Order
	err := d.Arr(func(d *jx.Decoder) error {
		var li cart.LineItem
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "product":
				p, err := decodeProduct(d)
				if err != nil {
					return err
				}
				li.Product = p
				return nil
			case "quantity":
				v, err := d.Int()
				if err != nil {
					return err
				}
				li.Quantity = v
				return nil
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		o.Items = append(o.Items, li)
		return nil
	})
	return o, err
}

func decodeProduct(d *jx.Decoder) (catalog.Product, error) {
	var p catalog.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Str()
			p.ID = v
			return err
		case "name":
			v, err := d.Str()
			p.Name = v
			return err
		case "price":
			s, err := d.Str()
			if err != nil {
				return err
			}
			v, err := decimal.NewFromString(s)
			if err != nil {
				return errors.Wrapf(err, "parse price %q", s)
			}
			p.Price = v
			return nil
		case "category_id":
			v, err := d.Str()
			p.CategoryID = v
			return err
		case "image_url":
			v, err := d.Str()
			p.ImageURL = v
			return err
		default:
			return d.Skip()
		}
	})
	return p, err
}
