package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/beanbar/pos-terminal/internal/domain/cart"
)

// ErrNothingToSubmit is returned when the current order has no line
// items. No network calls are made in that case.
var ErrNothingToSubmit = errors.New("no items to submit in the current order")

// Sink defines the remote operations needed to turn a local order into
// durable server-side records.
type Sink interface {
	// CreateOrder registers a new empty order and returns its
	// server-assigned identifier.
	CreateOrder(ctx context.Context) (string, error)

	// AttachProduct adds one line to a previously created order. The
	// line carries the price captured at add-time, not a live price.
	AttachProduct(ctx context.Context, orderID string, item cart.LineItem) error
}

// Receipt summarizes a completed submission.
type Receipt struct {
	OrderID string
	Lines   int
	Total   decimal.Decimal
}

// Sequencer drives the fixed submission sequence: create the remote
// order, attach every line item, then retire the local order. The
// local order survives any failure, so the user can retry; a remote
// order created before a failed attachment is left orphaned
// server-side (no compensation is attempted).
type Sequencer struct {
	sink  Sink
	store *cart.Store
}

// NewSequencer creates a Sequencer bound to the given sink and store.
func NewSequencer(sink Sink, store *cart.Store) *Sequencer {
	return &Sequencer{sink: sink, store: store}
}

// Submit runs the submission sequence for the current order.
//
// The order is captured up front; mutating the store while a submission
// is in flight is not supported. Line attachments are dispatched
// concurrently: the first failure cancels the remaining requests and
// fails the whole submission.
func (s *Sequencer) Submit(ctx context.Context) (*Receipt, error) {
	order := s.store.CurrentOrder()
	if order.IsEmpty() {
		return nil, ErrNothingToSubmit
	}

	orderID, err := s.sink.CreateOrder(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, item := range order.Items {
		g.Go(func() error {
			if err := s.sink.AttachProduct(gctx, orderID, item); err != nil {
				return errors.Wrapf(err, "attach product %s", item.Product.ID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.store.CompleteCurrent(ctx); err != nil {
		return nil, errors.Wrap(err, "retire submitted order")
	}

	return &Receipt{
		OrderID: orderID,
		Lines:   len(order.Items),
		Total:   order.Total(),
	}, nil
}
