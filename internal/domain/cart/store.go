package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-faster/errors"

	"github.com/beanbar/pos-terminal/internal/domain/catalog"
)

// Sentinel errors for cart operations.
var (
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrLastOrder       = errors.New("the last order cannot be deleted")
)

// LineIndexError indicates a gesture referenced a line item position
// that does not exist in the current order.
type LineIndexError struct {
	Index int
	Len   int
}

func (e *LineIndexError) Error() string {
	return fmt.Sprintf("line index %d out of range (order has %d items)", e.Index, e.Len)
}

// OrderIndexError indicates a switch gesture referenced an order
// position that does not exist.
type OrderIndexError struct {
	Index int
	Len   int
}

func (e *OrderIndexError) Error() string {
	return fmt.Sprintf("order index %d out of range (%d open orders)", e.Index, e.Len)
}

// Direction selects which way a quantity adjustment goes.
type Direction int

const (
	Increase Direction = iota + 1
	Decrease
)

// Repository persists the full OrderSet as a single blob. Load returns
// (nil, nil) when no state has been saved yet.
type Repository interface {
	Load(ctx context.Context) (*OrderSet, error)
	Save(ctx context.Context, set *OrderSet) error
}

// Store owns the OrderSet and keeps it consistent and persisted. Every
// mutating operation writes the whole set through the repository before
// returning, then fires the refresh signal so the view re-renders.
type Store struct {
	mu       sync.Mutex
	set      *OrderSet
	repo     Repository
	onChange func()
}

// NewStore loads persisted state, or starts from a single empty order
// when none exists. The onChange callback may be nil; when set it is
// invoked after every successful mutation.
func NewStore(ctx context.Context, repo Repository, onChange func()) (*Store, error) {
	set, err := repo.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load order set")
	}
	if set == nil {
		set = NewOrderSet()
	} else {
		set.Normalize()
	}
	return &Store{set: set, repo: repo, onChange: onChange}, nil
}

// persist must be called with the lock held.
func (s *Store) persist(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.set); err != nil {
		return errors.Wrap(err, "save order set")
	}
	if s.onChange != nil {
		s.onChange()
	}
	return nil
}

// AddToOrder adds quantity units of product to the current order.
// If the order already holds a line for the product id, its quantity is
// incremented; otherwise a new line is appended.
func (s *Store) AddToOrder(ctx context.Context, p catalog.Product, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order := &s.set.Orders[s.set.Current]
	if i := order.find(p.ID); i >= 0 {
		order.Items[i].Quantity += quantity
	} else {
		order.Items = append(order.Items, LineItem{Product: p, Quantity: quantity})
	}
	return s.persist(ctx)
}

// AdjustQuantity bumps the line at index in the given direction.
// A decrease that would reach zero removes the line entirely.
func (s *Store) AdjustQuantity(ctx context.Context, index int, dir Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := &s.set.Orders[s.set.Current]
	if index < 0 || index >= len(order.Items) {
		return &LineIndexError{Index: index, Len: len(order.Items)}
	}

	switch dir {
	case Increase:
		order.Items[index].Quantity++
	case Decrease:
		order.Items[index].Quantity--
		if order.Items[index].Quantity <= 0 {
			order.Items = append(order.Items[:index], order.Items[index+1:]...)
		}
	default:
		return errors.Errorf("unknown direction %d", dir)
	}
	return s.persist(ctx)
}

// RemoveFromOrder deletes the line at index, preserving the relative
// order of the remaining lines.
func (s *Store) RemoveFromOrder(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := &s.set.Orders[s.set.Current]
	if index < 0 || index >= len(order.Items) {
		return &LineIndexError{Index: index, Len: len(order.Items)}
	}
	order.Items = append(order.Items[:index], order.Items[index+1:]...)
	return s.persist(ctx)
}

// NewOrder appends an empty order and makes it current.
func (s *Store) NewOrder(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set.Orders = append(s.set.Orders, Order{})
	s.set.Current = len(s.set.Orders) - 1
	return s.persist(ctx)
}

// SwitchTo changes the current-order selector.
func (s *Store) SwitchTo(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.set.Orders) {
		return &OrderIndexError{Index: index, Len: len(s.set.Orders)}
	}
	s.set.Current = index
	return s.persist(ctx)
}

// DeleteCurrent removes the current order. Deleting the last remaining
// order is rejected with ErrLastOrder and leaves the set untouched.
// On success the selector moves to max(0, old-1).
func (s *Store) DeleteCurrent(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.set.Orders) <= 1 {
		return ErrLastOrder
	}

	i := s.set.Current
	s.set.Orders = append(s.set.Orders[:i], s.set.Orders[i+1:]...)
	s.set.Current = max(0, i-1)
	return s.persist(ctx)
}

// CompleteCurrent retires the current order after a successful
// submission. Unlike DeleteCurrent it may consume the last order: the
// set is refilled with a fresh empty order so it never drains. The
// selector keeps its position, clamped to the last valid index.
func (s *Store) CompleteCurrent(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.set.Current
	s.set.Orders = append(s.set.Orders[:i], s.set.Orders[i+1:]...)
	if len(s.set.Orders) == 0 {
		s.set.Orders = []Order{{}}
	}
	s.set.Current = min(i, len(s.set.Orders)-1)
	return s.persist(ctx)
}

// CurrentOrder returns a copy of the active order.
func (s *Store) CurrentOrder() Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.CurrentOrder().clone()
}

// CurrentIndex returns the current-order selector.
func (s *Store) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Current
}

// Snapshot returns a deep copy of the whole set, for rendering.
func (s *Store) Snapshot() *OrderSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Clone()
}
