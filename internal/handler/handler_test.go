package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanbar/pos-terminal/internal/cafeapi"
	"github.com/beanbar/pos-terminal/internal/domain/cart"
	"github.com/beanbar/pos-terminal/internal/domain/catalog"
	"github.com/beanbar/pos-terminal/internal/domain/order"
)

// --- Mock implementations ---

type memRepo struct {
	saved *cart.OrderSet
}

func (m *memRepo) Load(_ context.Context) (*cart.OrderSet, error) {
	if m.saved == nil {
		return nil, nil
	}
	return m.saved.Clone(), nil
}

func (m *memRepo) Save(_ context.Context, set *cart.OrderSet) error {
	m.saved = set.Clone()
	return nil
}

type stubSource struct {
	products []catalog.Product
	listErr  error
}

func (s *stubSource) ListProducts(_ context.Context) ([]catalog.Product, error) {
	return s.products, s.listErr
}

func (s *stubSource) ListCategories(_ context.Context) ([]catalog.Category, error) {
	return []catalog.Category{{ID: "1", Name: "Hot Drinks"}}, nil
}

type stubSink struct {
	mu        sync.Mutex
	orderID   string
	attachErr error
	attached  int
}

func (s *stubSink) CreateOrder(_ context.Context) (string, error) {
	return s.orderID, nil
}

func (s *stubSink) AttachProduct(_ context.Context, _ string, _ cart.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attachErr != nil {
		return s.attachErr
	}
	s.attached++
	return nil
}

// --- Helpers ---

type fixture struct {
	store *cart.Store
	sink  *stubSink
	srv   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := cart.NewStore(context.Background(), &memRepo{}, nil)
	require.NoError(t, err)

	source := &stubSource{products: []catalog.Product{
		{ID: "p1", Name: "Latte", Price: decimal.RequireFromString("2.00"), CategoryID: "1"},
		{ID: "p2", Name: "Espresso", Price: decimal.RequireFromString("3.00"), CategoryID: "1"},
	}}
	sink := &stubSink{orderID: "o1"}

	h := New(store, order.NewSequencer(sink, store), source, nil, nil)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	return &fixture{store: store, sink: sink, srv: srv}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		decoded = nil
	}
	return resp, decoded
}

// --- Tests ---

func TestAddItem(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/cart/items", `{"product_id":"p1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	orders := body["orders"].([]any)
	require.Len(t, orders, 1)
	items := orders[0].(map[string]any)["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, float64(1), item["quantity"])
	assert.Equal(t, "2.00", item["subtotal"])
	assert.Equal(t, "2.00", orders[0].(map[string]any)["total"])
}

func TestAddItem_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/cart/items", `{"product_id":"nope"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["message"], "not found")
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/cart/items", `{"product_id":"p1","quantity":0}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDecreaseToZeroRemovesLine(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, http.MethodPost, "/cart/items", `{"product_id":"p1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/cart/items/0/decrease", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	orders := body["orders"].([]any)
	items := orders[0].(map[string]any)["items"].([]any)
	assert.Empty(t, items)
}

func TestAdjustItem_OutOfRange(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/cart/items/3/increase", "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDeleteLastOrderRejected(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodDelete, "/cart/orders/current", "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body["message"], "last order")
}

func TestNewSwitchDeleteOrderFlow(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/cart/orders", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/cart/orders/0/select", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.do(t, http.MethodDelete, "/cart/orders/current", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, float64(0), body["current"])
	assert.Len(t, body["orders"].([]any), 1)
}

func TestSubmit_Empty(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/cart/orders/current/submit", "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Zero(t, f.sink.attached)
}

func TestSubmit_Success(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, http.MethodPost, "/cart/items", `{"product_id":"p1","quantity":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, "/cart/items", `{"product_id":"p2"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/cart/orders/current/submit", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "o1", body["order_id"])
	assert.Equal(t, float64(2), body["lines"])
	assert.Equal(t, "7.00", body["total"])
	assert.Equal(t, 2, f.sink.attached)

	// The local order is retired; the cart holds one fresh empty order.
	_, cartBody := f.do(t, http.MethodGet, "/cart", "")
	orders := cartBody["orders"].([]any)
	require.Len(t, orders, 1)
	assert.Empty(t, orders[0].(map[string]any)["items"])
}

func TestSubmit_AttachFailureKeepsOrder(t *testing.T) {
	f := newFixture(t)
	f.sink.attachErr = &cafeapi.StatusError{Status: http.StatusServiceUnavailable, Body: "api down"}

	resp, _ := f.do(t, http.MethodPost, "/cart/items", `{"product_id":"p1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/cart/orders/current/submit", "")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	_, cartBody := f.do(t, http.MethodGet, "/cart", "")
	orders := cartBody["orders"].([]any)
	items := orders[0].(map[string]any)["items"].([]any)
	require.Len(t, items, 1)
}

func TestListProducts(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/catalog/products", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var products []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	require.Len(t, products, 2)
	assert.Equal(t, "Latte", products[0]["name"])
	assert.Equal(t, "2", products[0]["price"])
}
