// Package handler exposes the cart and catalog to the staff view as a
// local HTTP API: one route per user gesture, each mapping 1:1 onto a
// store or sequencer operation.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-faster/jx"

	"github.com/beanbar/pos-terminal/internal/domain/cart"
	"github.com/beanbar/pos-terminal/internal/domain/catalog"
	"github.com/beanbar/pos-terminal/internal/domain/order"
)

// Session is the slice of the remote API the session routes need.
type Session interface {
	Login(ctx context.Context, name, password string) error
	CheckLogin(ctx context.Context) (bool, error)
	Logout(ctx context.Context) error
}

// Handler routes gesture requests to the cart store, the submission
// sequencer, and the remote catalog.
type Handler struct {
	store   *cart.Store
	seq     *order.Sequencer
	source  catalog.Source
	editor  catalog.Editor
	session Session

	// byID caches the last fetched catalog so add-gestures can resolve
	// a product id without a remote round-trip per tap.
	mu   sync.RWMutex
	byID map[string]catalog.Product
}

// New constructs a Handler. The editor and session may be nil when the
// terminal runs without admin or auth features.
func New(store *cart.Store, seq *order.Sequencer, source catalog.Source, editor catalog.Editor, session Session) *Handler {
	return &Handler{
		store:   store,
		seq:     seq,
		source:  source,
		editor:  editor,
		session: session,
		byID:    make(map[string]catalog.Product),
	}
}

// Routes builds the gesture mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /catalog/products", h.listProducts)
	mux.HandleFunc("GET /catalog/categories", h.listCategories)
	mux.HandleFunc("POST /catalog/products", h.createProduct)
	mux.HandleFunc("PUT /catalog/products/{id}", h.updateProduct)
	mux.HandleFunc("DELETE /catalog/products/{id}", h.deleteProduct)
	mux.HandleFunc("POST /catalog/products/{id}/image", h.uploadProductImage)

	mux.HandleFunc("GET /cart", h.getCart)
	mux.HandleFunc("POST /cart/items", h.addItem)
	mux.HandleFunc("POST /cart/items/{index}/increase", h.adjustItem(cart.Increase))
	mux.HandleFunc("POST /cart/items/{index}/decrease", h.adjustItem(cart.Decrease))
	mux.HandleFunc("DELETE /cart/items/{index}", h.removeItem)

	mux.HandleFunc("POST /cart/orders", h.newOrder)
	mux.HandleFunc("POST /cart/orders/{index}/select", h.selectOrder)
	mux.HandleFunc("DELETE /cart/orders/current", h.deleteOrder)
	mux.HandleFunc("POST /cart/orders/current/submit", h.submitOrder)

	mux.HandleFunc("POST /session", h.login)
	mux.HandleFunc("GET /session", h.checkLogin)
	mux.HandleFunc("DELETE /session", h.logout)

	return mux
}

// refreshCatalog refetches the catalog and rebuilds the id cache.
func (h *Handler) refreshCatalog(ctx context.Context) ([]catalog.Product, error) {
	products, err := h.source.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	h.mu.Lock()
	h.byID = byID
	h.mu.Unlock()
	return products, nil
}

// resolveProduct finds a product by id, refreshing the cache once on a
// miss before giving up with catalog.ErrNotFound.
func (h *Handler) resolveProduct(ctx context.Context, id string) (catalog.Product, error) {
	h.mu.RLock()
	p, ok := h.byID[id]
	h.mu.RUnlock()
	if ok {
		return p, nil
	}

	if _, err := h.refreshCatalog(ctx); err != nil {
		return catalog.Product{}, err
	}

	h.mu.RLock()
	p, ok = h.byID[id]
	h.mu.RUnlock()
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

// pathIndex parses the {index} path segment.
func pathIndex(r *http.Request) (int, bool) {
	i, err := strconv.Atoi(r.PathValue("index"))
	return i, err == nil
}

// writeJSON encodes a response with jx.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeOK responds with a bare {"status":"ok"} body.
func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
		})
	})
}
