//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/beanbar/pos-terminal/internal/cafeapi"
	"github.com/beanbar/pos-terminal/internal/domain/cart"
	"github.com/beanbar/pos-terminal/internal/domain/order"
	"github.com/beanbar/pos-terminal/internal/handler"
	"github.com/beanbar/pos-terminal/internal/storage/file"
	"github.com/beanbar/pos-terminal/pkg/health"
	"github.com/beanbar/pos-terminal/pkg/httpmiddleware"
)

// Response types — defined locally to keep the tests black-box against
// the terminal's HTTP surface.

type cartResponse struct {
	Current int             `json:"current"`
	Orders  []orderResponse `json:"orders"`
}

type orderResponse struct {
	Items []lineResponse `json:"items"`
	Total string         `json:"total"`
}

type lineResponse struct {
	Product  productResponse `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal string          `json:"subtotal"`
}

type productResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	CategoryID string `json:"category_id"`
	ImageURL   string `json:"image_url"`
}

type receiptResponse struct {
	OrderID string `json:"order_id"`
	Lines   int    `json:"lines"`
	Total   string `json:"total"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// fakeCafeAPI emulates the remote café REST API.
type fakeCafeAPI struct {
	mu          sync.Mutex
	nextOrderID int
	attachments []map[string]any
	failAttach  bool
	failCreate  bool
}

func (f *fakeCafeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"id":1,"name":"Latte","price":2.5,"tag_id":1},
			{"id":2,"name":"Espresso","price":3,"tag_id":1},
			{"id":3,"name":"Croissant","price":1.75,"tag_id":2}
		]`)
	})
	mux.HandleFunc("GET /tags", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":1,"name":"Hot Drinks"},{"id":2,"name":"Pastries"}]`)
	})
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failCreate {
			http.Error(w, "orders unavailable", http.StatusServiceUnavailable)
			return
		}
		f.nextOrderID++
		_, _ = fmt.Fprintf(w, `{"id":%d}`, f.nextOrderID)
	})
	mux.HandleFunc("POST /orders/{id}/products", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failAttach {
			http.Error(w, "line rejected", http.StatusInternalServerError)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.attachments = append(f.attachments, body)
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("password") != "espresso" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok"})
		_, _ = io.WriteString(w, `{"name":"staff"}`)
	})
	mux.HandleFunc("GET /check-login", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err == nil && c.Value == "tok" {
			_, _ = io.WriteString(w, `{"loggedIn":true}`)
			return
		}
		_, _ = io.WriteString(w, `{"loggedIn":false}`)
	})
	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	return mux
}

func (f *fakeCafeAPI) attachedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attachments)
}

// terminal is an in-process terminal instance wired the way the app
// wires it, minus telemetry.
type terminal struct {
	baseURL string
	api     *fakeCafeAPI
}

func startTerminalAt(t *testing.T, statePath string) *terminal {
	t.Helper()

	api := &fakeCafeAPI{}
	upstream := httptest.NewServer(api.handler())
	t.Cleanup(upstream.Close)

	client, err := cafeapi.NewClient(cafeapi.Config{
		BaseURL: upstream.URL,
		Timeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	store, err := cart.NewStore(context.Background(), file.NewOrderStore(statePath), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	h := handler.New(store, order.NewSequencer(client, store), client, client, client)

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddReadinessCheck("cafe-api", 2*time.Second, func(ctx context.Context) error {
		_, err := client.ListCategories(ctx)
		return err
	})
	healthSvc.SetReady(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))

	srv := httptest.NewServer(httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{AllowOrigins: []string{"*"}}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zap.NewNop()),
		httpmiddleware.LogRequests(),
	))
	t.Cleanup(srv.Close)

	return &terminal{baseURL: srv.URL, api: api}
}

func startTerminal(t *testing.T) *terminal {
	t.Helper()
	return startTerminalAt(t, filepath.Join(t.TempDir(), "orders.json"))
}

// --- HTTP helpers ---

func doReq(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func addItem(t *testing.T, term *terminal, productID string, quantity int) cartResponse {
	t.Helper()
	resp := doReq(t, http.MethodPost, term.baseURL+"/api/cart/items", map[string]any{
		"product_id": productID,
		"quantity":   quantity,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add item %s: status %d", productID, resp.StatusCode)
	}
	return decode[cartResponse](t, resp)
}
