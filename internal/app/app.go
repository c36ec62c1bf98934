package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/beanbar/pos-terminal/internal/cafeapi"
	"github.com/beanbar/pos-terminal/internal/domain/cart"
	"github.com/beanbar/pos-terminal/internal/domain/order"
	"github.com/beanbar/pos-terminal/internal/handler"
	"github.com/beanbar/pos-terminal/internal/storage/file"
	"github.com/beanbar/pos-terminal/pkg/health"
	"github.com/beanbar/pos-terminal/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the terminal HTTP server, and
// handles graceful shutdown. It is the single wiring point for the
// application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("api_base_url", cfg.APIBaseURL),
		zap.String("state_path", cfg.StatePath),
	)

	// Remote café API client: catalog source, order sink, and session.
	client, err := cafeapi.NewClient(cafeapi.Config{
		BaseURL:        cfg.APIBaseURL,
		Timeout:        cfg.RequestTimeout,
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create api client")
	}

	// Cart store over the on-disk snapshot. The refresh signal is a
	// debug log here; the browser view polls the cart endpoint.
	store, err := cart.NewStore(ctx, file.NewOrderStore(cfg.StatePath), func() {
		lg.Debug("Cart state changed")
	})
	if err != nil {
		return errors.Wrap(err, "open cart store")
	}

	sequencer := order.NewSequencer(client, store)

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddReadinessCheck("cafe-api", cfg.RequestTimeout, func(ctx context.Context) error {
		_, err := client.ListCategories(ctx)
		return err
	})
	healthSvc.SetReady(true)

	h := handler.New(store, sequencer, client, client, client)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Terminal listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
