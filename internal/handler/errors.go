package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/beanbar/pos-terminal/internal/cafeapi"
	"github.com/beanbar/pos-terminal/internal/domain/cart"
	"github.com/beanbar/pos-terminal/internal/domain/catalog"
	"github.com/beanbar/pos-terminal/internal/domain/order"
)

// writeError maps a failure to a status code and a JSON body. Nothing
// here is fatal to the terminal; the user retries by repeating the
// gesture.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Gesture failed", zap.Error(err))
	} else {
		zctx.From(r.Context()).Info("Gesture rejected", zap.Error(err))
	}

	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(err.Error()) })
		})
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, cart.ErrLastOrder):
		return http.StatusConflict
	case errors.Is(err, order.ErrNothingToSubmit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, cafeapi.ErrBadCredentials):
		return http.StatusUnauthorized
	case cafeapi.IsTimeout(err):
		return http.StatusGatewayTimeout
	}

	var br *errBadRequest
	if errors.As(err, &br) {
		return http.StatusBadRequest
	}

	var lineErr *cart.LineIndexError
	var orderErr *cart.OrderIndexError
	if errors.As(err, &lineErr) || errors.As(err, &orderErr) {
		return http.StatusUnprocessableEntity
	}

	var statusErr *cafeapi.StatusError
	if errors.As(err, &statusErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// errBadRequest wraps malformed-request failures so they map to 400.
type errBadRequest struct{ err error }

func (e *errBadRequest) Error() string { return e.err.Error() }

func badRequest(err error) error { return &errBadRequest{err: err} }
