package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<16))
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}

	var name, password string
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			name, err = d.Str()
		case "password":
			password, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, r, badRequest(errors.Wrap(err, "decode body")))
		return
	}
	if name == "" || password == "" {
		writeError(w, r, badRequest(errors.New("name and password are required")))
		return
	}

	if err := h.session.Login(r.Context(), name, password); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w)
}

func (h *Handler) checkLogin(w http.ResponseWriter, r *http.Request) {
	loggedIn, err := h.session.CheckLogin(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("loggedIn", func(e *jx.Encoder) { e.Bool(loggedIn) })
		})
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w)
}
