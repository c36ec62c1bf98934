package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/beanbar/pos-terminal/internal/domain/catalog"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.refreshCatalog(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, p := range products {
				encodeProduct(e, p)
			}
		})
	})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.source.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, c := range categories {
				e.Obj(func(e *jx.Encoder) {
					e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
					e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
				})
			}
		})
	})
}

func decodeDraft(body []byte) (catalog.ProductDraft, error) {
	var draft catalog.ProductDraft
	d := jx.DecodeBytes(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			draft.Name = v
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
			draft.Price = v
			return nil
		case "category_id":
			v, err := d.Str()
			draft.CategoryID = v
			return err
		default:
			return d.Skip()
		}
	})
	return draft, err
}

func (h *Handler) readDraft(w http.ResponseWriter, r *http.Request) (catalog.ProductDraft, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<16))
	if err != nil {
		writeError(w, r, badRequest(err))
		return catalog.ProductDraft{}, false
	}
	draft, err := decodeDraft(body)
	if err != nil {
		writeError(w, r, badRequest(errors.Wrap(err, "decode body")))
		return catalog.ProductDraft{}, false
	}
	if draft.Name == "" {
		writeError(w, r, badRequest(errors.New("name is required")))
		return catalog.ProductDraft{}, false
	}
	if draft.Price.IsNegative() {
		writeError(w, r, badRequest(errors.New("price must not be negative")))
		return catalog.ProductDraft{}, false
	}
	return draft, true
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.readDraft(w, r)
	if !ok {
		return
	}
	p, err := h.editor.CreateProduct(r.Context(), draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeProduct(e, *p)
	})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.readDraft(w, r)
	if !ok {
		return
	}
	p, err := h.editor.UpdateProduct(r.Context(), r.PathValue("id"), draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeProduct(e, *p)
	})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.editor.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w)
}

// uploadProductImage forwards a multipart image upload to the remote
// API under the product id from the path.
func (h *Handler) uploadProductImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, r, badRequest(errors.Wrap(err, "parse form")))
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, badRequest(errors.Wrap(err, "missing file field")))
		return
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, r, badRequest(errors.Wrap(err, "read file")))
		return
	}
	if err := h.editor.UploadProductImage(r.Context(), r.PathValue("id"), header.Filename, data); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w)
}
