package cafeapi

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/beanbar/pos-terminal/internal/domain/catalog"
)

var _ catalog.Editor = (*Client)(nil)

// CreateProduct adds a product to the remote catalog and returns the
// stored record.
func (c *Client) CreateProduct(ctx context.Context, draft catalog.ProductDraft) (*catalog.Product, error) {
	body, err := c.postJSON(ctx, encodeDraft(draft), "products")
	if err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return c.decodeProductBody(body)
}

// UpdateProduct replaces the editable fields of an existing product.
func (c *Client) UpdateProduct(ctx context.Context, id string, draft catalog.ProductDraft) (*catalog.Product, error) {
	body, err := c.putJSON(ctx, encodeDraft(draft), "products", id)
	if err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	return c.decodeProductBody(body)
}

// DeleteProduct removes a product from the remote catalog.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if _, err := c.delete(ctx, "products", id); err != nil {
		return errors.Wrap(err, "delete product")
	}
	return nil
}

// UploadProductImage sends a product image as a multipart form with
// the product id and the file, matching the /upload contract.
func (c *Client) UploadProductImage(ctx context.Context, id, filename string, data []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("id", id); err != nil {
		return errors.Wrap(err, "write id field")
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return errors.Wrap(err, "create file part")
	}
	if _, err := fw.Write(data); err != nil {
		return errors.Wrap(err, "write file part")
	}
	if err := mw.Close(); err != nil {
		return errors.Wrap(err, "finish form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("upload"), &buf)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if _, err := c.do(req); err != nil {
		return errors.Wrap(err, "upload image")
	}
	return nil
}

func encodeDraft(draft catalog.ProductDraft) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) {
			e.Str(draft.Name)
		})
		e.Field("price", func(e *jx.Encoder) {
			e.Num(jx.Num(draft.Price.String()))
		})
		e.Field("category_id", func(e *jx.Encoder) {
			encodeFlexID(e, draft.CategoryID)
		})
	})
	return e.Bytes()
}

func (c *Client) decodeProductBody(body []byte) (*catalog.Product, error) {
	d := jx.DecodeBytes(body)
	p, err := c.decodeProduct(d)
	if err != nil {
		return nil, errors.Wrap(err, "decode product")
	}
	return &p, nil
}
