package cafeapi

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/beanbar/pos-terminal/internal/domain/catalog"
)

var _ catalog.Source = (*Client)(nil)

// ListProducts fetches the product catalog. Image URLs are derived
// from the product id, the way the menu pages built them.
func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	body, err := c.get(ctx, "products")
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	var products []catalog.Product
	d := jx.DecodeBytes(body)
	if err := d.Arr(func(d *jx.Decoder) error {
		p, err := c.decodeProduct(d)
		if err != nil {
			return err
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

// ListCategories fetches the menu categories. The remote API exposes
// them under /tags.
func (c *Client) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	body, err := c.get(ctx, "tags")
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}

	var categories []catalog.Category
	d := jx.DecodeBytes(body)
	if err := d.Arr(func(d *jx.Decoder) error {
		var cat catalog.Category
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				cat.ID, err = decodeFlexID(d)
			case "name":
				cat.Name, err = d.Str()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		categories = append(categories, cat)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode categories")
	}
	return categories, nil
}

// decodeProduct reads one product object. Unknown fields are skipped
// so catalog additions do not break old terminals.
func (c *Client) decodeProduct(d *jx.Decoder) (catalog.Product, error) {
	var p catalog.Product
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = decodeFlexID(d)
		case "name":
			p.Name, err = d.Str()
		case "price":
			p.Price, err = decodeDecimal(d)
		case "tag_id", "category_id":
			p.CategoryID, err = decodeFlexID(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return catalog.Product{}, err
	}
	if p.ID != "" {
		p.ImageURL = c.endpoint("images", p.ID+".png")
	}
	return p, nil
}
