package cafeapi

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// The remote API is loose about scalar types: identifiers arrive as
// numbers or strings depending on the endpoint, and prices are plain
// JSON numbers. These helpers normalize both directions.

// decodeFlexID reads a string, number, or null token as a string.
func decodeFlexID(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	case jx.Null:
		return "", d.Null()
	default:
		return "", errors.Errorf("unexpected %s token for identifier", d.Next())
	}
}

// encodeFlexID writes id as a JSON number when it is numeric, matching
// what the API hands out, and as a string otherwise. Empty ids become
// null.
func encodeFlexID(e *jx.Encoder, id string) {
	switch {
	case id == "":
		e.Null()
	case isDigits(id):
		e.Num(jx.Num(id))
	default:
		e.Str(id)
	}
}

func isDigits(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// decodeDecimal reads a JSON number or numeric string as a decimal.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = s
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = n.String()
	default:
		return decimal.Zero, errors.Errorf("unexpected %s token for price", d.Next())
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse price %q", raw)
	}
	return v, nil
}
