package cafeapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// ErrBadCredentials is returned by Login when the API rejects the
// username/password pair.
var ErrBadCredentials = errors.New("invalid username or password")

// Login authenticates against the remote API. On success the session
// cookie lands in the client's jar and rides along on every later
// request.
func (c *Client) Login(ctx context.Context, name, password string) error {
	form := url.Values{
		"name":     {name},
		"password": {password},
	}
	_, err := c.postForm(ctx, form, "login")
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusUnauthorized {
			return ErrBadCredentials
		}
		return errors.Wrap(err, "login")
	}
	return nil
}

// CheckLogin reports whether the current session cookie is still
// accepted by the API.
func (c *Client) CheckLogin(ctx context.Context) (bool, error) {
	body, err := c.get(ctx, "check-login")
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusUnauthorized {
			return false, nil
		}
		return false, errors.Wrap(err, "check login")
	}

	var loggedIn bool
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "loggedIn" {
			return d.Skip()
		}
		var err error
		loggedIn, err = d.Bool()
		return err
	}); err != nil {
		return false, errors.Wrap(err, "decode login status")
	}
	return loggedIn, nil
}

// Logout terminates the remote session.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.postJSON(ctx, nil, "logout"); err != nil {
		return errors.Wrap(err, "logout")
	}
	return nil
}
