// Package qr turns an access grant into the payload a patient shows as a QR
// code, and parses it back on the doctor's side.
//
// The payload is a URI: sehati:grant?token=<token>&key=<base64url key>.
package qr

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/sehati-health/sehati/internal/common"
	"github.com/skip2/go-qrcode"
)

const (
	scheme = "sehati"
	kind   = "grant"
)

type Payload struct {
	Token string
	Key   []byte
}

func Encode(p Payload) string {
	q := url.Values{}
	q.Set("token", p.Token)
	q.Set("key", base64.RawURLEncoding.EncodeToString(p.Key))
	u := url.URL{Scheme: scheme, Opaque: kind, RawQuery: q.Encode()}
	return u.String()
}

func Parse(s string) (*Payload, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed grant payload", common.ErrValidation)
	}
	if u.Scheme != scheme || u.Opaque != kind {
		return nil, fmt.Errorf("%w: not a sehati grant payload", common.ErrValidation)
	}

	q := u.Query()
	token := q.Get("token")
	if token == "" {
		return nil, fmt.Errorf("%w: grant payload has no token", common.ErrValidation)
	}

	var key []byte
	if k := q.Get("key"); k != "" {
		key, err = base64.RawURLEncoding.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("%w: grant key is not base64url", common.ErrValidation)
		}
	}
	return &Payload{Token: token, Key: key}, nil
}

// Render draws the payload with half-block characters for a terminal.
func Render(payload string) (string, error) {
	code, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return "", err
	}
	return code.ToSmallString(false), nil
}

// PNG encodes the payload as a size x size PNG image.
func PNG(payload string, size int) ([]byte, error) {
	return qrcode.Encode(payload, qrcode.Medium, size)
}
