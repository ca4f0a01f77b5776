// Package visitor identifies the anonymous holder of a cart. The token only
// names a cart; it grants nothing else.
package visitor

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "storefront-cart"

var ErrInvalidToken = errors.New("invalid visitor token")

type TokenMaker struct {
	secret []byte
	issuer string
}

func NewTokenMaker(secret string) *TokenMaker {
	return &TokenMaker{
		secret: []byte(secret),
		issuer: issuer,
	}
}

type Claims struct {
	VisitorID string `json:"vid"`
	jwt.RegisteredClaims
}

// NewVisitorID returns a fresh random visitor id.
func NewVisitorID() string {
	return "v_" + uuid.NewString()
}

// New signs a token for visitorID. A zero ttl issues a token without expiry.
func (t *TokenMaker) New(visitorID string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		VisitorID: visitorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  visitorID,
			Issuer:   t.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *TokenMaker) Parse(tokenStr string) (Claims, error) {
	var c Claims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
	)
	if err != nil || token == nil || !token.Valid || c.VisitorID == "" {
		return Claims{}, ErrInvalidToken
	}
	return c, nil
}
