package jwt

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type symmetricSigner struct {
	secret []byte
}

func (s *symmetricSigner) Sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *symmetricSigner) Method() string {
	return jwt.SigningMethodHS256.Alg()
}

// NewSymmetric creates an HS256 Manager.
func NewSymmetric(secret []byte, issuer string) (*Manager, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("JWT secret cannot be empty")
	}
	return newManager(&symmetricSigner{secret: secret}, issuer, secret), nil
}
