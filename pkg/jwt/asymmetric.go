package jwt

import (
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type asymmetricSigner struct {
	privateKey *rsa.PrivateKey
}

func (s *asymmetricSigner) Sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
}

func (s *asymmetricSigner) Method() string {
	return jwt.SigningMethodRS256.Alg()
}

// NewAsymmetric creates an RS256 Manager.
func NewAsymmetric(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, issuer string) (*Manager, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	if publicKey == nil {
		return nil, fmt.Errorf("public key cannot be nil")
	}
	return newManager(&asymmetricSigner{privateKey: privateKey}, issuer, publicKey), nil
}
