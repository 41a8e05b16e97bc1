// Package jwt issues and verifies the bearer tokens carried by console operators.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenExpired          = errors.New("token is expired")
	ErrTokenNotValidYet      = errors.New("token is not yet valid")
	ErrTokenInvalid          = errors.New("token is invalid")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
)

// DefaultLeeway absorbs clock drift between the token issuer and this service.
const DefaultLeeway = 30 * time.Second

// Manager signs and verifies tokens for a single algorithm family.
type Manager struct {
	signer  Signer
	issuer  string
	leeway  time.Duration
	keyFunc jwt.Keyfunc
}

// Claims carries the registered claims plus a free-form payload such as user_id, name and email.
type Claims struct {
	jwt.RegisteredClaims
	Payload map[string]interface{} `json:"payload"`
}

// Signer signs claims with one algorithm.
type Signer interface {
	Sign(claims jwt.Claims) (string, error)
	// Method is the algorithm name accepted on parse, e.g. HS256.
	Method() string
}

// Option modifies the claims of a token being generated.
type Option func(*Claims)

// WithExpiresAt sets a specific expiration time for the token.
func WithExpiresAt(t time.Time) Option {
	return func(c *Claims) {
		c.ExpiresAt = jwt.NewNumericDate(t)
	}
}

// WithTTL expires the token ttl after it is issued.
func WithTTL(ttl time.Duration) Option {
	return func(c *Claims) {
		c.ExpiresAt = jwt.NewNumericDate(c.IssuedAt.Add(ttl))
	}
}

// WithNotBefore sets a specific not-before time for the token.
func WithNotBefore(t time.Time) Option {
	return func(c *Claims) {
		c.NotBefore = jwt.NewNumericDate(t)
	}
}

// WithSubject sets the sub claim, usually the operator id.
func WithSubject(sub string) Option {
	return func(c *Claims) {
		c.Subject = sub
	}
}

func newManager(signer Signer, issuer string, key interface{}) *Manager {
	return &Manager{
		signer: signer,
		issuer: issuer,
		leeway: DefaultLeeway,
		keyFunc: func(*jwt.Token) (interface{}, error) {
			return key, nil
		},
	}
}

// Generate signs a token carrying payload.
func (g *Manager) Generate(payload map[string]interface{}, opts ...Option) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   g.issuer,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		Payload: payload,
	}
	for _, opt := range opts {
		opt(claims)
	}
	return g.signer.Sign(claims)
}

// Parse verifies the token and returns its payload. Tokens from another issuer are rejected
// when the manager has an issuer.
func (g *Manager) Parse(tokenString string) (map[string]interface{}, error) {
	claims, err := g.ParseClaims(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Payload == nil {
		return map[string]interface{}{}, nil
	}
	return claims.Payload, nil
}

// ParseClaims is Parse with access to the registered claims.
func (g *Manager) ParseClaims(tokenString string) (*Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{g.signer.Method()}),
		jwt.WithLeeway(g.leeway),
		jwt.WithIssuedAt(),
	}
	if g.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(g.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, g.keyFunc, parserOpts...)
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrTokenNotValidYet
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignatureInvalid
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}
