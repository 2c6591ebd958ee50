package identity

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoVerifyKey is returned when no verification key is configured.
var ErrNoVerifyKey = errors.New("no id token verification key configured")

// Claims holds the id token claims the application reads.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Verifier validates id tokens issued by the wallet provider (RS256 or
// ES256, checking exp and, when configured, iss and aud).
type Verifier struct {
	key      crypto.PublicKey
	issuer   string
	audience string
}

// NewVerifier returns a Verifier for the given public key. A nil key
// makes every verification fail with ErrNoVerifyKey.
func NewVerifier(key crypto.PublicKey, issuer, audience string) *Verifier {
	return &Verifier{key: key, issuer: issuer, audience: audience}
}

// LoadVerifyKey parses a PEM-encoded RSA or ECDSA public key. The value may
// be the PEM text itself or a path to a file holding it. An empty value
// yields a nil key.
func LoadVerifyKey(value string) (crypto.PublicKey, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	pemBytes := []byte(value)
	if !strings.HasPrefix(value, "-----BEGIN") {
		data, err := os.ReadFile(value)
		if err != nil {
			return nil, fmt.Errorf("reading verify key %s: %w", value, err)
		}
		pemBytes = data
	}

	if key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes); err == nil {
		return key, nil
	}
	key, err := jwt.ParseECPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing verify key: not an RSA or ECDSA public key: %w", err)
	}
	return key, nil
}

// Verify parses and validates tokenString.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if v == nil || v.key == nil {
		return nil, ErrNoVerifyKey
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		switch v.key.(type) {
		case *rsa.PublicKey:
			if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
				return v.key, nil
			}
		case *ecdsa.PublicKey:
			if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
				return v.key, nil
			}
		}
		return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
