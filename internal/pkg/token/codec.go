// internal/pkg/token/codec.go
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Verification failure sentinels. Callers reject on any of them; they exist
// so logs and tests can tell the failure modes apart.
var (
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
	ErrIssuerMismatch   = errors.New("token issuer mismatch")
	ErrAudienceMismatch = errors.New("token audience mismatch")
)

// Claims carried by every signed credential.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// VerifyAudience checks if the expected audience is listed in the claims.
func (c *Claims) VerifyAudience(audience string) bool {
	for _, aud := range c.Audience {
		if aud == audience {
			return true
		}
	}
	return false
}

// Codec signs and verifies one credential family (one secret, one TTL).
// Portal, driver-access and driver-refresh tokens each get their own Codec
// so the secrets rotate independently and a token from one family can never
// verify under another.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

func NewCodec(secret []byte, issuer, audience string, ttl time.Duration) (*Codec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token codec requires a non-empty secret")
	}
	return &Codec{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}, nil
}

// TTL returns the lifetime this codec stamps on new credentials.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Sign mints a credential for the given subject and role.
func (c *Codec) Sign(subject, role string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(c.ttl)

	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			Audience:  []string{c.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        ulid.Make().String(),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify validates signature, expiry, issuer and audience and returns the
// claims. A credential is valid only when all four checks pass.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			// Malformed or otherwise unparsable; same outcome as a bad signature.
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrInvalidSignature
	}

	if claims.Issuer != c.issuer {
		return nil, ErrIssuerMismatch
	}
	if !claims.VerifyAudience(c.audience) {
		return nil, ErrAudienceMismatch
	}

	return claims, nil
}
