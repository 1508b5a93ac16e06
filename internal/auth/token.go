package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-ceremony-portal/internal/model"
)

// Claims is the token body. It identifies the principal and carries a role
// hint for clients; the server re-reads the role from the store.
type Claims struct {
	Name string     `json:"name"`
	Role model.Role `json:"role"`
	Kind Kind       `json:"knd"`
	jwt.RegisteredClaims
}

func (c *Claims) PrincipalID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid token subject", model.ErrUnauthenticated)
	}
	return id, nil
}

type Token struct {
	Value     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Issuer struct {
	secret      []byte
	name        string
	staffTTL    time.Duration
	graduateTTL time.Duration
	now         func() time.Time
}

type IssuerOption func(*Issuer)

// WithClock replaces time.Now, mostly for expiry tests.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.now = now
	}
}

// WithIssuerName sets the iss claim and requires it on verification.
func WithIssuerName(name string) IssuerOption {
	return func(i *Issuer) {
		i.name = strings.TrimSpace(name)
	}
}

// NewIssuer fails with model.ErrConfiguration when the signing secret is
// empty; callers treat that as fatal at startup.
func NewIssuer(secret string, staffTTL time.Duration, graduateTTL time.Duration, opts ...IssuerOption) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("%w: token signing secret is required", model.ErrConfiguration)
	}
	if staffTTL <= 0 || graduateTTL <= 0 {
		return nil, fmt.Errorf("%w: token lifetimes must be positive", model.ErrConfiguration)
	}

	issuer := &Issuer{
		secret:      []byte(secret),
		staffTTL:    staffTTL,
		graduateTTL: graduateTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(issuer)
	}

	return issuer, nil
}

func (i *Issuer) TTL(kind Kind) time.Duration {
	if kind == KindGraduate {
		return i.graduateTTL
	}
	return i.staffTTL
}

func (i *Issuer) Issue(p Principal) (Token, error) {
	if p.ID <= 0 || (p.Kind != KindStaff && p.Kind != KindGraduate) {
		return Token{}, fmt.Errorf("issue token: %w", model.ErrInvalidInput)
	}

	// NumericDate has second precision; truncate so ExpiresAt matches the claim.
	now := i.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(i.TTL(p.Kind))
	jti := uuid.NewString()

	claims := Claims{
		Name: p.Name,
		Role: p.Role,
		Kind: p.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   p.Subject(),
			Issuer:    i.name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{Value: signed, ID: jti, IssuedAt: now, ExpiresAt: expiresAt}, nil
}

// Verify checks signature, algorithm and expiry. Any failure returns
// model.ErrUnauthenticated; a token is valid only while now < exp.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, model.ErrUnauthenticated
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.name != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(i.name))
	}

	claims := &Claims{}
	parsed, err := jwt.NewParser(parserOpts...).ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, model.ErrUnauthenticated
	}

	if _, err := claims.PrincipalID(); err != nil {
		return nil, err
	}
	if claims.Kind != KindStaff && claims.Kind != KindGraduate {
		return nil, model.ErrUnauthenticated
	}

	return claims, nil
}
