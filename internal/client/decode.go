package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-ceremony-portal/internal/auth"
	"go-ceremony-portal/internal/model"
)

var ErrMalformedToken = errors.New("malformed token")

// TokenInfo is what the client can learn from a token without the signing
// key. It is advisory; the server decides.
type TokenInfo struct {
	Subject   string
	Name      string
	Role      model.Role
	Kind      auth.Kind
	ExpiresAt time.Time
}

func (t TokenInfo) Expired(now time.Time) bool {
	return t.ExpiresAt.IsZero() || !now.Before(t.ExpiresAt)
}

// DecodeToken reads the claims of a token without checking its signature.
func DecodeToken(raw string) (TokenInfo, error) {
	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	info := TokenInfo{
		Subject: claims.Subject,
		Name:    claims.Name,
		Role:    claims.Role,
		Kind:    claims.Kind,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
