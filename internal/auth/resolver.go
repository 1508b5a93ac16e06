package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go-ceremony-portal/internal/model"
)

// RevocationList records token IDs invalidated before their natural expiry.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, principalID int64, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Session is what a successful resolution yields: the live principal plus
// the claims of the token that proved it.
type Session struct {
	Principal Principal
	Claims    *Claims
}

// Resolver turns an incoming request into a live principal. It keeps no
// state between calls; every request re-verifies the token and re-reads the
// principal record.
type Resolver struct {
	issuer    *Issuer
	staff     StaffDirectory
	graduates GraduateDirectory
	revoked   RevocationList
}

func NewResolver(issuer *Issuer, staff StaffDirectory, graduates GraduateDirectory, revoked RevocationList) *Resolver {
	return &Resolver{issuer: issuer, staff: staff, graduates: graduates, revoked: revoked}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (Session, error) {
	raw, ok := BearerToken(req.Header.Get("Authorization"))
	if !ok {
		return Session{}, model.ErrUnauthenticated
	}
	return r.ResolveToken(ctx, raw)
}

func (r *Resolver) ResolveToken(ctx context.Context, raw string) (Session, error) {
	claims, err := r.issuer.Verify(raw)
	if err != nil {
		return Session{}, model.ErrUnauthenticated
	}

	if r.revoked != nil && claims.ID != "" {
		revoked, err := r.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return Session{}, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return Session{}, fmt.Errorf("%w: %w", model.ErrUnauthenticated, model.ErrTokenRevoked)
		}
	}

	id, err := claims.PrincipalID()
	if err != nil {
		return Session{}, err
	}

	principal, err := r.load(ctx, claims.Kind, id)
	if err != nil {
		return Session{}, err
	}

	return Session{Principal: principal, Claims: claims}, nil
}

func (r *Resolver) load(ctx context.Context, kind Kind, id int64) (Principal, error) {
	switch kind {
	case KindStaff:
		user, err := r.staff.FindByID(ctx, id)
		if errors.Is(err, model.ErrUserNotFound) {
			return Principal{}, model.ErrUnauthenticated
		}
		if err != nil {
			return Principal{}, fmt.Errorf("load staff principal: %w", err)
		}
		return StaffPrincipal(user), nil
	case KindGraduate:
		graduate, err := r.graduates.FindByID(ctx, id)
		if errors.Is(err, model.ErrGraduateNotFound) {
			return Principal{}, model.ErrUnauthenticated
		}
		if err != nil {
			return Principal{}, fmt.Errorf("load graduate principal: %w", err)
		}
		return GraduatePrincipal(graduate), nil
	default:
		return Principal{}, model.ErrUnauthenticated
	}
}
