package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-ceremony-portal/internal/auth"
	"go-ceremony-portal/internal/event"
	"go-ceremony-portal/internal/model"
	"go-ceremony-portal/internal/observability"
)

const tokenType = "Bearer"

// AuthService turns verified credentials into tokens and revokes them on
// logout. Authorization decisions live in auth.Policy, not here.
type AuthService struct {
	verifier *auth.Verifier
	issuer   *auth.Issuer
	revoked  auth.RevocationList
	bus      event.Bus
	metrics  *observability.Metrics
}

func NewAuthService(verifier *auth.Verifier, issuer *auth.Issuer, revoked auth.RevocationList, bus event.Bus, metrics *observability.Metrics) *AuthService {
	return &AuthService{
		verifier: verifier,
		issuer:   issuer,
		revoked:  revoked,
		bus:      bus,
		metrics:  metrics,
	}
}

func (s *AuthService) LoginStaff(ctx context.Context, username string, password string, actor model.AuditActor) (model.LoginResponse, error) {
	actor.Name = username
	return s.login(auth.KindStaff, actor, func() (auth.Principal, error) {
		return s.verifier.VerifyStaff(ctx, username, password)
	})
}

func (s *AuthService) LoginGraduate(ctx context.Context, studentID string, secret string, actor model.AuditActor) (model.LoginResponse, error) {
	actor.Name = studentID
	return s.login(auth.KindGraduate, actor, func() (auth.Principal, error) {
		return s.verifier.VerifyGraduate(ctx, studentID, secret)
	})
}

func (s *AuthService) login(kind auth.Kind, actor model.AuditActor, verify func() (auth.Principal, error)) (model.LoginResponse, error) {
	principal, err := verify()
	if err != nil {
		result := "error"
		if errors.Is(err, model.ErrInvalidCredentials) {
			result = "invalid_credentials"
		}
		s.metrics.ObserveLogin(string(kind), result)
		s.publish(event.Event{
			Type:     event.TypeLoginFailed,
			Actor:    actor,
			Status:   event.StatusFailure,
			Resource: string(kind),
			Error:    result,
		})
		return model.LoginResponse{}, err
	}

	token, err := s.issuer.Issue(principal)
	if err != nil {
		s.metrics.ObserveLogin(string(kind), "error")
		return model.LoginResponse{}, fmt.Errorf("issue token: %w", err)
	}

	s.metrics.ObserveLogin(string(kind), "success")
	s.publish(event.Event{
		Type:     event.TypeLoginSucceeded,
		Actor:    principalActor(principal, actor.IP),
		Status:   event.StatusSuccess,
		Resource: string(kind),
	})

	return model.LoginResponse{
		Success:   true,
		Token:     token.Value,
		TokenType: tokenType,
		ExpiresAt: token.ExpiresAt,
		User:      principal.AuthUser(),
	}, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, session auth.Session, ip string) error {
	if session.Claims == nil || session.Claims.ID == "" {
		return fmt.Errorf("%w: token has no id", model.ErrInvalidInput)
	}
	if s.revoked == nil {
		return fmt.Errorf("%w: no revocation store configured", model.ErrConfiguration)
	}

	expiresAt := time.Now().Add(s.issuer.TTL(session.Principal.Kind))
	if session.Claims.ExpiresAt != nil {
		expiresAt = session.Claims.ExpiresAt.Time
	}

	if err := s.revoked.Revoke(ctx, session.Claims.ID, session.Principal.ID, expiresAt); err != nil {
		return err
	}

	s.publish(event.Event{
		Type:   event.TypeLogout,
		Actor:  principalActor(session.Principal, ip),
		Status: event.StatusSuccess,
	})
	return nil
}

func (s *AuthService) publish(e event.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(e)
}

func principalActor(p auth.Principal, ip string) model.AuditActor {
	return model.AuditActor{PrincipalID: p.ID, Name: p.Name, Role: p.Role, IP: ip}
}
