package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"go-ceremony-portal/internal/auth"
	"go-ceremony-portal/internal/event"
	"go-ceremony-portal/internal/model"
	"go-ceremony-portal/internal/observability"
)

const tracerName = "go-ceremony-portal/middleware"

type sessionResolver interface {
	Resolve(ctx context.Context, r *http.Request) (auth.Session, error)
}

type authorizer interface {
	Authorize(principal auth.Principal, resource auth.Resource, action auth.Action) (auth.Scope, error)
}

type contextKey string

const (
	sessionContextKey     contextKey = "auth_session"
	scopeContextKey       contextKey = "auth_scope"
	requestInfoContextKey contextKey = "request_info"
)

// AuthMiddleware is the single gate in front of every protected route:
// RequireAuth resolves the session, Authorize consults the central policy.
type AuthMiddleware struct {
	resolver sessionResolver
	policy   authorizer
	bus      event.Bus
	metrics  *observability.Metrics
	tracer   trace.Tracer
}

func NewAuthMiddleware(resolver sessionResolver, policy authorizer, bus event.Bus, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		resolver: resolver,
		policy:   policy,
		bus:      bus,
		metrics:  metrics,
		tracer:   otel.Tracer(tracerName),
	}
}

// RequireAuth answers 401 when the request carries no valid session and
// 500 when the store could not be consulted.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.Start(r.Context(), "auth.resolve_session")
		session, err := m.resolver.Resolve(ctx, r)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "unauthenticated")
			span.End()

			if errors.Is(err, model.ErrUnauthenticated) {
				m.metrics.ObserveResolve("unauthenticated")
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}
			m.metrics.ObserveResolve("error")
			slog.Error("session resolution failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
			writeJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
			return
		}

		span.SetAttributes(
			attribute.String("auth.kind", string(session.Principal.Kind)),
			attribute.Int64("auth.principal_id", session.Principal.ID),
			attribute.String("auth.role", session.Principal.Role.String()),
		)
		span.SetStatus(codes.Ok, "")
		span.End()

		m.metrics.ObserveResolve("ok")
		setLoggedPrincipal(r.Context(), string(session.Principal.Kind)+":"+session.Principal.Subject())

		ctx = context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authorize must run after RequireAuth. It answers 403 on denial and stores
// the granted scope for the handler.
func (m *AuthMiddleware) Authorize(resource auth.Resource, action auth.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}

			scope, err := m.policy.Authorize(session.Principal, resource, action)
			if err != nil {
				m.metrics.ObserveDecision(string(resource), string(action), "denied")
				m.publishDenied(r, session.Principal, resource, action)
				writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "access denied")
				return
			}

			m.metrics.ObserveDecision(string(resource), string(action), "allowed")
			ctx := context.WithValue(r.Context(), scopeContextKey, scope)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require is RequireAuth followed by Authorize, for route declarations.
func (m *AuthMiddleware) Require(resource auth.Resource, action auth.Action) func(http.Handler) http.Handler {
	authorize := m.Authorize(resource, action)
	return func(next http.Handler) http.Handler {
		return m.RequireAuth(authorize(next))
	}
}

func (m *AuthMiddleware) publishDenied(r *http.Request, p auth.Principal, resource auth.Resource, action auth.Action) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(event.Event{
		Type:     event.TypeAccessDenied,
		Actor:    model.AuditActor{PrincipalID: p.ID, Name: p.Name, Role: p.Role, IP: ClientIP(r)},
		Status:   event.StatusDenied,
		Resource: string(action) + " " + string(resource),
	})
}

func SessionFromContext(ctx context.Context) (auth.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(auth.Session)
	return session, ok
}

func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	session, ok := SessionFromContext(ctx)
	return session.Principal, ok
}

// ScopeFromContext returns the scope granted by Authorize. Without one the
// zero Scope is returned, which permits nothing.
func ScopeFromContext(ctx context.Context) auth.Scope {
	scope, _ := ctx.Value(scopeContextKey).(auth.Scope)
	return scope
}
