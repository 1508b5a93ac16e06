package client

import (
	"net/url"
	"slices"
	"strings"
	"time"

	"go-ceremony-portal/internal/model"
)

type State int

const (
	StatePublic State = iota + 1
	StateChecking
	StateRedirecting
	StateAllowed
)

func (s State) String() string {
	switch s {
	case StatePublic:
		return "public"
	case StateChecking:
		return "checking"
	case StateRedirecting:
		return "redirecting"
	case StateAllowed:
		return "allowed"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a navigation check. RedirectTo is set only in
// StateRedirecting.
type Decision struct {
	State      State
	RedirectTo string
	Role       model.Role
}

// RouteRule restricts a path prefix to a set of roles.
type RouteRule struct {
	Prefix string
	Roles  []model.Role
}

func (r RouteRule) matches(path string) bool {
	return path == r.Prefix || strings.HasPrefix(path, r.Prefix+"/")
}

func DefaultRouteRules() []RouteRule {
	supervisor := []model.Role{model.RoleSupervisor}
	return []RouteRule{
		{Prefix: "/settings/users", Roles: supervisor},
		{Prefix: "/settings", Roles: supervisor},
		{Prefix: "/graduates", Roles: supervisor},
	}
}

// Guard gates client-side navigation using only the cached token. It never
// calls the server; the server still checks every request.
type Guard struct {
	cache     Cache
	rules     []RouteRule
	now       func() time.Time
	loginPath string
	homePath  string
	onState   func(State)
}

type GuardOption func(*Guard)

func WithRouteRules(rules []RouteRule) GuardOption {
	return func(g *Guard) {
		g.rules = rules
	}
}

func WithGuardClock(now func() time.Time) GuardOption {
	return func(g *Guard) {
		g.now = now
	}
}

// WithStateHook observes every state the guard passes through.
func WithStateHook(fn func(State)) GuardOption {
	return func(g *Guard) {
		g.onState = fn
	}
}

func NewGuard(cache Cache, opts ...GuardOption) *Guard {
	g := &Guard{
		cache:     cache,
		rules:     DefaultRouteRules(),
		now:       time.Now,
		loginPath: "/login",
		homePath:  "/dashboard",
	}
	for _, opt := range opts {
		opt(g)
	}

	// Longest prefix wins.
	g.rules = slices.Clone(g.rules)
	slices.SortStableFunc(g.rules, func(a, b RouteRule) int {
		return len(b.Prefix) - len(a.Prefix)
	})
	return g
}

func isPublic(path string) bool {
	return path == "/" || strings.HasPrefix(path, "/login")
}

func (g *Guard) Evaluate(destination string) Decision {
	path := destination
	if u, err := url.Parse(destination); err == nil && u.Path != "" {
		path = u.Path
	}

	if isPublic(path) {
		return g.settle(Decision{State: StatePublic})
	}
	g.enter(StateChecking)

	token, ok := g.cache.Get(KeyToken)
	if !ok || strings.TrimSpace(token) == "" {
		_ = g.cache.Set(KeyRedirect, destination)
		return g.settle(Decision{State: StateRedirecting, RedirectTo: g.loginRedirect(destination)})
	}

	info, err := DecodeToken(token)
	if err != nil || info.Expired(g.now()) {
		_ = g.cache.Delete(KeyToken)
		_ = g.cache.Set(KeyRedirect, destination)
		return g.settle(Decision{State: StateRedirecting, RedirectTo: g.loginRedirect(destination)})
	}

	for _, rule := range g.rules {
		if !rule.matches(path) {
			continue
		}
		if !slices.Contains(rule.Roles, info.Role) {
			return g.settle(Decision{State: StateRedirecting, RedirectTo: g.homePath, Role: info.Role})
		}
		break
	}

	return g.settle(Decision{State: StateAllowed, Role: info.Role})
}

func (g *Guard) loginRedirect(destination string) string {
	return g.loginPath + "?redirect=" + url.QueryEscape(destination)
}

func (g *Guard) enter(s State) {
	if g.onState != nil {
		g.onState(s)
	}
}

func (g *Guard) settle(d Decision) Decision {
	g.enter(d.State)
	return d
}
