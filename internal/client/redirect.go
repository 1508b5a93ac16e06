package client

import "sync/atomic"

// Navigator moves the user to another location: a browser shell, a TUI, or
// a CLI that prints a hint.
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) {
	f(path)
}

// RedirectGuard lets exactly one caller start a login redirect until Reset
// is called, so a burst of 401 responses navigates once.
type RedirectGuard struct {
	redirecting atomic.Bool
}

func NewRedirectGuard() *RedirectGuard {
	return &RedirectGuard{}
}

// Begin reports whether the caller won the right to redirect.
func (g *RedirectGuard) Begin() bool {
	return g.redirecting.CompareAndSwap(false, true)
}

func (g *RedirectGuard) Redirecting() bool {
	return g.redirecting.Load()
}

// Reset re-arms the guard, typically after a successful login.
func (g *RedirectGuard) Reset() {
	g.redirecting.Store(false)
}
