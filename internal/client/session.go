package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go-ceremony-portal/internal/model"
)

// AuthState is the locally derived view of the cached credentials.
type AuthState struct {
	Authenticated bool
	Token         string
	Info          TokenInfo
}

// Session keeps AuthState in step with the cache: every change event
// re-derives it, whoever wrote the cache.
type Session struct {
	client *Client
	now    func() time.Time

	mu    sync.RWMutex
	state AuthState

	stop chan struct{}
	done chan struct{}
}

func NewSession(c *Client) *Session {
	s := &Session{
		client: c,
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	changes, unsubscribe := c.cache.Subscribe()
	s.refresh()

	go func() {
		defer close(s.done)
		defer unsubscribe()
		for {
			select {
			case <-s.stop:
				return
			case change, ok := <-changes:
				if !ok {
					return
				}
				if change.Key == KeyToken {
					s.refresh()
				}
			}
		}
	}()
	return s
}

func (s *Session) refresh() {
	state := AuthState{}
	if token, ok := s.client.cache.Get(KeyToken); ok && token != "" {
		if info, err := DecodeToken(token); err == nil && !info.Expired(s.now()) {
			state = AuthState{Authenticated: true, Token: token, Info: info}
		}
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) State() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Close stops following the cache.
func (s *Session) Close() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}

// LoginStaff exchanges staff credentials for a token and caches it.
func (s *Session) LoginStaff(ctx context.Context, username string, password string) (model.LoginResponse, error) {
	return s.login(ctx, "/api/v1/auth/login/staff", model.StaffLoginRequest{Username: username, Password: password})
}

func (s *Session) LoginGraduate(ctx context.Context, studentID string, secret string) (model.LoginResponse, error) {
	return s.login(ctx, "/api/v1/auth/login/graduate", model.GraduateLoginRequest{StudentID: studentID, Secret: secret})
}

func (s *Session) login(ctx context.Context, path string, payload any) (model.LoginResponse, error) {
	body, err := s.client.Request(ctx, http.MethodPost, path, SkipAuth(), WithJSONBody(payload))
	if err != nil {
		return model.LoginResponse{}, err
	}

	var resp model.LoginResponse
	if err := body.Decode(&resp); err != nil {
		return model.LoginResponse{}, fmt.Errorf("decode login response: %w", err)
	}
	if resp.Token == "" {
		return model.LoginResponse{}, fmt.Errorf("login response carried no token")
	}

	if err := s.client.cache.Set(KeyToken, resp.Token); err != nil {
		return model.LoginResponse{}, err
	}
	s.client.redirects.Reset()
	s.refresh()
	return resp, nil
}

// ReturnPath pops the destination remembered before the login redirect.
func (s *Session) ReturnPath(fallback string) string {
	target, ok := s.client.cache.Get(KeyRedirect)
	if !ok || target == "" {
		return fallback
	}
	_ = s.client.cache.Delete(KeyRedirect)
	return target
}

// Logout revokes the token server-side and always clears it locally.
func (s *Session) Logout(ctx context.Context) error {
	_, err := s.client.Request(ctx, http.MethodPost, "/api/v1/auth/logout", RedirectOnUnauthorized(false), ParseAs(BodyNone))
	if clearErr := s.client.cache.Delete(KeyToken); clearErr != nil && err == nil {
		err = clearErr
	}
	s.refresh()
	if errors.Is(err, ErrSessionExpired) {
		return nil
	}
	return err
}
