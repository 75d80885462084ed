package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/mpdx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	MethodSessionLogin    = "MYMPD_API_SESSION_LOGIN"
	MethodSessionLogout   = "MYMPD_API_SESSION_LOGOUT"
	MethodSessionValidate = "MYMPD_API_SESSION_VALIDATE"
)

// Session holds the myMPD session token that unlocks PIN protected methods.
//
// It implements [oauth2.TokenSource] so the token travels as a bearer header through
// [oauth2.Transport]. A Session is bound to the [Dispatcher] created with it.
type Session struct {
	mu     sync.RWMutex
	token  string
	caller SyncCaller
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// Token implements [oauth2.TokenSource].
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: s.token, TokenType: "Bearer"}, nil
}

// Active reports whether a session token is held.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Set replaces the session token. An empty token clears the session.
func (s *Session) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Login exchanges pin for a session token.
func (s *Session) Login(ctx context.Context, pin string) error {
	if s.caller == nil {
		return fmt.Errorf("%w: session is not bound to a dispatcher", shared.ErrNotConnected)
	}
	reply, err := s.caller.CallSync(ctx, MethodSessionLogin, map[string]any{"pin": pin}, true)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	var result struct {
		Session string `json:"session"`
	}
	if err := reply.Decode(&result); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if result.Session == "" {
		return fmt.Errorf("%w: no session in response", shared.ErrAuthFailed)
	}

	s.Set(result.Session)
	return nil
}

// Logout ends the session on the server and clears the local token.
func (s *Session) Logout(ctx context.Context) error {
	if !s.Active() {
		return nil
	}
	defer s.Set("")
	if s.caller == nil {
		return nil
	}
	_, err := s.caller.CallSync(ctx, MethodSessionLogout, nil, true)
	return err
}

// Validate asks the server whether the held token is still accepted. A rejected token is
// cleared.
func (s *Session) Validate(ctx context.Context) error {
	if !s.Active() {
		return shared.ErrNotAuthenticated
	}
	if s.caller == nil {
		return fmt.Errorf("%w: session is not bound to a dispatcher", shared.ErrNotConnected)
	}

	reply, err := s.caller.CallSync(ctx, MethodSessionValidate, nil, true)
	if err != nil || reply.Outcome != OutcomeSuccess {
		s.Set("")
		if err == nil {
			err = errors.New(reply.Outcome.String())
		}
		return fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
	}
	return nil
}

// RoundTripper wraps base so requests carry the bearer header while a session is active.
func (s *Session) RoundTripper(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &sessionTransport{session: s, base: base, bearer: &oauth2.Transport{Source: s, Base: base}}
}

type sessionTransport struct {
	session *Session
	base    http.RoundTripper
	bearer  *oauth2.Transport
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.session.Active() {
		return t.base.RoundTrip(req)
	}
	return t.bearer.RoundTrip(req)
}
