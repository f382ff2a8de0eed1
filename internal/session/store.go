// Package session holds the signed-in user and bearer token for the client.
package session

import (
	"context"
	"sync"

	"github.com/Pradeepvanguru/Testing-Tool/internal/models"

	"github.com/charmbracelet/log"
)

// ProfileFetcher resolves the current token to its user.
type ProfileFetcher interface {
	Profile(ctx context.Context) (*models.User, error)
}

// Snapshot is a copy of the store state handed to subscribers.
type Snapshot struct {
	User    *models.User
	Token   string
	Loading bool
}

// Authenticated reports whether a user is signed in.
func (s Snapshot) Authenticated() bool { return s.User != nil && s.Token != "" }

// Store is the process-wide session: {user, token, loading}. Loading is true
// from construction until Init finishes; protected content must not be shown
// while it is set.
type Store struct {
	tokens   TokenStore
	profiles ProfileFetcher
	logger   *log.Logger

	mu          sync.RWMutex
	user        *models.User
	token       string
	loading     bool
	subscribers []func(Snapshot)
}

// NewStore creates a store in the loading state. logger may be nil.
func NewStore(tokens TokenStore, profiles ProfileFetcher, logger *log.Logger) *Store {
	return &Store{
		tokens:   tokens,
		profiles: profiles,
		logger:   logger,
		loading:  true,
	}
}

// SetProfileFetcher sets the fetcher used by Init. The API client needs the
// store as its token source, so the two are wired after construction.
func (s *Store) SetProfileFetcher(p ProfileFetcher) {
	s.mu.Lock()
	s.profiles = p
	s.mu.Unlock()
}

// Init restores the session from the persisted token. Any failure leaves the
// store signed out and clears the persisted token; it is never fatal.
func (s *Store) Init(ctx context.Context) {
	defer s.finishLoading()

	token, err := s.tokens.Load()
	if err != nil {
		s.warn("failed to load token", err)
		return
	}
	if token == "" {
		return
	}

	// Profile requests read the token through Token().
	s.mu.Lock()
	s.token = token
	profiles := s.profiles
	s.mu.Unlock()

	if profiles == nil {
		s.reset()
		return
	}

	user, err := profiles.Profile(ctx)
	if err != nil || user == nil {
		s.warn("session restore failed", err)
		s.reset()
		return
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

func (s *Store) finishLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

// reset drops the in-memory session and the persisted token without
// notifying.
func (s *Store) reset() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()
	if err := s.tokens.Clear(); err != nil {
		s.warn("failed to clear token", err)
	}
}

// Login persists token and sets user without another round trip.
func (s *Store) Login(token string, user *models.User) error {
	if err := s.tokens.Save(token); err != nil {
		return err
	}
	s.mu.Lock()
	s.token = token
	s.user = user
	s.loading = false
	s.mu.Unlock()
	s.notify()
	return nil
}

// Logout clears the persisted token and the in-memory user.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()
	err := s.tokens.Clear()
	s.notify()
	return err
}

// Token returns the current bearer token. It satisfies apiclient.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the signed-in user or nil.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Loading reports whether the initial restore is still running.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Authenticated reports whether a user is signed in.
func (s *Store) Authenticated() bool {
	return s.Snapshot().Authenticated()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{User: s.user, Token: s.token, Loading: s.loading}
}

// Subscribe registers fn to be called after every state change. The returned
// function removes it.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
	idx := len(s.subscribers) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < len(s.subscribers) {
			s.subscribers[idx] = nil
		}
	}
}

func (s *Store) notify() {
	snap := s.Snapshot()
	s.mu.RLock()
	subs := append(([]func(Snapshot))(nil), s.subscribers...)
	s.mu.RUnlock()
	for _, fn := range subs {
		if fn != nil {
			fn(snap)
		}
	}
}

func (s *Store) warn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, "err", err)
	}
}
