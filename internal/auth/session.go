package auth

import (
	"context"
	"sync"
	"time"

	"github.com/subleasefinder/sublease-client/internal/platform/logger"
)

// refreshWindow is how long before expiry a cached token is reissued.
const refreshWindow = time.Minute

type SessionState struct {
	User            *User
	IsAuthenticated bool
}

// Session is the explicit authentication context handed to the API client
// and the flows. It replaces process-wide auth state.
type Session struct {
	provider IdentityProvider
	logger   *logger.Logger
	now      func() time.Time

	mu          sync.Mutex
	user        *User
	token       string
	expiresAt   time.Time
	observers   map[int]func(SessionState)
	nextID      int
	signOutHook []func(context.Context)
}

func NewSession(provider IdentityProvider, log *logger.Logger) *Session {
	if log == nil {
		log = logger.NewNop()
	}
	return &Session{
		provider:  provider,
		logger:    log,
		now:       time.Now,
		observers: make(map[int]func(SessionState)),
	}
}

func (s *Session) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// Subscribe registers fn for sign-in and sign-out changes.
func (s *Session) Subscribe(fn func(SessionState)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// OnSignOut registers work to run after sign-out, such as clearing caches.
func (s *Session) OnSignOut(fn func(context.Context)) {
	s.mu.Lock()
	s.signOutHook = append(s.signOutHook, fn)
	s.mu.Unlock()
}

func (s *Session) SignInAnonymously(ctx context.Context) (*User, error) {
	user, err := s.provider.SignInAnonymously(ctx)
	if err != nil {
		s.logger.Error("Session.SignInAnonymously: failed", "error", err)
		return nil, err
	}
	s.setUser(user)
	return user, nil
}

func (s *Session) SignInWithEmail(ctx context.Context, email, password string) (*User, error) {
	user, err := s.provider.SignInWithEmail(ctx, email, password)
	if err != nil {
		s.logger.Warn("Session.SignInWithEmail: failed", "error", err)
		return nil, err
	}
	s.setUser(user)
	return user, nil
}

func (s *Session) SignUp(ctx context.Context, email, password string) (*User, error) {
	user, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		s.logger.Warn("Session.SignUp: failed", "error", err)
		return nil, err
	}
	s.setUser(user)
	return user, nil
}

func (s *Session) SignOut(ctx context.Context) {
	s.mu.Lock()
	hooks := append([]func(context.Context){}, s.signOutHook...)
	s.mu.Unlock()

	s.setUser(nil)
	for _, hook := range hooks {
		hook(ctx)
	}
}

// IDToken returns a bearer token for the signed-in user, reissuing it when
// it is about to expire.
func (s *Session) IDToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	user := s.user
	if user == nil {
		s.mu.Unlock()
		return "", ErrNotSignedIn
	}
	if s.token != "" && s.now().Add(refreshWindow).Before(s.expiresAt) {
		token := s.token
		s.mu.Unlock()
		return token, nil
	}
	s.mu.Unlock()

	token, expiresAt, err := s.provider.IssueToken(ctx, user)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != user {
		return "", ErrNotSignedIn
	}
	s.token, s.expiresAt = token, expiresAt
	return token, nil
}

func (s *Session) DeleteAccount(ctx context.Context) error {
	user := s.CurrentUser()
	if user == nil {
		return ErrNotSignedIn
	}
	if err := s.provider.DeleteAccount(ctx, user); err != nil {
		return err
	}
	s.SignOut(ctx)
	return nil
}

func (s *Session) setUser(user *User) {
	s.mu.Lock()
	s.user = user
	s.token = ""
	s.expiresAt = time.Time{}
	state := SessionState{IsAuthenticated: user != nil}
	if user != nil {
		u := *user
		state.User = &u
	}
	observers := make([]func(SessionState), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(state)
	}
}
