package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("no account found with this email")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyInUse  = errors.New("an account with this email already exists")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrNotSignedIn        = errors.New("not signed in")
)

const minPasswordLength = 6

// User is the signed-in identity.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	PhotoURL    string    `json:"photoURL,omitempty"`
	IsAnonymous bool      `json:"isAnonymous"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IdentityProvider is the account backend behind a Session.
type IdentityProvider interface {
	SignInAnonymously(ctx context.Context) (*User, error)
	SignInWithEmail(ctx context.Context, email, password string) (*User, error)
	SignUp(ctx context.Context, email, password string) (*User, error)
	IssueToken(ctx context.Context, user *User) (string, time.Time, error)
	DeleteAccount(ctx context.Context, user *User) error
}

type account struct {
	user         User
	passwordHash []byte
}

// LocalProvider keeps accounts in memory and issues HS256 ID tokens that the
// devserver accepts when both share the secret.
type LocalProvider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	accounts map[string]*account // by lower-cased email
}

func NewLocalProvider(secret string, ttl time.Duration) *LocalProvider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LocalProvider{
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		accounts: make(map[string]*account),
	}
}

func (p *LocalProvider) SignInAnonymously(_ context.Context) (*User, error) {
	return &User{ID: uuid.NewString(), IsAnonymous: true, CreatedAt: p.now()}, nil
}

func (p *LocalProvider) SignUp(_ context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[email]; exists {
		return nil, ErrEmailAlreadyInUse
	}
	user := User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: strings.SplitN(email, "@", 2)[0],
		CreatedAt:   p.now(),
	}
	p.accounts[email] = &account{user: user, passwordHash: hash}
	out := user
	return &out, nil
}

func (p *LocalProvider) SignInWithEmail(_ context.Context, email, password string) (*User, error) {
	p.mu.Lock()
	acc, ok := p.accounts[normalizeEmail(email)]
	p.mu.Unlock()
	if !ok {
		return nil, ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	out := acc.user
	return &out, nil
}

func (p *LocalProvider) IssueToken(_ context.Context, user *User) (string, time.Time, error) {
	return signToken(p.secret, user, p.now(), p.ttl)
}

func (p *LocalProvider) DeleteAccount(_ context.Context, user *User) error {
	if user.IsAnonymous {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	key := normalizeEmail(user.Email)
	if _, ok := p.accounts[key]; !ok {
		return ErrUserNotFound
	}
	delete(p.accounts, key)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
