// Package memory implements authclient.IdentityClient entirely in process.
// It exists for tests, examples, and offline development: bcrypt-hashed
// passwords, deterministic UIDs, locally minted HS256 ID tokens, and the
// same listener semantics as the wire provider (immediate notification on
// Subscribe, synchronous notification on every sign-in and sign-out).
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/social"
)

const defaultTokenTTL = time.Hour

// Account is a seeded identity.
type Account struct {
	UID           string
	Email         string
	Password      string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
	Providers     []authclient.ProviderInfo
	Claims        authclient.Claims
}

type account struct {
	Account
	passwordHash string
}

// Provider is the in-process identity client.
type Provider struct {
	mu         sync.RWMutex
	accounts   map[string]*account // keyed by lowercased email
	byProvider map[string]*account // keyed by providerID
	current    *account
	refresh    string

	signingKey []byte
	tokenTTL   time.Duration
	issuer     string

	listeners map[int]func(*authclient.UserRecord)
	nextID    int
}

var _ authclient.IdentityClient = (*Provider)(nil)

func New() *Provider {
	return &Provider{
		accounts:   map[string]*account{},
		byProvider: map[string]*account{},
		signingKey: []byte(uuid.NewString()),
		tokenTTL:   defaultTokenTTL,
		issuer:     "memory",
		listeners:  map[int]func(*authclient.UserRecord){},
	}
}

func (p *Provider) WithSigningKey(key []byte) *Provider {
	if len(key) > 0 {
		p.signingKey = key
	}
	return p
}

func (p *Provider) WithTokenTTL(ttl time.Duration) *Provider {
	if ttl > 0 {
		p.tokenTTL = ttl
	}
	return p
}

// Seed registers an account without signing it in.
func (p *Provider) Seed(acc Account) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(acc.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if acc.UID == "" {
		if id, err := hashid.NewUUID(acc.Email); err == nil {
			acc.UID = id.String()
		} else {
			acc.UID = uuid.NewString()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	a := &account{Account: acc, passwordHash: string(hash)}
	p.accounts[strings.ToLower(acc.Email)] = a
	for _, info := range acc.Providers {
		p.byProvider[info.ProviderID] = a
	}

	return nil
}

// SeedFederated makes the next SignInWithProvider for the given provider
// resolve to the account registered under email.
func (p *Provider) SeedFederated(providerID, email string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if a, ok := p.accounts[strings.ToLower(email)]; ok {
		p.byProvider[providerID] = a
	}
}

// SetCustomClaims emulates the backend minting authorization claims: the
// next force-refreshed token for the account carries them.
func (p *Provider) SetCustomClaims(email string, claims authclient.Claims) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if a, ok := p.accounts[strings.ToLower(email)]; ok {
		if a.Claims == nil {
			a.Claims = authclient.Claims{}
		}
		for k, v := range claims {
			a.Claims[k] = v
		}
	}
}

func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*authclient.UserRecord, error) {
	p.mu.Lock()

	a, ok := p.accounts[strings.ToLower(email)]
	if !ok {
		p.mu.Unlock()
		return nil, authclient.NewProviderError(authclient.CodeUserNotFound, "no account for email")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)); err != nil {
		p.mu.Unlock()
		return nil, authclient.NewProviderError(authclient.CodeWrongPassword, "password mismatch")
	}

	p.current = a
	p.refresh = uuid.NewString()
	record := p.recordLocked()
	p.mu.Unlock()

	p.notify(record)
	return record, nil
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (*authclient.UserRecord, error) {
	p.mu.RLock()
	_, exists := p.accounts[strings.ToLower(email)]
	p.mu.RUnlock()

	if exists {
		return nil, authclient.NewProviderError(authclient.CodeEmailAlreadyInUse, "email already registered")
	}

	if err := p.Seed(Account{Email: email, Password: password}); err != nil {
		return nil, err
	}

	return p.SignInWithPassword(ctx, email, password)
}

func (p *Provider) SignInWithProvider(ctx context.Context, spec social.Spec) (*authclient.UserRecord, error) {
	p.mu.Lock()

	a, ok := p.byProvider[spec.ProviderID]
	if !ok {
		p.mu.Unlock()
		return nil, authclient.NewProviderError(authclient.CodePopupClosed, "no federated identity seeded for "+spec.ProviderID)
	}

	p.current = a
	p.refresh = uuid.NewString()
	record := p.recordLocked()
	p.mu.Unlock()

	p.notify(record)
	return record, nil
}

func (p *Provider) CurrentUser() *authclient.UserRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.current == nil {
		return nil
	}
	return p.recordLocked()
}

func (p *Provider) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.current == nil {
		return "", authclient.NewProviderError(authclient.CodeInvalidUserToken, "no current user")
	}
	return p.mintLocked()
}

func (p *Provider) IDTokenResult(ctx context.Context, forceRefresh bool) (*authclient.TokenResult, error) {
	token, err := p.IDToken(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}
	return authclient.TokenResultFromToken(token)
}

func (p *Provider) Subscribe(fn func(*authclient.UserRecord)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	current := (*authclient.UserRecord)(nil)
	if p.current != nil {
		current = p.recordLocked()
	}
	p.mu.Unlock()

	// Initial notification with the current session, mirroring the wire
	// provider's listener contract.
	fn(current)

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.current = nil
	p.refresh = ""
	p.mu.Unlock()

	p.notify(nil)
	return nil
}

func (p *Provider) SendPasswordResetEmail(ctx context.Context, email, continueURL string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if _, ok := p.accounts[strings.ToLower(email)]; !ok {
		return authclient.NewProviderError(authclient.CodeUserNotFound, "no account for email")
	}
	return nil
}

func (p *Provider) SendEmailVerification(ctx context.Context, continueURL string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.current == nil {
		return authclient.NewProviderError(authclient.CodeInvalidUserToken, "no current user")
	}
	return nil
}

func (p *Provider) Reload(ctx context.Context) error {
	return nil
}

// VerifyEmail flips the verified flag, as following the emailed action link
// would.
func (p *Provider) VerifyEmail(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if a, ok := p.accounts[strings.ToLower(email)]; ok {
		a.EmailVerified = true
	}
}

func (p *Provider) notify(record *authclient.UserRecord) {
	p.mu.RLock()
	fns := make([]func(*authclient.UserRecord), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.RUnlock()

	for _, fn := range fns {
		fn(record)
	}
}

// recordLocked builds the raw record for the current account. Callers hold
// at least a read lock.
func (p *Provider) recordLocked() *authclient.UserRecord {
	a := p.current
	token, _ := p.mintLocked()
	expires := time.Now().Add(p.tokenTTL).UTC()

	return &authclient.UserRecord{
		UID:           a.UID,
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		PhotoURL:      a.PhotoURL,
		EmailVerified: a.EmailVerified,
		ProviderData:  append([]authclient.ProviderInfo(nil), a.Providers...),
		TokenManager: &authclient.TokenManager{
			AccessToken:  token,
			RefreshToken: p.refresh,
			ExpiresAt:    &expires,
		},
	}
}

func (p *Provider) mintLocked() (string, error) {
	a := p.current
	now := time.Now()

	claims := jwt.MapClaims{
		"iss":   p.issuer,
		"sub":   a.UID,
		"iat":   now.Unix(),
		"exp":   now.Add(p.tokenTTL).Unix(),
		"email": a.Email,
	}
	for k, v := range a.Claims {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.signingKey)
}
