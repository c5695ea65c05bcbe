package authclient

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-auth-client/social"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// SessionUser is the projection of the provider's raw user record that
// consumers see. It is rebuilt wholesale on every state notification.
type SessionUser struct {
	ID            string `json:"id"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	PhotoURL      string `json:"photo_url,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	ProviderID    string `json:"provider_id"`
}

// SessionState is the single source of truth for consumers of a scope.
// Loading is true from scope construction until the first state
// notification, and again while an interactive flow is in flight.
type SessionState struct {
	User    *SessionUser
	Loading bool
}

// TokenManager carries the token material nested inside a UserRecord.
// UpdateAccessToken patches AccessToken in place; every other persisted
// write replaces the whole record.
type TokenManager struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// ProviderInfo describes one linked federated identity on a UserRecord.
type ProviderInfo struct {
	ProviderID  string `json:"provider_id"`
	UID         string `json:"uid,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// UserRecord is the provider's raw user object. It is mirrored verbatim to
// storage so the access token can be patched after claims exchanges.
type UserRecord struct {
	UID           string         `json:"uid"`
	Email         string         `json:"email,omitempty"`
	DisplayName   string         `json:"display_name,omitempty"`
	PhotoURL      string         `json:"photo_url,omitempty"`
	EmailVerified bool           `json:"email_verified"`
	ProviderData  []ProviderInfo `json:"provider_data,omitempty"`
	TokenManager  *TokenManager  `json:"token_manager,omitempty"`
}

// TokenResult is a decoded ID token: the raw token plus its claims bag.
type TokenResult struct {
	Token          string     `json:"token"`
	Claims         Claims     `json:"claims"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	SignInProvider string     `json:"sign_in_provider,omitempty"`
}

// IdentityClient abstracts the identity provider SDK consumed by the
// orchestrator. Implementations keep a current-user notion and fire state
// listeners synchronously on every sign-in and sign-out, including an
// immediate notification on Subscribe with the current session (or nil).
type IdentityClient interface {
	SignInWithPassword(ctx context.Context, email, password string) (*UserRecord, error)
	SignUp(ctx context.Context, email, password string) (*UserRecord, error)
	SignInWithProvider(ctx context.Context, spec social.Spec) (*UserRecord, error)

	CurrentUser() *UserRecord
	IDToken(ctx context.Context, forceRefresh bool) (string, error)
	IDTokenResult(ctx context.Context, forceRefresh bool) (*TokenResult, error)

	// Subscribe registers a state-change listener and returns its teardown.
	Subscribe(fn func(*UserRecord)) (unsubscribe func())

	SignOut(ctx context.Context) error
	SendPasswordResetEmail(ctx context.Context, email, continueURL string) error
	SendEmailVerification(ctx context.Context, continueURL string) error
	Reload(ctx context.Context) error
}

// Storage is a string key-value store. Implementations must tolerate
// concurrent readers; a nil Storage is treated everywhere as "nothing
// persisted".
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// Navigator abstracts redirects and the browsing origin used to build
// action callback URLs. Origin may return "" in non-interactive contexts.
type Navigator interface {
	Push(path string)
	Replace(path string)
	Origin() string
}

type noopNavigator struct{}

func (noopNavigator) Push(string)    {}
func (noopNavigator) Replace(string) {}
func (noopNavigator) Origin() string { return "" }

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
