package authclient

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-auth-client/social"
)

// Confirmation strings returned by the mail-dispatch flows.
const (
	MsgResetLinkSent         = "Reset link has been sent to your email."
	MsgVerificationEmailSent = "Verification email sent"
)

// ProviderIDPassword is the provider id reported for sessions with no
// linked federated identity.
const ProviderIDPassword = "email"

// Orchestrator coordinates sign-in, sign-out, registration, password reset
// and verification flows against the identity client and the backend claims
// endpoint, keeping the in-memory SessionState and the persisted snapshots
// in sync.
//
// All methods are safe to call from multiple goroutines, but concurrent
// interactive flows are not serialized: the last writer wins on both the
// in-memory state and the persisted keys.
type Orchestrator struct {
	client IdentityClient
	api    *APIClient
	store  *SessionStore
	nav    Navigator
	config Config
	logger Logger
	settle time.Duration

	mu    sync.RWMutex
	state SessionState

	unsubscribe func()
}

// NewOrchestrator wires an orchestrator for the given identity client. It
// fails fast when the client is missing so misconfiguration surfaces at
// construction, not on first use.
func NewOrchestrator(client IdentityClient, cfg Config) (*Orchestrator, error) {
	if client == nil {
		return nil, ErrClientNotInitialized
	}

	o := &Orchestrator{
		client: client,
		api:    NewAPIClient(cfg.API),
		store:  NewSessionStore(nil),
		nav:    noopNavigator{},
		config: cfg,
		logger: defLogger{},
		settle: cfg.settleDelay(),
		state:  SessionState{Loading: true},
	}

	return o, nil
}

func (o *Orchestrator) WithLogger(logger Logger) *Orchestrator {
	if logger != nil {
		o.logger = logger
		o.api.WithLogger(logger)
		o.store.WithLogger(logger)
	}
	return o
}

func (o *Orchestrator) WithStorage(storage Storage) *Orchestrator {
	o.store = NewSessionStore(storage).WithLogger(o.logger)
	return o
}

func (o *Orchestrator) WithNavigator(nav Navigator) *Orchestrator {
	if nav != nil {
		o.nav = nav
	}
	return o
}

func (o *Orchestrator) WithAPIClient(api *APIClient) *Orchestrator {
	if api != nil {
		o.api = api
	}
	return o
}

// WithSettleDelay overrides the claims propagation wait. Zero disables it.
func (o *Orchestrator) WithSettleDelay(d time.Duration) *Orchestrator {
	if d < 0 {
		d = 0
	}
	o.settle = d
	return o
}

// Start establishes the auth-state subscription. The client notifies
// immediately with the current session (or nil), which flips Loading off.
func (o *Orchestrator) Start() *Orchestrator {
	if o.unsubscribe != nil {
		return o
	}
	o.unsubscribe = o.client.Subscribe(func(raw *UserRecord) {
		o.handleUser(raw)
	})
	return o
}

// Close tears down the state subscription. The orchestrator must not be
// used afterwards.
func (o *Orchestrator) Close() {
	if o.unsubscribe != nil {
		o.unsubscribe()
		o.unsubscribe = nil
	}
}

// State returns a snapshot of the current session state.
func (o *Orchestrator) State() SessionState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// CurrentUser returns the projected session user, nil when signed out.
func (o *Orchestrator) CurrentUser() *SessionUser {
	return o.State().User
}

// Store exposes the session store for entitlement checks and adapters.
func (o *Orchestrator) Store() *SessionStore {
	return o.store
}

// SignInWithEmail performs the password grant followed by the backend
// claims exchange. The returned error's message is user-facing.
func (o *Orchestrator) SignInWithEmail(ctx context.Context, email, password string) error {
	payload := LoginPayload{Email: email, Password: password}
	if err := payload.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, err.Error())
	}

	o.setLoading(true)

	if _, err := o.client.SignInWithPassword(ctx, email, password); err != nil {
		o.logger.Error("login: provider rejected: %v", err)
		o.setLoading(false)
		return o.flowError(err)
	}

	if err := o.completeExchange(ctx); err != nil {
		o.logger.Error("login: claims exchange failed: %v", err)
		o.setLoading(false)
		return o.flowError(err)
	}

	o.handleUser(o.client.CurrentUser())
	o.nav.Push(o.config.afterLogin())

	return nil
}

// Register creates a new password account. No claims exchange or redirect
// happens here; callers typically follow up with a verification email.
func (o *Orchestrator) Register(ctx context.Context, email, password string) (*UserRecord, error) {
	payload := RegistrationPayload{Email: email, Password: password}
	if err := payload.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error())
	}

	user, err := o.client.SignUp(ctx, email, password)
	if err != nil {
		o.logger.Error("register: provider rejected: %v", err)
		return nil, o.flowError(err)
	}

	return user, nil
}

// SignInWithGoogle runs the federated flow for Google.
func (o *Orchestrator) SignInWithGoogle(ctx context.Context, opts ...SignInOption) error {
	return o.signInWithSpec(ctx, social.Google(), opts...)
}

// SignInWithApple runs the federated flow for Apple, requesting the email
// and name scopes.
func (o *Orchestrator) SignInWithApple(ctx context.Context, opts ...SignInOption) error {
	return o.signInWithSpec(ctx, social.Apple(), opts...)
}

// SignInWithFacebook runs the federated flow for Facebook.
func (o *Orchestrator) SignInWithFacebook(ctx context.Context, opts ...SignInOption) error {
	return o.signInWithSpec(ctx, social.Facebook(), opts...)
}

// SignInWithTwitter runs the federated flow for Twitter/X.
func (o *Orchestrator) SignInWithTwitter(ctx context.Context, opts ...SignInOption) error {
	return o.signInWithSpec(ctx, social.Twitter(), opts...)
}

// SignInWithGitHub grants through GitHub and projects the session, skipping
// the backend exchange and any redirect.
func (o *Orchestrator) SignInWithGitHub(ctx context.Context) (*SessionUser, error) {
	o.setLoading(true)

	if _, err := o.client.SignInWithProvider(ctx, social.GitHub()); err != nil {
		o.logger.Error("github sign-in: provider rejected: %v", err)
		o.setLoading(false)
		return nil, o.flowError(err)
	}

	return o.handleUser(o.client.CurrentUser()), nil
}

// SignOut clears the provider session, the in-memory state, the persisted
// snapshots, and navigates to the after-logout target.
func (o *Orchestrator) SignOut(ctx context.Context) error {
	if err := o.client.SignOut(ctx); err != nil {
		o.logger.Error("signout: %v", err)
		return o.flowError(err)
	}

	o.handleUser(nil)
	o.nav.Push(o.config.afterLogout())

	return nil
}

// ForgotPassword dispatches the password reset email with an action URL
// pointing back at the login page. It returns a fixed confirmation string.
func (o *Orchestrator) ForgotPassword(ctx context.Context, email string) (string, error) {
	payload := ForgotPasswordPayload{Email: email}
	if err := payload.Validate(); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, err.Error())
	}

	actionURL := o.actionURL(o.config.loginPage())
	if err := o.client.SendPasswordResetEmail(ctx, email, actionURL); err != nil {
		o.logger.Error("forgot password: %v", err)
		return "", o.flowError(err)
	}

	return MsgResetLinkSent, nil
}

// SendVerificationEmail dispatches the address verification email for the
// current session, with an action URL pointing back at the register page.
func (o *Orchestrator) SendVerificationEmail(ctx context.Context) (string, error) {
	if o.client.CurrentUser() == nil {
		return "", ErrNoAuthenticatedUser
	}

	actionURL := o.actionURL(o.config.registerPage())
	if err := o.client.SendEmailVerification(ctx, actionURL); err != nil {
		o.logger.Error("send verification email: %v", err)
		return "", o.flowError(err)
	}

	return MsgVerificationEmailSent, nil
}

// RefreshUser reloads the provider record and re-runs the state projection.
// A signed-out session is a no-op.
func (o *Orchestrator) RefreshUser(ctx context.Context) error {
	if o.client.CurrentUser() == nil {
		return nil
	}

	if err := o.client.Reload(ctx); err != nil {
		o.logger.Error("refresh user: %v", err)
		return o.flowError(err)
	}

	o.handleUser(o.client.CurrentUser())
	return nil
}

// SignInOption configures an interactive federated sign-in.
type SignInOption func(*signInConfig)

type signInConfig struct {
	skipRedirect bool
}

// SkipRedirect suppresses the after-login navigation.
func SkipRedirect() SignInOption {
	return func(c *signInConfig) {
		c.skipRedirect = true
	}
}

func (o *Orchestrator) signInWithSpec(ctx context.Context, spec social.Spec, opts ...SignInOption) error {
	cfg := signInConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	o.setLoading(true)

	if _, err := o.client.SignInWithProvider(ctx, spec); err != nil {
		o.logger.Error("%s sign-in: provider rejected: %v", spec.ProviderID, err)
		o.setLoading(false)
		return o.flowError(err)
	}

	if err := o.completeExchange(ctx); err != nil {
		o.logger.Error("%s sign-in: claims exchange failed: %v", spec.ProviderID, err)
		o.setLoading(false)
		return o.flowError(err)
	}

	o.handleUser(o.client.CurrentUser())

	if !cfg.skipRedirect {
		o.nav.Push(o.config.afterLogin())
	}

	return nil
}

// completeExchange runs the shared tail of every full sign-in: mint claims
// on the backend with a fresh token, wait for propagation, re-read the token
// result, and persist the refreshed token and claims.
func (o *Orchestrator) completeExchange(ctx context.Context) error {
	token, err := o.client.IDToken(ctx, true)
	if err != nil {
		return err
	}

	if err := o.api.Login(ctx, token); err != nil {
		return err
	}

	o.settleWait(ctx)

	res, err := o.client.IDTokenResult(ctx, true)
	if err != nil {
		return err
	}

	o.store.UpdateAccessToken(res)
	return nil
}

// handleUser is the state-change projection: it rebuilds the SessionUser
// from the raw record, flips Loading off, and mirrors (or clears) the
// persisted snapshot.
func (o *Orchestrator) handleUser(raw *UserRecord) *SessionUser {
	if raw == nil {
		o.setState(SessionState{User: nil, Loading: false})
		o.store.Clear()
		return nil
	}

	user := formatUser(raw)
	o.setState(SessionState{User: user, Loading: false})
	o.store.SaveUser(raw)
	return user
}

func formatUser(raw *UserRecord) *SessionUser {
	providerID := ProviderIDPassword
	if len(raw.ProviderData) > 0 && raw.ProviderData[0].ProviderID != "" {
		providerID = raw.ProviderData[0].ProviderID
	}

	return &SessionUser{
		ID:            raw.UID,
		Email:         raw.Email,
		DisplayName:   raw.DisplayName,
		PhotoURL:      raw.PhotoURL,
		EmailVerified: raw.EmailVerified,
		ProviderID:    providerID,
	}
}

func (o *Orchestrator) setState(state SessionState) {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()
}

func (o *Orchestrator) setLoading(loading bool) {
	o.mu.Lock()
	o.state.Loading = loading
	o.mu.Unlock()
}

func (o *Orchestrator) settleWait(ctx context.Context) {
	if o.settle <= 0 {
		return
	}

	timer := time.NewTimer(o.settle)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (o *Orchestrator) actionURL(path string) string {
	if origin := o.nav.Origin(); origin != "" {
		return origin + path
	}
	return path
}

// flowError wraps a provider or backend failure with its translated
// user-facing message.
func (o *Orchestrator) flowError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryAuth, TranslateError(err))
}
