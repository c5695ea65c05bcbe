package authclient_test

import (
	"context"
	"sync"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/social"
)

// fakeNavigator records navigation so flows can be asserted against.
type fakeNavigator struct {
	mu       sync.Mutex
	origin   string
	pushes   []string
	replaces []string
}

func (n *fakeNavigator) Push(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushes = append(n.pushes, path)
}

func (n *fakeNavigator) Replace(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replaces = append(n.replaces, path)
}

func (n *fakeNavigator) Origin() string {
	return n.origin
}

func (n *fakeNavigator) lastPush() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.pushes) == 0 {
		return ""
	}
	return n.pushes[len(n.pushes)-1]
}

func (n *fakeNavigator) lastReplace() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.replaces) == 0 {
		return ""
	}
	return n.replaces[len(n.replaces)-1]
}

// scriptedClient implements authclient.IdentityClient with overridable
// function fields, for failure-injection cases the memory provider cannot
// express.
type scriptedClient struct {
	signInWithPassword func(ctx context.Context, email, password string) (*authclient.UserRecord, error)
	idToken            func(ctx context.Context, force bool) (string, error)
	idTokenResult      func(ctx context.Context, force bool) (*authclient.TokenResult, error)
	current            *authclient.UserRecord
	listeners          []func(*authclient.UserRecord)
}

func (c *scriptedClient) SignInWithPassword(ctx context.Context, email, password string) (*authclient.UserRecord, error) {
	if c.signInWithPassword != nil {
		return c.signInWithPassword(ctx, email, password)
	}
	return nil, authclient.NewProviderError(authclient.CodeOperationNotAllowed, "not scripted")
}

func (c *scriptedClient) SignUp(ctx context.Context, email, password string) (*authclient.UserRecord, error) {
	return nil, authclient.NewProviderError(authclient.CodeOperationNotAllowed, "not scripted")
}

func (c *scriptedClient) SignInWithProvider(ctx context.Context, spec social.Spec) (*authclient.UserRecord, error) {
	return nil, authclient.NewProviderError(authclient.CodePopupClosed, "not scripted")
}

func (c *scriptedClient) CurrentUser() *authclient.UserRecord {
	return c.current
}

func (c *scriptedClient) IDToken(ctx context.Context, force bool) (string, error) {
	if c.idToken != nil {
		return c.idToken(ctx, force)
	}
	return "", authclient.NewProviderError(authclient.CodeInvalidUserToken, "not scripted")
}

func (c *scriptedClient) IDTokenResult(ctx context.Context, force bool) (*authclient.TokenResult, error) {
	if c.idTokenResult != nil {
		return c.idTokenResult(ctx, force)
	}
	return nil, authclient.NewProviderError(authclient.CodeInvalidUserToken, "not scripted")
}

func (c *scriptedClient) Subscribe(fn func(*authclient.UserRecord)) func() {
	c.listeners = append(c.listeners, fn)
	fn(c.current)
	return func() {}
}

func (c *scriptedClient) SignOut(ctx context.Context) error {
	c.current = nil
	for _, fn := range c.listeners {
		fn(nil)
	}
	return nil
}

func (c *scriptedClient) SendPasswordResetEmail(ctx context.Context, email, continueURL string) error {
	return nil
}

func (c *scriptedClient) SendEmailVerification(ctx context.Context, continueURL string) error {
	return nil
}

func (c *scriptedClient) Reload(ctx context.Context) error {
	return nil
}
