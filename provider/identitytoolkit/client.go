// Package identitytoolkit implements authclient.IdentityClient against the
// Google Identity Toolkit REST API, the wire API beneath the hosted auth
// SDKs, plus the secure-token endpoint for refresh grants.
package identitytoolkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/social"
)

// Client is the REST identity client. It keeps the current session in
// memory and fires state listeners synchronously on sign-in and sign-out.
type Client struct {
	config     Config
	httpClient *http.Client

	mu        sync.RWMutex
	current   *authclient.UserRecord
	listeners map[int]func(*authclient.UserRecord)
	nextID    int
}

var _ authclient.IdentityClient = (*Client)(nil)

// New creates an Identity Toolkit client.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Client{
		config:     cfg,
		httpClient: cfg.httpClient(),
		listeners:  map[int]func(*authclient.UserRecord){},
	}, nil
}

type grantResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	PhotoURL      string `json:"photoUrl"`
	EmailVerified bool   `json:"emailVerified"`
	ProviderID    string `json:"providerId"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
	ExpiresIn     string `json:"expiresIn"`
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*authclient.UserRecord, error) {
	var resp grantResponse
	err := c.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return c.adoptSession(resp, ""), nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*authclient.UserRecord, error) {
	var resp grantResponse
	err := c.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return c.adoptSession(resp, ""), nil
}

func (c *Client) SignInWithProvider(ctx context.Context, spec social.Spec) (*authclient.UserRecord, error) {
	if c.config.CredentialSource == nil {
		return nil, authclient.NewProviderError(authclient.CodeOperationNotAllowed, "no credential source configured for federated sign-in")
	}

	cred, err := c.config.CredentialSource(ctx, spec)
	if err != nil {
		return nil, err
	}

	var resp grantResponse
	err = c.post(ctx, "accounts:signInWithIdp", map[string]any{
		"requestUri":          "http://localhost",
		"postBody":            idpPostBody(spec, cred),
		"sessionId":           uuid.NewString(),
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return c.adoptSession(resp, spec.ProviderID), nil
}

func (c *Client) CurrentUser() *authclient.UserRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneRecord(c.current)
}

// IDToken returns the current session's ID token, refreshing it through the
// secure-token endpoint when forced or expired.
func (c *Client) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	c.mu.RLock()
	current := c.current
	c.mu.RUnlock()

	if current == nil || current.TokenManager == nil {
		return "", authclient.NewProviderError(authclient.CodeInvalidUserToken, "no current user")
	}

	tm := current.TokenManager
	if !forceRefresh && tm.ExpiresAt != nil && time.Now().Before(*tm.ExpiresAt) {
		return tm.AccessToken, nil
	}

	return c.refreshToken(ctx, tm.RefreshToken)
}

func (c *Client) IDTokenResult(ctx context.Context, forceRefresh bool) (*authclient.TokenResult, error) {
	token, err := c.IDToken(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}
	return authclient.TokenResultFromToken(token)
}

func (c *Client) Subscribe(fn func(*authclient.UserRecord)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	current := cloneRecord(c.current)
	c.mu.Unlock()

	fn(current)

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()

	c.notify(nil)
	return nil
}

func (c *Client) SendPasswordResetEmail(ctx context.Context, email, continueURL string) error {
	return c.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
		"continueUrl": continueURL,
	}, nil)
}

func (c *Client) SendEmailVerification(ctx context.Context, continueURL string) error {
	c.mu.RLock()
	current := c.current
	c.mu.RUnlock()

	if current == nil || current.TokenManager == nil {
		return authclient.NewProviderError(authclient.CodeInvalidUserToken, "no current user")
	}

	return c.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "VERIFY_EMAIL",
		"idToken":     current.TokenManager.AccessToken,
		"continueUrl": continueURL,
	}, nil)
}

// Reload re-fetches the account record and refreshes the profile fields of
// the current session.
func (c *Client) Reload(ctx context.Context) error {
	c.mu.RLock()
	current := c.current
	c.mu.RUnlock()

	if current == nil || current.TokenManager == nil {
		return authclient.NewProviderError(authclient.CodeInvalidUserToken, "no current user")
	}

	var resp struct {
		Users []struct {
			LocalID          string `json:"localId"`
			Email            string `json:"email"`
			EmailVerified    bool   `json:"emailVerified"`
			DisplayName      string `json:"displayName"`
			PhotoURL         string `json:"photoUrl"`
			ProviderUserInfo []struct {
				ProviderID  string `json:"providerId"`
				RawID       string `json:"rawId"`
				Email       string `json:"email"`
				DisplayName string `json:"displayName"`
				PhotoURL    string `json:"photoUrl"`
			} `json:"providerUserInfo"`
		} `json:"users"`
	}

	err := c.post(ctx, "accounts:lookup", map[string]any{
		"idToken": current.TokenManager.AccessToken,
	}, &resp)
	if err != nil {
		return err
	}
	if len(resp.Users) == 0 {
		return authclient.NewProviderError(authclient.CodeUserNotFound, "account no longer exists")
	}

	info := resp.Users[0]

	c.mu.Lock()
	if c.current != nil {
		c.current.Email = info.Email
		c.current.EmailVerified = info.EmailVerified
		c.current.DisplayName = info.DisplayName
		c.current.PhotoURL = info.PhotoURL
		c.current.ProviderData = c.current.ProviderData[:0]
		for _, p := range info.ProviderUserInfo {
			c.current.ProviderData = append(c.current.ProviderData, authclient.ProviderInfo{
				ProviderID:  p.ProviderID,
				UID:         p.RawID,
				Email:       p.Email,
				DisplayName: p.DisplayName,
				PhotoURL:    p.PhotoURL,
			})
		}
	}
	c.mu.Unlock()

	return nil
}

func (c *Client) adoptSession(resp grantResponse, providerID string) *authclient.UserRecord {
	expires := time.Now().Add(parseExpiresIn(resp.ExpiresIn)).UTC()

	record := &authclient.UserRecord{
		UID:           resp.LocalID,
		Email:         resp.Email,
		DisplayName:   resp.DisplayName,
		PhotoURL:      resp.PhotoURL,
		EmailVerified: resp.EmailVerified,
		TokenManager: &authclient.TokenManager{
			AccessToken:  resp.IDToken,
			RefreshToken: resp.RefreshToken,
			ExpiresAt:    &expires,
		},
	}

	if providerID == "" {
		providerID = resp.ProviderID
	}
	if providerID != "" && providerID != "password" {
		record.ProviderData = []authclient.ProviderInfo{{
			ProviderID:  providerID,
			UID:         resp.LocalID,
			Email:       resp.Email,
			DisplayName: resp.DisplayName,
			PhotoURL:    resp.PhotoURL,
		}}
	}

	c.mu.Lock()
	c.current = record
	snapshot := cloneRecord(record)
	c.mu.Unlock()

	c.notify(snapshot)
	return snapshot
}

func (c *Client) refreshToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", authclient.NewProviderError(authclient.CodeInvalidUserToken, "missing refresh token")
	}

	endpoint := fmt.Sprintf("%s/token?key=%s", c.config.secureTokenEndpoint(), url.QueryEscape(c.config.APIKey))
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("identitytoolkit: create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return "", authclient.NewProviderError(authclient.CodeNetworkRequestFailed, err.Error())
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("identitytoolkit: read refresh response: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return "", mapRESTError(body)
	}

	var resp struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("identitytoolkit: decode refresh response: %w", err)
	}

	expires := time.Now().Add(parseExpiresIn(resp.ExpiresIn)).UTC()

	c.mu.Lock()
	if c.current != nil && c.current.TokenManager != nil {
		c.current.TokenManager.AccessToken = resp.IDToken
		if resp.RefreshToken != "" {
			c.current.TokenManager.RefreshToken = resp.RefreshToken
		}
		c.current.TokenManager.ExpiresAt = &expires
	}
	c.mu.Unlock()

	return resp.IDToken, nil
}

func (c *Client) post(ctx context.Context, action string, payload map[string]any, out any) error {
	endpoint := fmt.Sprintf("%s/%s?key=%s", c.config.endpoint(), action, url.QueryEscape(c.config.APIKey))

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("identitytoolkit: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("identitytoolkit: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return authclient.NewProviderError(authclient.CodeNetworkRequestFailed, err.Error())
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("identitytoolkit: read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return mapRESTError(body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("identitytoolkit: decode response: %w", err)
	}

	return nil
}

func (c *Client) notify(record *authclient.UserRecord) {
	c.mu.RLock()
	fns := make([]func(*authclient.UserRecord), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(record)
	}
}

func idpPostBody(spec social.Spec, cred social.Credential) string {
	values := url.Values{}
	values.Set("providerId", spec.ProviderID)
	if cred.IDToken != "" {
		values.Set("id_token", cred.IDToken)
	}
	if cred.AccessToken != "" {
		values.Set("access_token", cred.AccessToken)
	}
	if cred.OAuthTokenSecret != "" {
		values.Set("oauth_token_secret", cred.OAuthTokenSecret)
	}
	if cred.Nonce != "" {
		values.Set("nonce", cred.Nonce)
	}
	return values.Encode()
}

func parseExpiresIn(s string) time.Duration {
	secs, err := strconv.Atoi(s)
	if err != nil || secs <= 0 {
		return time.Hour
	}
	return time.Duration(secs) * time.Second
}

func cloneRecord(r *authclient.UserRecord) *authclient.UserRecord {
	if r == nil {
		return nil
	}

	clone := *r
	clone.ProviderData = append([]authclient.ProviderInfo(nil), r.ProviderData...)
	if r.TokenManager != nil {
		tm := *r.TokenManager
		clone.TokenManager = &tm
	}
	return &clone
}
