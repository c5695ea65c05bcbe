package identitytoolkit_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/provider/identitytoolkit"
	"github.com/goliatone/go-auth-client/social"
)

// fakeToolkit emulates the Identity Toolkit REST surface well enough to
// exercise the client: a fixed account, coded error bodies, and a refresh
// endpoint that rotates the ID token.
type fakeToolkit struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []string
}

func (f *fakeToolkit) record(action string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, action)
}

func (f *fakeToolkit) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newFakeToolkit(t *testing.T) *fakeToolkit {
	t.Helper()

	f := &fakeToolkit{}
	mux := http.NewServeMux()

	grant := func(w http.ResponseWriter) {
		json.NewEncoder(w).Encode(map[string]any{
			"localId":      "uid-1",
			"email":        "ada@example.com",
			"displayName":  "Ada",
			"idToken":      "id-token-1",
			"refreshToken": "refresh-1",
			"expiresIn":    "3600",
		})
	}

	mux.HandleFunc("/accounts:signInWithPassword", func(w http.ResponseWriter, r *http.Request) {
		f.record("signInWithPassword")

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		switch {
		case payload["email"] != "ada@example.com":
			writeToolkitError(w, "EMAIL_NOT_FOUND")
		case payload["password"] != "hunter22":
			writeToolkitError(w, "INVALID_PASSWORD")
		default:
			grant(w)
		}
	})

	mux.HandleFunc("/accounts:signUp", func(w http.ResponseWriter, r *http.Request) {
		f.record("signUp")

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		if payload["email"] == "ada@example.com" {
			writeToolkitError(w, "EMAIL_EXISTS")
			return
		}
		grant(w)
	})

	mux.HandleFunc("/accounts:signInWithIdp", func(w http.ResponseWriter, r *http.Request) {
		f.record("signInWithIdp")

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Contains(t, payload["postBody"], "providerId=google.com")
		assert.NotEmpty(t, payload["sessionId"])

		json.NewEncoder(w).Encode(map[string]any{
			"localId":      "uid-1",
			"email":        "ada@example.com",
			"providerId":   "google.com",
			"idToken":      "id-token-1",
			"refreshToken": "refresh-1",
			"expiresIn":    "3600",
		})
	})

	mux.HandleFunc("/accounts:sendOobCode", func(w http.ResponseWriter, r *http.Request) {
		f.record("sendOobCode")

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.NotEmpty(t, payload["requestType"])
		assert.NotEmpty(t, payload["continueUrl"])

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{}"))
	})

	mux.HandleFunc("/accounts:lookup", func(w http.ResponseWriter, r *http.Request) {
		f.record("lookup")

		json.NewEncoder(w).Encode(map[string]any{
			"users": []map[string]any{{
				"localId":       "uid-1",
				"email":         "ada@example.com",
				"emailVerified": true,
				"displayName":   "Ada L.",
			}},
		})
	})

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.record("token")

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "refresh-1", r.Form.Get("refresh_token"))

		json.NewEncoder(w).Encode(map[string]any{
			"id_token":      "id-token-2",
			"refresh_token": "refresh-2",
			"expires_in":    "3600",
		})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func writeToolkitError(w http.ResponseWriter, code string) {
	w.WriteHeader(http.StatusBadRequest)
	fmt.Fprintf(w, `{"error":{"code":400,"message":"%s"}}`, code)
}

func (f *fakeToolkit) client(t *testing.T, source identitytoolkit.CredentialSource) *identitytoolkit.Client {
	t.Helper()

	client, err := identitytoolkit.New(identitytoolkit.Config{
		APIKey:              "test-key",
		Endpoint:            f.server.URL,
		SecureTokenEndpoint: f.server.URL,
		CredentialSource:    source,
	})
	require.NoError(t, err)
	return client
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := identitytoolkit.New(identitytoolkit.Config{})
	assert.Error(t, err)
}

func TestClient_SignInWithPassword(t *testing.T) {
	f := newFakeToolkit(t)
	client := f.client(t, nil)

	record, err := client.SignInWithPassword(context.Background(), "ada@example.com", "hunter22")
	require.NoError(t, err)

	assert.Equal(t, "uid-1", record.UID)
	assert.Equal(t, "ada@example.com", record.Email)
	assert.Equal(t, "Ada", record.DisplayName)
	assert.Empty(t, record.ProviderData)
	require.NotNil(t, record.TokenManager)
	assert.Equal(t, "id-token-1", record.TokenManager.AccessToken)
	assert.Equal(t, "refresh-1", record.TokenManager.RefreshToken)

	require.NotNil(t, client.CurrentUser())
}

func TestClient_SignInWithPassword_ErrorMapping(t *testing.T) {
	f := newFakeToolkit(t)
	client := f.client(t, nil)

	t.Run("unknown email", func(t *testing.T) {
		_, err := client.SignInWithPassword(context.Background(), "nobody@example.com", "hunter22")
		assert.True(t, authclient.IsProviderCode(err, authclient.CodeUserNotFound))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := client.SignInWithPassword(context.Background(), "ada@example.com", "nope")
		require.Error(t, err)
		assert.True(t, authclient.IsProviderCode(err, authclient.CodeWrongPassword))
		assert.Equal(t, "The email or password you entered is incorrect.", authclient.TranslateError(err))
	})
}

func TestClient_SignUp_EmailExists(t *testing.T) {
	f := newFakeToolkit(t)
	client := f.client(t, nil)

	_, err := client.SignUp(context.Background(), "ada@example.com", "hunter22")
	assert.True(t, authclient.IsProviderCode(err, authclient.CodeEmailAlreadyInUse))
}

func TestClient_SignInWithProvider(t *testing.T) {
	f := newFakeToolkit(t)
	client := f.client(t, func(ctx context.Context, spec social.Spec) (social.Credential, error) {
		return social.Credential{
			ProviderID: spec.ProviderID,
			IDToken:    "google-id-token",
		}, nil
	})

	record, err := client.SignInWithProvider(context.Background(), social.Google())
	require.NoError(t, err)

	require.Len(t, record.ProviderData, 1)
	assert.Equal(t, "google.com", record.ProviderData[0].ProviderID)
}

func TestClient_SignInWithProvider_NoSource(t *testing.T) {
	f := newFakeToolkit(t)
	client := f.client(t, nil)

	_, err := client.SignInWithProvider(context.Background(), social.Google())
	assert.True(t, authclient.IsProviderCode(err, authclient.CodeOperationNotAllowed))
}

func TestClient_IDToken(t *testing.T) {
	f := newFakeToolkit(t)
	client := f.client(t, nil)

	_, err := client.SignInWithPassword(context.Background(), "ada@example.com", "hunter22")
	require.NoError(t, err)

	t.Run("cached while fresh", func(t *testing.T) {
		token, err := client.IDToken(context.Background(), false)
		require.NoError(t, err)
		assert.Equal(t, "id-token-1", token)
		assert.NotContains(t, f.seen(), "token")
	})

	t.Run("forced refresh rotates", func(t *testing.T) {
		token, err := client.IDToken(context.Background(), true)
		require.NoError(t, err)
		assert.Equal(t, "id-token-2", token)
		assert.Contains(t, f.seen(), "token")
	})

	t.Run("rotated token is the new cached one", func(t *testing.T) {
		token, err := client.IDToken(context.Background(), false)
		require.NoError(t, err)
		assert.Equal(t, "id-token-2", token)
	})
}

func TestClient_IDToken_SignedOut(t *testing.T) {
	f := newFakeToolkit(t)
	client := f.client(t, nil)

	_, err := client.IDToken(context.Background(), true)
	assert.True(t, authclient.IsProviderCode(err, authclient.CodeInvalidUserToken))
}

func TestClient_SubscribeAndSignOut(t *testing.T) {
	f := newFakeToolkit(t)
	client := f.client(t, nil)

	var notifications []*authclient.UserRecord
	unsubscribe := client.Subscribe(func(r *authclient.UserRecord) {
		notifications = append(notifications, r)
	})
	defer unsubscribe()

	require.Len(t, notifications, 1)
	assert.Nil(t, notifications[0])

	_, err := client.SignInWithPassword(context.Background(), "ada@example.com", "hunter22")
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	require.NotNil(t, notifications[1])

	require.NoError(t, client.SignOut(context.Background()))
	require.Len(t, notifications, 3)
	assert.Nil(t, notifications[2])
	assert.Nil(t, client.CurrentUser())
}

func TestClient_Reload(t *testing.T) {
	f := newFakeToolkit(t)
	client := f.client(t, nil)

	_, err := client.SignInWithPassword(context.Background(), "ada@example.com", "hunter22")
	require.NoError(t, err)
	require.False(t, client.CurrentUser().EmailVerified)

	require.NoError(t, client.Reload(context.Background()))

	current := client.CurrentUser()
	assert.True(t, current.EmailVerified)
	assert.Equal(t, "Ada L.", current.DisplayName)
}

func TestClient_SendOobCodes(t *testing.T) {
	f := newFakeToolkit(t)
	client := f.client(t, nil)

	require.NoError(t, client.SendPasswordResetEmail(context.Background(), "ada@example.com", "https://app/login"))

	// Verification requires a session.
	err := client.SendEmailVerification(context.Background(), "https://app/register")
	assert.True(t, authclient.IsProviderCode(err, authclient.CodeInvalidUserToken))

	_, err = client.SignInWithPassword(context.Background(), "ada@example.com", "hunter22")
	require.NoError(t, err)
	require.NoError(t, client.SendEmailVerification(context.Background(), "https://app/register"))
}

func TestClient_CurrentUserIsACopy(t *testing.T) {
	f := newFakeToolkit(t)
	client := f.client(t, nil)

	_, err := client.SignInWithPassword(context.Background(), "ada@example.com", "hunter22")
	require.NoError(t, err)

	first := client.CurrentUser()
	first.Email = "mutated@example.com"
	first.TokenManager.AccessToken = "mutated"

	second := client.CurrentUser()
	assert.Equal(t, "ada@example.com", second.Email)
	assert.Equal(t, "id-token-1", second.TokenManager.AccessToken)
}

func TestClient_WorksWithOrchestrator(t *testing.T) {
	f := newFakeToolkit(t)
	client := f.client(t, nil)

	backendCalls := 0
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backendCalls++
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(backend.Close)

	cfg := authclient.Config{API: authclient.APIEndpoints{Login: backend.URL}}
	scope, err := authclient.NewScope(client, cfg, func(o *authclient.Orchestrator) {
		o.WithStorage(authclient.NewMemoryStorage()).WithSettleDelay(0)
	})
	require.NoError(t, err)
	t.Cleanup(scope.Close)

	// The claims exchange fails on the token re-read because the fake mints
	// opaque tokens, but the provider grant and backend call both ran.
	_ = scope.SignInWithEmail(context.Background(), "ada@example.com", "hunter22")

	assert.Contains(t, f.seen(), "signInWithPassword")
	assert.Equal(t, 1, backendCalls)
}

func TestIsProviderCodeAcrossWire(t *testing.T) {
	tests := []struct {
		wire string
		code string
	}{
		{"EMAIL_NOT_FOUND", authclient.CodeUserNotFound},
		{"INVALID_PASSWORD", authclient.CodeWrongPassword},
		{"EMAIL_EXISTS", authclient.CodeEmailAlreadyInUse},
		{"WEAK_PASSWORD : Password should be at least 6 characters", authclient.CodeWeakPassword},
		{"TOO_MANY_ATTEMPTS_TRY_LATER", authclient.CodeTooManyRequests},
		{"TOKEN_EXPIRED", authclient.CodeUserTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"code": 400, "message": tt.wire},
				})
			}))
			t.Cleanup(server.Close)

			client, err := identitytoolkit.New(identitytoolkit.Config{
				APIKey:   "test-key",
				Endpoint: server.URL,
			})
			require.NoError(t, err)

			_, err = client.SignInWithPassword(context.Background(), "x@example.com", "y")
			assert.True(t, authclient.IsProviderCode(err, tt.code))
		})
	}
}
