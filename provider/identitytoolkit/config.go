package identitytoolkit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goliatone/go-auth-client/social"
)

const (
	defaultEndpoint            = "https://identitytoolkit.googleapis.com/v1"
	defaultSecureTokenEndpoint = "https://securetoken.googleapis.com/v1"
	defaultJWKSEndpoint        = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

// CredentialSource obtains the federated IdP credential for a provider
// spec. Applications supply their own interaction (system browser, device
// flow); tests supply a stub.
type CredentialSource func(ctx context.Context, spec social.Spec) (social.Credential, error)

// Config holds the Identity Toolkit project configuration.
type Config struct {
	// APIKey is the project's web API key.
	APIKey string

	// ProjectID is used for issuer/audience checks by the token validator.
	ProjectID string

	// Endpoint overrides the Identity Toolkit API base URL (emulators, tests).
	Endpoint string

	// SecureTokenEndpoint overrides the token refresh base URL.
	SecureTokenEndpoint string

	// JWKSEndpoint overrides the JWKS URL used by the token validator.
	JWKSEndpoint string

	// CredentialSource supplies federated IdP credentials. Required only
	// when federated sign-in is used.
	CredentialSource CredentialSource

	HTTPClient *http.Client
}

func (c Config) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("identitytoolkit: API key is required")
	}
	return nil
}

func (c Config) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return defaultEndpoint
}

func (c Config) secureTokenEndpoint() string {
	if c.SecureTokenEndpoint != "" {
		return c.SecureTokenEndpoint
	}
	return defaultSecureTokenEndpoint
}

func (c Config) jwksEndpoint() string {
	if c.JWKSEndpoint != "" {
		return c.JWKSEndpoint
	}
	return defaultJWKSEndpoint
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}
