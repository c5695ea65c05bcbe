package identitytoolkit

import (
	"context"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	authclient "github.com/goliatone/go-auth-client"
)

const secureTokenIssuerPrefix = "https://securetoken.google.com/"

// TokenValidator verifies provider-issued ID tokens against the project's
// JWKS. It is optional: the orchestrator itself only ever projects claims
// without verification, the way the hosted SDK does.
type TokenValidator struct {
	config Config
	jwks   *keyfunc.JWKS
}

// NewTokenValidator fetches the signing keys and returns a validator.
// The JWKS refreshes in the background until ctx is cancelled.
func NewTokenValidator(ctx context.Context, cfg Config) (*TokenValidator, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("identitytoolkit: project ID is required for token validation")
	}

	jwks, err := keyfunc.Get(cfg.jwksEndpoint(), keyfunc.Options{
		Ctx:             ctx,
		RefreshInterval: time.Hour,
		RefreshErrorHandler: func(err error) {
			// Stale keys keep working until the next successful refresh.
		},
	})
	if err != nil {
		return nil, fmt.Errorf("identitytoolkit: fetch JWKS: %w", err)
	}

	return &TokenValidator{config: cfg, jwks: jwks}, nil
}

// Validate checks the token's signature, issuer, and audience, and returns
// its claims bag.
func (v *TokenValidator) Validate(raw string) (authclient.Claims, error) {
	claims := jwt.MapClaims{}

	_, err := jwt.ParseWithClaims(raw, claims, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(secureTokenIssuerPrefix+v.config.ProjectID),
		jwt.WithAudience(v.config.ProjectID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, authclient.NewProviderError(authclient.CodeInvalidUserToken, err.Error())
	}

	return authclient.Claims(claims), nil
}

// Close stops the background JWKS refresh.
func (v *TokenValidator) Close() {
	v.jwks.EndBackground()
}
