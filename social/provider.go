// Package social describes federated sign-in providers consumed by an
// identity client. A Spec names the provider and the grant parameters; the
// identity client owns the actual popup/browser interaction and token
// exchange.
package social

// Spec describes one federated provider grant request.
type Spec struct {
	// ProviderID is the provider identifier, e.g. "google.com".
	ProviderID string

	// Scopes are the OAuth scopes requested on top of the provider defaults.
	Scopes []string

	// CustomParameters are provider-specific grant parameters.
	CustomParameters map[string]string
}

// Option configures a provider Spec.
type Option func(*Spec)

// WithScopes appends scopes to the grant request.
func WithScopes(scopes ...string) Option {
	return func(s *Spec) {
		s.Scopes = append(s.Scopes, scopes...)
	}
}

// WithCustomParameter sets a provider-specific grant parameter.
func WithCustomParameter(key, value string) Option {
	return func(s *Spec) {
		if s.CustomParameters == nil {
			s.CustomParameters = map[string]string{}
		}
		s.CustomParameters[key] = value
	}
}

func newSpec(providerID string, scopes []string, opts ...Option) Spec {
	spec := Spec{
		ProviderID: providerID,
		Scopes:     append([]string(nil), scopes...),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&spec)
		}
	}
	return spec
}

// Credential is the IdP material an identity client exchanges for a
// provider session: exactly one of IDToken or AccessToken is typically set,
// with OAuthTokenSecret accompanying OAuth 1.0a providers (Twitter).
type Credential struct {
	ProviderID       string
	IDToken          string
	AccessToken      string
	OAuthTokenSecret string
	Nonce            string
}
