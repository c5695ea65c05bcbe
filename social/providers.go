package social

// Provider identifiers, matching the identity provider's wire values.
const (
	ProviderGoogle   = "google.com"
	ProviderApple    = "apple.com"
	ProviderFacebook = "facebook.com"
	ProviderTwitter  = "twitter.com"
	ProviderGitHub   = "github.com"
)

// Google returns the Google sign-in spec.
func Google(opts ...Option) Spec {
	return newSpec(ProviderGoogle, nil, opts...)
}

// Apple returns the Apple sign-in spec. Apple only releases the user's email
// and name when those scopes are requested explicitly.
func Apple(opts ...Option) Spec {
	return newSpec(ProviderApple, []string{"email", "name"}, opts...)
}

// Facebook returns the Facebook sign-in spec.
func Facebook(opts ...Option) Spec {
	return newSpec(ProviderFacebook, nil, opts...)
}

// Twitter returns the Twitter/X sign-in spec.
func Twitter(opts ...Option) Spec {
	return newSpec(ProviderTwitter, nil, opts...)
}

// GitHub returns the GitHub sign-in spec.
func GitHub(opts ...Option) Spec {
	return newSpec(ProviderGitHub, nil, opts...)
}
