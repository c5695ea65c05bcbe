package authclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the opaque authorization bag decoded from the provider's token
// result. The backend mints entries like activeSub and admin; everything
// else passes through untouched.
type Claims map[string]any

// Bool returns the named claim as a bool, false when absent or not a bool.
func (c Claims) Bool(key string) bool {
	if c == nil {
		return false
	}
	v, ok := c[key].(bool)
	return ok && v
}

// String returns the named claim as a string, "" when absent.
func (c Claims) String(key string) string {
	if c == nil {
		return ""
	}
	s, _ := c[key].(string)
	return s
}

// ActiveSub reports whether the claims carry an active subscription.
func (c Claims) ActiveSub() bool {
	return c.Bool("activeSub")
}

// Admin reports whether the claims carry the admin flag.
func (c Claims) Admin() bool {
	return c.Bool("admin")
}

// ClaimsFromToken projects the claims bag out of a raw ID token without
// verifying its signature. Verification, when wanted, happens in the
// provider's token validator; this projection mirrors what the SDK exposes
// on its token result.
func ClaimsFromToken(raw string) (Claims, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}

	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, err
	}

	return Claims(claims), nil
}

// TokenResultFromToken decodes a raw ID token into a TokenResult, carrying
// the registered timestamps and the sign-in provider when present.
func TokenResultFromToken(raw string) (*TokenResult, error) {
	claims, err := ClaimsFromToken(raw)
	if err != nil {
		return nil, err
	}

	res := &TokenResult{
		Token:  raw,
		Claims: claims,
	}

	if iat, ok := claims["iat"].(float64); ok {
		t := time.Unix(int64(iat), 0).UTC()
		res.IssuedAt = &t
	}
	if exp, ok := claims["exp"].(float64); ok {
		t := time.Unix(int64(exp), 0).UTC()
		res.ExpiresAt = &t
	}
	if firebase, ok := claims["firebase"].(map[string]any); ok {
		if sp, ok := firebase["sign_in_provider"].(string); ok {
			res.SignInProvider = sp
		}
	}

	return res, nil
}
