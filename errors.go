package authclient

import (
	"errors"
	"fmt"
)

// ErrClientNotInitialized is returned when a scope is built without an
// identity client.
var ErrClientNotInitialized = errors.New("identity client not initialized")

// ErrScopeNotFound is returned when session state is read outside an
// enclosing scope.
var ErrScopeNotFound = errors.New("auth scope not found in context; wrap the context with WithScope")

// ErrNoAuthenticatedUser is returned for operations that require a signed-in
// session, such as sending a verification email.
var ErrNoAuthenticatedUser = errors.New("no authenticated user")

// Canonical provider error codes. Implementations of IdentityClient map
// their wire-level codes onto these before surfacing errors.
const (
	CodeWrongPassword         = "auth/wrong-password"
	CodeUserNotFound          = "auth/user-not-found"
	CodeInvalidEmail          = "auth/invalid-email"
	CodeUserDisabled          = "auth/user-disabled"
	CodeEmailAlreadyInUse     = "auth/email-already-in-use"
	CodeWeakPassword          = "auth/weak-password"
	CodeOperationNotAllowed   = "auth/operation-not-allowed"
	CodeCredentialConflict    = "auth/account-exists-with-different-credential"
	CodeInvalidCredential     = "auth/invalid-credential"
	CodeTooManyRequests       = "auth/too-many-requests"
	CodePopupBlocked          = "auth/popup-blocked"
	CodePopupClosed           = "auth/popup-closed-by-user"
	CodePopupCancelled        = "auth/cancelled-popup-request"
	CodeNetworkRequestFailed  = "auth/network-request-failed"
	CodeTimeout               = "auth/timeout"
	CodeUserTokenExpired      = "auth/user-token-expired"
	CodeInvalidUserToken      = "auth/invalid-user-token"
	CodeRequiresRecentLogin   = "auth/requires-recent-login"
	CodeEmailNotVerified      = "auth/email-not-verified"
	CodeNetworkSentinel       = "ERR_NETWORK"
)

// ProviderError is a coded error reported by the identity provider. Code
// holds the canonical auth/* code; ErrorCode is the alternate field some
// transports populate instead.
type ProviderError struct {
	Code      string `json:"code,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (e *ProviderError) Error() string {
	code := e.code()
	if code == "" {
		return e.Message
	}
	if e.Message == "" {
		return code
	}
	return fmt.Sprintf("%s: %s", code, e.Message)
}

func (e *ProviderError) code() string {
	if e.Code != "" {
		return e.Code
	}
	return e.ErrorCode
}

// NewProviderError builds a coded provider error.
func NewProviderError(code, message string) *ProviderError {
	return &ProviderError{Code: code, Message: message}
}

// IsProviderCode reports whether err carries the given provider code.
func IsProviderCode(err error, code string) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.code() == code
}
