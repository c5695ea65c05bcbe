package authclient

import (
	"errors"
	"regexp"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	msgNetwork  = "Network error. Please check your connection and try again."
	msgFallback = "An unexpected error occurred. Please try again."

	// providerPrefix marks raw SDK messages that carry a vendor prefix and a
	// trailing parenthesized code, e.g. "Firebase: Something bad. (auth/x).".
	providerPrefix = "Firebase: "
)

var trailingCodePattern = regexp.MustCompile(`\(auth\/.*\)\.?`)

// userMessages maps canonical provider error codes to user-facing sentences.
var userMessages = map[string]string{
	"auth/wrong-password":                        "The email or password you entered is incorrect.",
	"auth/user-not-found":                        "The email or password you entered is incorrect.",
	"auth/invalid-email":                         "Please enter a valid email address.",
	"auth/user-disabled":                         "This account has been disabled. Please contact support.",
	"auth/email-already-in-use":                  "An account with this email already exists.",
	"auth/weak-password":                         "Please choose a stronger password (at least 6 characters).",
	"auth/operation-not-allowed":                 "This sign-in method is not enabled. Please contact support.",
	"auth/account-exists-with-different-credential": "An account already exists with this email. Please sign in using your original method.",
	"auth/invalid-credential":                    "The credentials provided are invalid or have expired.",
	"auth/invalid-verification-code":             "The verification code is invalid.",
	"auth/invalid-verification-id":               "The verification ID is invalid.",
	"auth/missing-verification-code":             "Please enter the verification code.",
	"auth/missing-verification-id":               "Verification ID is missing.",
	"auth/requires-recent-login":                 "For security reasons, please log in again to complete this action.",
	"auth/too-many-requests":                     "Too many failed attempts. Please try again later.",
	"auth/popup-blocked":                         "Sign-in popup was blocked by your browser. Please allow popups and try again.",
	"auth/popup-closed-by-user":                  "Sign-in was cancelled. Please try again.",
	"auth/cancelled-popup-request":               "Sign-in was cancelled. Please try again.",
	"auth/network-request-failed":                msgNetwork,
	"auth/timeout":                               "The operation timed out. Please try again.",
	"auth/app-deleted":                           "Authentication service error. Please refresh and try again.",
	"auth/invalid-api-key":                       "Configuration error. Please contact support.",
	"auth/unauthorized-domain":                   "This domain is not authorized for authentication.",
	"auth/user-token-expired":                    "Your session has expired. Please sign in again.",
	"auth/invalid-user-token":                    "Your session is invalid. Please sign in again.",
	"auth/email-not-verified":                    "Please verify your email address before continuing.",
}

// TranslateError turns a provider error into a user-facing sentence. It
// accepts strings (returned unchanged), *ProviderError values, and arbitrary
// errors. It never panics and always returns a non-empty string.
func TranslateError(v any) string {
	switch err := v.(type) {
	case nil:
		return msgFallback
	case string:
		return err
	case error:
		return translate(providerCode(err), rawMessage(err))
	default:
		return msgFallback
	}
}

// HandleAuthError logs the raw error before delegating to TranslateError.
func HandleAuthError(logger Logger, v any) string {
	if logger == nil {
		logger = defLogger{}
	}
	logger.Error("auth error: %v", v)
	return TranslateError(v)
}

// UserMessage extracts the user-facing text from an error returned by an
// orchestrator flow. Flow errors are wrapped rich errors whose message is
// already translated; anything else goes through TranslateError.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Message != "" {
		return rich.Message
	}

	return TranslateError(err)
}

func translate(code, message string) string {
	if code != "" {
		if msg, ok := userMessages[code]; ok {
			return msg
		}
	}

	if code == CodeNetworkSentinel || strings.Contains(message, "network") {
		return msgNetwork
	}

	if strings.Contains(message, providerPrefix) {
		cleaned := strings.Replace(message, providerPrefix, "", 1)
		cleaned = trailingCodePattern.ReplaceAllString(cleaned, "")
		return strings.TrimSpace(cleaned)
	}

	if message == "" {
		return msgFallback
	}

	return message
}

func providerCode(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.code()
	}
	return ""
}

func rawMessage(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
