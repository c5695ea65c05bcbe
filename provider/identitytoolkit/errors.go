package identitytoolkit

import (
	"encoding/json"
	"strings"

	authclient "github.com/goliatone/go-auth-client"
)

// restCodeMap translates Identity Toolkit wire codes onto the canonical
// auth/* codes the error translator understands.
var restCodeMap = map[string]string{
	"EMAIL_NOT_FOUND":                authclient.CodeUserNotFound,
	"USER_NOT_FOUND":                 authclient.CodeUserNotFound,
	"INVALID_PASSWORD":               authclient.CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":      authclient.CodeInvalidCredential,
	"INVALID_IDP_RESPONSE":           authclient.CodeInvalidCredential,
	"INVALID_EMAIL":                  authclient.CodeInvalidEmail,
	"USER_DISABLED":                  authclient.CodeUserDisabled,
	"EMAIL_EXISTS":                   authclient.CodeEmailAlreadyInUse,
	"WEAK_PASSWORD":                  authclient.CodeWeakPassword,
	"OPERATION_NOT_ALLOWED":          authclient.CodeOperationNotAllowed,
	"TOO_MANY_ATTEMPTS_TRY_LATER":    authclient.CodeTooManyRequests,
	"TOKEN_EXPIRED":                  authclient.CodeUserTokenExpired,
	"INVALID_ID_TOKEN":               authclient.CodeInvalidUserToken,
	"INVALID_REFRESH_TOKEN":          authclient.CodeInvalidUserToken,
	"MISSING_REFRESH_TOKEN":          authclient.CodeInvalidUserToken,
	"CREDENTIAL_TOO_OLD_LOGIN_AGAIN": authclient.CodeRequiresRecentLogin,
	"FEDERATED_USER_ID_ALREADY_LINKED": authclient.CodeCredentialConflict,
	"EMAIL_CHANGE_NEEDS_VERIFICATION":  authclient.CodeEmailNotVerified,
}

// mapRESTError turns an Identity Toolkit error body into a coded
// ProviderError. Wire messages sometimes carry detail after a colon, e.g.
// "WEAK_PASSWORD : Password should be at least 6 characters".
func mapRESTError(body []byte) error {
	var payload struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &payload); err != nil || payload.Error.Message == "" {
		return authclient.NewProviderError("", strings.TrimSpace(string(body)))
	}

	wireCode := payload.Error.Message
	detail := ""
	if idx := strings.IndexAny(wireCode, ": "); idx > 0 {
		detail = strings.TrimSpace(strings.TrimLeft(wireCode[idx:], ": "))
		wireCode = wireCode[:idx]
	}

	if code, ok := restCodeMap[wireCode]; ok {
		return authclient.NewProviderError(code, detail)
	}

	return authclient.NewProviderError("", payload.Error.Message)
}
