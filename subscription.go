package authclient

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// IsPremiumUser reports whether the persisted claims carry an active
// subscription. It reads persisted state only, no network. When redirect is
// true, a missing session record navigates to the login page and a missing
// subscription to the register page.
func (o *Orchestrator) IsPremiumUser(redirect bool) bool {
	if !o.store.HasUser() {
		if redirect {
			o.nav.Replace(o.config.loginPage())
		}
		return false
	}

	claims, _ := o.store.Claims()
	active := claims.ActiveSub()

	if !active && redirect {
		o.nav.Replace(o.config.registerPage())
	}

	return active
}

// IsAdminUser reports the persisted admin flag. It never navigates.
func (o *Orchestrator) IsAdminUser() bool {
	claims, ok := o.store.Claims()
	if !ok {
		return false
	}
	return claims.Admin()
}

// FetchSubscription posts the persisted access token to the subscription
// endpoint and returns the response's sub field. Failures are logged and
// swallowed: callers get nil, matching "no subscription known".
func (o *Orchestrator) FetchSubscription(ctx context.Context) any {
	token, _ := o.store.AccessToken()

	sub, err := o.api.Subscription(ctx, token)
	if err != nil {
		o.logger.Error("fetch subscription: %v", err)
		return nil
	}

	return sub
}

// CancelSubscription requests cancellation with the persisted access token.
// Unlike FetchSubscription, the failure is reported to the caller with a
// user-facing message.
func (o *Orchestrator) CancelSubscription(ctx context.Context) (any, error) {
	token, _ := o.store.AccessToken()

	sub, err := o.api.CancelSubscription(ctx, token)
	if err != nil {
		o.logger.Error("cancel subscription: %v", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, TranslateError(err))
	}

	return sub, nil
}

// OnPaymentSuccess re-runs the claims exchange after an external payment so
// the freshly minted subscription claims land in the persisted snapshot.
// The user is already authenticated, so there is no provider round trip.
// All failures are swallowed; the next entitlement check simply sees the
// old claims.
func (o *Orchestrator) OnPaymentSuccess(ctx context.Context) {
	if o.client.CurrentUser() == nil {
		return
	}

	if err := o.completeExchange(ctx); err != nil {
		o.logger.Error("payment success claims refresh: %v", err)
	}
}
