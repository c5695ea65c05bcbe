// Package authclient provides client-side session and authentication
// orchestration on top of an injected identity provider client.
//
// Session lifecycle:
//   - A Scope owns exactly one Orchestrator. The orchestrator subscribes to
//     the identity client's auth-state stream, projects every notification
//     into a SessionUser, and mirrors the raw record into the configured
//     Storage. Consumers read session state through the scope, never through
//     ambient globals.
//   - Interactive flows (password and federated sign-in, registration,
//     sign-out, password reset, email verification) sequence the provider
//     call, the backend claims exchange, a settle delay, and the persisted
//     token/claims refresh. Every flow returns an error whose message is
//     already user-facing; UserMessage extracts it at render sites.
//
// Collaborators:
//   - IdentityClient abstracts the identity provider SDK. Implementations
//     live under provider/ (identitytoolkit for the wire API, memory for
//     tests and offline development).
//   - Storage abstracts persistent key-value state. A nil Storage is valid
//     and turns persistence into a no-op for non-interactive contexts.
//   - Navigator abstracts redirects. The no-op default never navigates.
//
// Entitlement checks (IsPremiumUser, IsAdminUser) are synchronous reads of
// the persisted claims snapshot and never touch the network.
package authclient
