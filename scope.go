package authclient

import "context"

var scopeCtxKey = &contextKey{"scope"}

type contextKey struct {
	name string
}

// Scope owns exactly one orchestrator for its lifetime. It is the unit of
// session state: one scope, one subscription, one SessionState.
type Scope struct {
	*Orchestrator
}

// NewScope builds and starts a scope. It fails fast when the identity
// client has not been constructed, so the mistake surfaces where the scope
// is wired, not at first read. Configure functions run before the state
// subscription starts, so the initial notification already lands in the
// configured storage:
//
//	scope, err := authclient.NewScope(client, cfg, func(o *authclient.Orchestrator) {
//		o.WithStorage(store).WithNavigator(nav)
//	})
func NewScope(client IdentityClient, cfg Config, configure ...func(*Orchestrator)) (*Scope, error) {
	orch, err := NewOrchestrator(client, cfg)
	if err != nil {
		return nil, err
	}

	for _, fn := range configure {
		if fn != nil {
			fn(orch)
		}
	}

	return &Scope{Orchestrator: orch.Start()}, nil
}

// Close tears down the scope's subscription.
func (s *Scope) Close() {
	s.Orchestrator.Close()
}

// WithScope sets the scope in the given context.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeCtxKey, scope)
}

// FromContext finds the scope in the context. Reading session state outside
// an enclosing scope is a programming error and is reported as such rather
// than yielding a default.
func FromContext(ctx context.Context) (*Scope, error) {
	scope, ok := ctx.Value(scopeCtxKey).(*Scope)
	if !ok || scope == nil {
		return nil, ErrScopeNotFound
	}
	return scope, nil
}

// MustFromContext is FromContext for call sites that cannot recover.
func MustFromContext(ctx context.Context) *Scope {
	scope, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return scope
}
