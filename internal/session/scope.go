package session

import "context"

// DefaultScope is used when no caller scope is bound to the context.
const DefaultScope = "default"

type scopeKey struct{}

// WithScope binds the caller's session scope to ctx. The current-user and
// admin-flag entries are keyed by it.
func WithScope(ctx context.Context, scope string) context.Context {
	if scope == "" {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFromContext returns the bound scope or DefaultScope.
func ScopeFromContext(ctx context.Context) string {
	if scope, ok := ctx.Value(scopeKey{}).(string); ok && scope != "" {
		return scope
	}
	return DefaultScope
}

func userKey(ctx context.Context) string {
	return "session:" + ScopeFromContext(ctx) + ":user"
}

func adminKey(ctx context.Context) string {
	return "session:" + ScopeFromContext(ctx) + ":admin"
}

func refreshKey(employeeID string) string {
	return "refresh:" + employeeID
}
