package auth

import "context"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type contextKey struct{}

// Principal is the verified identity behind a request.
type Principal struct {
	Username string
	Role     string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

func Username(ctx context.Context) string {
	p, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return p.Username
}

func IsAdmin(ctx context.Context) bool {
	p, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return p.IsAdmin()
}
