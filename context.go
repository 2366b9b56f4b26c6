package authguard

import "context"

type ctxKey string

const (
	ctxKeyUser  ctxKey = "authguard_user"
	ctxKeyRoles ctxKey = "authguard_roles"
	ctxKeyToken ctxKey = "authguard_token"
)

// WithUser stores the authenticated session in the context.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

// UserFromContext extracts the authenticated session from the context.
func UserFromContext(ctx context.Context) *User {
	v, _ := ctx.Value(ctxKeyUser).(*User)
	return v
}

// WithRoles stores the session's roles in the context.
func WithRoles(ctx context.Context, roles []Role) context.Context {
	return context.WithValue(ctx, ctxKeyRoles, roles)
}

// RolesFromContext extracts the session's roles from the context.
func RolesFromContext(ctx context.Context) []Role {
	v, _ := ctx.Value(ctxKeyRoles).([]Role)
	return v
}

// WithToken stores the raw bearer token in the context.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyToken, token)
}

// TokenFromContext extracts the raw bearer token from the context.
func TokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyToken).(string)
	return v
}
