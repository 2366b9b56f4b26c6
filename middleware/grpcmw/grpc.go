// Package grpcmw provides gRPC interceptors applying the guard
// contract to unary and stream calls.
//
// The session is derived from the "authorization" metadata entry. A
// missing or underivable token maps to Unauthenticated; a role
// mismatch maps to PermissionDenied. On success the session is stored
// in the context via authguard.WithUser and friends.
package grpcmw

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	authguard "github.com/medassur/authguard-go"
	"github.com/medassur/authguard-go/audit"
)

// AuthOption configures interceptor behavior.
type AuthOption func(*authConfig)

type authConfig struct {
	excludedMethods map[string]bool
	required        []authguard.Role
	audit           *audit.Logger
}

// WithExcludedMethods sets gRPC methods that skip authentication.
// Methods should be fully qualified (e.g. "/package.Service/Method").
func WithExcludedMethods(methods ...string) AuthOption {
	return func(cfg *authConfig) {
		for _, m := range methods {
			cfg.excludedMethods[m] = true
		}
	}
}

// WithRequiredRoles restricts all intercepted methods to sessions
// holding at least one of the given roles.
func WithRequiredRoles(roles ...authguard.Role) AuthOption {
	return func(cfg *authConfig) { cfg.required = roles }
}

// WithAudit records role denials as audit events.
func WithAudit(l *audit.Logger) AuthOption {
	return func(cfg *authConfig) { cfg.audit = l }
}

// UnaryAuth returns a unary server interceptor that derives the session
// from request metadata and enforces the configured roles.
func UnaryAuth(deriver authguard.SessionDeriver, opts ...AuthOption) grpc.UnaryServerInterceptor {
	cfg := newConfig(opts)

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if cfg.excludedMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		ctx, err := authorize(ctx, deriver, cfg, info.FullMethod)
		if err != nil {
			return nil, err
		}

		return handler(ctx, req)
	}
}

// StreamAuth returns a stream server interceptor that derives the
// session from request metadata and enforces the configured roles.
func StreamAuth(deriver authguard.SessionDeriver, opts ...AuthOption) grpc.StreamServerInterceptor {
	cfg := newConfig(opts)

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if cfg.excludedMethods[info.FullMethod] {
			return handler(srv, ss)
		}

		ctx, err := authorize(ss.Context(), deriver, cfg, info.FullMethod)
		if err != nil {
			return err
		}

		wrapped := &wrappedStream{ServerStream: ss, ctx: ctx}
		return handler(srv, wrapped)
	}
}

func newConfig(opts []AuthOption) *authConfig {
	cfg := &authConfig{excludedMethods: make(map[string]bool)}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// authorize runs authenticate and records role denials.
func authorize(ctx context.Context, deriver authguard.SessionDeriver, cfg *authConfig, method string) (context.Context, error) {
	newCtx, err := authenticate(ctx, deriver, cfg.required)
	if err != nil && status.Code(err) == codes.PermissionDenied {
		auditDenied(ctx, cfg.audit, deriver, method)
	}
	return newCtx, err
}

// auditDenied emits a guard_denied event. The denial path re-derives
// the session to name the denied principal; it only runs on failures.
func auditDenied(ctx context.Context, l *audit.Logger, deriver authguard.SessionDeriver, method string) {
	if l == nil {
		return
	}
	username := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if tok := extractBearerFromMD(md); tok != "" {
			if u := deriver.DeriveUser(tok); u != nil {
				username = u.Username
			}
		}
	}
	l.Log(audit.Event{
		Action:    "guard_denied",
		Result:    "denied",
		Username:  username,
		Details:   method,
		RequestID: audit.RequestID(ctx),
	})
}

// authenticate derives the session from metadata and enriches the
// context with it.
func authenticate(ctx context.Context, deriver authguard.SessionDeriver, required []authguard.Role) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx, status.Error(codes.Unauthenticated, "missing metadata")
	}

	tok := extractBearerFromMD(md)
	if tok == "" {
		return ctx, status.Error(codes.Unauthenticated, "missing authorization token")
	}

	if deriver.IsExpired(tok) {
		return ctx, status.Error(codes.Unauthenticated, "token expired")
	}

	user := deriver.DeriveUser(tok)
	if user == nil {
		return ctx, status.Error(codes.Unauthenticated, "invalid token")
	}

	if len(required) > 0 && !authguard.HasAnyRole(user.Roles, required) {
		return ctx, status.Error(codes.PermissionDenied, "access denied")
	}

	ctx = authguard.WithUser(ctx, user)
	ctx = authguard.WithRoles(ctx, user.Roles)
	ctx = authguard.WithToken(ctx, tok)

	return ctx, nil
}

func extractBearerFromMD(md metadata.MD) string {
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	parts := strings.SplitN(vals[0], " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// wrappedStream wraps grpc.ServerStream to override Context().
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}
