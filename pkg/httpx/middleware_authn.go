package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/codereach/platform/pkg/jwtx"
	"github.com/codereach/platform/pkg/slogx"
)

// RequireAuth verifies the bearer token and injects its claims into the
// request context. Only plain access tokens pass: refresh tokens and
// pending-2FA tokens are rejected here no matter how valid their signatures
// are, which is what keeps a half-authenticated login away from protected
// resources.
func RequireAuth(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := bearerToken(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("jwt verify failed", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}
			if claims.TokenType != jwtx.TokenTypeAccess {
				writeBearerError(w, "token not valid for resource access")
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithAuth(ctx, claims)))
		})
	}
}

// OptionalAuth injects claims when a valid access token is present but lets
// anonymous requests straight through. Invalid or wrong-type tokens are
// treated as anonymous rather than rejected.
func OptionalAuth(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if raw, ok := bearerToken(r); ok {
				if claims, err := v.Verify(raw); err == nil && claims.TokenType == jwtx.TokenTypeAccess {
					ctx = contextWithAuth(ctx, claims)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer")), true
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
