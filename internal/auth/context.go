package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
)

type ctxKey string

const principalCtxKey ctxKey = "principal"

func WithPrincipal(ctx context.Context, principal domain.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, principal)
}

// PrincipalFrom returns the zero principal for anonymous requests.
func PrincipalFrom(ctx context.Context) domain.Principal {
	principal, _ := ctx.Value(principalCtxKey).(domain.Principal)
	return principal
}

// Middleware attaches the principal of a valid Authorization token to the
// request context. Requests without a valid token continue anonymously and
// fail later in any operation that needs a user.
func Middleware(tokens *TokenManager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := tokens.Verify(raw)
			if err != nil {
				logger.Debug("rejected token", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
